// Package storetest is a conformance suite every record store backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database"
)

const (
	alice = "did:plc:alice"
	bob   = "did:plc:bob"
	carol = "did:plc:carol"
)

// Factory returns an empty store with its tables created. It fills in the
// backend fields of opts and keeps the rest.
type Factory func(t *testing.T, opts database.Options) *database.Database

// frozenClock stamps every write with the same millisecond.
func frozenClock() time.Time {
	return time.Date(2022, 11, 1, 10, 0, 0, 0, time.UTC)
}

// Run exercises the store contract. Every subtest gets its own store.
func Run(t *testing.T, makeStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, db *database.Database)
	}{
		{"RoundTrip", testRoundTrip},
		{"DeleteRemovesAllTraces", testDeleteRemovesAllTraces},
		{"DeleteIsIdempotent", testDeleteIsIdempotent},
		{"Pagination", testPagination},
		{"ListCollectionsForDid", testListCollectionsForDid},
		{"Validation", testValidation},
		{"UnknownCollection", testUnknownCollection},
		{"RejectsMalformedURI", testRejectsMalformedURI},
		{"NotificationFanOut", testNotificationFanOut},
		{"UnreadNotifications", testUnreadNotifications},
		{"RepoRoot", testRepoRoot},
		{"Users", testUsers},
		{"FeedFirehose", testFeedFirehose},
		{"FeedReverseChronological", testFeedReverseChronological},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, makeStore(t, database.Options{}))
		})
	}

	frozen := []struct {
		name string
		fn   func(t *testing.T, db *database.Database)
	}{
		{"FeedPagingWithEqualTimestamps", testFeedPagingWithEqualTimestamps},
		{"NotificationPagingWithEqualTimestamps", testNotificationPagingWithEqualTimestamps},
	}

	for _, tc := range frozen {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, makeStore(t, database.Options{Clock: frozenClock}))
		})
	}
}

func uri(did, collection, rkey string) repoindex.RecordURI {
	return repoindex.RecordURI{Did: did, Collection: collection, RecordKey: rkey}
}

func stamp() string {
	return domain.Timestamp(time.Now())
}

func post(text string) map[string]any {
	return map[string]any{
		"$type":     domain.CollectionPost,
		"text":      text,
		"createdAt": stamp(),
	}
}

func subject(collection, target string) map[string]any {
	return map[string]any{
		"$type":     collection,
		"subject":   target,
		"createdAt": stamp(),
	}
}

// tick keeps consecutive writes on distinct millisecond timestamps.
func tick() {
	time.Sleep(3 * time.Millisecond)
}

func testRoundTrip(t *testing.T, db *database.Database) {
	ctx := context.Background()

	u := uri(alice, domain.CollectionPost, "3jui7kd54zh2y")
	obj := post("hello world")
	obj["entities"] = []any{
		map[string]any{"index": []any{float64(0), float64(5)}, "type": "mention", "value": bob},
	}
	obj["reply"] = map[string]any{"root": "at://did:plc:bob/app.bsky.post/1"}

	require.NoError(t, db.IndexRecord(ctx, u, obj))

	got, err := db.GetRecord(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, obj, got)

	collections, err := db.ListCollectionsForDid(ctx, alice)
	require.NoError(t, err)
	assert.Contains(t, collections, domain.CollectionPost)
}

func testDeleteRemovesAllTraces(t *testing.T, db *database.Database) {
	ctx := context.Background()

	target := uri(bob, domain.CollectionPost, "p1")
	require.NoError(t, db.IndexRecord(ctx, target, post("target")))

	reply := uri(alice, domain.CollectionPost, "r1")
	obj := post("reply")
	obj["reply"] = map[string]any{"root": target.String(), "parent": target.String()}
	require.NoError(t, db.IndexRecord(ctx, reply, obj))

	require.NoError(t, db.DeleteRecord(ctx, reply))

	got, err := db.GetRecord(ctx, reply)
	require.NoError(t, err)
	assert.Nil(t, got)

	entries, err := db.ListRecordsForCollection(ctx, domain.ListRecordsQuery{Did: alice, Collection: domain.CollectionPost})
	require.NoError(t, err)
	assert.Empty(t, entries)

	notifs, err := db.ListNotifications(ctx, bob, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	rows, err := db.GetFeedRows(ctx, domain.FeedQuery{Requester: carol, Algorithm: domain.FeedAlgorithmFirehose})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, target.String(), rows[0].PostURI)
	assert.Zero(t, rows[0].ReplyCount)
}

func testDeleteIsIdempotent(t *testing.T, db *database.Database) {
	ctx := context.Background()

	u := uri(alice, domain.CollectionLike, "never-indexed")
	require.NoError(t, db.DeleteRecord(ctx, u))

	require.NoError(t, db.IndexRecord(ctx, u, subject(domain.CollectionLike, "at://did:plc:bob/app.bsky.post/1")))
	require.NoError(t, db.DeleteRecord(ctx, u))
	require.NoError(t, db.DeleteRecord(ctx, u))
}

func testPagination(t *testing.T, db *database.Database) {
	ctx := context.Background()

	keys := []string{"k1", "k2", "k3", "k4", "k5"}
	// insertion order differs from key order
	for _, i := range []int{3, 0, 4, 1, 2} {
		require.NoError(t, db.IndexRecord(ctx, uri(alice, domain.CollectionPost, keys[i]), post(keys[i])))
	}
	require.NoError(t, db.IndexRecord(ctx, uri(bob, domain.CollectionPost, "k0"), post("other repo")))

	list := func(q domain.ListRecordsQuery) []string {
		q.Did = alice
		q.Collection = domain.CollectionPost
		entries, err := db.ListRecordsForCollection(ctx, q)
		require.NoError(t, err)
		var out []string
		for _, e := range entries {
			parsed, err := repoindex.ParseURI(e.URI)
			require.NoError(t, err)
			assert.Equal(t, parsed.RecordKey, e.Value["text"])
			out = append(out, parsed.RecordKey)
		}
		return out
	}

	assert.Equal(t, []string{"k1", "k2"}, list(domain.ListRecordsQuery{Limit: 2}))
	assert.Equal(t, keys, list(domain.ListRecordsQuery{}))

	after := "k2"
	assert.Equal(t, []string{"k3", "k4", "k5"}, list(domain.ListRecordsQuery{After: &after}))

	before := "k4"
	assert.Equal(t, []string{"k3", "k2", "k1"}, list(domain.ListRecordsQuery{Reverse: true, Before: &before}))
	assert.Equal(t, []string{"k1", "k2", "k3"}, list(domain.ListRecordsQuery{Before: &before}))

	assert.Equal(t, []string{"k3"}, list(domain.ListRecordsQuery{After: &after, Before: &before}))
	assert.Equal(t, []string{"k3"}, list(domain.ListRecordsQuery{Reverse: true, After: &after, Before: &before}))

	assert.Equal(t, []string{"k5", "k4"}, list(domain.ListRecordsQuery{Reverse: true, Limit: 2}))
}

func testListCollectionsForDid(t *testing.T, db *database.Database) {
	ctx := context.Background()

	require.NoError(t, db.IndexRecord(ctx, uri(alice, domain.CollectionPost, "a"), post("a")))
	require.NoError(t, db.IndexRecord(ctx, uri(alice, domain.CollectionPost, "b"), post("b")))
	require.NoError(t, db.IndexRecord(ctx, uri(alice, domain.CollectionFollow, "c"), subject(domain.CollectionFollow, bob)))

	collections, err := db.ListCollectionsForDid(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.CollectionFollow, domain.CollectionPost, domain.CollectionPost}, collections)

	none, err := db.ListCollectionsForDid(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testValidation(t *testing.T, db *database.Database) {
	objs := []map[string]any{
		post("valid"),
		{"text": 42},
		subject(domain.CollectionPost, "missing text"),
	}

	for i, obj := range objs {
		verdict := db.ValidateRecord(domain.CollectionPost, obj)
		ok, err := db.CanIndexRecord(domain.CollectionPost, obj)
		require.NoError(t, err)
		assert.Equal(t, verdict.Valid, ok, "object %d", i)
	}

	assert.True(t, db.ValidateRecord(domain.CollectionPost, objs[0]).Valid)
	assert.False(t, db.ValidateRecord(domain.CollectionPost, objs[1]).Valid)

	verdict := db.ValidateRecord("app.bsky.unknown", post("x"))
	assert.False(t, verdict.Valid)
	assert.Equal(t, domain.ValidationIncompatible, verdict.Code)
	assert.Equal(t, "schema not found", verdict.Message)

	_, err := db.CanIndexRecord("app.bsky.unknown", post("x"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func testUnknownCollection(t *testing.T, db *database.Database) {
	ctx := context.Background()
	u := uri(alice, "app.bsky.unknown", "1")

	err := db.IndexRecord(ctx, u, post("x"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	got, err := db.GetRecord(ctx, u)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = db.DeleteRecord(ctx, u)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func testRejectsMalformedURI(t *testing.T, db *database.Database) {
	ctx := context.Background()
	target := "at://did:plc:bob/app.bsky.post/1"

	cases := []repoindex.RecordURI{
		uri("plc:alice", domain.CollectionLike, "1"),
		uri(alice, "", "1"),
		uri(alice, domain.CollectionLike, ""),
	}

	for _, u := range cases {
		err := db.IndexRecord(ctx, u, subject(domain.CollectionLike, target))
		assert.True(t, errors.Is(err, domain.ErrContractViolation), "uri %s: %v", u, err)

		got, err := db.GetRecord(ctx, u)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	notifs, err := db.ListNotifications(ctx, bob, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	collections, err := db.ListCollectionsForDid(ctx, "plc:alice")
	require.NoError(t, err)
	assert.Empty(t, collections)
}

func testNotificationFanOut(t *testing.T, db *database.Database) {
	ctx := context.Background()

	p := uri(bob, domain.CollectionPost, "p1")
	require.NoError(t, db.IndexRecord(ctx, p, post("like me")))

	like := uri(alice, domain.CollectionLike, "l1")
	require.NoError(t, db.IndexRecord(ctx, like, subject(domain.CollectionLike, p.String())))

	notifs, err := db.ListNotifications(ctx, bob, 0, nil)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, bob, notifs[0].UserDid)
	assert.Equal(t, like.String(), notifs[0].RecordURI)
	assert.Equal(t, alice, notifs[0].Author)
	assert.Equal(t, domain.ReasonLike, notifs[0].Reason)
	require.NotNil(t, notifs[0].ReasonSubject)
	assert.Equal(t, p.String(), *notifs[0].ReasonSubject)
	assert.Equal(t, p.String(), notifs[0].Record["subject"])

	others, err := db.ListNotifications(ctx, alice, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, others)

	rows, err := db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0].LikeCount)

	require.NoError(t, db.DeleteRecord(ctx, like))

	notifs, err = db.ListNotifications(ctx, bob, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, notifs)

	rows, err = db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].LikeCount)
}

func testUnreadNotifications(t *testing.T, db *database.Database) {
	ctx := context.Background()

	require.NoError(t, db.RegisterUser(ctx, domain.RegisterUserInput{
		Did: bob, Username: "bob", Email: "bob@example.test", Password: "hunter2",
	}))
	tick()

	for i := 0; i < 3; i++ {
		f := uri(fmt.Sprintf("did:plc:fan%d", i), domain.CollectionFollow, "f")
		require.NoError(t, db.IndexRecord(ctx, f, subject(domain.CollectionFollow, bob)))
		tick()
	}

	count, err := db.CountUnreadNotifications(ctx, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	notifs, err := db.ListNotifications(ctx, bob, 2, nil)
	require.NoError(t, err)
	require.Len(t, notifs, 2)
	assert.Equal(t, "did:plc:fan2", notifs[0].Author)
	assert.Equal(t, "did:plc:fan1", notifs[1].Author)
	assert.False(t, notifs[0].IsRead)

	rest, err := db.ListNotifications(ctx, bob, 2, &notifs[1].Cursor)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "did:plc:fan0", rest[0].Author)

	require.NoError(t, db.UpdateNotificationsSeen(ctx, bob, time.Now()))

	count, err = db.CountUnreadNotifications(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, count)

	notifs, err = db.ListNotifications(ctx, bob, 0, nil)
	require.NoError(t, err)
	for _, n := range notifs {
		assert.True(t, n.IsRead)
	}

	err = db.UpdateNotificationsSeen(ctx, carol, time.Now())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func testRepoRoot(t *testing.T, db *database.Database) {
	ctx := context.Background()

	root, err := db.GetRepoRoot(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, root)

	require.NoError(t, db.UpdateRepoRoot(ctx, alice, "bafyreiaaa"))
	require.NoError(t, db.UpdateRepoRoot(ctx, alice, "bafyreibbb"))
	require.NoError(t, db.UpdateRepoRoot(ctx, bob, "bafyreiccc"))

	root, err = db.GetRepoRoot(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "bafyreibbb", root)

	root, err = db.GetRepoRoot(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bafyreiccc", root)
}

func testUsers(t *testing.T, db *database.Database) {
	ctx := context.Background()

	require.NoError(t, db.RegisterUser(ctx, domain.RegisterUserInput{
		Did: alice, Username: "Alice", Email: "Alice@Example.test", Password: "correct horse",
	}))

	err := db.RegisterUser(ctx, domain.RegisterUserInput{Did: "alice", Username: "x", Email: "x@example.test", Password: "x"})
	assert.True(t, errors.Is(err, domain.ErrContractViolation))

	for _, handle := range []string{"alice", "ALICE", "Alice", alice} {
		user, err := db.GetUser(ctx, handle)
		require.NoError(t, err, handle)
		assert.Equal(t, alice, user.Did)
		assert.Equal(t, "Alice", user.Username)
		assert.NotEqual(t, "correct horse", user.Password)
	}

	user, err := db.GetUserByEmail(ctx, "alice@EXAMPLE.test")
	require.NoError(t, err)
	assert.Equal(t, "Alice@Example.test", user.Email)

	did, err := db.GetUserDid(ctx, "aLiCe")
	require.NoError(t, err)
	assert.Equal(t, alice, did)

	did, err = db.GetUserDid(ctx, "did:plc:unregistered")
	require.NoError(t, err)
	assert.Equal(t, "did:plc:unregistered", did)

	_, err = db.GetUserDid(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = db.GetUser(ctx, "nobody")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	ok, err := db.VerifyUserPassword(ctx, "ALICE", "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.VerifyUserPassword(ctx, "alice", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.UpdateUserPassword(ctx, alice, "battery staple"))

	ok, err = db.VerifyUserPassword(ctx, "alice", "battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.VerifyUserPassword(ctx, "nobody", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	// only A-Z fold, identically on every backend
	require.NoError(t, db.RegisterUser(ctx, domain.RegisterUserInput{
		Did: bob, Username: "Ünal", Email: "Ünal@Example.test", Password: "pw",
	}))
	for _, handle := range []string{"Ünal", "ÜNAL", "ÜnAL"} {
		user, err := db.GetUser(ctx, handle)
		require.NoError(t, err, handle)
		assert.Equal(t, bob, user.Did)
	}
	_, err = db.GetUser(ctx, "ünal")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	user, err = db.GetUserByEmail(ctx, "Ünal@EXAMPLE.TEST")
	require.NoError(t, err)
	assert.Equal(t, bob, user.Did)
}

func testFeedFirehose(t *testing.T, db *database.Database) {
	ctx := context.Background()

	require.NoError(t, db.RegisterUser(ctx, domain.RegisterUserInput{
		Did: bob, Username: "bob", Email: "bob@example.test", Password: "pw",
	}))

	p1 := uri(bob, domain.CollectionPost, "p1")
	require.NoError(t, db.IndexRecord(ctx, p1, post("first")))
	tick()
	p2 := uri(carol, domain.CollectionPost, "p2")
	require.NoError(t, db.IndexRecord(ctx, p2, post("second")))
	tick()
	rp := uri(alice, domain.CollectionRepost, "rp1")
	require.NoError(t, db.IndexRecord(ctx, rp, subject(domain.CollectionRepost, p1.String())))
	tick()
	like := uri(alice, domain.CollectionLike, "l1")
	require.NoError(t, db.IndexRecord(ctx, like, subject(domain.CollectionLike, p1.String())))
	reply := post("reply")
	reply["reply"] = map[string]any{"root": p1.String(), "parent": p1.String()}
	require.NoError(t, db.IndexRecord(ctx, uri(carol, domain.CollectionPost, "p3"), reply))

	rows, err := db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice, Algorithm: domain.FeedAlgorithmFirehose, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// the reply is newest, then the repost of p1
	assert.Equal(t, domain.FeedRowPost, rows[0].Type)
	assert.Equal(t, "at://did:plc:carol/app.bsky.post/p3", rows[0].PostURI)

	repost := rows[1]
	assert.Equal(t, domain.FeedRowRepost, repost.Type)
	assert.Equal(t, p1.String(), repost.PostURI)
	assert.Equal(t, bob, repost.AuthorDid)
	assert.Equal(t, "bob", repost.AuthorName)
	require.NotNil(t, repost.OriginatorDid)
	assert.Equal(t, alice, *repost.OriginatorDid)
	require.NotNil(t, repost.OriginatorName)
	assert.Equal(t, alice, *repost.OriginatorName)
	assert.EqualValues(t, 1, repost.LikeCount)
	assert.EqualValues(t, 1, repost.RepostCount)
	assert.EqualValues(t, 1, repost.ReplyCount)
	require.NotNil(t, repost.RequesterLike)
	assert.Equal(t, like.String(), *repost.RequesterLike)
	require.NotNil(t, repost.RequesterRepost)
	assert.Equal(t, rp.String(), *repost.RequesterRepost)
	assert.Contains(t, repost.RecordRaw, `"first"`)

	assert.Equal(t, p2.String(), rows[2].PostURI)
	assert.Nil(t, rows[2].OriginatorDid)
	assert.Nil(t, rows[2].RequesterLike)

	next, err := db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice, Algorithm: domain.FeedAlgorithmFirehose, Before: &rows[2].Cursor})
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, p1.String(), next[0].PostURI)
	assert.Equal(t, domain.FeedRowPost, next[0].Type)
}

func testFeedReverseChronological(t *testing.T, db *database.Database) {
	ctx := context.Background()

	require.NoError(t, db.IndexRecord(ctx, uri(alice, domain.CollectionFollow, "f1"), subject(domain.CollectionFollow, bob)))

	own := uri(alice, domain.CollectionPost, "own")
	require.NoError(t, db.IndexRecord(ctx, own, post("mine")))
	tick()
	followed := uri(bob, domain.CollectionPost, "b1")
	require.NoError(t, db.IndexRecord(ctx, followed, post("from bob")))
	tick()
	stranger := uri(carol, domain.CollectionPost, "c1")
	require.NoError(t, db.IndexRecord(ctx, stranger, post("from carol")))
	tick()
	// bob reposting carol brings carol's post into alice's feed
	require.NoError(t, db.IndexRecord(ctx, uri(bob, domain.CollectionRepost, "r1"), subject(domain.CollectionRepost, stranger.String())))

	rows, err := db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice, Algorithm: domain.FeedAlgorithmReverseChronological})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, domain.FeedRowRepost, rows[0].Type)
	assert.Equal(t, stranger.String(), rows[0].PostURI)
	assert.Equal(t, followed.String(), rows[1].PostURI)
	assert.Equal(t, own.String(), rows[2].PostURI)

	_, err = db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice, Algorithm: "popular"})
	assert.Error(t, err)
}

func testFeedPagingWithEqualTimestamps(t *testing.T, db *database.Database) {
	ctx := context.Background()

	var want []string
	for _, rkey := range []string{"p1", "p2", "p3"} {
		u := uri(bob, domain.CollectionPost, rkey)
		require.NoError(t, db.IndexRecord(ctx, u, post(rkey)))
		want = append(want, u.String())
	}
	rp := uri(carol, domain.CollectionRepost, "r1")
	require.NoError(t, db.IndexRecord(ctx, rp, subject(domain.CollectionRepost, want[0])))
	want = append(want, rp.String())
	sort.Sort(sort.Reverse(sort.StringSlice(want)))

	var seen []string
	var before *string
	for page := 0; page < len(want)+1; page++ {
		rows, err := db.GetFeedRows(ctx, domain.FeedQuery{
			Requester: alice,
			Algorithm: domain.FeedAlgorithmFirehose,
			Limit:     2,
			Before:    before,
		})
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		for _, row := range rows {
			seen = append(seen, row.RowURI)
		}
		cursor := rows[len(rows)-1].Cursor
		before = &cursor
	}
	assert.Equal(t, want, seen)

	// a bare timestamp still bounds on time alone
	at := domain.Timestamp(frozenClock())
	rows, err := db.GetFeedRows(ctx, domain.FeedQuery{Requester: alice, Algorithm: domain.FeedAlgorithmFirehose, Before: &at})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testNotificationPagingWithEqualTimestamps(t *testing.T, db *database.Database) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f := uri(fmt.Sprintf("did:plc:fan%d", i), domain.CollectionFollow, "f")
		require.NoError(t, db.IndexRecord(ctx, f, subject(domain.CollectionFollow, bob)))
	}

	first, err := db.ListNotifications(ctx, bob, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, first[0].IndexedAt, first[1].IndexedAt)
	assert.Equal(t, "did:plc:fan2", first[0].Author)
	assert.Equal(t, "did:plc:fan1", first[1].Author)

	rest, err := db.ListNotifications(ctx, bob, 2, &first[1].Cursor)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "did:plc:fan0", rest[0].Author)

	bad := domain.JoinCursor(first[1].IndexedAt, "not-a-number")
	_, err = db.ListNotifications(ctx, bob, 2, &bad)
	assert.True(t, errors.Is(err, domain.ErrContractViolation))
}
