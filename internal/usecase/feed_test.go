package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/repoindex/internal/domain"
)

func strptr(s string) *string { return &s }

func repostRow() domain.FeedRow {
	return domain.FeedRow{
		Type:            domain.FeedRowRepost,
		PostURI:         "at://did:x/app.bsky.post/p1",
		AuthorDid:       "did:x",
		AuthorName:      "x",
		OriginatorDid:   strptr("did:y"),
		OriginatorName:  strptr("y"),
		RecordRaw:       `{"text":"hello","createdAt":"2022-11-01T10:00:00.000Z"}`,
		IndexedAt:       "2022-11-01T10:00:00.123Z",
		Cursor:          "2022-11-01T10:05:00.000Z",
		LikeCount:       3,
		RepostCount:     1,
		ReplyCount:      2,
		RequesterLike:   nil,
		RequesterRepost: strptr("at://did:x/app.x.repost/abc"),
	}
}

func TestRowToFeedItemRepost(t *testing.T) {
	item, err := RowToFeedItem(repostRow())
	require.NoError(t, err)

	assert.Equal(t, "did:x", item.Author.Did)
	require.NotNil(t, item.RepostedBy)
	assert.Equal(t, "did:y", item.RepostedBy.Did)
	assert.Nil(t, item.MyState.Like)
	require.NotNil(t, item.MyState.Repost)
	assert.Equal(t, "at://did:x/app.x.repost/abc", *item.MyState.Repost)
	assert.Equal(t, "hello", item.Record["text"])
}

func TestRowToFeedItemGolden(t *testing.T) {
	item, err := RowToFeedItem(repostRow())
	require.NoError(t, err)

	out, err := json.MarshalIndent(item, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "repost_feed_item", out)
}

func TestRowToFeedItemPost(t *testing.T) {
	row := repostRow()
	row.Type = domain.FeedRowPost
	row.OriginatorDid = nil
	row.OriginatorName = nil
	row.RequesterRepost = nil
	row.RequesterLike = strptr("at://did:z/app.bsky.like/1")

	item, err := RowToFeedItem(row)
	require.NoError(t, err)

	assert.Nil(t, item.RepostedBy)
	assert.Nil(t, item.MyState.Repost)
	require.NotNil(t, item.MyState.Like)
	assert.Equal(t, "at://did:z/app.bsky.like/1", *item.MyState.Like)

	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "repostedBy")
}

func TestRowToFeedItemMalformedRecord(t *testing.T) {
	row := repostRow()
	row.RecordRaw = `{"text":`

	_, err := RowToFeedItem(row)
	assert.Error(t, err)
}

type mockFeedStore struct {
	query domain.FeedQuery
	rows  []domain.FeedRow
}

func (m *mockFeedStore) GetFeedRows(ctx context.Context, q domain.FeedQuery) ([]domain.FeedRow, error) {
	m.query = q
	return m.rows, nil
}

func TestFeedUsecaseGet(t *testing.T) {
	first := repostRow()
	second := repostRow()
	second.Type = domain.FeedRowPost
	second.Cursor = "2022-11-01T09:00:00.000Z"

	store := &mockFeedStore{rows: []domain.FeedRow{first, second}}
	uc := NewFeedUsecase(store)

	page, err := uc.Get(context.Background(), domain.FeedQuery{Requester: "did:x", Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, domain.FeedAlgorithmReverseChronological, store.query.Algorithm)
	require.Len(t, page.Feed, 2)
	require.NotNil(t, page.Cursor)
	assert.Equal(t, "2022-11-01T09:00:00.000Z", *page.Cursor)

	page, err = uc.Get(context.Background(), domain.FeedQuery{Requester: "did:x", Algorithm: domain.FeedAlgorithmFirehose, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedAlgorithmFirehose, store.query.Algorithm)
	assert.Nil(t, page.Cursor)
}

func TestFeedUsecaseGetDefaultLimitPages(t *testing.T) {
	rows := make([]domain.FeedRow, defaultFeedLimit)
	for i := range rows {
		rows[i] = repostRow()
		rows[i].Cursor = fmt.Sprintf("2022-11-01T10:00:00.000Z::at://did:plc:bob/app.bsky.repost/%03d", defaultFeedLimit-i)
	}

	store := &mockFeedStore{rows: rows}
	uc := NewFeedUsecase(store)

	page, err := uc.Get(context.Background(), domain.FeedQuery{Requester: "did:x"})
	require.NoError(t, err)

	assert.Equal(t, defaultFeedLimit, store.query.Limit)
	require.Len(t, page.Feed, defaultFeedLimit)
	require.NotNil(t, page.Cursor)
	assert.Equal(t, rows[len(rows)-1].Cursor, *page.Cursor)
}
