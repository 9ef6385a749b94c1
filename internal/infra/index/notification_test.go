package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
)

const testIndexedAt = "2022-11-01T10:00:00.000Z"

func TestNotifsForRecord(t *testing.T) {
	v := testValidator(t)
	post := "at://did:plc:dave/app.bsky.post/1"

	testCases := []struct {
		name    string
		plugin  RecordPlugin
		obj     map[string]any
		want    domain.NotificationReason
		to      string
		subject *string
	}{
		{
			name:    "like notifies the subject author",
			plugin:  NewLikePlugin(v),
			obj:     map[string]any{"subject": post, "createdAt": "2022-11-01T10:00:00.000Z"},
			want:    domain.ReasonLike,
			to:      "did:plc:dave",
			subject: &post,
		},
		{
			name:    "repost notifies the subject author",
			plugin:  NewRepostPlugin(v),
			obj:     map[string]any{"subject": post, "createdAt": "2022-11-01T10:00:00.000Z"},
			want:    domain.ReasonRepost,
			to:      "did:plc:dave",
			subject: &post,
		},
		{
			name:   "follow notifies the followed did",
			plugin: NewFollowPlugin(v),
			obj:    map[string]any{"subject": "did:plc:bob", "createdAt": "2022-11-01T10:00:00.000Z"},
			want:   domain.ReasonFollow,
			to:     "did:plc:bob",
		},
		{
			name:   "badge notifies the subject did",
			plugin: NewBadgePlugin(v),
			obj: map[string]any{
				"assertion": map[string]any{"type": "employee"},
				"subject":   "did:plc:bob",
				"createdAt": "2022-11-01T10:00:00.000Z",
			},
			want: domain.ReasonBadge,
			to:   "did:plc:bob",
		},
		{
			name:   "reply notifies the parent author",
			plugin: NewPostPlugin(v),
			obj: map[string]any{
				"text":      "hi",
				"reply":     map[string]any{"root": "at://did:plc:carol/app.bsky.post/0", "parent": post},
				"createdAt": "2022-11-01T10:00:00.000Z",
			},
			want:    domain.ReasonReply,
			to:      "did:plc:dave",
			subject: &post,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uri := repoindex.RecordURI{Did: "did:plc:alice", Collection: tc.plugin.Collection(), RecordKey: "k1"}
			notifs := tc.plugin.NotifsForRecord(uri, tc.obj, testIndexedAt)
			require.Len(t, notifs, 1)

			n := notifs[0]
			assert.Equal(t, tc.to, n.UserDid)
			assert.Equal(t, uri.String(), n.RecordURI)
			assert.Equal(t, "did:plc:alice", n.Author)
			assert.Equal(t, tc.want, n.Reason)
			assert.Equal(t, tc.subject, n.ReasonSubject)
			assert.Equal(t, testIndexedAt, n.IndexedAt)
		})
	}
}

func TestNotifsForRecordSilent(t *testing.T) {
	v := testValidator(t)
	uri := repoindex.RecordURI{Did: "did:plc:alice", Collection: domain.CollectionPost, RecordKey: "k1"}

	assert.Empty(t, NewPostPlugin(v).NotifsForRecord(uri, map[string]any{
		"text":      "top level",
		"createdAt": "2022-11-01T10:00:00.000Z",
	}, testIndexedAt))
	assert.Empty(t, NewProfilePlugin(v).NotifsForRecord(uri, map[string]any{"displayName": "alice"}, testIndexedAt))
	assert.Empty(t, NewLikePlugin(v).NotifsForRecord(uri, map[string]any{"subject": "not-a-uri"}, testIndexedAt))
}
