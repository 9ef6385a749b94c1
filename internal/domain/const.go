package domain

import "time"

const (
	CollectionPost    = "app.bsky.post"
	CollectionLike    = "app.bsky.like"
	CollectionRepost  = "app.bsky.repost"
	CollectionFollow  = "app.bsky.follow"
	CollectionProfile = "app.bsky.profile"
	CollectionBadge   = "app.bsky.badge"
)

type NotificationReason string

const (
	ReasonLike   NotificationReason = "like"
	ReasonRepost NotificationReason = "repost"
	ReasonFollow NotificationReason = "follow"
	ReasonReply  NotificationReason = "reply"
	ReasonBadge  NotificationReason = "badge"
)

type FeedAlgorithm string

const (
	// FeedAlgorithmFirehose orders every post and repost by ingestion time.
	FeedAlgorithmFirehose FeedAlgorithm = "firehose"
	// FeedAlgorithmReverseChronological limits the feed to followed accounts.
	FeedAlgorithmReverseChronological FeedAlgorithm = "reverse-chronological"
)

const (
	RequesterDidCtxKey = "ri-requesterDid"
)

// TimestampLayout is fixed width so that lexical order matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
