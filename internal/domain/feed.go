package domain

const (
	FeedRowPost   = "post"
	FeedRowRepost = "repost"
)

// FeedRow is the denormalized join produced by the feed query. RowURI is the
// record that put the row in the feed: the post itself or the repost.
type FeedRow struct {
	Type            string  `gorm:"column:type"`
	PostURI         string  `gorm:"column:post_uri"`
	RowURI          string  `gorm:"column:row_uri"`
	AuthorDid       string  `gorm:"column:author_did"`
	AuthorName      string  `gorm:"column:author_name"`
	OriginatorDid   *string `gorm:"column:originator_did"`
	OriginatorName  *string `gorm:"column:originator_name"`
	RecordRaw       string  `gorm:"column:record_raw"`
	IndexedAt       string  `gorm:"column:indexed_at"`
	Cursor          string  `gorm:"column:cursor"`
	LikeCount       int64   `gorm:"column:like_count"`
	RepostCount     int64   `gorm:"column:repost_count"`
	ReplyCount      int64   `gorm:"column:reply_count"`
	RequesterLike   *string `gorm:"column:requester_like"`
	RequesterRepost *string `gorm:"column:requester_repost"`
}

type FeedQuery struct {
	Requester string
	Algorithm FeedAlgorithm
	Limit     int
	Before    *string
}

type ActorRef struct {
	Did  string `json:"did"`
	Name string `json:"name"`
}

type MyState struct {
	Repost *string `json:"repost,omitempty"`
	Like   *string `json:"like,omitempty"`
}

// FeedItem is the client facing shape of a FeedRow.
type FeedItem struct {
	Cursor      string         `json:"cursor"`
	URI         string         `json:"uri"`
	Author      ActorRef       `json:"author"`
	RepostedBy  *ActorRef      `json:"repostedBy,omitempty"`
	Record      map[string]any `json:"record"`
	ReplyCount  int64          `json:"replyCount"`
	RepostCount int64          `json:"repostCount"`
	LikeCount   int64          `json:"likeCount"`
	IndexedAt   string         `json:"indexedAt"`
	MyState     MyState        `json:"myState"`
}
