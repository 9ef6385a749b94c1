package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex/internal/domain"
)

// feedSource unions plain posts with reposts of posts. A repost row carries the
// reposted post as its subject and the reposter as originator.
const feedSource = `
SELECT 'post' AS type,
	p.uri AS post_uri,
	p.uri AS row_uri,
	p.creator AS author_did,
	COALESCE(au.username, p.creator) AS author_name,
	CAST(NULL AS TEXT) AS originator_did,
	CAST(NULL AS TEXT) AS originator_name,
	r.raw AS record_raw,
	p.indexed_at AS indexed_at,
	p.indexed_at AS "cursor"
FROM posts p
JOIN records r ON r.uri = p.uri
LEFT JOIN users au ON au.did = p.creator
UNION ALL
SELECT 'repost' AS type,
	p.uri AS post_uri,
	rp.uri AS row_uri,
	p.creator AS author_did,
	COALESCE(au.username, p.creator) AS author_name,
	rp.creator AS originator_did,
	COALESCE(ou.username, rp.creator) AS originator_name,
	r.raw AS record_raw,
	p.indexed_at AS indexed_at,
	rp.indexed_at AS "cursor"
FROM reposts rp
JOIN posts p ON p.uri = rp.subject
JOIN records r ON r.uri = p.uri
LEFT JOIN users au ON au.did = p.creator
LEFT JOIN users ou ON ou.did = rp.creator
`

const feedProjection = `
SELECT feed.*,
	(SELECT COUNT(*) FROM likes WHERE likes.subject = feed.post_uri) AS like_count,
	(SELECT COUNT(*) FROM reposts WHERE reposts.subject = feed.post_uri) AS repost_count,
	(SELECT COUNT(*) FROM posts WHERE posts.reply_parent = feed.post_uri) AS reply_count,
	(SELECT likes.uri FROM likes WHERE likes.subject = feed.post_uri AND likes.creator = ? LIMIT 1) AS requester_like,
	(SELECT reposts.uri FROM reposts WHERE reposts.subject = feed.post_uri AND reposts.creator = ? LIMIT 1) AS requester_repost
FROM (%s) feed
`

type FeedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// Rows returns feed rows newest first. A row entered the feed when its post or
// repost was indexed; its cursor pairs that time with RowURI so rows sharing a
// timestamp still page in a total order.
func (r *FeedRepository) Rows(ctx context.Context, q domain.FeedQuery) ([]domain.FeedRow, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(feedProjection, feedSource))
	args := []any{q.Requester, q.Requester}

	var conds []string
	switch q.Algorithm {
	case domain.FeedAlgorithmFirehose, "":
	case domain.FeedAlgorithmReverseChronological:
		conds = append(conds, `(COALESCE(feed.originator_did, feed.author_did) = ?
	OR COALESCE(feed.originator_did, feed.author_did) IN (SELECT follows.subject FROM follows WHERE follows.creator = ?))`)
		args = append(args, q.Requester, q.Requester)
	default:
		return nil, fmt.Errorf("unknown feed algorithm %q", q.Algorithm)
	}

	if q.Before != nil {
		at, key := domain.SplitCursor(*q.Before)
		if key == "" {
			conds = append(conds, `feed."cursor" < ?`)
			args = append(args, at)
		} else {
			conds = append(conds, `(feed."cursor" < ? OR (feed."cursor" = ? AND feed.row_uri < ?))`)
			args = append(args, at, at, key)
		}
	}

	if len(conds) > 0 {
		sb.WriteString("WHERE ")
		sb.WriteString(strings.Join(conds, "\nAND "))
		sb.WriteString("\n")
	}

	sb.WriteString(`ORDER BY feed."cursor" DESC, feed.row_uri DESC
LIMIT ?`)
	args = append(args, limit)

	var rows []domain.FeedRow
	if err := r.db.WithContext(ctx).Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Cursor = domain.JoinCursor(rows[i].Cursor, rows[i].RowURI)
	}
	return rows, nil
}
