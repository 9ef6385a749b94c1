package usecase

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/totegamma/repoindex/internal/domain"
)

// RowToFeedItem projects a joined feed row into the client shape. A row whose
// stored record is not valid JSON is an error.
func RowToFeedItem(row domain.FeedRow) (domain.FeedItem, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(row.RecordRaw), &record); err != nil {
		return domain.FeedItem{}, errors.Wrapf(err, "decode feed record %s", row.PostURI)
	}

	item := domain.FeedItem{
		Cursor: row.Cursor,
		URI:    row.PostURI,
		Author: domain.ActorRef{
			Did:  row.AuthorDid,
			Name: row.AuthorName,
		},
		Record:      record,
		ReplyCount:  row.ReplyCount,
		RepostCount: row.RepostCount,
		LikeCount:   row.LikeCount,
		IndexedAt:   row.IndexedAt,
		MyState: domain.MyState{
			Repost: row.RequesterRepost,
			Like:   row.RequesterLike,
		},
	}

	if row.Type == domain.FeedRowRepost {
		by := domain.ActorRef{}
		if row.OriginatorDid != nil {
			by.Did = *row.OriginatorDid
		}
		if row.OriginatorName != nil {
			by.Name = *row.OriginatorName
		}
		item.RepostedBy = &by
	}

	return item, nil
}

const defaultFeedLimit = 50

type FeedPage struct {
	Feed   []domain.FeedItem `json:"feed"`
	Cursor *string           `json:"cursor,omitempty"`
}

type FeedUsecase struct {
	store FeedStore
}

func NewFeedUsecase(store FeedStore) *FeedUsecase {
	return &FeedUsecase{store: store}
}

// Get returns one page of q. The page carries a cursor only when it is full.
func (uc *FeedUsecase) Get(ctx context.Context, q domain.FeedQuery) (FeedPage, error) {
	if q.Algorithm == "" {
		q.Algorithm = domain.FeedAlgorithmReverseChronological
	}
	if q.Limit <= 0 {
		q.Limit = defaultFeedLimit
	}

	rows, err := uc.store.GetFeedRows(ctx, q)
	if err != nil {
		return FeedPage{}, err
	}

	page := FeedPage{Feed: make([]domain.FeedItem, 0, len(rows))}
	for _, row := range rows {
		item, err := RowToFeedItem(row)
		if err != nil {
			return FeedPage{}, err
		}
		page.Feed = append(page.Feed, item)
	}

	if len(rows) == q.Limit {
		cursor := rows[len(rows)-1].Cursor
		page.Cursor = &cursor
	}
	return page, nil
}
