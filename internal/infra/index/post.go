package index

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
)

type postRecord struct {
	Text      string        `json:"text"`
	Entities  []postEntity  `json:"entities,omitempty"`
	Reply     *postReplyRef `json:"reply,omitempty"`
	CreatedAt string        `json:"createdAt"`
}

type postEntity struct {
	Index [2]int64 `json:"index"`
	Type  string   `json:"type"`
	Value string   `json:"value"`
}

type postReplyRef struct {
	Root   string  `json:"root"`
	Parent *string `json:"parent,omitempty"`
}

type PostPlugin struct {
	base
}

func NewPostPlugin(v SchemaValidator) *PostPlugin {
	return &PostPlugin{base{collection: domain.CollectionPost, validator: v}}
}

func (p *PostPlugin) Tables() []any {
	return []any{&models.Post{}, &models.PostEntity{}}
}

func (p *PostPlugin) Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error {
	record, err := decode[postRecord](obj)
	if err != nil {
		return err
	}

	post := models.Post{
		URI:       uri.String(),
		Creator:   uri.Did,
		Text:      record.Text,
		CreatedAt: record.CreatedAt,
		IndexedAt: indexedAt,
	}
	if record.Reply != nil {
		root := record.Reply.Root
		post.ReplyRoot = &root
		// a reply without parent answers the root directly
		parent := root
		if record.Reply.Parent != nil {
			parent = *record.Reply.Parent
		}
		post.ReplyParent = &parent
	}

	if err := tx.WithContext(ctx).Create(&post).Error; err != nil {
		return err
	}

	if len(record.Entities) == 0 {
		return nil
	}

	entities := make([]models.PostEntity, 0, len(record.Entities))
	for _, e := range record.Entities {
		entities = append(entities, models.PostEntity{
			PostURI:    post.URI,
			StartIndex: e.Index[0],
			EndIndex:   e.Index[1],
			Type:       e.Type,
			Value:      e.Value,
		})
	}
	return tx.WithContext(ctx).Create(&entities).Error
}

func (p *PostPlugin) Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error {
	if err := tx.WithContext(ctx).Where("post_uri = ?", uri.String()).Delete(&models.PostEntity{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Where("uri = ?", uri.String()).Delete(&models.Post{}).Error
}

func (p *PostPlugin) NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent {
	record, err := decode[postRecord](obj)
	if err != nil || record.Reply == nil {
		return nil
	}

	parent := record.Reply.Root
	if record.Reply.Parent != nil {
		parent = *record.Reply.Parent
	}

	recipient := authorOf(parent)
	if recipient == "" {
		return nil
	}

	return []domain.NotificationEvent{
		notification(recipient, uri, domain.ReasonReply, &parent, indexedAt),
	}
}
