// Package index holds one RecordPlugin per collection. A plugin owns the typed
// tables of its collection and knows which notifications its records cause.
package index

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
)

// SchemaValidator checks a payload against the schema of a collection.
type SchemaValidator interface {
	Validate(collection string, obj map[string]any) domain.ValidationResult
}

// RecordPlugin projects the records of exactly one collection.
//
// Insert assumes obj already passed ValidateSchema. Delete of an absent uri is
// a no-op. NotifsForRecord must not touch storage. indexedAt is shared by every
// row and notification one write produces.
type RecordPlugin interface {
	Collection() string
	ValidateSchema(obj map[string]any) domain.ValidationResult
	Insert(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI, obj map[string]any, indexedAt string) error
	Delete(ctx context.Context, tx *gorm.DB, uri repoindex.RecordURI) error
	NotifsForRecord(uri repoindex.RecordURI, obj map[string]any, indexedAt string) []domain.NotificationEvent
	Tables() []any
}

type base struct {
	collection string
	validator  SchemaValidator
}

func (b base) Collection() string {
	return b.collection
}

func (b base) ValidateSchema(obj map[string]any) domain.ValidationResult {
	return b.validator.Validate(b.collection, obj)
}

// decode reshapes an untyped payload into the plugin's record struct.
func decode[T any](obj map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(obj)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, errors.Wrap(err, "decode record")
	}
	return out, nil
}

// authorOf returns the did owning the record at uri, or "" if uri is not a record uri.
func authorOf(uri string) string {
	parsed, err := repoindex.ParseURI(uri)
	if err != nil || !repoindex.IsDID(parsed.Did) {
		return ""
	}
	return parsed.Did
}

func notification(recipient string, uri repoindex.RecordURI, reason domain.NotificationReason, subject *string, indexedAt string) domain.NotificationEvent {
	return domain.NotificationEvent{
		UserDid:       recipient,
		RecordURI:     uri.String(),
		Author:        uri.Did,
		Reason:        reason,
		ReasonSubject: subject,
		IndexedAt:     indexedAt,
	}
}
