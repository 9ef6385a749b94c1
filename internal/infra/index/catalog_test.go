package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/lexicon"
)

func testValidator(t *testing.T) SchemaValidator {
	v, err := lexicon.New()
	require.NoError(t, err)
	return v
}

func TestDefaultCatalogOrder(t *testing.T) {
	c := DefaultCatalog(testValidator(t))

	var collections []string
	for _, p := range c.Plugins() {
		collections = append(collections, p.Collection())
	}

	assert.Equal(t, []string{
		domain.CollectionPost,
		domain.CollectionLike,
		domain.CollectionRepost,
		domain.CollectionFollow,
		domain.CollectionProfile,
		domain.CollectionBadge,
	}, collections)

	// post and profile each own a child table
	assert.Len(t, c.Tables(), 8)
}

func TestFindTableForCollection(t *testing.T) {
	c := DefaultCatalog(testValidator(t))

	p, err := c.FindTableForCollection(domain.CollectionLike)
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionLike, p.Collection())

	_, err = c.FindTableForCollection("app.bsky.unknown")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	v := testValidator(t)
	_, err := NewCatalog(NewLikePlugin(v), NewLikePlugin(v))
	assert.Error(t, err)
}

func TestPluginValidateSchema(t *testing.T) {
	c := DefaultCatalog(testValidator(t))
	p, err := c.FindTableForCollection(domain.CollectionFollow)
	require.NoError(t, err)

	ok := p.ValidateSchema(map[string]any{
		"subject":   "did:plc:bob",
		"createdAt": "2022-11-01T10:00:00.000Z",
	})
	assert.True(t, ok.Valid)

	bad := p.ValidateSchema(map[string]any{"subject": 42})
	assert.False(t, bad.Valid)
	assert.Equal(t, domain.ValidationInvalid, bad.Code)
}
