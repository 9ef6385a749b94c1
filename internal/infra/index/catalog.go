package index

import (
	"fmt"

	"github.com/totegamma/repoindex/internal/domain"
)

// Catalog maps collection names to plugins, keeping registration order.
type Catalog struct {
	order   []RecordPlugin
	plugins map[string]RecordPlugin
}

func NewCatalog(plugins ...RecordPlugin) (*Catalog, error) {
	c := &Catalog{plugins: make(map[string]RecordPlugin, len(plugins))}
	for _, p := range plugins {
		if err := c.Register(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog registers every collection this repository indexes.
func DefaultCatalog(v SchemaValidator) *Catalog {
	c, err := NewCatalog(
		NewPostPlugin(v),
		NewLikePlugin(v),
		NewRepostPlugin(v),
		NewFollowPlugin(v),
		NewProfilePlugin(v),
		NewBadgePlugin(v),
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Register(p RecordPlugin) error {
	if _, exists := c.plugins[p.Collection()]; exists {
		return fmt.Errorf("collection %s already registered", p.Collection())
	}
	c.plugins[p.Collection()] = p
	c.order = append(c.order, p)
	return nil
}

func (c *Catalog) FindTableForCollection(collection string) (RecordPlugin, error) {
	p, ok := c.plugins[collection]
	if !ok {
		return nil, domain.NotFoundError{Resource: "collection " + collection}
	}
	return p, nil
}

func (c *Catalog) Plugins() []RecordPlugin {
	out := make([]RecordPlugin, len(c.order))
	copy(out, c.order)
	return out
}

// Tables lists the models of every plugin in registration order.
func (c *Catalog) Tables() []any {
	var tables []any
	for _, p := range c.order {
		tables = append(tables, p.Tables()...)
	}
	return tables
}
