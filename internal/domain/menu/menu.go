// Package menu holds the static menu catalog: categories in display order and
// the items offered under them.
package menu

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu item does not exist.
var ErrNotFound = errors.New("menu item not found")

// Category groups menu items. The position of a category inside the catalog
// defines both the menu tab order and the order summary sort order.
type Category struct {
	ID   string
	Name string
}

// Item is a single dish or drink that can be added to a table order.
type Item struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	CategoryID string
	Image      string
	Hint       string
}

// Catalog is the read-only menu loaded once at startup.
type Catalog struct {
	categories []Category
	items      []Item

	categoryIndex map[string]int
	itemIndex     map[string]int
}

// NewCatalog builds a catalog, keeping the given category and item order.
// Duplicate ids, negative prices and items referring to unknown categories are
// rejected.
func NewCatalog(categories []Category, items []Item) (*Catalog, error) {
	c := &Catalog{
		categories:    make([]Category, len(categories)),
		items:         make([]Item, len(items)),
		categoryIndex: make(map[string]int, len(categories)),
		itemIndex:     make(map[string]int, len(items)),
	}
	copy(c.categories, categories)
	copy(c.items, items)

	for i, cat := range c.categories {
		if _, dup := c.categoryIndex[cat.ID]; dup {
			return nil, errors.Errorf("duplicate category %q", cat.ID)
		}
		c.categoryIndex[cat.ID] = i
	}
	for i, it := range c.items {
		if _, dup := c.itemIndex[it.ID]; dup {
			return nil, errors.Errorf("duplicate menu item %q", it.ID)
		}
		if it.Price.IsNegative() {
			return nil, errors.Errorf("menu item %q has negative price", it.ID)
		}
		if _, ok := c.categoryIndex[it.CategoryID]; !ok {
			return nil, errors.Errorf("menu item %q refers to unknown category %q", it.ID, it.CategoryID)
		}
		c.itemIndex[it.ID] = i
	}
	return c, nil
}

// Categories returns the categories in display order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Items returns every menu item in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// ItemsIn returns the items of a single category in catalog order.
func (c *Catalog) ItemsIn(categoryID string) []Item {
	var out []Item
	for _, it := range c.items {
		if it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	return out
}

// Item looks up a menu item by id.
func (c *Catalog) Item(id string) (Item, error) {
	i, ok := c.itemIndex[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return c.items[i], nil
}

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	i, ok := c.categoryIndex[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// CategoryIndex returns the display position of a category. Unknown categories
// sort after every known one.
func (c *Catalog) CategoryIndex(id string) int {
	if i, ok := c.categoryIndex[id]; ok {
		return i
	}
	return len(c.categories)
}
