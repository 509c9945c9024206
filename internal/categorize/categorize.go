// Package categorize implements deterministic keyword-based transaction
// classification. Categories are scanned in a fixed, stable order
// (sort_order, then id) so that re-running categorization against an
// unchanged keyword table always yields the same result.
package categorize

import (
	"strings"

	"gorm.io/gorm"

	"moneta/internal/models"
)

// Categorizer matches transaction descriptions against category keywords.
// It holds an ordered snapshot of the category table; build one per unit of
// work (one import batch, one sync run) via Load.
type Categorizer struct {
	categories []models.Category
}

// New creates a Categorizer over an explicit, already-ordered category list.
// Used directly in tests; production callers use Load.
func New(categories []models.Category) *Categorizer {
	return &Categorizer{categories: categories}
}

// Load reads the category table in stable (sort_order, id) order.
func Load(db *gorm.DB) (*Categorizer, error) {
	var categories []models.Category
	if err := db.Order("sort_order ASC, id ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return New(categories), nil
}

// Categorize returns the first category whose keyword set matches the
// description, scanning categories in table order and keywords in their
// stored order. Matching is case-insensitive substring. No match returns
// nil.
func (c *Categorizer) Categorize(description string) *models.Category {
	desc := strings.ToLower(description)
	if desc == "" {
		return nil
	}

	for i := range c.categories {
		for _, keyword := range c.categories[i].KeywordList() {
			if strings.Contains(desc, strings.ToLower(keyword)) {
				return &c.categories[i]
			}
		}
	}
	return nil
}

// CategoryID is a convenience wrapper returning the matched category's id,
// or nil when uncategorized.
func (c *Categorizer) CategoryID(description string) *uint {
	matched := c.Categorize(description)
	if matched == nil {
		return nil
	}
	return &matched.ID
}
