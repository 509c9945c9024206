package models

import "strings"

// CategoryKind represents the kind of category
type CategoryKind string

const (
	CategoryKindIncome  CategoryKind = "income"
	CategoryKindExpense CategoryKind = "expense"
)

// Category represents a transaction category with an ordered keyword set
// used by the categorizer. Keywords are stored as a comma-separated list;
// order within the list is significant for first-match-wins classification.
type Category struct {
	Base
	Name      string       `gorm:"not null;uniqueIndex" json:"name"`
	Kind      CategoryKind `gorm:"not null" json:"kind"`
	Keywords  string       `json:"keywords"`
	SortOrder int          `gorm:"not null;default:0;index" json:"sort_order"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:CategoryID" json:"transactions,omitempty"`
}

// KeywordList splits the stored keyword string into trimmed, non-empty
// keywords, preserving order.
func (c *Category) KeywordList() []string {
	if c.Keywords == "" {
		return nil
	}
	parts := strings.Split(c.Keywords, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.TrimSpace(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
