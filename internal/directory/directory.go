// Package directory provides the user and product lookup collaborators
// consumed by the intent classifier. The engine only needs read access; the
// in-memory implementations here double as test fixtures and as the seed
// data for the demo CLI.
package directory

import "strings"

// User is a directory entry resolvable from a conversational mention.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
}

// Product is a marketplace catalog entry.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

// UserLookup resolves free-text queries to known users.
type UserLookup interface {
	Find(query string) []User
}

// ProductCatalog resolves free-text queries to catalog products.
type ProductCatalog interface {
	Search(query string) []Product
}

// =============================================================================
// IN-MEMORY IMPLEMENTATIONS
// =============================================================================

// Users is an in-memory UserLookup.
type Users struct {
	entries []User
}

// NewUsers builds a lookup over the given entries.
func NewUsers(entries ...User) *Users {
	return &Users{entries: entries}
}

// Find matches users whose name or handle contains the query,
// case-insensitively. An empty query matches nothing.
func (u *Users) Find(query string) []User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []User
	for _, e := range u.entries {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Handle), q) {
			out = append(out, e)
		}
	}
	return out
}

// Products is an in-memory ProductCatalog.
type Products struct {
	entries []Product
}

// NewProducts builds a catalog over the given entries.
func NewProducts(entries ...Product) *Products {
	return &Products{entries: entries}
}

// Search matches products whose name or category contains the query,
// case-insensitively.
func (p *Products) Search(query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Product
	for _, e := range p.entries {
		if strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Category), q) {
			out = append(out, e)
		}
	}
	return out
}
