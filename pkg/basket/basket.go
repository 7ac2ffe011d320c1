// Package basket is the client-side aggregate a user fills before asking
// for a quote. Lines are keyed by product id and keep insertion order.
package basket

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmpty           = errors.New("basket is empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id is required")
)

type Line struct {
	ProductID   string            `yaml:"productId"             json:"productId"`
	Quantity    int               `yaml:"quantity"              json:"quantity"`
	Name        string            `yaml:"name,omitempty"        json:"name,omitempty"`
	ImageURI    string            `yaml:"imageUri,omitempty"    json:"imageUri,omitempty"`
	PriceRange  string            `yaml:"priceRange,omitempty"  json:"priceRange,omitempty"`
	CustomSpecs map[string]string `yaml:"customSpecs,omitempty" json:"customSpecs,omitempty"`
}

// RequestItem is the wire shape expected by the quotes service.
type RequestItem struct {
	ProductID   string            `json:"productId"`
	Quantity    int               `json:"quantity"`
	CustomSpecs map[string]string `json:"customSpecs,omitempty"`
}

type Submitter interface {
	SubmitRequest(ctx context.Context, items []RequestItem, notes string) (string, error)
}

type Basket struct {
	Lines []Line `yaml:"lines"`
}

func (b *Basket) index(productID string) int {
	for i := range b.Lines {
		if b.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges into an existing line by incrementing its quantity; display
// fields and custom specs are refreshed when the new line carries them.
func (b *Basket) Add(l Line) error {
	l.ProductID = strings.TrimSpace(l.ProductID)
	if l.ProductID == "" {
		return ErrInvalidProduct
	}
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, l.Quantity)
	}

	i := b.index(l.ProductID)
	if i < 0 {
		b.Lines = append(b.Lines, l)
		return nil
	}

	cur := &b.Lines[i]
	cur.Quantity += l.Quantity
	if l.Name != "" {
		cur.Name = l.Name
	}
	if l.ImageURI != "" {
		cur.ImageURI = l.ImageURI
	}
	if l.PriceRange != "" {
		cur.PriceRange = l.PriceRange
	}
	if len(l.CustomSpecs) > 0 {
		cur.CustomSpecs = l.CustomSpecs
	}
	return nil
}

func (b *Basket) Remove(productID string) bool {
	i := b.index(productID)
	if i < 0 {
		return false
	}
	b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
	return true
}

// SetQuantity removes the line when qty <= 0. It reports whether the line existed.
func (b *Basket) SetQuantity(productID string, qty int) bool {
	if qty <= 0 {
		return b.Remove(productID)
	}
	i := b.index(productID)
	if i < 0 {
		return false
	}
	b.Lines[i].Quantity = qty
	return true
}

func (b *Basket) Clear() {
	b.Lines = nil
}

func (b *Basket) Items() []Line {
	out := make([]Line, len(b.Lines))
	copy(out, b.Lines)
	return out
}

func (b *Basket) Len() int { return len(b.Lines) }

func (b *Basket) TotalQuantity() int {
	n := 0
	for _, l := range b.Lines {
		n += l.Quantity
	}
	return n
}

// Submit sends every line as one quote request. The basket is cleared only
// after the submitter confirms success.
func (b *Basket) Submit(ctx context.Context, s Submitter, notes string) (string, error) {
	if len(b.Lines) == 0 {
		return "", ErrEmpty
	}

	items := make([]RequestItem, 0, len(b.Lines))
	for _, l := range b.Lines {
		items = append(items, RequestItem{
			ProductID:   l.ProductID,
			Quantity:    l.Quantity,
			CustomSpecs: l.CustomSpecs,
		})
	}

	id, err := s.SubmitRequest(ctx, items, notes)
	if err != nil {
		return "", fmt.Errorf("submit basket: %w", err)
	}
	b.Clear()
	return id, nil
}
