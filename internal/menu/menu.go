package menu

import (
	"errors"
	"fmt"
	"strings"
)

// Item is one orderable entry. Price is in minor units (cents).
type Item struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Price   int64    `json:"price"`
	Options []string `json:"options"`
}

// Dollars converts a whole major-unit price to minor units.
func Dollars(n int64) int64 { return n * 100 }

// Ids that collide with top-level chat commands.
var reserved = map[int]bool{97: true, 98: true, 99: true}

var (
	ErrInvalidID    = errors.New("menu item id must be positive")
	ErrDuplicateID  = errors.New("duplicate menu item id")
	ErrReservedID   = errors.New("menu item id is reserved for a command")
	ErrNoOptions    = errors.New("menu item has no options")
	ErrBlankOption  = errors.New("menu item option must not be blank")
	ErrInvalidPrice = errors.New("menu item price must not be negative")
)

type Catalog struct {
	items []Item
	byID  map[int]int
}

// New validates items and returns an immutable catalog. Items keep their order.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{items: make([]Item, 0, len(items)), byID: make(map[int]int, len(items))}
	for _, it := range items {
		switch {
		case it.ID <= 0:
			return nil, fmt.Errorf("%w: %d", ErrInvalidID, it.ID)
		case reserved[it.ID]:
			return nil, fmt.Errorf("%w: %d", ErrReservedID, it.ID)
		case it.Price < 0:
			return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, it.Name)
		case len(it.Options) == 0:
			return nil, fmt.Errorf("%w: %s", ErrNoOptions, it.Name)
		}
		for _, o := range it.Options {
			if strings.TrimSpace(o) == "" {
				return nil, fmt.Errorf("%w: %s", ErrBlankOption, it.Name)
			}
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, it.ID)
		}
		it.Options = append([]string(nil), it.Options...)
		c.byID[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Default is the restaurant's fixed menu.
func Default() *Catalog {
	c, err := New([]Item{
		{ID: 1, Name: "Burger", Price: Dollars(10), Options: []string{"Cheese", "No Cheese"}},
		{ID: 2, Name: "Pizza", Price: Dollars(15), Options: []string{"Pepperoni", "Veggie"}},
		{ID: 3, Name: "Salad", Price: Dollars(8), Options: []string{"Caesar", "Greek"}},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns a copy of the item so callers can't mutate the catalog.
func (c *Catalog) Lookup(id int) (Item, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i].clone(), true
}

func (c *Catalog) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it.clone())
	}
	return out
}

func (c *Catalog) Len() int { return len(c.items) }

// Option returns the 1-based option of the item.
func (it Item) Option(n int) (string, bool) {
	if n < 1 || n > len(it.Options) {
		return "", false
	}
	return it.Options[n-1], true
}

func (it Item) clone() Item {
	it.Options = append([]string(nil), it.Options...)
	return it
}

// Listing renders "1. Burger - $10 (Options: Cheese, No Cheese)" lines.
func (c *Catalog) Listing() string {
	lines := make([]string, 0, len(c.items))
	for _, it := range c.items {
		lines = append(lines, fmt.Sprintf("%d. %s - %s (Options: %s)",
			it.ID, it.Name, FormatPrice(it.Price), strings.Join(it.Options, ", ")))
	}
	return strings.Join(lines, "\n")
}

// FormatPrice prints minor units as "$15" or "$15.50".
func FormatPrice(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	if minor%100 == 0 {
		return fmt.Sprintf("%s$%d", sign, minor/100)
	}
	return fmt.Sprintf("%s$%d.%02d", sign, minor/100, minor%100)
}
