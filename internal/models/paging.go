package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/jukebox/internal/shared"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 2000
)

// Direction is a sort direction as it appears in sort keys.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is one "field,direction" sort key.
type Order struct {
	Field     string
	Direction Direction
}

func (o Order) String() string {
	return o.Field + "," + string(o.Direction)
}

// Descending reports whether the order runs high to low.
func (o Order) Descending() bool {
	return o.Direction == Desc
}

// ParseOrder parses a "field[,asc|desc]" sort key. A missing direction means ascending.
func ParseOrder(s string) (Order, error) {
	field, dir, _ := strings.Cut(strings.TrimSpace(s), ",")
	field = strings.TrimSpace(field)
	if field == "" {
		return Order{}, fmt.Errorf("%w: empty sort field", shared.ErrInvalidSortField)
	}

	switch Direction(strings.ToLower(strings.TrimSpace(dir))) {
	case "", Asc:
		return Order{Field: field, Direction: Asc}, nil
	case Desc:
		return Order{Field: field, Direction: Desc}, nil
	default:
		return Order{}, fmt.Errorf("%w: unknown direction %q", shared.ErrInvalidSortField, dir)
	}
}

// ParseOrders parses every sort key in keys.
func ParseOrders(keys []string) ([]Order, error) {
	orders := make([]Order, 0, len(keys))
	for _, k := range keys {
		o, err := ParseOrder(k)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// PageRequest selects a zero-based page of Size items ordered by Sort.
type PageRequest struct {
	Page int
	Size int
	Sort []Order
}

// NewPageRequest validates page and size and parses the sort keys. A size of 0 selects [DefaultPageSize].
func NewPageRequest(page, size int, sort []string) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, fmt.Errorf("%w: page must not be negative", shared.ErrInvalidArgument)
	}
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 0 || size > MaxPageSize {
		return PageRequest{}, fmt.Errorf("%w: size must be between 1 and %d", shared.ErrInvalidArgument, MaxPageSize)
	}

	orders, err := ParseOrders(sort)
	if err != nil {
		return PageRequest{}, err
	}
	return PageRequest{Page: page, Size: size, Sort: orders}, nil
}

// Offset returns the number of rows preceding the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// TotalPages returns how many pages of size are needed for total items; at least one.
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
