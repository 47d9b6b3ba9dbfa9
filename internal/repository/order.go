package repository

import (
	"fmt"
	"strings"
)

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection returns empty direction for empty input
// Query decides the default: key descending, other columns ascending
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(s) {
	case "":
		return "", nil
	case "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return "", fmt.Errorf("unknown sort direction %q", s)
	}
}

// Sort by column in direction
type Order struct {
	Column    string
	Direction Direction
}

// ParseOrder parses comma separated list like "email:asc,id:desc"
// Direction may be omitted, see ParseDirection
func ParseOrder(s string) ([]Order, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	orders := make([]Order, 0, len(parts))
	for _, part := range parts {
		column, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
		if column == "" {
			return nil, fmt.Errorf("empty sort column in %q", s)
		}

		direction, err := ParseDirection(dir)
		if err != nil {
			return nil, err
		}

		orders = append(orders, Order{Column: column, Direction: direction})
	}

	return orders, nil
}
