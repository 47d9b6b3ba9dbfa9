package models

// Offset pagination request, page numbering starts from 1
type PageRequest struct {
	Page int `json:"page" validate:"gte=1"`
	Size int `json:"size" validate:"gte=1"`
}

// Cursor pagination request
// Empty cursor means the first page
type CursorRequest struct {
	Cursor string `json:"cursor" validate:"omitempty,number"`
	Size   int    `json:"size" validate:"gte=1"`
}

type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

type CursorPage[T any] struct {
	Items []T

	// Cursor to request the next page with
	// Empty if there are no more items
	NextCursor string
	Size       int
}
