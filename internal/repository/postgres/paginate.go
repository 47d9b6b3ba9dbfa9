package postgres

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/validate"
)

// Table describes how to read entities of type T for paginated queries
// The table has to have an integer auto increment key
type Table[T any] struct {
	Name string

	// Primary key column
	Key string

	// Select list, has to match Scan
	Columns []string

	// Columns allowed in ORDER BY, the key is always allowed
	Sortable []string

	Scan  pgx.RowToFunc[T]
	KeyOf func(T) int64
}

func (t Table[T]) sortable(column string) bool {
	return column == t.Key || slices.Contains(t.Sortable, column)
}

// Query collects caller filters and order
// Conditions use '?' as placeholder, they are rendered to '$n' in order
type Query struct {
	where []string
	args  []any
	order []repository.Order
}

func (q *Query) Where(expr string, args ...any) *Query {
	q.where = append(q.where, expr)
	q.args = append(q.args, args...)
	return q
}

func (q *Query) OrderBy(column string, dir repository.Direction) *Query {
	q.order = append(q.order, repository.Order{Column: column, Direction: dir})
	return q
}

// whereSQL returns rendered WHERE clause (may be empty) and its args
func (q *Query) whereSQL() (string, []any) {
	if len(q.where) == 0 {
		return "", nil
	}

	n := 0
	conds := make([]string, 0, len(q.where))
	for _, expr := range q.where {
		var b strings.Builder
		for _, r := range expr {
			if r == '?' {
				n++
				b.WriteString("$" + strconv.Itoa(n))
				continue
			}
			b.WriteRune(r)
		}
		conds = append(conds, "("+b.String()+")")
	}

	return " WHERE " + strings.Join(conds, " AND "), slices.Clone(q.args)
}

func orderSQL(order []repository.Order) string {
	parts := make([]string, 0, len(order))
	for _, o := range order {
		parts = append(parts, o.Column+" "+string(o.Direction))
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func newQuery[T any](t Table[T], decorate func(*Query)) (*Query, error) {
	q := &Query{}
	if decorate != nil {
		decorate(q)
	}

	for i, o := range q.order {
		if !t.sortable(o.Column) {
			return nil, apperrors.NewValidation("Request validation failed", map[string]string{
				"sort": fmt.Sprintf("Sorting by '%s' is not allowed", o.Column),
			})
		}
		switch o.Direction {
		case repository.Asc, repository.Desc:
		case "":
			q.order[i].Direction = repository.Asc
			if o.Column == t.Key {
				q.order[i].Direction = repository.Desc
			}
		default:
			return nil, apperrors.NewValidation("Request validation failed", map[string]string{
				"sort": fmt.Sprintf("Unknown direction '%s'", o.Direction),
			})
		}
	}

	return q, nil
}

// Paginate returns requested page using LIMIT/OFFSET and total number of rows matching the filters
// Without explicit order rows are ordered by key descending
func Paginate[T any](ctx context.Context, db DBTX, t Table[T], req models.PageRequest, decorate func(*Query)) (models.Page[T], error) {
	page := models.Page[T]{Items: []T{}, Page: req.Page, Size: req.Size}

	if err := validate.Struct(req); err != nil {
		return page, err
	}
	// OFFSET has to fit bigint
	if req.Page-1 > math.MaxInt/req.Size {
		return page, apperrors.NewValidation("Request validation failed", map[string]string{
			"page": "Value is too large",
		})
	}

	q, err := newQuery(t, decorate)
	if err != nil {
		return page, err
	}

	order := q.order
	if !slices.ContainsFunc(order, func(o repository.Order) bool { return o.Column == t.Key }) {
		order = append(slices.Clone(order), repository.Order{Column: t.Key, Direction: repository.Desc})
	}

	where, args := q.whereSQL()
	skip := (req.Page - 1) * req.Size

	query := "SELECT " + strings.Join(t.Columns, ", ") + " FROM " + t.Name + where + orderSQL(order) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)

	rows, err := db.Query(ctx, query, append(args, req.Size, skip)...)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	items, err := pgx.CollectRows(rows, t.Scan)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	var total int64
	err = db.QueryRow(ctx, "SELECT count(*) FROM "+t.Name+where, args...).Scan(&total)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	if items != nil {
		page.Items = items
	}
	page.Total = total

	return page, nil
}

// PaginateCursor returns page of rows after the cursor
// The key is always the last sort column: DESC unless caller ordered by key ascending
// Only the key takes part in the cursor condition
func PaginateCursor[T any](ctx context.Context, db DBTX, t Table[T], req models.CursorRequest, decorate func(*Query)) (models.CursorPage[T], error) {
	page := models.CursorPage[T]{Items: []T{}, Size: req.Size}

	if err := validate.Struct(req); err != nil {
		return page, err
	}

	var cursor int64
	if req.Cursor != "" {
		c, err := strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil {
			return page, apperrors.NewValidation("Request validation failed", map[string]string{
				"cursor": "Value must be a number",
			})
		}
		cursor = c
	}

	q, err := newQuery(t, decorate)
	if err != nil {
		return page, err
	}

	keyDir := repository.Desc
	order := make([]repository.Order, 0, len(q.order)+1)
	for _, o := range q.order {
		if o.Column == t.Key {
			keyDir = o.Direction
			continue
		}
		order = append(order, o)
	}
	order = append(order, repository.Order{Column: t.Key, Direction: keyDir})

	if req.Cursor != "" {
		switch keyDir {
		case repository.Asc:
			q.Where(t.Key+" > ?", cursor)
		default:
			q.Where(t.Key+" < ?", cursor)
		}
	}

	where, args := q.whereSQL()
	query := "SELECT " + strings.Join(t.Columns, ", ") + " FROM " + t.Name + where + orderSQL(order) +
		fmt.Sprintf(" LIMIT $%d", len(args)+1)

	// One extra row tells whether the next page exists
	rows, err := db.Query(ctx, query, append(args, req.Size+1)...)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	items, err := pgx.CollectRows(rows, t.Scan)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}

	if len(items) > req.Size {
		page.NextCursor = strconv.FormatInt(t.KeyOf(items[req.Size-1]), 10)
		items = items[:req.Size]
	}

	if items != nil {
		page.Items = items
	}

	return page, nil
}
