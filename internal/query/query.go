// Package query implements the collection-agnostic list pipeline shared by
// the order and product endpoints: filter, stable sort, paginate.
package query

import (
	"sort"

	"github.com/go-faster/errors"
)

// ErrInvalidQuery indicates malformed pagination parameters.
var ErrInvalidQuery = errors.New("invalid query")

// NoLimit disables pagination: the whole filtered result is returned as a
// single page.
const NoLimit = -1

// Predicate reports whether a record matches a filter stage. Multiple
// predicates compose by logical AND.
type Predicate[T any] func(T) bool

// LessFunc orders two records for sorting.
type LessFunc[T any] func(a, b T) bool

// Result is the envelope returned by every listing operation.
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Run applies filters, an optional stable sort, and pagination over records.
// The input slice is not modified. page must be >= 1 and limit must be >= 1
// or NoLimit; a page past the last one yields empty items with correct
// totals.
func Run[T any](records []T, filters []Predicate[T], less LessFunc[T], page, limit int) (Result[T], error) {
	if page < 1 {
		return Result[T]{}, errors.Wrapf(ErrInvalidQuery, "page %d", page)
	}
	if limit != NoLimit && limit < 1 {
		return Result[T]{}, errors.Wrapf(ErrInvalidQuery, "limit %d", limit)
	}

	matched := make([]T, 0, len(records))
	for _, r := range records {
		if matches(r, filters) {
			matched = append(matched, r)
		}
	}

	if less != nil {
		// Stable so that ties keep their collection order.
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i], matched[j])
		})
	}

	total := len(matched)

	if limit == NoLimit {
		totalPages := 0
		if total > 0 {
			totalPages = 1
		}
		return Result[T]{
			Items:      matched,
			Total:      total,
			Page:       1,
			PageSize:   total,
			TotalPages: totalPages,
		}, nil
	}

	offset := (page - 1) * limit
	items := []T{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		items = matched[offset:end]
	}

	return Result[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func matches[T any](r T, filters []Predicate[T]) bool {
	for _, f := range filters {
		if !f(r) {
			return false
		}
	}
	return true
}
