package memory

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"career-chat-be/internal/repository/specification"
)

// query is the in-memory reading of a specification list: row filters,
// then ordering, then pagination, in the same order SQL applies them.
type query[T any] struct {
	filters []func(*T) bool
	orders  []specification.OrderBy
	limit   int
	offset  int
}

// predicateFunc turns a filter spec into a row predicate. ok is false when
// the specification is not a filter this entity understands.
type predicateFunc[T any] func(spec specification.Specification) (pred func(*T) bool, ok bool)

// orderKey returns a comparator for a column name.
type orderKey[T any] func(field string) (func(a, b *T) int, bool)

func compile[T any](specs []specification.Specification, predicate predicateFunc[T]) (*query[T], error) {
	q := &query[T]{limit: -1}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			q.orders = append(q.orders, s)
		case specification.Pagination:
			q.limit = s.Limit
			q.offset = s.Offset
		default:
			pred, ok := predicate(spec)
			if !ok {
				return nil, fmt.Errorf("memory store: unsupported specification %T", spec)
			}
			q.filters = append(q.filters, pred)
		}
	}
	return q, nil
}

func (q *query[T]) match(row *T) bool {
	for _, f := range q.filters {
		if !f(row) {
			return false
		}
	}
	return true
}

// run filters rows, sorts stably (insertion order breaks ties) and pages.
func (q *query[T]) run(rows []*T, keys orderKey[T]) ([]*T, error) {
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		if q.match(row) {
			out = append(out, row)
		}
	}

	if len(q.orders) > 0 {
		comparators := make([]func(a, b *T) int, 0, len(q.orders))
		for _, o := range q.orders {
			c, ok := keys(o.Field)
			if !ok {
				return nil, fmt.Errorf("memory store: cannot order by %q", o.Field)
			}
			if o.Desc {
				asc := c
				c = func(a, b *T) int { return -asc(a, b) }
			}
			comparators = append(comparators, c)
		}
		slices.SortStableFunc(out, func(a, b *T) int {
			for _, c := range comparators {
				if r := c(a, b); r != 0 {
					return r
				}
			}
			return 0
		})
	}

	if q.offset > 0 {
		if q.offset >= len(out) {
			return []*T{}, nil
		}
		out = out[q.offset:]
	}
	if q.limit >= 0 && q.limit < len(out) {
		out = out[:q.limit]
	}
	return out, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func compareStrings(a, b string) int {
	return cmp.Compare(a, b)
}
