package state

import (
	"fmt"
	"slices"

	"clinic/internal/core"
)

func clientID(c core.Client) string   { return c.ID }
func staffID(s core.Staff) string     { return s.ID }
func sessionID(s core.Session) string { return s.ID }
func paymentID(p core.Payment) string { return p.ID }

func find[T any](items []T, id string, idOf func(T) string) (T, bool) {
	for _, it := range items {
		if idOf(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// appendItem returns a new slice with item at the end.
func appendItem[T any](items []T, item T, idOf func(T) string) ([]T, error) {
	if _, ok := find(items, idOf(item), idOf); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, idOf(item))
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item), nil
}

// prependItem returns a new slice with item first.
func prependItem[T any](items []T, item T, idOf func(T) string) ([]T, error) {
	if _, ok := find(items, idOf(item), idOf); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, idOf(item))
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...), nil
}

// replaceItem returns a new slice with the element sharing item's id replaced,
// plus the element it replaced.
func replaceItem[T any](items []T, item T, idOf func(T) string) ([]T, T, error) {
	var old T
	idx := slices.IndexFunc(items, func(it T) bool { return idOf(it) == idOf(item) })
	if idx < 0 {
		return nil, old, fmt.Errorf("%w: %s", ErrNotFound, idOf(item))
	}
	old = items[idx]
	out := slices.Clone(items)
	out[idx] = item
	return out, old, nil
}

// removeItem returns a new slice without id, plus the removed element.
func removeItem[T any](items []T, id string, idOf func(T) string) ([]T, T, error) {
	old, ok := find(items, id, idOf)
	if !ok {
		return nil, old, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := filterOut(items, func(it T) bool { return idOf(it) == id })
	return out, old, nil
}

// filterOut returns a new non-nil slice without the elements matching drop.
func filterOut[T any](items []T, drop func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !drop(it) {
			out = append(out, it)
		}
	}
	return out
}

func cloneSlice[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func clonePayments(items []core.Payment) []core.Payment {
	out := make([]core.Payment, len(items))
	for i, p := range items {
		out[i] = clonePayment(p)
	}
	return out
}

func clonePayment(p core.Payment) core.Payment {
	ids := make([]string, len(p.SessionIDs))
	copy(ids, p.SessionIDs)
	p.SessionIDs = ids
	return p
}
