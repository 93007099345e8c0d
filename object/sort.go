package object

import (
	"sort"
)

// Sort a slice of objects in place. If a non-comparable object is found, an
// error is returned.
func Sort(items []Object) error {
	var sortErr error
	sort.SliceStable(items, func(a, b int) bool {
		if sortErr != nil {
			return false
		}
		compA, ok := items[a].(Comparable)
		if !ok {
			sortErr = TypeErrorf("sorted() encountered a non-comparable item (%s)", items[a].Type())
			return false
		}
		if _, ok := items[b].(Comparable); !ok {
			sortErr = TypeErrorf("sorted() encountered a non-comparable item (%s)", items[b].Type())
			return false
		}
		result, err := compA.Compare(items[b])
		if err != nil {
			sortErr = err
			return false
		}
		return result < 0
	})
	return sortErr
}
