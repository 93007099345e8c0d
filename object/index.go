package object

// ResolveIndex checks that the index is in bounds and transforms a negative
// index into the corresponding positive index.
func ResolveIndex(idx int64, size int64) (int64, error) {
	max := size - 1
	if idx > max {
		return 0, ValueErrorf("index out of range: %d", idx)
	}
	if idx >= 0 {
		return idx, nil
	}
	// -1 is the last item
	reversed := idx + size
	if reversed < 0 || reversed > max {
		return 0, ValueErrorf("index out of range: %d", idx)
	}
	return reversed, nil
}

// ResolveIntSlice checks that the slice start and stop indices are in bounds
// and transforms negative indices into the corresponding positive indices.
// A nil or Nil bound means the start or end of the container.
func ResolveIntSlice(slice Slice, size int64) (start int64, stop int64, err error) {
	stop = size
	if slice.Start != nil && slice.Start != Nil {
		startObj, ok := slice.Start.(*Int)
		if !ok {
			return 0, 0, TypeErrorf("slice start index must be an int (got %s)", slice.Start.Type())
		}
		start = startObj.value
	}
	if slice.Stop != nil && slice.Stop != Nil {
		stopObj, ok := slice.Stop.(*Int)
		if !ok {
			return 0, 0, TypeErrorf("slice stop index must be an int (got %s)", slice.Stop.Type())
		}
		stop = stopObj.value
	}
	if start < 0 {
		start = size + start
		if start < 0 {
			return 0, 0, ValueErrorf("slice start index is out of range")
		}
	}
	if stop < 0 {
		stop = size + stop
		if stop < 0 {
			return 0, 0, ValueErrorf("slice stop index is out of range")
		}
	}
	if start > size {
		start = size
	}
	if stop > size {
		stop = size
	}
	if start > stop {
		start = stop
	}
	return start, stop, nil
}
