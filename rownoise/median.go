package rownoise

// medianInPlace returns the element that would sit at index len(vals)/2 if
// vals were sorted, reordering vals in the process. For an even number of
// values this is the upper of the two middle elements, not the lower one
// that "partition at the midpoint" is sometimes described as. The correction
// stage selects index len/2 on its side, and the fitted weights only
// reproduce its green differences if both agree. No averaging takes place.
func medianInPlace(vals []int32) int32 {
	k := len(vals) / 2
	lo, hi := 0, len(vals)-1

	for lo < hi {
		pivot := vals[lo+(hi-lo)/2]
		i, j := lo, hi
		for i <= j {
			for vals[i] < pivot {
				i++
			}
			for vals[j] > pivot {
				j--
			}
			if i <= j {
				vals[i], vals[j] = vals[j], vals[i]
				i++
				j--
			}
		}

		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return vals[k]
		}
	}

	return vals[k]
}
