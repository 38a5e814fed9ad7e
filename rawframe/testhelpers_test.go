package rawframe

// markedFrame returns the packed bytes of a frame whose samples are all
// fill, with the corner groups of the even half tagged with evenMarker and
// those of the odd half with oddMarker.
func markedFrame(r Resolution, frameNumber, evenMarker, oddMarker byte, fill int16) []byte {
	samples := make([]int16, r.Width*r.Height)
	for i := range samples {
		samples[i] = fill
	}
	packed := make([]byte, r.PackedSize())
	Pack12(packed, samples)

	lb := r.LineBytes()
	lastGroup := 3 * (r.Width/2 - 1)
	for _, line := range []int{0, 1, r.Height - 2, r.Height - 1} {
		marker := evenMarker
		if line%2 == 1 {
			marker = oddMarker
		}
		for _, group := range []int{0, lastGroup} {
			pos := line*lb + group
			packed[pos] = frameNumber
			packed[pos+1] = 1
			packed[pos+2] = marker
		}
	}

	return packed
}

func concatFrames(frames ...[]byte) []byte {
	var out []byte
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
