package rawframe

// FormatError reports a stream whose header cannot be read or whose geometry
// cannot be established. No frames decoded before the error are usable.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return "rawframe: format error: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

// StreamError reports an I/O or decompression failure in the middle of a
// stream.
type StreamError struct {
	Frame int
	Err   error
}

func (e *StreamError) Error() string {
	return "rawframe: stream error: " + e.Err.Error()
}

func (e *StreamError) Unwrap() error { return e.Err }
