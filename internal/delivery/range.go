package delivery

import (
	"strconv"
	"strings"
)

// ByteRange is an inclusive window of a blob.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes in the window.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// RangeOutcome says how a Range header applies to a blob.
type RangeOutcome int

const (
	// RangeNone serves the whole blob: no header, a malformed header, or a
	// form this engine does not support (multi-range, suffix).
	RangeNone RangeOutcome = iota
	// RangePartial serves the returned window with 206.
	RangePartial
	// RangeUnsatisfiable means the window starts at or past the end of the blob.
	RangeUnsatisfiable
)

// ParseRange interprets a single "bytes=<start>-[<end>]" range against a blob
// of the given size. An omitted or overlong end is clamped to size-1.
func ParseRange(header string, size int64) (ByteRange, RangeOutcome) {
	header = strings.TrimSpace(header)
	const unit = "bytes="
	if len(header) <= len(unit) || !strings.EqualFold(header[:len(unit)], unit) {
		return ByteRange{}, RangeNone
	}
	set := header[len(unit):]
	if strings.Contains(set, ",") {
		return ByteRange{}, RangeNone
	}

	startStr, endStr, ok := strings.Cut(set, "-")
	if !ok {
		return ByteRange{}, RangeNone
	}
	start, ok := parseOffset(strings.TrimSpace(startStr))
	if !ok {
		return ByteRange{}, RangeNone
	}

	end := size - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		e, ok := parseOffset(endStr)
		if !ok || e < start {
			return ByteRange{}, RangeNone
		}
		if e < end {
			end = e
		}
	}

	if start >= size {
		return ByteRange{}, RangeUnsatisfiable
	}
	return ByteRange{Start: start, End: end}, RangePartial
}

// parseOffset accepts only plain decimal digits.
func parseOffset(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
