// Package series holds the ordered label/count mappings that drive the
// dashboard charts. A Series is immutable once built and keeps the order in
// which the server emitted its labels.
package series

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrNull is returned when the payload is the JSON literal null.
	ErrNull = errors.New("series payload is null")
	// ErrNotObject is returned when the payload is not a JSON object.
	ErrNotObject = errors.New("series payload is not an object")
	// ErrNotNumber is returned for values that are not JSON numbers.
	ErrNotNumber = errors.New("count is not a number")
	// ErrFractional is returned for non-integral counts.
	ErrFractional = errors.New("count is not an integer")
	// ErrNegative is returned for counts below zero.
	ErrNegative = errors.New("count is negative")
	// ErrOutOfRange is returned for integral counts too large for int64.
	ErrOutOfRange = errors.New("count is out of range")
)

// Point is one label/count pair.
type Point struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Series is an ordered label -> count mapping.
type Series struct {
	points []Point
}

// New builds a Series from points. A repeated label keeps its first position
// and takes the later count.
func New(points ...Point) (Series, error) {
	out := make([]Point, 0, len(points))
	index := make(map[string]int, len(points))
	for _, p := range points {
		if p.Count < 0 {
			return Series{}, fmt.Errorf("label %q: %w", p.Label, ErrNegative)
		}
		if i, seen := index[p.Label]; seen {
			out[i].Count = p.Count
			continue
		}
		index[p.Label] = len(out)
		out = append(out, p)
	}
	return Series{points: out}, nil
}

// MustNew is New for fixed tables; it panics on invalid input.
func MustNew(points ...Point) Series {
	s, err := New(points...)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses a JSON object into a Series, preserving key order.
func Decode(data []byte) (Series, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return Series{}, fmt.Errorf("read payload: %w", err)
	}
	if tok == nil {
		return Series{}, ErrNull
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Series{}, ErrNotObject
	}

	var points []Point
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Series{}, fmt.Errorf("read label: %w", err)
		}
		label, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Series{}, fmt.Errorf("read count for %q: %w", label, err)
		}
		count, err := parseCount(raw)
		if err != nil {
			return Series{}, fmt.Errorf("label %q: %w", label, err)
		}
		points = append(points, Point{Label: label, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return Series{}, fmt.Errorf("close object: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Series{}, errors.New("trailing data after series object")
	}

	return New(points...)
}

func parseCount(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || !(s[0] == '-' || (s[0] >= '0' && s[0] <= '9')) {
		return 0, ErrNotNumber
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if errors.Is(ferr, strconv.ErrRange) {
			return 0, ErrOutOfRange
		}
		if ferr != nil {
			return 0, ErrNotNumber
		}
		switch {
		case math.IsInf(f, 0) || math.IsNaN(f):
			return 0, ErrOutOfRange
		case f != math.Trunc(f):
			return 0, ErrFractional
		case f < 0:
			return 0, ErrNegative
		case f >= math.MaxInt64:
			// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
			return 0, ErrOutOfRange
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, ErrNegative
	}
	return n, nil
}

// Len returns the number of labels.
func (s Series) Len() int { return len(s.points) }

// Labels returns the labels in insertion order.
func (s Series) Labels() []string {
	out := make([]string, len(s.points))
	for i, p := range s.points {
		out[i] = p.Label
	}
	return out
}

// Values returns the counts, index-aligned with Labels.
func (s Series) Values() []int64 {
	out := make([]int64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Count
	}
	return out
}

// Points returns a copy of the underlying pairs.
func (s Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Total sums every count.
func (s Series) Total() int64 {
	var total int64
	for _, p := range s.points {
		total += p.Count
	}
	return total
}

// Max returns the largest count, or 0 for an empty series.
func (s Series) Max() int64 {
	var top int64
	for _, p := range s.points {
		if p.Count > top {
			top = p.Count
		}
	}
	return top
}

// MarshalJSON encodes the series back into an ordered JSON object.
func (s Series) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range s.points {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(p.Count, 10))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the series for logs.
func (s Series) String() string {
	parts := make([]string, len(s.points))
	for i, p := range s.points {
		parts[i] = fmt.Sprintf("%s=%d", p.Label, p.Count)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
