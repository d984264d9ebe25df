package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPosition is returned when a resume position cannot be parsed.
var ErrInvalidPosition = errors.New("invalid position")

// Position addresses a path inside the manifest: the row, then the index of
// the path within that row's expansion.
type Position struct {
	Row   int
	Index int
}

// ParsePosition parses "R" or "R.I". Both parts must be non-negative integers.
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Position{}, nil
	}

	rowStr, idxStr, hasIdx := strings.Cut(s, ".")
	row, err := strconv.Atoi(rowStr)
	if err != nil || row < 0 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	if !hasIdx {
		return Position{Row: row}, nil
	}

	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return Position{Row: row, Index: idx}, nil
}

func (p Position) String() string {
	if p.Index == 0 {
		return strconv.Itoa(p.Row)
	}
	return fmt.Sprintf("%d.%d", p.Row, p.Index)
}

// Less orders positions row first.
func (p Position) Less(o Position) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Index < o.Index
}

// Next is the position right after p within the same row.
func (p Position) Next() Position {
	return Position{Row: p.Row, Index: p.Index + 1}
}
