// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package natsort orders file names so that embedded numbers compare by
// magnitude: "page2.jpg" sorts before "page10.jpg".
//
// A name is split into alternating text and digit runs. Digit runs compare
// as unsigned integers of any length; text runs compare after Unicode case
// folding. Only ASCII digits start a digit run.
package natsort

import (
	"os"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// chunk is one run of a Key. Even positions hold text, odd positions digits.
type chunk struct {
	text  string
	digit bool
}

// Key is the precomputed sort key of a name.
type Key []chunk

// KeyOf splits s into its text and digit runs. The first run is always text,
// possibly empty, so keys of any two names line up position by position.
func KeyOf(s string) Key {
	fold := cases.Fold()
	key := make(Key, 0, 4)

	start := 0
	digit := false
	for i := 0; i < len(s); i++ {
		d := isDigit(s[i])
		if d == digit {
			continue
		}
		key = append(key, newChunk(fold, s[start:i], digit))
		start = i
		digit = d
	}
	key = append(key, newChunk(fold, s[start:], digit))
	return key
}

func newChunk(fold cases.Caser, run string, digit bool) chunk {
	if digit {
		// Leading zeros carry no magnitude.
		trimmed := strings.TrimLeft(run, "0")
		return chunk{text: trimmed, digit: true}
	}
	return chunk{text: fold.String(run)}
}

// Compare returns -1, 0 or +1. A key that is a prefix of the other sorts first.
func (k Key) Compare(other Key) int {
	n := min(len(k), len(other))
	for i := 0; i < n; i++ {
		if c := k[i].compare(other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	}
	return 0
}

func (c chunk) compare(o chunk) int {
	if c.digit && o.digit {
		// Without leading zeros a longer run is a larger number.
		if len(c.text) != len(o.text) {
			if len(c.text) < len(o.text) {
				return -1
			}
			return 1
		}
	}
	return strings.Compare(c.text, o.text)
}

// Compare orders a and b naturally.
func Compare(a, b string) int {
	return KeyOf(a).Compare(KeyOf(b))
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings sorts names in place. Equal keys keep their input order.
func Strings(names []string) {
	sortByKey(names, func(s string) string { return s })
}

// Entries sorts directory entries in place by name.
func Entries(entries []os.DirEntry) {
	sortByKey(entries, os.DirEntry.Name)
}

func sortByKey[T any](items []T, name func(T) string) {
	type keyed struct {
		key  Key
		item T
	}
	tmp := make([]keyed, len(items))
	for i, it := range items {
		tmp[i] = keyed{key: KeyOf(name(it)), item: it}
	}
	slices.SortStableFunc(tmp, func(a, b keyed) int {
		return a.key.Compare(b.key)
	})
	for i := range tmp {
		items[i] = tmp[i].item
	}
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}
