// Package embed turns text into fixed-length hashing-trick bag-of-words vectors.
//
// The same Embedder must be used for the catalog and for queries: bucket
// positions depend on Hash32, and any change to it invalidates every vector
// already stored in the index.
package embed

import (
	"math"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dimensions is the vector size shared with the occupation index.
const Dimensions = 384

// minTokenLen is the longest token that is still discarded.
const minTokenLen = 2

// Vector is an embedding. It has unit L2 norm, or is all zeros when the
// input had no countable tokens.
type Vector []float64

// Float32 converts v for stores that keep single-precision vectors.
func (v Vector) Float32() []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Norm returns the L2 norm of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component is zero.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Embedder is a pure, deterministic text embedder. The zero value is not
// usable; construct with New.
type Embedder struct {
	dims int
}

// New returns an Embedder producing vectors of the given size.
// Non-positive sizes fall back to Dimensions.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = Dimensions
	}
	return &Embedder{dims: dims}
}

// Dimensions returns the vector size produced by e.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed embeds text. Callers reject empty input before calling.
func (e *Embedder) Embed(text string) Vector {
	v := make(Vector, e.dims)
	for _, tok := range Tokenize(text) {
		v[Bucket(tok, e.dims)]++
	}

	mag := v.Norm()
	if mag == 0 {
		return v
	}
	for i := range v {
		v[i] /= mag
	}
	return v
}

// Tokenize lowercases text with full Unicode case mapping, splits it on
// ECMAScript whitespace and drops tokens of two UTF-16 code units or fewer.
// Both rules match the tooling that built the occupation index.
func Tokenize(text string) []string {
	// A Caser keeps state between calls, so each call gets its own.
	lower := cases.Lower(language.Und).String(text)
	fields := strings.FieldsFunc(lower, IsSpace)
	out := fields[:0]
	for _, f := range fields {
		if UTF16Len(f) > minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// IsSpace reports whether r is whitespace as matched by \s in an
// ECMAScript regular expression. Unlike unicode.IsSpace it excludes U+0085
// and includes U+FEFF.
func IsSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u1680',
		'\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// Hash32 is the polynomial rolling hash h = h*31 + c over the UTF-16 code
// units of s, wrapped to a signed 32-bit integer after every step.
func Hash32(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}
	return h
}

// Bucket maps a token to its vector index: |Hash32(tok)| mod dims.
func Bucket(tok string, dims int) int {
	h := int64(Hash32(tok))
	if h < 0 {
		h = -h
	}
	return int(h % int64(dims))
}

// UTF16Len is the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
