// Package header is an ordered, case-insensitive (name, value) container for
// HTTP header fields and chunked-body trailers.
//
// Header names are compared case-insensitively but stored in their received
// case, and duplicate names are preserved in order, the same requirement
// kv.Storage was built for, generalized here from string pairs to
// byte-string pairs since header content is not guaranteed to be valid
// UTF-8. A map-of-lists primary representation is deliberately avoided:
// RFC order matters for headers like Set-Cookie.
package header

import (
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// Field is a single (name, value) pair as it appeared on the wire.
type Field struct {
	Name, Value []byte
}

// List is an ordered sequence of header fields with case-insensitive lookup.
// The zero value is ready to use.
type List struct {
	fields []Field
}

// New returns a List with room for n fields preallocated.
func New(n int) *List {
	return &List{fields: make([]Field, 0, n)}
}

// Add appends a field, preserving any earlier field of the same name.
func (l *List) Add(name, value []byte) *List {
	l.fields = append(l.fields, Field{Name: name, Value: value})
	return l
}

// AddString is Add for callers holding string views already.
func (l *List) AddString(name, value string) *List {
	return l.Add(uf.S2B(name), uf.S2B(value))
}

// Get returns the first value stored under name, case-insensitively.
func (l *List) Get(name string) (value string, found bool) {
	for _, f := range l.fields {
		if strcomp.EqualFold(uf.B2S(f.Name), name) {
			return uf.B2S(f.Value), true
		}
	}

	return "", false
}

// Has reports whether any field under name is present.
func (l *List) Has(name string) bool {
	_, found := l.Get(name)
	return found
}

// Values appends every value stored under name to dst, in wire order.
func (l *List) Values(dst []string, name string) []string {
	for _, f := range l.fields {
		if strcomp.EqualFold(uf.B2S(f.Name), name) {
			dst = append(dst, uf.B2S(f.Value))
		}
	}

	return dst
}

// Len returns the number of fields.
func (l *List) Len() int {
	return len(l.fields)
}

// Fields exposes the underlying ordered slice. Callers must not retain it
// past the next mutating call.
func (l *List) Fields() []Field {
	return l.fields
}

// Reset empties the list without releasing its backing array, so it can be
// reused for another message.
func (l *List) Reset() *List {
	l.fields = l.fields[:0]
	return l
}

// Clone makes an independent deep copy.
func (l *List) Clone() *List {
	fields := make([]Field, len(l.fields))
	for i, f := range l.fields {
		fields[i] = Field{Name: append([]byte(nil), f.Name...), Value: append([]byte(nil), f.Value...)}
	}

	return &List{fields: fields}
}

// ContainsToken reports whether any occurrence of name, comma-split into
// tokens (as Connection and Transfer-Encoding values are), contains token
// case-insensitively. Multiple occurrences of name are all considered, each
// split independently.
func ContainsToken(l *List, name, token string) bool {
	for _, f := range l.fields {
		if !strcomp.EqualFold(uf.B2S(f.Name), name) {
			continue
		}

		if hasToken(uf.B2S(f.Value), token) {
			return true
		}
	}

	return false
}

// LastToken returns the last comma-separated token of the last occurrence of
// name, used for Transfer-Encoding's "last value wins" chunked detection.
func LastToken(l *List, name string) (token string, found bool) {
	for i := len(l.fields) - 1; i >= 0; i-- {
		f := l.fields[i]
		if !strcomp.EqualFold(uf.B2S(f.Name), name) {
			continue
		}

		value := uf.B2S(f.Value)
		if comma := lastIndexByte(value, ','); comma != -1 {
			value = value[comma+1:]
		}

		return trimOWS(value), true
	}

	return "", false
}

func hasToken(value, token string) bool {
	for len(value) > 0 {
		part := value
		if comma := indexByte(value, ','); comma != -1 {
			part, value = value[:comma], value[comma+1:]
		} else {
			value = ""
		}

		if strcomp.EqualFold(trimOWS(part), token) {
			return true
		}
	}

	return false
}

func trimOWS(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}

	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}

	return s
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}

	return -1
}

func lastIndexByte(s string, c byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == c {
			return i
		}
	}

	return -1
}
