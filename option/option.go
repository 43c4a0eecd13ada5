// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package option implements the CoAP option container: a delta-encoded,
// ordered list of header options (RFC 7252 §3.1) with typed accessors for
// the well-known option numbers.
package option

import (
	"fmt"
	"sort"
)

// Number identifies a CoAP option (RFC 7252 §5.10, plus the RFC 7959
// block-wise extensions).
type Number uint16

// Well-known option numbers. All but Uri-Host, Uri-Port, Location-Path and
// Location-Query have typed accessors on [Set].
const (
	IfMatch       Number = 1
	URIHost       Number = 3
	ETag          Number = 4
	IfNoneMatch   Number = 5
	Observe       Number = 6
	URIPort       Number = 7
	LocationPath  Number = 8
	URIPath       Number = 11
	ContentFormat Number = 12
	MaxAge        Number = 14
	URIQuery      Number = 15
	Accept        Number = 17
	LocationQuery Number = 20
	Block2        Number = 23
	Block1        Number = 27
	Size2         Number = 28
	ProxyURI      Number = 35
	ProxyScheme   Number = 39
	Size1         Number = 60
)

// Critical reports whether the option number is critical, i.e. a recipient
// that does not understand the option must reject the message (odd
// numbers). Elective (even) options may be safely ignored.
func (n Number) Critical() bool { return n&1 != 0 }

// Repeatable reports whether more than one instance of the option may
// appear in a single message.
func (n Number) Repeatable() bool {
	switch n {
	case IfMatch, ETag, URIPath, URIQuery, LocationPath, LocationQuery:
		return true
	default:
		return false
	}
}

// ValueRange reports the registered minimum and maximum value length in
// bytes for the option number. Numbers outside the well-known set report
// (0, 65535), i.e. unconstrained, consistent with spec.md §4.2's rule that
// an unknown critical option still decodes successfully.
func (n Number) ValueRange() (min, max int) {
	switch n {
	case IfMatch:
		return 0, 8
	case URIHost:
		return 1, 255
	case ETag:
		return 1, 8
	case IfNoneMatch:
		return 0, 0
	case Observe:
		return 0, 3
	case URIPort:
		return 0, 2
	case LocationPath:
		return 0, 255
	case URIPath:
		return 0, 255
	case ContentFormat:
		return 0, 2
	case MaxAge:
		return 0, 4
	case URIQuery:
		return 0, 255
	case Accept:
		return 0, 2
	case LocationQuery:
		return 0, 255
	case Block2, Block1:
		return 0, 3
	case Size2:
		return 0, 4
	case ProxyURI:
		return 1, 1034
	case ProxyScheme:
		return 1, 255
	case Size1:
		return 0, 4
	default:
		return 0, 65535
	}
}

func (n Number) String() string {
	switch n {
	case IfMatch:
		return "If-Match"
	case URIHost:
		return "Uri-Host"
	case ETag:
		return "ETag"
	case IfNoneMatch:
		return "If-None-Match"
	case Observe:
		return "Observe"
	case URIPort:
		return "Uri-Port"
	case LocationPath:
		return "Location-Path"
	case URIPath:
		return "Uri-Path"
	case ContentFormat:
		return "Content-Format"
	case MaxAge:
		return "Max-Age"
	case URIQuery:
		return "Uri-Query"
	case Accept:
		return "Accept"
	case LocationQuery:
		return "Location-Query"
	case Block2:
		return "Block2"
	case Block1:
		return "Block1"
	case Size2:
		return "Size2"
	case ProxyURI:
		return "Proxy-Uri"
	case ProxyScheme:
		return "Proxy-Scheme"
	case Size1:
		return "Size1"
	default:
		return fmt.Sprintf("option %d", uint16(n))
	}
}

// entry is one (number, values) pair held by a Set. values holds one slice
// per occurrence of the option, preserving insertion order among repeats.
type entry struct {
	number Number
	values [][]byte
}

// Set is an ordered container of header options, keyed by option number.
// Options are always iterated and encoded in ascending numeric order; the
// zero value is an empty set ready for use.
type Set struct {
	entries []entry
}

// Clone returns a deep copy of s.
func (s Set) Clone() Set {
	out := Set{entries: make([]entry, len(s.entries))}
	for i, e := range s.entries {
		vs := make([][]byte, len(e.values))
		for j, v := range e.values {
			vs[j] = append([]byte(nil), v...)
		}
		out.entries[i] = entry{number: e.number, values: vs}
	}
	return out
}

func (s *Set) find(n Number) int {
	return sort.Search(len(s.entries), func(i int) bool { return s.entries[i].number >= n })
}

// Add appends value as an additional occurrence of option n, preserving
// ascending order of the option set. Use Add for repeatable options; for
// single-valued options prefer SetValue, which replaces any existing value.
func (s *Set) Add(n Number, value []byte) {
	i := s.find(n)
	if i < len(s.entries) && s.entries[i].number == n {
		s.entries[i].values = append(s.entries[i].values, value)
		return
	}
	e := entry{number: n, values: [][]byte{value}}
	s.entries = append(s.entries, entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// SetValue replaces all occurrences of option n with a single value.
func (s *Set) SetValue(n Number, value []byte) {
	i := s.find(n)
	if i < len(s.entries) && s.entries[i].number == n {
		s.entries[i].values = [][]byte{value}
		return
	}
	e := entry{number: n, values: [][]byte{value}}
	s.entries = append(s.entries, entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// Remove deletes all occurrences of option n.
func (s *Set) Remove(n Number) {
	i := s.find(n)
	if i < len(s.entries) && s.entries[i].number == n {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
}

// Get returns the first value of option n, or (nil, false) if absent.
func (s Set) Get(n Number) ([]byte, bool) {
	i := s.find(n)
	if i < len(s.entries) && s.entries[i].number == n && len(s.entries[i].values) > 0 {
		return s.entries[i].values[0], true
	}
	return nil, false
}

// GetAll returns every value of option n in insertion order.
func (s Set) GetAll(n Number) [][]byte {
	i := s.find(n)
	if i < len(s.entries) && s.entries[i].number == n {
		return s.entries[i].values
	}
	return nil
}

// Has reports whether option n is present at least once.
func (s Set) Has(n Number) bool { _, ok := s.Get(n); return ok }

// Numbers returns the distinct option numbers present, in ascending order.
func (s Set) Numbers() []Number {
	out := make([]Number, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.number
	}
	return out
}

// Len reports the total number of option occurrences (counting repeats).
func (s Set) Len() int {
	n := 0
	for _, e := range s.entries {
		n += len(e.values)
	}
	return n
}

// Equal reports whether s and other hold the same options and values.
func (s Set) Equal(other Set) bool {
	if len(s.entries) != len(other.entries) {
		return false
	}
	for i, e := range s.entries {
		o := other.entries[i]
		if e.number != o.number || len(e.values) != len(o.values) {
			return false
		}
		for j := range e.values {
			if string(e.values[j]) != string(o.values[j]) {
				return false
			}
		}
	}
	return true
}
