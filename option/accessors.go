// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package option

import (
	"encoding/binary"

	"github.com/coapcore/coap/block"
)

// uintValue decodes a CoAP "uint" option value: a big-endian integer with
// its leading zero bytes elided (RFC 7252 §3.2).
func uintValue(b []byte) uint32 {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return v
}

// putUintValue encodes v as a CoAP "uint" option value, eliding leading
// zero bytes, with the all-zero value encoded as zero bytes.
func putUintValue(v uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	i := 0
	for i < 4 && buf[i] == 0 {
		i++
	}
	return buf[i:]
}

// URIPaths returns the decoded Uri-Path segments in order.
func (s Set) URIPaths() []string {
	vs := s.GetAll(URIPath)
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

// SetURIPath replaces the Uri-Path segments with segments, one option per
// segment; a segment is stored as given and is not split on "/". Calling
// it with no segments clears the option.
func (s *Set) SetURIPath(segments ...string) {
	s.Remove(URIPath)
	for _, seg := range segments {
		s.Add(URIPath, []byte(seg))
	}
}

// URIQueries returns the decoded Uri-Query parameters in order.
func (s Set) URIQueries() []string {
	vs := s.GetAll(URIQuery)
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

// SetURIQuery replaces the Uri-Query parameters.
func (s *Set) SetURIQuery(params ...string) {
	s.Remove(URIQuery)
	for _, p := range params {
		s.Add(URIQuery, []byte(p))
	}
}

// ContentFormat returns the decoded Content-Format value, or (0, false) if
// absent.
func (s Set) ContentFormat() (uint32, bool) {
	v, ok := s.Get(ContentFormat)
	if !ok {
		return 0, false
	}
	return uintValue(v), true
}

// SetContentFormat sets the Content-Format option.
func (s *Set) SetContentFormat(v uint32) { s.SetValue(ContentFormat, putUintValue(v)) }

// Accept returns the decoded Accept value, or (0, false) if absent.
func (s Set) Accept() (uint32, bool) {
	v, ok := s.Get(Accept)
	if !ok {
		return 0, false
	}
	return uintValue(v), true
}

// SetAccept sets the Accept option.
func (s *Set) SetAccept(v uint32) { s.SetValue(Accept, putUintValue(v)) }

// MaxAge returns the decoded Max-Age value, defaulting to 60 per RFC 7252
// §5.10.5 if the option is absent.
func (s Set) MaxAge() uint32 {
	v, ok := s.Get(MaxAge)
	if !ok {
		return 60
	}
	return uintValue(v)
}

// SetMaxAge sets the Max-Age option.
func (s *Set) SetMaxAge(v uint32) { s.SetValue(MaxAge, putUintValue(v)) }

// ETags returns the decoded ETag values in order.
func (s Set) ETags() [][]byte { return s.GetAll(ETag) }

// AddETag appends an ETag value.
func (s *Set) AddETag(v []byte) { s.Add(ETag, v) }

// IfMatches returns the decoded If-Match values in order.
func (s Set) IfMatches() [][]byte { return s.GetAll(IfMatch) }

// AddIfMatch appends an If-Match value.
func (s *Set) AddIfMatch(v []byte) { s.Add(IfMatch, v) }

// HasIfNoneMatch reports whether the If-None-Match option is present.
func (s Set) HasIfNoneMatch() bool { return s.Has(IfNoneMatch) }

// SetIfNoneMatch sets or clears the (empty-valued) If-None-Match option.
func (s *Set) SetIfNoneMatch(on bool) {
	if on {
		s.SetValue(IfNoneMatch, nil)
	} else {
		s.Remove(IfNoneMatch)
	}
}

// Observe returns the decoded Observe sequence counter, or (0, false) if
// absent.
func (s Set) Observe() (uint32, bool) {
	v, ok := s.Get(Observe)
	if !ok {
		return 0, false
	}
	return uintValue(v), true
}

// SetObserve sets the Observe option.
func (s *Set) SetObserve(v uint32) { s.SetValue(Observe, putUintValue(v)) }

// Size1 returns the decoded Size1 value, or (0, false) if absent.
func (s Set) Size1() (uint32, bool) {
	v, ok := s.Get(Size1)
	if !ok {
		return 0, false
	}
	return uintValue(v), true
}

// SetSize1 sets the Size1 option.
func (s *Set) SetSize1(v uint32) { s.SetValue(Size1, putUintValue(v)) }

// Size2 returns the decoded Size2 value, or (0, false) if absent.
func (s Set) Size2() (uint32, bool) {
	v, ok := s.Get(Size2)
	if !ok {
		return 0, false
	}
	return uintValue(v), true
}

// SetSize2 sets the Size2 option.
func (s *Set) SetSize2(v uint32) { s.SetValue(Size2, putUintValue(v)) }

// ProxyURI returns the decoded Proxy-Uri value, or ("", false) if absent.
func (s Set) ProxyURI() (string, bool) {
	v, ok := s.Get(ProxyURI)
	if !ok {
		return "", false
	}
	return string(v), true
}

// SetProxyURI sets the Proxy-Uri option.
func (s *Set) SetProxyURI(v string) { s.SetValue(ProxyURI, []byte(v)) }

// ProxyScheme returns the decoded Proxy-Scheme value, or ("", false) if
// absent.
func (s Set) ProxyScheme() (string, bool) {
	v, ok := s.Get(ProxyScheme)
	if !ok {
		return "", false
	}
	return string(v), true
}

// SetProxyScheme sets the Proxy-Scheme option.
func (s *Set) SetProxyScheme(v string) { s.SetValue(ProxyScheme, []byte(v)) }

// RawBlock1 returns the raw Block1 option bytes, or (nil, false) if absent.
// Use the block package to decode the value into a [block.Option].
func (s Set) RawBlock1() ([]byte, bool) { return s.Get(Block1) }

// SetRawBlock1 sets the raw Block1 option bytes.
func (s *Set) SetRawBlock1(v []byte) { s.SetValue(Block1, v) }

// RawBlock2 returns the raw Block2 option bytes, or (nil, false) if absent.
func (s Set) RawBlock2() ([]byte, bool) { return s.Get(Block2) }

// SetRawBlock2 sets the raw Block2 option bytes.
func (s *Set) SetRawBlock2(v []byte) { s.SetValue(Block2, v) }

// Block1 decodes the Block1 option value, or reports ok=false if absent.
func (s Set) Block1() (block.Option, bool, error) {
	v, ok := s.Get(Block1)
	if !ok {
		return block.Option{}, false, nil
	}
	opt, err := block.Parse(v)
	return opt, true, err
}

// SetBlock1 encodes opt as the Block1 option value.
func (s *Set) SetBlock1(opt block.Option) error {
	v, err := opt.Bytes()
	if err != nil {
		return err
	}
	s.SetValue(Block1, v)
	return nil
}

// Block2 decodes the Block2 option value, or reports ok=false if absent.
func (s Set) Block2() (block.Option, bool, error) {
	v, ok := s.Get(Block2)
	if !ok {
		return block.Option{}, false, nil
	}
	opt, err := block.Parse(v)
	return opt, true, err
}

// SetBlock2 encodes opt as the Block2 option value.
func (s *Set) SetBlock2(opt block.Option) error {
	v, err := opt.Bytes()
	if err != nil {
		return err
	}
	s.SetValue(Block2, v)
	return nil
}
