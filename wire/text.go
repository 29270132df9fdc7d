// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/hex"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var (
	integerPattern  = regexp.MustCompile(`^-?[0-9]+$`)
	base64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/]+$`)
	typeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	boolPattern     = regexp.MustCompile(`^[TF01]$`)
)

// SemanticType is a TypedObject attribute's semantic value type.
type SemanticType int

// The semantic attribute types carried by the wire protocol.
const (
	TypeBool SemanticType = iota
	TypeInt
	TypeString
	TypeID
	TypeTime
	TypeDouble
	TypeUndefined
)

var typeMarkerByName = map[string]SemanticType{
	"BOOL": TypeBool, "INT": TypeInt, "STRING": TypeString,
	"ID": TypeID, "TIME": TypeTime, "DOUBLE": TypeDouble, "UNDEFINED": TypeUndefined,
}

var typeNameByMarker = map[SemanticType]string{
	TypeBool: "BOOL", TypeInt: "INT", TypeString: "STRING",
	TypeID: "ID", TypeTime: "TIME", TypeDouble: "DOUBLE", TypeUndefined: "UNDEFINED",
}

// String renders the wire type marker for t.
func (t SemanticType) String() string { return typeNameByMarker[t] }

// TextScanner tokenizes the legacy typed-object text stream: whitespace
// separated tokens, with a handful of raw (non-tokenized) reads for
// string/time payloads whose content may itself contain whitespace.
type TextScanner struct {
	buf []byte
	pos int
}

// NewTextScanner wraps buf for sequential tokenized reads.
func NewTextScanner(buf []byte) *TextScanner {
	return &TextScanner{buf: buf}
}

// Len reports the number of unread bytes.
func (s *TextScanner) Len() int { return len(s.buf) - s.pos }

// Remaining returns the unread tail of the buffer, used to hand the
// cursor on to the next decoder when several typed objects are packed
// back-to-back in one batch (e.g. a collection fetch).
func (s *TextScanner) Remaining() []byte { return s.buf[s.pos:] }

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func (s *TextScanner) skipSpace() {
	for s.pos < len(s.buf) && isSpace(s.buf[s.pos]) {
		s.pos++
	}
}

// NextToken reads the next whitespace-delimited token.
func (s *TextScanner) NextToken() (string, error) {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.buf) && !isSpace(s.buf[s.pos]) {
		s.pos++
	}
	if start == s.pos {
		return "", errors.Wrap(ErrTruncated, "text: no more tokens")
	}
	return string(s.buf[start:s.pos]), nil
}

// ReadRaw consumes exactly n bytes without regard to whitespace.
func (s *TextScanner) ReadRaw(n int) ([]byte, error) {
	if s.Len() < n {
		return nil, errors.Wrap(ErrTruncated, "text: raw read")
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *TextScanner) nextMatching(pattern *regexp.Regexp, what string) (string, error) {
	tok, err := s.NextToken()
	if err != nil {
		return "", err
	}
	if !pattern.MatchString(tok) {
		return "", errors.Errorf("text: invalid %s: %q", what, tok)
	}
	return tok, nil
}

// ReadInt reads a decimal-text integer token.
func (s *TextScanner) ReadInt() (int64, error) {
	tok, err := s.nextMatching(integerPattern, "integer")
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(tok, 10, 64)
}

// ReadBase64Int reads a pseudo-base64 integer token (D6 attribute position).
func (s *TextScanner) ReadBase64Int() (int64, error) {
	tok, err := s.nextMatching(base64Pattern, "pseudo-base64 integer")
	if err != nil {
		return 0, err
	}
	return PseudoBase64ToInt(tok)
}

// ReadTypeName reads a bare type/attribute name token.
func (s *TextScanner) ReadTypeName() (string, error) {
	return s.nextMatching(typeNamePattern, "type name")
}

// ReadRepeating reads the "S"|"R" repeating marker.
func (s *TextScanner) ReadRepeating() (bool, error) {
	tok, err := s.NextToken()
	if err != nil {
		return false, err
	}
	switch tok {
	case "S":
		return false, nil
	case "R":
		return true, nil
	default:
		return false, errors.Errorf("text: invalid repeating marker: %q", tok)
	}
}

// ReadTypeMarker reads one of BOOL/INT/STRING/ID/TIME/DOUBLE/UNDEFINED.
func (s *TextScanner) ReadTypeMarker() (SemanticType, error) {
	tok, err := s.NextToken()
	if err != nil {
		return 0, err
	}
	t, ok := typeMarkerByName[tok]
	if !ok {
		return 0, errors.Errorf("text: invalid type marker: %q", tok)
	}
	return t, nil
}

// ReadEncodingMarker reads the 'A' (ASCII) or 'H' (hex) string encoding marker.
func (s *TextScanner) ReadEncodingMarker() (byte, error) {
	tok, err := s.NextToken()
	if err != nil {
		return 0, err
	}
	if tok != "A" && tok != "H" {
		return 0, errors.Errorf("text: invalid encoding marker: %q", tok)
	}
	return tok[0], nil
}

// ReadBoolean reads a "T"/"F"/"1"/"0" boolean token.
func (s *TextScanner) ReadBoolean() (bool, error) {
	tok, err := s.nextMatching(boolPattern, "boolean")
	if err != nil {
		return false, err
	}
	return tok == "T" || tok == "1", nil
}

// ReadString reads encoding marker, then integer length N, then consumes
// exactly N bytes (2N if hex), optionally stripping a trailing NUL.
func (s *TextScanner) ReadString() (string, error) {
	enc, err := s.ReadEncodingMarker()
	if err != nil {
		return "", err
	}
	n, err := s.ReadInt()
	if err != nil {
		return "", err
	}
	width := int(n)
	if enc == 'H' {
		width *= 2
	}
	// the payload is raw, separated from its length token by exactly one
	// delimiter byte, so skip that single separator before the raw read.
	s.skipOneSeparator()
	raw, err := s.ReadRaw(width)
	if err != nil {
		return "", err
	}
	var out []byte
	if enc == 'H' {
		out = make([]byte, len(raw)/2)
		if _, err := hex.Decode(out, raw); err != nil {
			return "", errors.Wrap(err, "text: invalid hex string")
		}
	} else {
		out = append([]byte(nil), raw...)
	}
	if len(out) > 0 && out[len(out)-1] == 0 {
		out = out[:len(out)-1]
	}
	return string(out), nil
}

func (s *TextScanner) skipOneSeparator() {
	if s.pos < len(s.buf) && isSpace(s.buf[s.pos]) {
		s.pos++
	}
}

// ReadTime reads a TIME value. A literal "xxx" token is a sentinel: the
// real value is the next 20 raw bytes (which may contain embedded
// whitespace, e.g. the legacy "Mon DD HH:MM:SS YYYY" form), read without
// tokenizing and then parsed the same as any other time string.
func (s *TextScanner) ReadTime() (t time.Time, ok bool, err error) {
	tok, err := s.NextToken()
	if err != nil {
		return time.Time{}, false, err
	}
	if tok == "xxx" {
		s.skipSpace()
		raw, err := s.ReadRaw(20)
		if err != nil {
			return time.Time{}, false, err
		}
		tok = string(raw)
	}
	return ParseTime(tok)
}

// TextWriter accumulates the legacy text encoding of a typed object.
type TextWriter struct {
	buf bytes.Buffer
}

// NewTextWriter returns an empty TextWriter.
func NewTextWriter() *TextWriter { return &TextWriter{} }

// Bytes returns the accumulated text.
func (w *TextWriter) Bytes() []byte { return w.buf.Bytes() }

// Token appends tok followed by a single space separator.
func (w *TextWriter) Token(tok string) *TextWriter {
	w.buf.WriteString(tok)
	w.buf.WriteByte(' ')
	return w
}

// Line appends tok followed by a newline, used between attribute records.
func (w *TextWriter) Line(tok string) *TextWriter {
	w.buf.WriteString(tok)
	w.buf.WriteByte('\n')
	return w
}

// Int appends a decimal integer token.
func (w *TextWriter) Int(v int64) *TextWriter {
	return w.Token(strconv.FormatInt(v, 10))
}

// Base64Int appends a pseudo-base64 integer token.
func (w *TextWriter) Base64Int(v int64) *TextWriter {
	return w.Token(IntToPseudoBase64(v))
}

// Bool appends a "T"/"F" token.
func (w *TextWriter) Bool(v bool) *TextWriter {
	if v {
		return w.Token("T")
	}
	return w.Token("F")
}

// Repeating appends the "S"|"R" repeating marker.
func (w *TextWriter) Repeating(repeating bool) *TextWriter {
	if repeating {
		return w.Token("R")
	}
	return w.Token("S")
}

// TypeMarker appends the semantic type marker.
func (w *TextWriter) TypeMarker(t SemanticType) *TextWriter {
	return w.Token(t.String())
}

// String appends an ASCII-encoded string value: "A", its length, then the
// raw bytes and a trailing space separator.
func (w *TextWriter) String(s string) *TextWriter {
	w.Token("A")
	w.Int(int64(len(s)))
	w.buf.WriteString(s)
	w.buf.WriteByte(' ')
	return w
}

// Raw appends s verbatim with no separator.
func (w *TextWriter) Raw(s string) *TextWriter {
	w.buf.WriteString(s)
	return w
}
