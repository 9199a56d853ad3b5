// Package phpserial decodes the PHP serialize() format for the scalar subset
// the CommonsBooking backend emits (booleans, integers, floats, strings and
// flat arrays thereof). Nested arrays and objects are out of scope.
package phpserial

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeError reports malformed input with the byte offset of the problem.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("phpserial: invalid input at offset %d: %s", e.Offset, e.Reason)
}

// Decode parses a single PHP-serialized value. Scalars decode to bool, int64,
// float64 or string; arrays decode to their values as []interface{}, in
// declaration order (PHP array keys are dropped).
func Decode(input string) (interface{}, error) {
	p := &parser{input: input}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.input) {
		return nil, &DecodeError{Offset: p.pos, Reason: "trailing data"}
	}
	return v, nil
}

// DecodeWithDefault behaves like Decode but swallows decode errors and
// returns def instead. Use when the caller has a safe fallback value.
func DecodeWithDefault(input string, def interface{}) interface{} {
	v, err := Decode(input)
	if err != nil {
		return def
	}
	return v
}

// IsSerializedArray reports whether input looks like a serialized PHP array.
// Cheap prefix test, meant for distinguishing payload variants before decoding.
func IsSerializedArray(input string) bool {
	return strings.HasPrefix(input, "a:")
}

type parser struct {
	input string
	pos   int
}

func (p *parser) fail(reason string) error {
	return &DecodeError{Offset: p.pos, Reason: reason}
}

func (p *parser) value() (interface{}, error) {
	if p.pos >= len(p.input) {
		return nil, p.fail("unexpected end of input")
	}

	marker := p.input[p.pos]
	switch marker {
	case 'b':
		return p.boolean()
	case 'i':
		return p.integer()
	case 'd':
		return p.float()
	case 's':
		return p.str()
	case 'a':
		return p.array()
	default:
		return nil, p.fail(fmt.Sprintf("unsupported type marker %q", marker))
	}
}

func (p *parser) expect(s string) error {
	if !strings.HasPrefix(p.input[p.pos:], s) {
		return p.fail(fmt.Sprintf("expected %q", s))
	}
	p.pos += len(s)
	return nil
}

// readUntil consumes up to (not including) the delimiter and returns the span.
func (p *parser) readUntil(delim byte) (string, error) {
	idx := strings.IndexByte(p.input[p.pos:], delim)
	if idx < 0 {
		return "", p.fail(fmt.Sprintf("expected %q", string(delim)))
	}
	span := p.input[p.pos : p.pos+idx]
	p.pos += idx
	return span, nil
}

func (p *parser) boolean() (interface{}, error) {
	if err := p.expect("b:"); err != nil {
		return nil, err
	}
	raw, err := p.readUntil(';')
	if err != nil {
		return nil, err
	}
	p.pos++ // consume ';'
	switch raw {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return nil, p.fail("boolean must be 0 or 1")
	}
}

func (p *parser) integer() (interface{}, error) {
	if err := p.expect("i:"); err != nil {
		return nil, err
	}
	raw, err := p.readUntil(';')
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, p.fail("malformed integer")
	}
	p.pos++
	return n, nil
}

func (p *parser) float() (interface{}, error) {
	if err := p.expect("d:"); err != nil {
		return nil, err
	}
	raw, err := p.readUntil(';')
	if err != nil {
		return nil, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, p.fail("malformed float")
	}
	p.pos++
	return f, nil
}

func (p *parser) str() (interface{}, error) {
	if err := p.expect("s:"); err != nil {
		return nil, err
	}
	raw, err := p.readUntil(':')
	if err != nil {
		return nil, err
	}
	length, err := strconv.Atoi(raw)
	if err != nil || length < 0 {
		return nil, p.fail("malformed string length")
	}
	p.pos++ // consume ':'
	if err := p.expect(`"`); err != nil {
		return nil, err
	}
	// The length prefix is in bytes, so we can slice directly.
	if p.pos+length > len(p.input) {
		return nil, p.fail("string shorter than declared length")
	}
	s := p.input[p.pos : p.pos+length]
	p.pos += length
	if err := p.expect(`";`); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) array() (interface{}, error) {
	if err := p.expect("a:"); err != nil {
		return nil, err
	}
	raw, err := p.readUntil(':')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return nil, p.fail("malformed array length")
	}
	p.pos++
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	values := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		// Keys are decoded and discarded; only value order matters to us.
		if _, err := p.value(); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return values, nil
}
