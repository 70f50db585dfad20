package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// numericText returns the textual form of a JSON number or numeric string.
func numericText(raw any) (string, bool) {
	switch v := raw.(type) {
	case json.Number:
		return string(v), true
	case string:
		return strings.TrimSpace(v), true
	case float64:
		// Use FormatFloat with 'f' to avoid scientific notation
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

// intCodec handles Edm.SByte, Edm.Int16, Edm.Int32 and Edm.Int64. OData v2
// carries Edm.Int64 as a JSON string.
type intCodec struct {
	bits     int
	asString bool
	native   bool
}

func (c intCodec) target() string {
	if c.native {
		return "int"
	}
	return fmt.Sprintf("int%d", c.bits)
}

func (c intCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	text, ok := numericText(raw)
	if !ok {
		return nil, formatErr(raw, c.target(), nil)
	}
	n, err := strconv.ParseInt(text, 10, c.bits)
	if err != nil {
		// Accept integral values written with a fraction, e.g. 3.0
		f, ferr := strconv.ParseFloat(text, 64)
		if ferr != nil || f != math.Trunc(f) || f < math.MinInt64 || f > math.MaxInt64 {
			return nil, formatErr(raw, c.target(), err)
		}
		n = int64(f)
		if c.bits < 64 && (n < -1<<(c.bits-1) || n > 1<<(c.bits-1)-1) {
			return nil, formatErr(raw, c.target(), strconv.ErrRange)
		}
	}
	switch {
	case c.native:
		return int(n), nil
	case c.bits == 8:
		return int8(n), nil
	case c.bits == 16:
		return int16(n), nil
	case c.bits == 32:
		return int32(n), nil
	}
	return n, nil
}

func (c intCodec) Encode(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	default:
		return nil, formatErr(value, c.target(), errUnexpectedType(value))
	}
	text := strconv.FormatInt(n, 10)
	if c.asString {
		return text, nil
	}
	return json.Number(text), nil
}

// uintCodec handles Edm.Byte.
type uintCodec struct {
	bits int
}

func (c uintCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	text, ok := numericText(raw)
	if !ok {
		return nil, formatErr(raw, "uint8", nil)
	}
	n, err := strconv.ParseUint(text, 10, c.bits)
	if err != nil {
		return nil, formatErr(raw, "uint8", err)
	}
	return uint8(n), nil
}

func (c uintCodec) Encode(value any) (any, error) {
	v, ok := value.(uint8)
	if !ok {
		return nil, formatErr(value, "uint8", errUnexpectedType(value))
	}
	return json.Number(strconv.FormatUint(uint64(v), 10)), nil
}

// floatCodec handles Edm.Single and Edm.Double. Values never use exponent
// notation. Non-finite values travel as the strings NaN, INF and -INF.
type floatCodec struct {
	bits     int
	asString bool
}

func (c floatCodec) target() string {
	return fmt.Sprintf("float%d", c.bits)
}

func (c floatCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	text, ok := numericText(raw)
	if !ok {
		return nil, formatErr(raw, c.target(), nil)
	}
	var f float64
	switch text {
	case "NaN":
		f = math.NaN()
	case "INF", "Infinity":
		f = math.Inf(1)
	case "-INF", "-Infinity":
		f = math.Inf(-1)
	default:
		var err error
		f, err = strconv.ParseFloat(text, c.bits)
		if err != nil {
			return nil, formatErr(raw, c.target(), err)
		}
	}
	if c.bits == 32 {
		return float32(f), nil
	}
	return f, nil
}

func (c floatCodec) Encode(value any) (any, error) {
	var f float64
	switch v := value.(type) {
	case float32:
		f = float64(v)
	case float64:
		f = v
	default:
		return nil, formatErr(value, c.target(), errUnexpectedType(value))
	}
	switch {
	case math.IsNaN(f):
		return "NaN", nil
	case math.IsInf(f, 1):
		return "INF", nil
	case math.IsInf(f, -1):
		return "-INF", nil
	}
	// Use FormatFloat with 'f' to avoid scientific notation
	// -1 precision means use the smallest number of digits necessary
	text := strconv.FormatFloat(f, 'f', -1, c.bits)
	if c.asString {
		return text, nil
	}
	return json.Number(text), nil
}

// decimalCodec handles Edm.Decimal. The plain digit form is kept exactly,
// trailing zeros included; v2 sends it as a string, v4 as a JSON number.
type decimalCodec struct {
	asString bool
}

func (c decimalCodec) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	text, ok := numericText(raw)
	if !ok {
		return nil, formatErr(raw, "decimal", nil)
	}
	d, _, err := apd.NewFromString(text)
	if err != nil {
		return nil, formatErr(raw, "decimal", err)
	}
	if d.Form != apd.Finite {
		return nil, formatErr(raw, "decimal", errors.New("not a finite number"))
	}
	return d, nil
}

func (c decimalCodec) Encode(value any) (any, error) {
	var d *apd.Decimal
	switch v := value.(type) {
	case *apd.Decimal:
		d = v
	case apd.Decimal:
		d = &v
	default:
		return nil, formatErr(value, "decimal", errUnexpectedType(value))
	}
	if d.Form != apd.Finite {
		return nil, formatErr(d.String(), "decimal", errors.New("not a finite number"))
	}
	text := d.Text('f')
	if c.asString {
		return text, nil
	}
	return json.Number(text), nil
}

type boolCodec struct{}

func (boolCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, formatErr(raw, "bool", err)
		}
		return b, nil
	}
	return nil, formatErr(raw, "bool", nil)
}

func (boolCodec) Encode(value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, formatErr(value, "bool", errUnexpectedType(value))
	}
	return b, nil
}

// stringCodec accepts strings and the textual form of numbers and booleans.
type stringCodec struct{}

func (stringCodec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case json.Number:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return nil, formatErr(raw, "string", nil)
}

func (stringCodec) Encode(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, formatErr(value, "string", errUnexpectedType(value))
	}
	return s, nil
}

func errUnexpectedType(value any) error {
	return fmt.Errorf("unexpected Go type %T", value)
}
