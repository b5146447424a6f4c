package donation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

const (
	// maxIDBits is the width of a uint256 ledger identifier.
	maxIDBits = 256
	// maxExponent bounds the exponent of a JSON number before it is expanded.
	maxExponent = 1000
)

// IntegerID is a uint256 identifier received as a JSON number or as a decimal or 0x prefixed
// hex string. Decoding never fails: a malformed value is kept and reported by Int, so a bad
// field is rejected with a field specific message instead of a generic decode error.
type IntegerID struct {
	present bool
	raw     string
	value   *big.Int
	err     error
}

// NewIntegerID wraps a known value.
func NewIntegerID(v *big.Int) IntegerID {
	id := IntegerID{present: true, raw: v.String()}
	id.value, id.err = checkRange(new(big.Int).Set(v))

	return id
}

// ParseIntegerID parses a decimal or 0x prefixed hex string. An empty string is treated as
// absent.
func ParseIntegerID(s string) IntegerID {
	s = strings.TrimSpace(s)
	if s == "" {
		return IntegerID{}
	}

	id := IntegerID{present: true, raw: s}
	id.value, id.err = parseInteger(s)

	return id
}

// UnmarshalJSON implements json.Unmarshaler. null and "" leave the identifier absent.
func (id *IntegerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = IntegerID{}
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*id = IntegerID{present: true, raw: string(b), err: err}
			return nil
		}
		*id = ParseIntegerID(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*id = IntegerID{present: true, raw: string(b)}
		id.value, id.err = parseNumber(string(b))
	default:
		*id = IntegerID{present: true, raw: string(b), err: fmt.Errorf("unexpected JSON value %s", b)}
	}

	return nil
}

// MarshalJSON encodes the identifier as a decimal string so it survives JSON number parsing
// in clients.
func (id IntegerID) MarshalJSON() ([]byte, error) {
	if !id.present {
		return []byte("null"), nil
	}

	return json.Marshal(id.String())
}

// IsSet reports whether a value, valid or not, was supplied.
func (id IntegerID) IsSet() bool {
	return id.present
}

// Int returns the parsed value, or an error when the supplied value is not a uint256.
func (id IntegerID) Int() (*big.Int, error) {
	if !id.present {
		return nil, errors.New("value is missing")
	}
	if id.err != nil {
		return nil, id.err
	}

	return new(big.Int).Set(id.value), nil
}

// String returns the decimal value, or the raw input when it did not parse.
func (id IntegerID) String() string {
	if id.value != nil && id.err == nil {
		return id.value.String()
	}

	return id.raw
}

func parseInteger(s string) (*big.Int, error) {
	v, ok := new(big.Int), false
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok = v.SetString(s[2:], 16)
	} else {
		v, ok = v.SetString(s, 10)
	}
	if !ok || v == nil {
		return nil, fmt.Errorf("%q is not an integer", s)
	}

	return checkRange(v)
}

// parseNumber parses a JSON number. Fractions and exponents are accepted when the value is
// integral, so 7.0 and 1e3 decode like 7 and 1000.
func parseNumber(s string) (*big.Int, error) {
	if !strings.ContainsAny(s, ".eE") {
		return parseInteger(s)
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return nil, fmt.Errorf("%q exceeds %d bits", s, maxIDBits)
		}
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return nil, fmt.Errorf("%q is not an integer", s)
	}

	return checkRange(new(big.Int).Set(r.Num()))
}

func checkRange(v *big.Int) (*big.Int, error) {
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%s is negative", v)
	}
	if v.BitLen() > maxIDBits {
		return nil, fmt.Errorf("%s exceeds %d bits", v, maxIDBits)
	}

	return v, nil
}
