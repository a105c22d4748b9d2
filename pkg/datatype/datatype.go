// Package datatype classifies IEC 61131-3 elementary data types and converts
// literal text and runtime values to the representation of a declared type.
// This package is the foundation that the declaration parser, the expression
// parser and the VM all depend on.
//
// Runtime values are plain Go values:
//   - BOOL: bool
//   - integer family (SINT..ULINT, BYTE..LWORD): int64
//   - real family (REAL, LREAL): float64
//   - any other type: the raw initializer text (string) or nil; a quoted
//     string literal is stored without its quotes, as in expressions
package datatype

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zurustar/stsim/pkg/compiler/lexer"
)

// Kind is the value class of a declared type.
type Kind int

const (
	// KindOpaque is any type the simulator does not model (TIME, STRING, TON, ...).
	KindOpaque Kind = iota
	// KindBool is BOOL.
	KindBool
	// KindInt is the integer family.
	KindInt
	// KindReal is the real family.
	KindReal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	default:
		return "opaque"
	}
}

// Type describes a declared data type.
type Type struct {
	Name   string // declared spelling, upper-cased for elementary types
	Kind   Kind
	Bits   int  // storage width for integer types
	Signed bool // signedness for integer types
}

// elementary は対応する基本データ型の一覧
var elementary = map[string]Type{
	"BOOL":  {Name: "BOOL", Kind: KindBool},
	"SINT":  {Name: "SINT", Kind: KindInt, Bits: 8, Signed: true},
	"INT":   {Name: "INT", Kind: KindInt, Bits: 16, Signed: true},
	"DINT":  {Name: "DINT", Kind: KindInt, Bits: 32, Signed: true},
	"LINT":  {Name: "LINT", Kind: KindInt, Bits: 64, Signed: true},
	"USINT": {Name: "USINT", Kind: KindInt, Bits: 8},
	"UINT":  {Name: "UINT", Kind: KindInt, Bits: 16},
	"UDINT": {Name: "UDINT", Kind: KindInt, Bits: 32},
	"ULINT": {Name: "ULINT", Kind: KindInt, Bits: 64},
	"BYTE":  {Name: "BYTE", Kind: KindInt, Bits: 8},
	"WORD":  {Name: "WORD", Kind: KindInt, Bits: 16},
	"DWORD": {Name: "DWORD", Kind: KindInt, Bits: 32},
	"LWORD": {Name: "LWORD", Kind: KindInt, Bits: 64},
	"REAL":  {Name: "REAL", Kind: KindReal, Bits: 32},
	"LREAL": {Name: "LREAL", Kind: KindReal, Bits: 64},
}

// Lookup returns the Type for a declared type name. Elementary type names are
// case-insensitive; anything else is returned as an opaque type that keeps
// its declared spelling.
func Lookup(name string) Type {
	name = strings.TrimSpace(name)
	if t, ok := elementary[strings.ToUpper(name)]; ok {
		return t
	}
	return Type{Name: name, Kind: KindOpaque}
}

// IsElementary reports whether name is a modelled elementary type.
func IsElementary(name string) bool {
	_, ok := elementary[strings.ToUpper(strings.TrimSpace(name))]
	return ok
}

// Zero returns the value of a variable declared without an initializer.
func (t Type) Zero() any {
	switch t.Kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindReal:
		return float64(0)
	default:
		return nil
	}
}

// ParseInitial converts declaration initializer text to a value.
// Unparseable numbers fall back to zero; BOOL accepts TRUE or 1
// (case-insensitive) and treats everything else as false; opaque types keep
// the raw text, except that a single string literal ('abc' or "abc") is
// unquoted the same way the expression lexer reads it.
func (t Type) ParseInitial(text string) any {
	text = strings.TrimSpace(text)
	switch t.Kind {
	case KindBool:
		s := strings.ToUpper(stripTypePrefix(text))
		return s == "TRUE" || s == "1"
	case KindInt:
		n, err := ParseInteger(stripTypePrefix(text))
		if err != nil {
			return int64(0)
		}
		return t.wrap(n)
	case KindReal:
		f, err := ParseReal(stripTypePrefix(text))
		if err != nil {
			return float64(0)
		}
		return f
	default:
		if s, ok := unquote(text); ok {
			return s
		}
		return text
	}
}

// unquote returns the value of text when it is exactly one string literal.
func unquote(text string) (string, bool) {
	tokens := lexer.Tokenize(text)
	if len(tokens) != 2 || tokens[0].Type != lexer.TOKEN_STRING || tokens[1].Type != lexer.TOKEN_EOF {
		return "", false
	}
	return tokens[0].Literal, true
}

// Coerce converts a runtime value to the representation of t.
// Integers wrap to the type's width and reals assigned to integers are rounded
// half away from zero. Strings are parsed as literals. Opaque types accept
// any value unchanged.
func (t Type) Coerce(v any) (any, error) {
	switch t.Kind {
	case KindBool:
		return t.coerceBool(v)
	case KindInt:
		return t.coerceInt(v)
	case KindReal:
		return t.coerceReal(v)
	default:
		return v, nil
	}
}

func (t Type) coerceBool(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if n, ok := ToInt64(v); ok {
		return n != 0, nil
	}
	if f, ok := v.(float64); ok {
		return f != 0, nil
	}
	if s, ok := v.(string); ok {
		switch strings.ToUpper(stripTypePrefix(strings.TrimSpace(s))) {
		case "TRUE", "1":
			return true, nil
		case "FALSE", "0":
			return false, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", v, v, t.Name)
}

func (t Type) coerceInt(v any) (any, error) {
	if n, ok := ToInt64(v); ok {
		return t.wrap(n), nil
	}
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("cannot convert %v to %s", val, t.Name)
		}
		return t.wrap(int64(math.Round(val))), nil
	case float32:
		return t.coerceInt(float64(val))
	case bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := ParseInteger(stripTypePrefix(strings.TrimSpace(val)))
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to %s: %w", val, t.Name, err)
		}
		return t.wrap(n), nil
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", v, v, t.Name)
}

func (t Type) coerceReal(v any) (any, error) {
	if n, ok := ToInt64(v); ok {
		return float64(n), nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case string:
		f, err := ParseReal(stripTypePrefix(strings.TrimSpace(val)))
		if err != nil {
			return nil, fmt.Errorf("cannot convert %q to %s: %w", val, t.Name, err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot convert %v (%T) to %s", v, v, t.Name)
}

// wrap truncates n to the width of an integer type, as PLC arithmetic does.
func (t Type) wrap(n int64) int64 {
	if t.Kind != KindInt || t.Bits == 0 || t.Bits >= 64 {
		return n
	}
	shift := uint(64 - t.Bits)
	if t.Signed {
		return (n << shift) >> shift
	}
	return int64(uint64(n) << shift >> shift)
}

// ParseInteger parses an IEC integer literal: optional sign, '_' digit
// separators and an optional base prefix (2#, 8#, 16#).
func ParseInteger(text string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), "_", "")
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if i := strings.IndexByte(s, '#'); i >= 0 {
		b, err := strconv.Atoi(s[:i])
		if err != nil || (b != 2 && b != 8 && b != 16) {
			return 0, fmt.Errorf("invalid integer base in %q", text)
		}
		base = b
		s = s[i+1:]
	}

	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		// 16#FFFFFFFFFFFFFFFF のような符号なし64bit値
		u, uerr := strconv.ParseUint(s, base, 64)
		if uerr != nil {
			return 0, fmt.Errorf("invalid integer %q", text)
		}
		n = int64(u)
	}
	if neg {
		n = -n
	}
	return n, nil
}

// ParseReal parses a real literal, accepting '_' digit separators.
func ParseReal(text string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), "_", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid real %q", text)
	}
	return f, nil
}

// SplitTyped splits a typed literal such as "INT#5" into its type name and
// value text. ok is false when text has no type prefix.
func SplitTyped(text string) (typeName, value string, ok bool) {
	i := strings.IndexByte(text, '#')
	if i <= 0 {
		return "", text, false
	}
	prefix := text[:i]
	if _, err := strconv.Atoi(prefix); err == nil {
		// 16#FF は基数付き整数であり型付きリテラルではない
		return "", text, false
	}
	return prefix, text[i+1:], true
}

// stripTypePrefix removes an elementary type prefix ("INT#", "BOOL#").
func stripTypePrefix(text string) string {
	if name, value, ok := SplitTyped(text); ok && IsElementary(name) {
		return value
	}
	return text
}

// ToInt64 converts Go integer values to int64.
func ToInt64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		return int64(val), true
	default:
		return 0, false
	}
}
