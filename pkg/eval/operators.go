package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// binaryOp applies a binary operator to two evaluated operands.
func binaryOp(operator string, left, right any) (any, error) {
	switch operator {
	case "+", "-", "*", "/", "MOD", "**":
		return arithmeticOp(operator, left, right)
	case "=", "<>", "<", "<=", ">", ">=":
		return comparisonOp(operator, left, right)
	case "AND", "OR", "XOR":
		return logicalOp(operator, left, right)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedOperator, operator)
	}
}

// arithmeticOp executes + - * / MOD **.
// Integer operands stay integer; a real operand promotes both to real.
func arithmeticOp(operator string, left, right any) (any, error) {
	if !isNumeric(left) || !isNumeric(right) {
		return nil, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, typeName(left), operator, typeName(right))
	}

	if operator == "**" {
		l, _ := toFloat64(left)
		r, _ := toFloat64(right)
		return math.Pow(l, r), nil
	}

	if isFloat(left) || isFloat(right) {
		l, _ := toFloat64(left)
		r, _ := toFloat64(right)

		switch operator {
		case "+":
			return l + r, nil
		case "-":
			return l - r, nil
		case "*":
			return l * r, nil
		case "/":
			if r == 0 {
				return nil, ErrDivisionByZero
			}
			return l / r, nil
		case "MOD":
			if r == 0 {
				return nil, ErrDivisionByZero
			}
			return math.Mod(l, r), nil
		}
	}

	l := left.(int64)
	r := right.(int64)

	switch operator {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return l / r, nil
	case "MOD":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return l % r, nil
	}

	return nil, fmt.Errorf("%w %q", ErrUnsupportedOperator, operator)
}

// comparisonOp executes = <> < <= > >=.
// Numbers compare across integer and real; BOOL supports only = and <>.
func comparisonOp(operator string, left, right any) (any, error) {
	if isNumeric(left) && isNumeric(right) {
		if isFloat(left) || isFloat(right) {
			l, _ := toFloat64(left)
			r, _ := toFloat64(right)
			return compare(operator, l, r), nil
		}
		return compare(operator, left.(int64), right.(int64)), nil
	}

	if l, ok := left.(string); ok {
		if r, ok := right.(string); ok {
			return compare(operator, l, r), nil
		}
	}

	if l, ok := left.(bool); ok {
		if r, ok := right.(bool); ok {
			switch operator {
			case "=":
				return l == r, nil
			case "<>":
				return l != r, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, typeName(left), operator, typeName(right))
}

func compare[T int64 | float64 | string](operator string, l, r T) bool {
	switch operator {
	case "=":
		return l == r
	case "<>":
		return l != r
	case "<":
		return l < r
	case "<=":
		return l <= r
	case ">":
		return l > r
	default:
		return l >= r
	}
}

// logicalOp executes AND OR XOR: logical on BOOL, bitwise on integers.
func logicalOp(operator string, left, right any) (any, error) {
	if l, ok := left.(bool); ok {
		if r, ok := right.(bool); ok {
			switch operator {
			case "AND":
				return l && r, nil
			case "OR":
				return l || r, nil
			default:
				return l != r, nil
			}
		}
	}

	if l, ok := left.(int64); ok {
		if r, ok := right.(int64); ok {
			switch operator {
			case "AND":
				return l & r, nil
			case "OR":
				return l | r, nil
			default:
				return l ^ r, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, typeName(left), operator, typeName(right))
}

// unaryOp executes - + NOT.
func unaryOp(operator string, operand any) (any, error) {
	switch operator {
	case "-":
		switch v := operand.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
	case "+":
		if isNumeric(operand) {
			return operand, nil
		}
	case "NOT":
		switch v := operand.(type) {
		case bool:
			return !v, nil
		case int64:
			return ^v, nil
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedOperator, operator)
	}
	return nil, fmt.Errorf("%w: %s %s", ErrTypeMismatch, operator, typeName(operand))
}

// Truthy converts a condition value to bool. Numbers are true when non-zero;
// any other type is an error.
func Truthy(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case int64:
		return val != 0, nil
	case float64:
		return val != 0, nil
	default:
		return false, fmt.Errorf("%w: condition is %s, not BOOL", ErrTypeMismatch, typeName(v))
	}
}

// FormatValue renders a value the way ST source writes it: TRUE/FALSE,
// integers without a fraction and reals always with one.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "<none>"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.ContainsAny(s, ".nN") {
			s += ".0"
		}
		return s
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// isNumeric checks if a value is an integer or a real.
func isNumeric(v any) bool {
	switch v.(type) {
	case int64, float64:
		return true
	default:
		return false
	}
}

// isFloat checks if a value is a real.
func isFloat(v any) bool {
	_, ok := v.(float64)
	return ok
}

// toFloat64 converts a numeric value to float64.
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}

// typeName names the ST type class of a value for error messages.
func typeName(v any) string {
	switch v.(type) {
	case bool:
		return "BOOL"
	case int64:
		return "integer"
	case float64:
		return "real"
	case string:
		return "string"
	case nil:
		return "no value"
	default:
		return fmt.Sprintf("%T", v)
	}
}
