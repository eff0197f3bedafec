package types

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"

	"minidb/pkg/primitives"
)

// compareOrdered evaluates an ordering predicate over two values of the
// same ordered type.
func compareOrdered[T cmp.Ordered](a, b T, op primitives.Predicate) (bool, error) {
	switch op {
	case primitives.Equals:
		return a == b, nil
	case primitives.NotEqual:
		return a != b, nil
	case primitives.LessThan:
		return a < b, nil
	case primitives.LessThanOrEqual:
		return a <= b, nil
	case primitives.GreaterThan:
		return a > b, nil
	case primitives.GreaterThanOrEqual:
		return a >= b, nil
	default:
		return false, fmt.Errorf("unsupported comparison %s for ordered values", op)
	}
}

// MatchLike evaluates a SQL LIKE pattern against a string value.
// `%` matches any run of characters and `_` matches a single character;
// everything else matches literally.
func MatchLike(value, pattern string) (bool, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for _, ch := range pattern {
		switch ch {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(ch)))
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return false, fmt.Errorf("invalid LIKE pattern %q: %v", pattern, err)
	}
	return re.MatchString(value), nil
}

// Compare evaluates `left op right` with full NULL handling: a NULL on
// either side makes any ordering, LIKE, or membership comparison false.
// IS NULL / IS NOT NULL are decided here from the null flags alone.
func Compare(left Field, op primitives.Predicate, right Field) (bool, error) {
	switch op {
	case primitives.IsNull:
		return IsNull(left), nil
	case primitives.IsNotNull:
		return !IsNull(left), nil
	}

	if IsNull(left) || IsNull(right) {
		return false, nil
	}
	return left.Compare(op, right)
}
