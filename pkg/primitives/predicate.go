package primitives

// Predicate is a comparison operator applied between two filter operands.
type Predicate int

const (
	Equals Predicate = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
	Like
	NotLike
	IsNull
	IsNotNull
	In
	NotIn
	Exists
	NotExists
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="

	case NotEqual:
		return "<>"

	case LessThan:
		return "<"

	case LessThanOrEqual:
		return "<="

	case GreaterThan:
		return ">"

	case GreaterThanOrEqual:
		return ">="

	case Like:
		return "LIKE"

	case NotLike:
		return "NOT LIKE"

	case IsNull:
		return "IS NULL"

	case IsNotNull:
		return "IS NOT NULL"

	case In:
		return "IN"

	case NotIn:
		return "NOT IN"

	case Exists:
		return "EXISTS"

	case NotExists:
		return "NOT EXISTS"

	default:
		return "UNKNOWN"
	}
}

// IsOrdering reports whether the predicate compares values by order
// rather than by membership or nullness.
func (p Predicate) IsOrdering() bool {
	switch p {
	case Equals, NotEqual, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual:
		return true
	default:
		return false
	}
}

// Negate returns the logical complement of the predicate.
// Membership and null tests map to their NOT forms.
func (p Predicate) Negate() Predicate {
	switch p {
	case Equals:
		return NotEqual
	case NotEqual:
		return Equals
	case LessThan:
		return GreaterThanOrEqual
	case LessThanOrEqual:
		return GreaterThan
	case GreaterThan:
		return LessThanOrEqual
	case GreaterThanOrEqual:
		return LessThan
	case Like:
		return NotLike
	case NotLike:
		return Like
	case IsNull:
		return IsNotNull
	case IsNotNull:
		return IsNull
	case In:
		return NotIn
	case NotIn:
		return In
	case Exists:
		return NotExists
	case NotExists:
		return Exists
	}
	return p
}
