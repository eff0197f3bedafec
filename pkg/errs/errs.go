package errs

import (
	"errors"
	"fmt"
)

// Category classifies errors by their nature and appropriate handling
// strategy.
type Category int

const (
	// CategoryUser represents errors caused by invalid user input:
	// unknown tables or columns, type mismatches, constraint violations.
	CategoryUser Category = iota

	// CategoryConcurrency represents errors from concurrent transaction
	// conflicts such as deadlocks; retrying the transaction may succeed.
	CategoryConcurrency

	// CategorySystem represents internal engine failures.
	CategorySystem
)

// Error codes shared across the engine. The symbolic names are part of
// the engine's contract: callers match on Code, not on message text.
const (
	CodeSchemaTableNotExist  = "SCHEMA_TABLE_NOT_EXIST"
	CodeSchemaFieldNotExist  = "SCHEMA_FIELD_NOT_EXIST"
	CodeAmbiguousReference   = "AMBIGUOUS_REFERENCE"
	CodeTypeMismatch         = "TYPE_MISMATCH"
	CodeInvalidArgument      = "INVALID_ARGUMENT"
	CodeAggregateOutside     = "AGGREGATE_OUTSIDE_SELECT"
	CodeGroupByMissing       = "GROUP_BY_MISSING"
	CodeSubqueryArity        = "SUBQUERY_ARITY_MISMATCH"
	CodeSubqueryMultiRow     = "SUBQUERY_MULTI_ROW"
	CodeVariableNotValid     = "VARIABLE_NOT_VALID"
	CodeUniqueViolation      = "UNIQUE_CONSTRAINT_VIOLATION"
	CodeNotNullViolation     = "NOT_NULL_VIOLATION"
	CodeDivByZero            = "DIV_BY_ZERO"
	CodeDeadlock             = "DEADLOCK"
	CodeInternal             = "INTERNAL"
	CodeUnimplemented        = "UNIMPLEMENTED"
)

// DBError is a structured engine error carrying a contractual code,
// a handling category, and an optional underlying cause.
type DBError struct {
	Code     string
	Category Category
	Message  string
	Cause    error
}

func (e *DBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DBError) Unwrap() error {
	return e.Cause
}

// New creates a new DBError with the specified code, category, and
// formatted message.
func New(category Category, code, format string, args ...any) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(cause error, category Category, code, format string, args ...any) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
	}
}

// CodeOf extracts the error code from err, or CodeInternal when err is
// not a DBError.
func CodeOf(err error) string {
	var dbErr *DBError
	if errors.As(err, &dbErr) {
		return dbErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
