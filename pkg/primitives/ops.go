package primitives

import (
	"fmt"
	"strings"
)

// AggregateOp identifies an aggregate function.
type AggregateOp int

const (
	AggMax AggregateOp = iota
	AggMin
	AggAvg
	AggSum
	AggCount
)

func (op AggregateOp) String() string {
	switch op {
	case AggMax:
		return "MAX"
	case AggMin:
		return "MIN"
	case AggAvg:
		return "AVG"
	case AggSum:
		return "SUM"
	case AggCount:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

// ParseAggregateOp converts an aggregate function name to its AggregateOp.
func ParseAggregateOp(name string) (AggregateOp, error) {
	switch strings.ToUpper(name) {
	case "MAX":
		return AggMax, nil
	case "MIN":
		return AggMin, nil
	case "AVG":
		return AggAvg, nil
	case "SUM":
		return AggSum, nil
	case "COUNT":
		return AggCount, nil
	default:
		return 0, fmt.Errorf("unknown aggregate function: %s", name)
	}
}

// ArithmeticOp identifies an arithmetic operator in an expression tree.
type ArithmeticOp int

const (
	OpAdd ArithmeticOp = iota
	OpSub
	OpMul
	OpDiv
	OpNeg
)

func (op ArithmeticOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpNeg:
		return "-"
	default:
		return "?"
	}
}

// ScalarFunc identifies a built-in scalar function.
type ScalarFunc int

const (
	FuncLength ScalarFunc = iota
	FuncRound
	FuncDateFormat
)

func (f ScalarFunc) String() string {
	switch f {
	case FuncLength:
		return "LENGTH"
	case FuncRound:
		return "ROUND"
	case FuncDateFormat:
		return "DATE_FORMAT"
	default:
		return "UNKNOWN"
	}
}

// ParseScalarFunc converts a function name to its ScalarFunc tag.
// The second result is false when the name is not a built-in.
func ParseScalarFunc(name string) (ScalarFunc, bool) {
	switch strings.ToUpper(name) {
	case "LENGTH":
		return FuncLength, true
	case "ROUND":
		return FuncRound, true
	case "DATE_FORMAT":
		return FuncDateFormat, true
	default:
		return 0, false
	}
}
