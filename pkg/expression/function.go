package expression

import (
	"fmt"
	"math"
	"strings"

	"minidb/pkg/errs"
	"minidb/pkg/primitives"
	"minidb/pkg/tuple"
	"minidb/pkg/types"
)

// FuncExpr is a scalar function call: LENGTH, ROUND, or DATE_FORMAT.
type FuncExpr struct {
	Fn   primitives.ScalarFunc
	Args []Expr
}

func NewFuncExpr(fn primitives.ScalarFunc, args []Expr) *FuncExpr {
	return &FuncExpr{Fn: fn, Args: args}
}

func (e *FuncExpr) Evaluate(ctx *EvalContext, tup *tuple.Tuple) (types.Field, error) {
	args := make([]types.Field, len(e.Args))
	for i, arg := range e.Args {
		v, err := arg.Evaluate(ctx, tup)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch e.Fn {
	case primitives.FuncLength:
		return evalLength(args)
	case primitives.FuncRound:
		return evalRound(args)
	case primitives.FuncDateFormat:
		return evalDateFormat(args)
	default:
		return nil, errs.New(errs.CategorySystem, errs.CodeUnimplemented,
			"scalar function %s is not implemented", e.Fn)
	}
}

func evalLength(args []types.Field) (types.Field, error) {
	if len(args) != 1 {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"LENGTH takes exactly one argument")
	}
	if types.IsNull(args[0]) {
		return types.NewNullField(), nil
	}
	s, ok := args[0].(*types.StringField)
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"LENGTH requires a CHARS argument, got %s", args[0].Type())
	}
	return types.NewIntField(int32(len(s.Value))), nil
}

// evalRound implements both forms: ROUND(x) returns an INT rounded
// half away from zero; ROUND(x, n) keeps n fractional digits as FLOAT.
func evalRound(args []types.Field) (types.Field, error) {
	if len(args) != 1 && len(args) != 2 {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"ROUND takes one or two arguments")
	}
	if types.IsNull(args[0]) {
		return types.NewNullField(), nil
	}
	x, ok := args[0].(*types.FloatField)
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"ROUND requires a FLOAT argument, got %s", args[0].Type())
	}

	if len(args) == 1 {
		return types.NewIntField(int32(math.Round(float64(x.Value)))), nil
	}

	if types.IsNull(args[1]) {
		return types.NewNullField(), nil
	}
	n, ok := args[1].(*types.IntField)
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"ROUND precision must be an INT, got %s", args[1].Type())
	}

	scale := math.Pow10(int(n.Value))
	return types.NewFloatField(float32(math.Round(float64(x.Value)*scale) / scale)), nil
}

var longMonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// evalDateFormat renders a date with %Y %m %d %M (long month name) and
// %D (ordinal day) tokens.
func evalDateFormat(args []types.Field) (types.Field, error) {
	if len(args) != 2 {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"DATE_FORMAT takes exactly two arguments")
	}
	if types.IsNull(args[0]) || types.IsNull(args[1]) {
		return types.NewNullField(), nil
	}

	d, ok := args[0].(*types.DateField)
	if !ok {
		if s, isStr := args[0].(*types.StringField); isStr {
			parsed, err := types.ParseDate(s.Value)
			if err != nil {
				return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
					"DATE_FORMAT requires a DATES argument, got %s", args[0].Type())
			}
			d = parsed
		} else {
			return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
				"DATE_FORMAT requires a DATES argument, got %s", args[0].Type())
		}
	}
	format, ok := args[1].(*types.StringField)
	if !ok {
		return nil, errs.New(errs.CategoryUser, errs.CodeVariableNotValid,
			"DATE_FORMAT format must be CHARS, got %s", args[1].Type())
	}

	var sb strings.Builder
	runes := []rune(format.Value)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '%' || i+1 >= len(runes) {
			sb.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'Y':
			sb.WriteString(fmt.Sprintf("%04d", d.Year))
		case 'm':
			sb.WriteString(fmt.Sprintf("%02d", int(d.Month)))
		case 'd':
			sb.WriteString(fmt.Sprintf("%02d", d.Day))
		case 'M':
			sb.WriteString(longMonthNames[int(d.Month)-1])
		case 'D':
			sb.WriteString(ordinalDay(d.Day))
		default:
			sb.WriteRune('%')
			sb.WriteRune(runes[i])
		}
	}
	return types.NewStringField(sb.String(), 0), nil
}

func ordinalDay(day int) string {
	suffix := "th"
	if day/10 != 1 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

func (e *FuncExpr) ResultType() types.Type {
	switch e.Fn {
	case primitives.FuncLength:
		return types.IntType
	case primitives.FuncRound:
		if len(e.Args) == 1 {
			return types.IntType
		}
		return types.FloatType
	case primitives.FuncDateFormat:
		return types.StringType
	default:
		return types.NullType
	}
}

func (e *FuncExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, arg := range e.Args {
		parts[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", e.Fn, strings.Join(parts, ","))
}
