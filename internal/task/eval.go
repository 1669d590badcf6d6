package task

import (
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/measgrid/internal/exprs"
	mhcl "github.com/specialistvlad/measgrid/internal/hcl"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions are available to every expression evaluated by a task.
var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"log":    stdlib.LogFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"pow":    stdlib.PowFunc,
	"signum": stdlib.SignumFunc,
	"format": stdlib.FormatFunc,
	"upper":  stdlib.UpperFunc,
	"lower":  stdlib.LowerFunc,
	"join":   stdlib.JoinFunc,
	"length": stdlib.LengthFunc,
	"range":  stdlib.RangeFunc,
	"concat": stdlib.ConcatFunc,
	"sqrt":   unaryMath(math.Sqrt),
	"exp":    unaryMath(math.Exp),
	"log10":  unaryMath(math.Log10),
	"sin":    unaryMath(math.Sin),
	"cos":    unaryMath(math.Cos),
	"tan":    unaryMath(math.Tan),
	"asin":   unaryMath(math.Asin),
	"acos":   unaryMath(math.Acos),
	"atan":   unaryMath(math.Atan),
	"sinh":   unaryMath(math.Sinh),
	"cosh":   unaryMath(math.Cosh),
	"tanh":   unaryMath(math.Tanh),
	"atan2":  binaryMath(math.Atan2),
	"pi":     constant(cty.NumberFloatVal(math.Pi)),
}

// unaryMath lifts a float function into a cty function rejecting results
// that cty numbers cannot hold.
func unaryMath(fn func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "x", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			x, _ := args[0].AsBigFloat().Float64()
			return finite(fn(x), fmt.Sprintf("%g", x))
		},
	})
}

func binaryMath(fn func(float64, float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "y", Type: cty.Number},
			{Name: "x", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			y, _ := args[0].AsBigFloat().Float64()
			x, _ := args[1].AsBigFloat().Float64()
			return finite(fn(y, x), fmt.Sprintf("%g, %g", y, x))
		},
	})
}

// constant is a function of no arguments, called as pi().
func constant(v cty.Value) function.Function {
	return function.New(&function.Spec{
		Type: function.StaticReturnType(v.Type()),
		Impl: func([]cty.Value, cty.Type) (cty.Value, error) { return v, nil },
	})
}

func finite(r float64, args string) (cty.Value, error) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return cty.UnknownVal(cty.Number), fmt.Errorf("result for %s is not a finite number", args)
	}
	return cty.NumberFloatVal(r), nil
}

// VariableNames returns the sorted root names referenced by the expressions.
func VariableNames(expressions ...hcl.Expression) []string {
	return exprs.Analyze(expressions...).Variables
}

// checkFunctions verifies that the expressions only call known functions.
func checkFunctions(expressions ...hcl.Expression) error {
	var unknown []string
	for _, name := range exprs.Analyze(expressions...).Functions {
		if _, ok := functions[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("calls unknown functions: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Evaluate evaluates an expression whose variables are database entries
// visible from the task.
func (tc *Context) Evaluate(expr hcl.Expression) (cty.Value, error) {
	names := VariableNames(expr)
	values, err := tc.Lookup(names)
	if err != nil {
		return cty.NilVal, err
	}
	vars := make(map[string]cty.Value, len(values))
	for name, v := range values {
		c, err := mhcl.ToCty(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("entry %s: %w", name, err)
		}
		vars[name] = c
	}
	evalCtx := &hcl.EvalContext{Variables: vars, Functions: functions}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}

// EvaluateArgument evaluates a named argument.
func (tc *Context) EvaluateArgument(name string) (cty.Value, error) {
	expr, ok := tc.Argument(name)
	if !ok {
		return cty.NilVal, fmt.Errorf("missing required argument %q", name)
	}
	val, err := tc.Evaluate(expr)
	if err != nil {
		return cty.NilVal, fmt.Errorf("argument %q: %w", name, err)
	}
	return val, nil
}

// Preview evaluates a named argument while editing, when every entry it
// references already holds a value. The boolean is false when the
// evaluation had to be skipped.
func (tc *Context) Preview(name string) (cty.Value, bool, error) {
	expr, ok := tc.Argument(name)
	if !ok {
		return cty.NilVal, false, fmt.Errorf("missing required argument %q", name)
	}
	values, err := tc.Lookup(VariableNames(expr))
	if err != nil {
		return cty.NilVal, false, err
	}
	for _, v := range values {
		if v == nil {
			return cty.NilVal, false, nil
		}
	}
	val, err := tc.Evaluate(expr)
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("argument %q: %w", name, err)
	}
	return val, true, nil
}
