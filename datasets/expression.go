// Package datasets builds grids carrying analytic fields, for the command
// line tools and for tests of the extraction algorithms.
package datasets

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"

	"github.com/notargets/govis/types"
)

var functions = map[string]govaluate.ExpressionFunction{
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"atan2": binary(math.Atan2),
	"pow":   binary(math.Pow),
	"min":   binary(math.Min),
	"max":   binary(math.Max),
}

func number(arg interface{}) (float64, error) {
	x, ok := arg.(float64)
	if !ok {
		return 0, fmt.Errorf("non numeric argument %v", arg)
	}
	return x, nil
}

func unary(f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("want 1 argument, have %d", len(args))
		}
		x, err := number(args[0])
		if err != nil {
			return nil, err
		}
		return f(x), nil
	}
}

func binary(f func(float64, float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("want 2 arguments, have %d", len(args))
		}
		x, err := number(args[0])
		if err != nil {
			return nil, err
		}
		y, err := number(args[1])
		if err != nil {
			return nil, err
		}
		return f(x, y), nil
	}
}

// Expression is a scalar function of the coordinates x, y and z, plus the
// constant pi.
type Expression struct {
	Source string
	expr   *govaluate.EvaluableExpression
}

// point exposes a position to the evaluator without allocating a map.
type point types.Point

func (p *point) Get(name string) (interface{}, error) {
	switch name {
	case "x":
		return p[0], nil
	case "y":
		return p[1], nil
	case "z":
		return p[2], nil
	case "pi":
		return math.Pi, nil
	}
	return nil, fmt.Errorf("unknown variable %q", name)
}

func ParseExpression(src string) (*Expression, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(src, functions)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", src, err)
	}
	e := &Expression{Source: src, expr: expr}
	for _, name := range expr.Vars() {
		if _, err = (&point{}).Get(name); err != nil {
			return nil, fmt.Errorf("expression %q: %w", src, err)
		}
	}
	if _, err = e.Eval(types.Point{}); err != nil {
		return nil, err
	}
	return e, nil
}

// Eval evaluates the expression at p.
func (e *Expression) Eval(p types.Point) (float64, error) {
	pt := point(p)
	res, err := e.expr.Eval(&pt)
	if err != nil {
		return 0, fmt.Errorf("expression %q: %w", e.Source, err)
	}
	val, ok := res.(float64)
	if !ok {
		return 0, fmt.Errorf("expression %q is not numeric", e.Source)
	}
	return val, nil
}

// At evaluates the expression at p, returning NaN where it fails.
func (e *Expression) At(p types.Point) float64 {
	val, err := e.Eval(p)
	if err != nil {
		return math.NaN()
	}
	return val
}

func (e *Expression) String() string { return e.Source }

// Field is a named expression.
type Field struct {
	Name string
	*Expression
}

// ParseFields compiles the named expressions, sorted by name.
func ParseFields(sources map[string]string) (fields []Field, err error) {
	for name, src := range sources {
		var e *Expression
		if e, err = ParseExpression(src); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Expression: e})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return
}
