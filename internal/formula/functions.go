package formula

import (
	"fmt"
	"math"
	"strings"

	"github.com/5ys-5y5/alsign-sub001/internal/contracts"
)

// builtins are the whitelisted pure functions callable from formulas.
var builtins = map[string]func(args []any) (any, error){
	"abs":   fnAbs,
	"min":   fnMin,
	"max":   fnMax,
	"sum":   fnSum,
	"len":   fnLen,
	"round": fnRound,
	"float": fnFloat,
	"int":   fnInt,
}

// mathFuncs exposes a fixed subset of the math package under the math.*
// namespace. Only single-argument functions plus math.pow are supported.
var mathFuncs = map[string]func(float64) float64{
	"math.sqrt":  math.Sqrt,
	"math.log":   math.Log,
	"math.log10": math.Log10,
	"math.log2":  math.Log2,
	"math.exp":   math.Exp,
	"math.floor": math.Floor,
	"math.ceil":  math.Ceil,
	"math.abs":   math.Abs,
	"math.tanh":  math.Tanh,
	"math.pow":   nil, // two-argument, handled separately
}

func callFunction(name string, args []any) (any, error) {
	if fn, ok := builtins[name]; ok {
		return fn(args)
	}
	if strings.HasPrefix(name, "math.") {
		return callMath(name, args)
	}
	return nil, &ParseError{Msg: fmt.Sprintf("unknown function %q", name)}
}

func callMath(name string, args []any) (any, error) {
	if name == "math.pow" {
		if len(args) != 2 {
			return nil, &EvalError{Msg: "math.pow expects 2 arguments"}
		}
		base, ok1 := toNumber(args[0])
		exp, ok2 := toNumber(args[1])
		if !ok1 || !ok2 {
			return nil, &EvalError{Msg: "math.pow expects numeric arguments"}
		}
		return math.Pow(base, exp), nil
	}

	fn, ok := mathFuncs[name]
	if !ok || fn == nil {
		return nil, &ParseError{Msg: fmt.Sprintf("unknown function %q", name)}
	}
	if len(args) != 1 {
		return nil, &EvalError{Msg: name + " expects 1 argument"}
	}
	f, okNum := toNumber(args[0])
	if !okNum {
		return nil, &EvalError{Msg: name + " expects a numeric argument"}
	}
	return fn(f), nil
}

func fnAbs(args []any) (any, error) {
	f, err := oneNumber("abs", args)
	if err != nil {
		return nil, err
	}
	return math.Abs(f), nil
}

func fnRound(args []any) (any, error) {
	f, err := oneNumber("round", args)
	if err != nil {
		return nil, err
	}
	return math.Round(f), nil
}

func fnFloat(args []any) (any, error) {
	return oneNumber("float", args)
}

func fnInt(args []any) (any, error) {
	f, err := oneNumber("int", args)
	if err != nil {
		return nil, err
	}
	return math.Trunc(f), nil
}

func fnMin(args []any) (any, error) {
	vals, err := spread("min", args)
	if err != nil {
		return nil, err
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}

func fnMax(args []any) (any, error) {
	vals, err := spread("max", args)
	if err != nil {
		return nil, err
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}

func fnSum(args []any) (any, error) {
	vals, err := spread("sum", args)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total, nil
}

func fnLen(args []any) (any, error) {
	if len(args) != 1 {
		return nil, &EvalError{Msg: "len expects 1 argument"}
	}
	switch v := args[0].(type) {
	case []contracts.SeriesPoint:
		return float64(len(v)), nil
	case []float64:
		return float64(len(v)), nil
	case []any:
		return float64(len(v)), nil
	case []contracts.QuarterlyRecord:
		return float64(len(v)), nil
	case map[string]any:
		return float64(len(v)), nil
	case string:
		return float64(len(v)), nil
	}
	return nil, &EvalError{Msg: "len expects a list or map"}
}

func oneNumber(name string, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, &EvalError{Msg: name + " expects 1 argument"}
	}
	f, ok := toNumber(args[0])
	if !ok {
		return 0, &EvalError{Msg: name + " expects a numeric argument"}
	}
	return f, nil
}

// spread accepts either variadic numbers or a single list argument.
func spread(name string, args []any) ([]float64, error) {
	if len(args) == 0 {
		return nil, &EvalError{Msg: name + " expects at least 1 argument"}
	}

	if len(args) == 1 {
		if vals, ok := toSlice(args[0]); ok {
			if len(vals) == 0 {
				return nil, &EvalError{Msg: name + " of empty list"}
			}
			return vals, nil
		}
	}

	vals := make([]float64, 0, len(args))
	for _, a := range args {
		f, ok := toNumber(a)
		if !ok {
			return nil, &EvalError{Msg: name + " expects numeric arguments"}
		}
		vals = append(vals, f)
	}
	return vals, nil
}
