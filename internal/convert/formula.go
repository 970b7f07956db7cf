// internal/convert/formula.go
package convert

import (
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// maxFormulaNodes bounds the size of a compiled formula. Evaluation has
// no wall-clock limit; ranges and other allocations are capped by the
// expr VM memory budget (vm.MemoryBudget), which fails the run instead.
const maxFormulaNodes = 256

var formulaBuiltins = []string{"abs", "ceil", "floor", "round", "max", "min"}

type formulaConverter struct {
	src     string
	program *vm.Program
}

// compileFormula prepares an expression over rawValue (alias raw).
// A leading "return" and trailing ";" are stripped so function-body
// style formulas keep working.
func compileFormula(src string) (*formulaConverter, error) {
	body := strings.TrimSpace(src)
	body = strings.TrimSuffix(body, ";")
	body = strings.TrimSpace(strings.TrimPrefix(body, "return "))
	if body == "" {
		return nil, fmt.Errorf("%w: empty formula", ErrConversionFailure)
	}

	opts := []expr.Option{
		expr.Env(formulaEnv(0)),
		expr.DisableAllBuiltins(),
		expr.MaxNodes(maxFormulaNodes),
	}
	for _, name := range formulaBuiltins {
		opts = append(opts, expr.EnableBuiltin(name))
	}

	program, err := expr.Compile(body, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: compile: %v", ErrConversionFailure, err)
	}
	return &formulaConverter{src: src, program: program}, nil
}

func formulaEnv(raw uint16) map[string]any {
	v := float64(raw)
	return map[string]any{
		"rawValue": v,
		"raw":      v,
	}
}

func (f *formulaConverter) Method() Method { return MethodCustom }

func (f *formulaConverter) Convert(raw uint16) (float64, error) {
	out, err := expr.Run(f.program, formulaEnv(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionFailure, err)
	}

	v, ok := toFloat(out)
	if !ok {
		return 0, fmt.Errorf("%w: result %T is not a number", ErrConversionFailure, out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: result %v is not finite", ErrConversionFailure, v)
	}
	return v, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint16:
		return float64(n), true
	default:
		return 0, false
	}
}
