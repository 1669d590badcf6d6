// Package exprs analyzes HCL expressions before they are evaluated: which
// database entries they read and which functions they call.
package exprs

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Analysis lists what a set of expressions depends on. Both slices are
// sorted and hold unique names.
type Analysis struct {
	Variables []string
	Functions []string
}

// Analyze walks the expressions. Nil expressions are ignored. Function calls
// are only found in native syntax expressions.
func Analyze(exprs ...hcl.Expression) Analysis {
	variables := make(map[string]struct{})
	functions := make(map[string]struct{})

	for _, expr := range exprs {
		if expr == nil {
			continue
		}
		for _, traversal := range expr.Variables() {
			variables[traversal.RootName()] = struct{}{}
		}
		if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
			hclsyntax.VisitAll(syntaxExpr, func(n hclsyntax.Node) hcl.Diagnostics {
				if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
					functions[call.Name] = struct{}{}
				}
				return nil
			})
		}
	}

	return Analysis{Variables: sorted(variables), Functions: sorted(functions)}
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
