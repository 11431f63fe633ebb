// Package ctxfirst implements an analyzer that keeps context.Context the
// first parameter of every function that accepts one.
package ctxfirst

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports functions, methods and function literals that take a
// context.Context anywhere but in the first position. Generated files are
// skipped.
var Analyzer = &analysis.Analyzer{
	Name:     "ctxfirst",
	Doc:      "context.Context must be the first parameter",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	generated := make(map[*ast.File]bool)
	for _, f := range pass.Files {
		if ast.IsGenerated(f) || strings.Contains(pass.Fset.Position(f.Pos()).Filename, "/.cache/go-build/") {
			generated[f] = true
		}
	}

	ins := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	filter := []ast.Node{(*ast.File)(nil), (*ast.FuncType)(nil)}

	var skip bool
	ins.Preorder(filter, func(n ast.Node) {
		switch n := n.(type) {
		case *ast.File:
			skip = generated[n]
		case *ast.FuncType:
			if !skip {
				check(pass, n)
			}
		}
	})
	return nil, nil
}

func check(pass *analysis.Pass, ft *ast.FuncType) {
	if ft.Params == nil {
		return
	}
	pos := 0
	for _, field := range ft.Params.List {
		names := max(len(field.Names), 1)
		if pos > 0 && isContext(pass.TypesInfo.TypeOf(field.Type)) {
			pass.Reportf(field.Pos(), "context.Context should be the first parameter")
		}
		pos += names
	}
}

func isContext(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
}
