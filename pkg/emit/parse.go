package emit

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/vango-dev/routec/pkg/route"
)

// ParseRegistrations re-reads the route.Handle calls of a static artifact
// in source order.
func ParseRegistrations(src []byte) ([]Registration, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "routes_gen.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	var register *ast.FuncDecl
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Recv == nil && fn.Name.Name == "Register" {
			register = fn
			break
		}
	}
	if register == nil {
		return nil, fmt.Errorf("no Register function")
	}

	var out []Registration
	for _, stmt := range register.Body.List {
		es, ok := stmt.(*ast.ExprStmt)
		if !ok {
			continue
		}
		call, ok := es.X.(*ast.CallExpr)
		if !ok || !isSelector(call.Fun, "route", "Handle") || len(call.Args) != 5 {
			continue
		}

		reg, err := parseHandleCall(call)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fset.Position(call.Pos()), err)
		}
		out = append(out, reg)
	}
	return out, nil
}

func parseHandleCall(call *ast.CallExpr) (Registration, error) {
	var reg Registration

	sel, ok := call.Args[1].(*ast.SelectorExpr)
	if !ok {
		return reg, fmt.Errorf("method is not a route constant")
	}
	m, ok := route.ParseMethod(sel.Sel.Name)
	if !ok {
		return reg, fmt.Errorf("unknown method %s", sel.Sel.Name)
	}
	reg.Method = m

	lit, ok := call.Args[2].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return reg, fmt.Errorf("pattern is not a string literal")
	}
	pattern, err := strconv.Unquote(lit.Value)
	if err != nil {
		return reg, err
	}
	reg.Pattern = pattern

	switch h := call.Args[3].(type) {
	case *ast.Ident:
		reg.Handler = h.Name
	case *ast.SelectorExpr:
		reg.Handler = h.Sel.Name
	default:
		return reg, fmt.Errorf("handler is not an identifier")
	}
	return reg, nil
}

func isSelector(e ast.Expr, pkg, name string) bool {
	sel, ok := e.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	return ok && id.Name == pkg && sel.Sel.Name == name
}
