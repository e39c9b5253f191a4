// Package analyzer is the static analysis pass spec.md §1 names as an
// external collaborator: it walks the parser's output bottom-up,
// annotating every node with its free-variable set (spec.md §3
// FreeVarSet; consumed by internal/eval's capture(free_vars(...)) calls)
// and rewriting the two equality sentinel operators the parser leaves
// behind into calls to the structural equality builtin (spec.md §4.F.4:
// "Equality/inequality ops must have been desugared to std-library calls;
// encountering them raw is an internal error").
//
// Grounded on the teacher's semantic-analysis shape (a single recursive
// walk that both validates and annotates), reduced here to exactly the
// two responsibilities spec.md's evaluator actually depends on.
package analyzer

import (
	"fmt"

	"github.com/lumenlang/lumen/internal/ast"
)

// opEqualSentinel and opNotEqualSentinel mirror the unexported constants internal/parser
// tags raw `==`/`!=` nodes with, so this package doesn't need to import
// parser internals to recognize them.
const (
	opEqualSentinel    ast.BinaryOp = 1000
	opNotEqualSentinel ast.BinaryOp = 1001
)

// Analyze desugars equality operators and annotates every node (including
// n itself) with its free-variable set. It returns the (possibly
// replaced) root node, since equality rewriting produces new nodes that
// callers must use in place of their original child.
func Analyze(n ast.Node) (ast.Node, error) {
	return walk(n)
}

func walk(n ast.Node) (ast.Node, error) {
	if n == nil {
		return nil, nil
	}
	switch node := n.(type) {
	case *ast.LiteralNull, *ast.LiteralBoolean, *ast.LiteralNumber, *ast.LiteralString,
		*ast.Self, *ast.Super, *ast.BuiltinRef:
		ast.SetFreeVars(n, ast.FreeVarSet{})
		return n, nil

	case *ast.Var:
		ast.SetFreeVars(n, ast.FreeVarSet{node.Name: true})
		return n, nil

	case *ast.ExtVar:
		ast.SetFreeVars(n, ast.FreeVarSet{})
		return n, nil

	case *ast.Import, *ast.ImportStr:
		ast.SetFreeVars(n, ast.FreeVarSet{})
		return n, nil

	case *ast.Array:
		free := ast.FreeVarSet{}
		for i, e := range node.Elements {
			w, err := walk(e)
			if err != nil {
				return nil, err
			}
			node.Elements[i] = w
			free = free.Union(w.FreeVars())
		}
		ast.SetFreeVars(node, free)
		return node, nil

	case *ast.Unary:
		w, err := walk(node.Expr)
		if err != nil {
			return nil, err
		}
		node.Expr = w
		ast.SetFreeVars(node, w.FreeVars())
		return node, nil

	case *ast.Binary:
		left, err := walk(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := walk(node.Right)
		if err != nil {
			return nil, err
		}
		node.Left, node.Right = left, right

		if node.Op == opEqualSentinel || node.Op == opNotEqualSentinel {
			call := &ast.Apply{
				Base:   ast.Base{P: node.P},
				Target: &ast.BuiltinRef{Base: ast.Base{P: node.P}, Name: "equals"},
				Args:   []ast.Arg{{Value: left}, {Value: right}},
			}
			ast.SetFreeVars(call.Target, ast.FreeVarSet{})
			ast.SetFreeVars(call, left.FreeVars().Union(right.FreeVars()))
			if node.Op == opEqualSentinel {
				return call, nil
			}
			not := &ast.Unary{Base: ast.Base{P: node.P}, Expr: call, Op: ast.OpNot}
			ast.SetFreeVars(not, call.FreeVars())
			return not, nil
		}

		ast.SetFreeVars(node, left.FreeVars().Union(right.FreeVars()))
		return node, nil

	case *ast.Index:
		target, err := walk(node.Target)
		if err != nil {
			return nil, err
		}
		idx, err := walk(node.Index)
		if err != nil {
			return nil, err
		}
		node.Target, node.Index = target, idx
		ast.SetFreeVars(node, target.FreeVars().Union(idx.FreeVars()))
		return node, nil

	case *ast.SuperIndex:
		idx, err := walk(node.Index)
		if err != nil {
			return nil, err
		}
		node.Index = idx
		ast.SetFreeVars(node, idx.FreeVars())
		return node, nil

	case *ast.Apply:
		target, err := walk(node.Target)
		if err != nil {
			return nil, err
		}
		node.Target = target
		free := target.FreeVars()
		for i, a := range node.Args {
			w, err := walk(a.Value)
			if err != nil {
				return nil, err
			}
			node.Args[i].Value = w
			free = free.Union(w.FreeVars())
		}
		ast.SetFreeVars(node, free)
		return node, nil

	case *ast.Function:
		bound := make([]string, len(node.Params))
		free := ast.FreeVarSet{}
		for i, p := range node.Params {
			bound[i] = p.Name
			if p.Default != nil {
				w, err := walk(p.Default)
				if err != nil {
					return nil, err
				}
				node.Params[i].Default = w
				free = free.Union(w.FreeVars())
			}
		}
		if node.Body != nil {
			body, err := walk(node.Body)
			if err != nil {
				return nil, err
			}
			node.Body = body
			free = free.Union(body.FreeVars())
		}
		ast.SetFreeVars(node, free.Remove(bound...))
		return node, nil

	case *ast.Local:
		bound := make([]string, len(node.Binds))
		free := ast.FreeVarSet{}
		for i, b := range node.Binds {
			bound[i] = b.Name
		}
		for i, b := range node.Binds {
			w, err := walk(b.Value)
			if err != nil {
				return nil, err
			}
			node.Binds[i].Value = w
			free = free.Union(w.FreeVars())
		}
		body, err := walk(node.Body)
		if err != nil {
			return nil, err
		}
		node.Body = body
		free = free.Union(body.FreeVars())
		ast.SetFreeVars(node, free.Remove(bound...))
		return node, nil

	case *ast.If:
		cond, err := walk(node.Cond)
		if err != nil {
			return nil, err
		}
		then, err := walk(node.Then)
		if err != nil {
			return nil, err
		}
		free := cond.FreeVars().Union(then.FreeVars())
		node.Cond, node.Then = cond, then
		if node.Else != nil {
			els, err := walk(node.Else)
			if err != nil {
				return nil, err
			}
			node.Else = els
			free = free.Union(els.FreeVars())
		}
		ast.SetFreeVars(node, free)
		return node, nil

	case *ast.Error:
		e, err := walk(node.Expr)
		if err != nil {
			return nil, err
		}
		node.Expr = e
		ast.SetFreeVars(node, e.FreeVars())
		return node, nil

	case *ast.DesugaredObject:
		free := ast.FreeVarSet{}
		for i, f := range node.Fields {
			name, err := walk(f.NameExpr)
			if err != nil {
				return nil, err
			}
			body, err := walk(f.Body)
			if err != nil {
				return nil, err
			}
			node.Fields[i].NameExpr, node.Fields[i].Body = name, body
			free = free.Union(name.FreeVars()).Union(body.FreeVars())
		}
		for i, a := range node.Asserts {
			w, err := walk(a)
			if err != nil {
				return nil, err
			}
			node.Asserts[i] = w
			free = free.Union(w.FreeVars())
		}
		ast.SetFreeVars(node, free)
		return node, nil

	case *ast.ObjectComprehensionSimple:
		arr, err := walk(node.Array)
		if err != nil {
			return nil, err
		}
		name, err := walk(node.NameExpr)
		if err != nil {
			return nil, err
		}
		val, err := walk(node.ValueExpr)
		if err != nil {
			return nil, err
		}
		node.Array, node.NameExpr, node.ValueExpr = arr, name, val
		inner := name.FreeVars().Union(val.FreeVars()).Remove(node.IterVar)
		ast.SetFreeVars(node, inner.Union(arr.FreeVars()))
		return node, nil

	default:
		return nil, fmt.Errorf("internal/analyzer: unhandled AST node %T", n)
	}
}
