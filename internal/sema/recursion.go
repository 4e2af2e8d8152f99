package sema

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
)

// checkRecursion walks the call graph built while checking function
// bodies and rejects any cycle, direct or indirect (spec.md §4.4
// "Recursion policy": "Direct recursion is rejected; indirect recursion
// is rejected when detected... This matches the host VM's absence of a
// proper call stack"). It runs once, after every function body in the
// unit has been checked, so forward-declared mutual calls are visible
// regardless of declaration order.
func (c *checker) checkRecursion() {
	visited := map[string]bool{}
	onStack := map[string]bool{}

	var visit func(name string, path []string) []string
	visit = func(name string, path []string) []string {
		if onStack[name] {
			return append(path, name)
		}
		if visited[name] {
			return nil
		}
		visited[name] = true
		onStack[name] = true
		defer func() { onStack[name] = false }()
		path = append(path, name)
		for callee := range c.callees[name] {
			if cycle := visit(callee, path); cycle != nil {
				return cycle
			}
		}
		return nil
	}

	reported := map[string]bool{}
	for _, id := range c.unit.TopLevel {
		d := c.unit.Decls.Get(id)
		if d == nil || d.Kind != ast.DeclFuncDef {
			continue
		}
		if reported[d.Name] || visited[d.Name] {
			continue
		}
		cycle := visit(d.Name, nil)
		if cycle == nil {
			continue
		}
		reported[cycle[len(cycle)-1]] = true
		if len(cycle) == 2 && cycle[0] == cycle[1] {
			c.errorf(diag.RecursionDirect, d.Span, "function %q calls itself directly", cycle[0])
		} else {
			c.errorf(diag.RecursionIndirect, d.Span, "indirect recursion detected: %s", cycleString(cycle))
		}
	}
}

func cycleString(cycle []string) string {
	s := ""
	for i, name := range cycle {
		if i > 0 {
			s += " -> "
		}
		s += name
	}
	return s
}
