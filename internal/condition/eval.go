package condition

import "strings"

// Resolver maps a predicate to its three-valued truth under the current
// set of reported job statuses. The mapping from a reported status to a
// per-kind truth value lives with the caller; this package only supplies
// the connective algebra.
type Resolver func(p *Predicate) Truth

// Eval evaluates the expression under Kleene three-valued logic. A nil
// expression is the trivial always-true condition of a root job.
func Eval(e Expr, resolve Resolver) Truth {
	if e == nil {
		return True
	}
	switch n := e.(type) {
	case *Predicate:
		return resolve(n)
	case *Combinator:
		left := Eval(n.Left, resolve)
		right := Eval(n.Right, resolve)
		if n.Op == OpAnd {
			return left.And(right)
		}
		return left.Or(right)
	}
	return Unknown
}

// Blockers walks the expression and collects the nearest referenced jobs
// whose own truth value causes the overall result to be False or Unknown,
// in left-to-right expression order without duplicates. A True result has
// no blockers.
//
// For an AND that is False only the False sides contribute; for an AND
// that is Unknown only the Unknown sides do (a False side would have made
// the whole conjunction False). For an OR that is False both sides are
// False and both contribute; for an OR that is Unknown only the Unknown
// sides contribute.
func Blockers(e Expr, resolve Resolver) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(name string) {
		key := strings.ToUpper(name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}

	var walk func(e Expr, want Truth)
	walk = func(e Expr, want Truth) {
		switch n := e.(type) {
		case *Predicate:
			add(n.JobRef)
		case *Combinator:
			if Eval(n.Left, resolve) == want {
				walk(n.Left, want)
			}
			if Eval(n.Right, resolve) == want {
				walk(n.Right, want)
			}
		}
	}

	result := Eval(e, resolve)
	if result == True || e == nil {
		return nil
	}
	walk(e, result)
	return out
}
