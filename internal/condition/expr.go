package condition

import (
	"fmt"
	"strings"
)

// PredicateKind identifies the atomic test a predicate applies to the
// referenced job's reported status.
type PredicateKind string

const (
	KindSuccess    PredicateKind = "success"
	KindFailure    PredicateKind = "failure"
	KindDone       PredicateKind = "done"
	KindTerminated PredicateKind = "terminated"
	KindNotRunning PredicateKind = "notrunning"
)

// Op is a boolean connective joining two sub-expressions.
type Op string

const (
	OpAnd Op = "&"
	OpOr  Op = "|"
)

// Expr is a parsed condition expression: a tree whose leaves are
// Predicate nodes and whose interior nodes are Combinator nodes.
// Consumers walk it with a type switch over the two concrete cases.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Predicate is an atomic test, e.g. success(JOB_A).
type Predicate struct {
	Kind   PredicateKind
	JobRef string
}

func (p *Predicate) isExpr() {}

func (p *Predicate) String() string {
	return fmt.Sprintf("%s(%s)", p.Kind, p.JobRef)
}

// Combinator joins two sub-expressions with AND or OR.
type Combinator struct {
	Op    Op
	Left  Expr
	Right Expr
}

func (c *Combinator) isExpr() {}

func (c *Combinator) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op, c.Right)
}

// References returns every job name referenced by a predicate anywhere in
// the expression, in left-to-right order, without duplicates. Job names
// are compared case-insensitively.
func References(e Expr) []string {
	var out []string
	seen := make(map[string]struct{})
	var walk func(Expr)
	walk = func(e Expr) {
		switch n := e.(type) {
		case *Predicate:
			key := strings.ToUpper(n.JobRef)
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				out = append(out, n.JobRef)
			}
		case *Combinator:
			walk(n.Left)
			walk(n.Right)
		}
	}
	if e != nil {
		walk(e)
	}
	return out
}
