// Package condition parses and evaluates job start conditions: boolean
// expressions over predicates like success(JOB_A), combined with '&' and
// '|' under the usual precedence.
//
// Evaluation is three-valued. A predicate over a job whose outcome is not
// yet decided resolves to Unknown, and the connectives propagate it
// accordingly, so a condition can be definitively true, definitively
// false, or still open. The package knows nothing about statuses or
// graphs; callers supply a Resolver mapping each predicate to its truth.
package condition
