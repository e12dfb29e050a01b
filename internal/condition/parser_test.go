package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSinglePredicate(t *testing.T) {
	expr, err := Parse("success(JOB_A)")
	require.NoError(t, err)

	pred, ok := expr.(*Predicate)
	require.True(t, ok)
	assert.Equal(t, KindSuccess, pred.Kind)
	assert.Equal(t, "JOB_A", pred.JobRef)
}

func TestParseKeywordCaseInsensitive(t *testing.T) {
	expr, err := Parse("SUCCESS(JOB_A) & NotRunning(JOB_B)")
	require.NoError(t, err)

	comb, ok := expr.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, KindSuccess, comb.Left.(*Predicate).Kind)
	assert.Equal(t, KindNotRunning, comb.Right.(*Predicate).Kind)
}

func TestParsePrecedence(t *testing.T) {
	// '&' binds tighter than '|': a | b & c parses as a | (b & c).
	expr, err := Parse("success(A) | success(B) & success(C)")
	require.NoError(t, err)

	or, ok := expr.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, OpOr, or.Op)
	assert.Equal(t, "A", or.Left.(*Predicate).JobRef)

	and, ok := or.Right.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, OpAnd, and.Op)
	assert.Equal(t, "B", and.Left.(*Predicate).JobRef)
	assert.Equal(t, "C", and.Right.(*Predicate).JobRef)
}

func TestParseParenthesesOverridePrecedence(t *testing.T) {
	expr, err := Parse("(success(A) | success(B)) & success(C)")
	require.NoError(t, err)

	and, ok := expr.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, OpAnd, and.Op)

	or, ok := and.Left.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, OpOr, or.Op)
}

func TestParseLeftAssociative(t *testing.T) {
	expr, err := Parse("success(A) & success(B) & success(C)")
	require.NoError(t, err)

	outer, ok := expr.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, "C", outer.Right.(*Predicate).JobRef)

	inner, ok := outer.Left.(*Combinator)
	require.True(t, ok)
	assert.Equal(t, "A", inner.Left.(*Predicate).JobRef)
	assert.Equal(t, "B", inner.Right.(*Predicate).JobRef)
}

func TestParseWhitespaceInsignificant(t *testing.T) {
	compact, err := Parse("success(A)&failure(B)")
	require.NoError(t, err)
	spaced, err := Parse("  success( A )  &  failure( B )  ")
	require.NoError(t, err)
	assert.Equal(t, compact.String(), spaced.String())
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		msg   string
	}{
		{"unknown keyword", "sucess(JOB_A)", "unknown predicate keyword"},
		{"unbalanced open", "(success(A) & success(B)", "unbalanced parenthesis"},
		{"unbalanced predicate", "success(JOB_A", "unbalanced parenthesis"},
		{"empty job name", "success()", "empty job name"},
		{"dangling operator", "success(A) &", "expected predicate"},
		{"trailing garbage", "success(A) success(B)", "unexpected trailing input"},
		{"empty input", "", "expected predicate"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, parseErr.Error(), tc.msg)
			assert.GreaterOrEqual(t, parseErr.Offset, 0)
			assert.LessOrEqual(t, parseErr.Offset, len(tc.input))
		})
	}
}

func TestParseErrorOffsetPointsAtKeyword(t *testing.T) {
	_, err := Parse("success(A) & bogus(B)")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 13, parseErr.Offset)
	assert.Contains(t, parseErr.Near, "bogus")
}

func TestReferences(t *testing.T) {
	expr, err := Parse("success(A) & (failure(B) | success(A)) & done(C)")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, References(expr))
}

func TestReferencesNilExpression(t *testing.T) {
	assert.Empty(t, References(nil))
}
