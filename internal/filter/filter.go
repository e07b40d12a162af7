// internal/filter/filter.go
package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/rovshanmuradov/solana-research/internal/domain"
	"github.com/rovshanmuradov/solana-research/internal/position"
)

// Comparator is one of > < >= <= =.
type Comparator string

const (
	Greater      Comparator = ">"
	Less         Comparator = "<"
	GreaterEqual Comparator = ">="
	LessEqual    Comparator = "<="
	Equal        Comparator = "="
)

const equalTolerance = 1e-6

// Compare applies the comparator to actual and threshold.
func (c Comparator) Compare(actual, threshold float64) bool {
	switch c {
	case Greater:
		return actual > threshold
	case Less:
		return actual < threshold
	case GreaterEqual:
		return actual >= threshold
	case LessEqual:
		return actual <= threshold
	case Equal:
		return math.Abs(actual-threshold) < equalTolerance
	}
	return false
}

// Clause is a single key:op value condition.
type Clause struct {
	Key        Key
	Comparator Comparator
	Threshold  float64
}

func (c Clause) String() string {
	return c.Key.String() + ":" + string(c.Comparator) + strconv.FormatFloat(c.Threshold, 'f', -1, 64)
}

// Match reports whether row satisfies the clause. Unavailable metrics never match.
func (c Clause) Match(row position.Row) bool {
	m := c.Key.Metric(row)
	if !m.OK {
		return false
	}
	return c.Comparator.Compare(m.Value, c.Threshold)
}

// Expression is an AND of clauses. The zero value matches everything.
type Expression struct {
	Clauses []Clause
}

// IsEmpty reports whether the expression has no clauses.
func (e Expression) IsEmpty() bool {
	return len(e.Clauses) == 0
}

func (e Expression) String() string {
	parts := make([]string, len(e.Clauses))
	for i, c := range e.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, ";")
}

// Match reports whether row satisfies every clause.
func (e Expression) Match(row position.Row) bool {
	for _, c := range e.Clauses {
		if !c.Match(row) {
			return false
		}
	}
	return true
}

// Apply returns the rows that match, in their original order.
func (e Expression) Apply(rows []position.Row) []position.Row {
	if e.IsEmpty() {
		return rows
	}
	out := make([]position.Row, 0, len(rows))
	for _, r := range rows {
		if e.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Parse reads "key:op value;key:op value". Blank input yields an empty expression.
func Parse(input string) (Expression, error) {
	if strings.TrimSpace(input) == "" {
		return Expression{}, nil
	}

	var expr Expression
	for _, raw := range strings.Split(input, ";") {
		clause, err := parseClause(input, raw)
		if err != nil {
			return Expression{}, err
		}
		expr.Clauses = append(expr.Clauses, clause)
	}
	return expr, nil
}

func parseClause(input, raw string) (Clause, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Clause{}, &domain.ParseError{Input: input, Token: raw, Reason: "empty clause"}
	}

	name, rest, found := strings.Cut(text, ":")
	if !found {
		return Clause{}, &domain.ParseError{Input: input, Token: text, Reason: "expected key:op value"}
	}
	name = strings.TrimSpace(name)
	key, ok := LookupKey(name)
	if !ok {
		return Clause{}, &domain.ParseError{Input: input, Token: name, Reason: "unknown filter key"}
	}

	rest = strings.TrimSpace(rest)
	cmp, value := splitComparator(rest)
	if cmp == "" {
		return Clause{}, &domain.ParseError{Input: input, Token: rest, Reason: "malformed comparator"}
	}

	value = strings.TrimSpace(value)
	threshold, err := strconv.ParseFloat(value, 64)
	if err != nil || !isDecimal(value) {
		return Clause{}, &domain.ParseError{Input: input, Token: value, Reason: "value is not a number"}
	}

	return Clause{Key: key, Comparator: cmp, Threshold: threshold}, nil
}

func splitComparator(s string) (Comparator, string) {
	for _, c := range []Comparator{GreaterEqual, LessEqual, Greater, Less, Equal} {
		if strings.HasPrefix(s, string(c)) {
			rest := s[len(c):]
			// reject "=>", "==", "<>" and friends
			if strings.HasPrefix(rest, ">") || strings.HasPrefix(rest, "<") || strings.HasPrefix(rest, "=") {
				return "", s
			}
			return c, rest
		}
	}
	return "", s
}

// isDecimal accepts an optional sign, digits and at most one dot. ParseFloat alone
// would also take "inf", "NaN" and hex floats.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
