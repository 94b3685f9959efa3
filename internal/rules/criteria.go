package rules

import (
	"regexp"
	"strconv"
)

// Criteria decides whether a rule applies to a column, based only on the
// column's (already trimmed) header name.
type Criteria interface {
	Match(header string) bool
	String() string
}

// Exact returns criteria matching a header equal to name (case-sensitive).
func Exact(name string) Criteria {
	return exactCriteria(name)
}

type exactCriteria string

func (c exactCriteria) Match(header string) bool { return string(c) == header }
func (c exactCriteria) String() string { return strconv.Quote(string(c)) }

// Pattern returns criteria matching any header the expression matches.
// No anchoring is added: use ^ and $ for whole-name matches.
func Pattern(re *regexp.Regexp) Criteria {
	return patternCriteria{re: re}
}

// MustPattern compiles expr and returns Pattern criteria.
// Panics if expr is not a valid regular expression, like regexp.MustCompile.
func MustPattern(expr string) Criteria {
	return Pattern(regexp.MustCompile(expr))
}

type patternCriteria struct {
	re *regexp.Regexp
}

func (c patternCriteria) Match(header string) bool { return c.re.MatchString(header) }
func (c patternCriteria) String() string { return "/" + c.re.String() + "/" }

// Predicate returns criteria that delegate the decision to fn.
// name is only used for introspection.
func Predicate(name string, fn func(header string) bool) Criteria {
	return predicateCriteria{name: name, fn: fn}
}

type predicateCriteria struct {
	name string
	fn   func(string) bool
}

func (c predicateCriteria) Match(header string) bool { return c.fn(header) }
func (c predicateCriteria) String() string { return c.name + "()" }

// Any returns criteria matching every header.
func Any() Criteria {
	return anyCriteria{}
}

type anyCriteria struct{}

func (anyCriteria) Match(string) bool { return true }
func (anyCriteria) String() string { return "*" }
