package rules

// Action mutates the row under construction when its rule matches a column.
// value is the trimmed cell, header the column's header name.
// A non-nil error aborts the row and ends iteration.
type Action func(row *Row, value, header string) error

// Rule is one registered (criteria, once, action) triple.
// Rules are immutable once registered.
type Rule struct {
	Criteria Criteria
	Once     bool   // Fire at most one time per row
	Name     string // Optional label for listings; defaults to Criteria.String()

	action Action
}

// Label returns the rule's display name.
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Criteria.String()
}

// RuleOption customizes a rule at registration time.
type RuleOption func(*Rule)

// Once makes the rule fire at most one time per row.
func Once() RuleOption {
	return func(r *Rule) { r.Once = true }
}

// Named sets the label reported by Rule.Label.
func Named(name string) RuleOption {
	return func(r *Rule) { r.Name = name }
}
