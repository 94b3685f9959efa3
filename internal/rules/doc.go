// Package rules turns CSV rows into structured results using an ordered,
// declarative set of column rules.
//
// # Parser Types
//
// A [Type] owns an ordered rule registry and a defaults template. Each rule
// pairs [Criteria] tested against a column's header name with an [Action]
// that writes into the row being built:
//
//	var Leads = rules.NewType("leads", rules.WithTemplate(rules.Result{"notes": []any{}}))
//
//	func init() {
//	    Leads.RegisterOnce(rules.Exact("Email"), func(row *rules.Row, val, _ string) error {
//	        row.Set("email", val)
//	        return nil
//	    })
//	    Leads.Register(rules.MustPattern(`^Note #\d$`), func(row *rules.Row, val, _ string) error {
//	        return row.Append("notes", val)
//	    })
//	}
//
// Criteria come in four kinds: [Exact] header text, regular expression
// [Pattern], [Predicate] functions, and [Any].
//
// # Matching
//
// Every column is offered to every rule in registration order, and every
// rule that matches fires, not only the first. A rule registered with
// [Type.RegisterOnce] fires at most once per row however many columns match
// it, and is eligible again on the next row.
//
// # Inheritance
//
// [Type.Extend] derives a child type whose registry starts as a snapshot of
// the parent's rules; the child's own rules run after the inherited ones.
// Extending a type, or building a [Parser] from it, seals it: later
// registrations panic with [ErrSealed].
//
// # Iteration
//
// A [Parser] reads the header row lazily on first demand, then yields one
// [Result] per data row, either through [Parser.Next] or with range over
// [Parser.All]. Rows are matched to header names by position; cells beyond
// the header width are dropped and counted in [Stats]. An error returned by
// an action aborts iteration and is reported as a [*RowError].
package rules
