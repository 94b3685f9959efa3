package rules

import "fmt"

// rowState is the transient state of the row being processed: the result
// accessor and which once-rules have fired, indexed by rule position.
type rowState struct {
	row   *Row
	fired []bool
}

// applyColumn offers one column to every rule of t in registration order.
// All matching rules fire, except once-rules that already fired for this
// row. The first failing action stops processing and its error is returned.
func (t *Type) applyColumn(st *rowState, value, header string) error {
	for i := range t.rules {
		r := &t.rules[i]
		if r.Once && st.fired[i] {
			continue
		}
		if !r.Criteria.Match(header) {
			continue
		}
		if err := r.action(st.row, value, header); err != nil {
			return fmt.Errorf("rule %s: %w", r.Label(), err)
		}
		if r.Once {
			st.fired[i] = true
		}
	}
	return nil
}
