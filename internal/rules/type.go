package rules

import (
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
)

// DefaultsFunc builds the initial result for a new row.
// It must return a fresh value on every call.
type DefaultsFunc func() Result

// Type is a parser type: an ordered rule registry plus the defaults
// template every row starts from.
//
// Rules are registered while the type is being defined, normally from a
// package-level var block or init(). The first call to Extend or NewParser
// seals the type; registering after that panics with ErrSealed.
type Type struct {
	name     string
	parent   *Type
	rules    []Rule
	defaults DefaultsFunc
	sealed   atomic.Bool
}

// TypeOption customizes a Type at definition time.
type TypeOption func(*Type)

// WithDefaults overrides the defaults used to seed each row.
func WithDefaults(fn DefaultsFunc) TypeOption {
	return func(t *Type) { t.defaults = fn }
}

// WithTemplate seeds each row with a deep copy of tmpl.
func WithTemplate(tmpl Result) TypeOption {
	return WithDefaults(func() Result { return tmpl.Clone() })
}

// NewType creates an empty parser type.
func NewType(name string, opts ...TypeOption) *Type {
	t := &Type{
		name:     name,
		defaults: func() Result { return Result{} },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Extend creates a child type whose registry starts as a snapshot of t's
// rules. Rules registered on the child are appended after the inherited
// ones and never affect t. Defaults are inherited unless overridden.
// Extending seals t.
func (t *Type) Extend(name string, opts ...TypeOption) *Type {
	t.seal()
	child := &Type{
		name:     name,
		parent:   t,
		rules:    slices.Clone(t.rules),
		defaults: t.defaults,
	}
	for _, opt := range opts {
		opt(child)
	}
	return child
}

// Register appends a rule that fires for every matching column.
func (t *Type) Register(c Criteria, action Action, opts ...RuleOption) {
	if t.sealed.Load() {
		panic(fmt.Errorf("register %s on %q: %w", c, t.name, ErrSealed))
	}
	if c == nil || action == nil {
		panic(fmt.Sprintf("register on %q: criteria and action are required", t.name))
	}

	r := Rule{Criteria: c, action: action}
	for _, opt := range opts {
		opt(&r)
	}
	t.rules = append(t.rules, r)
}

// RegisterOnce appends a rule that fires at most once per row.
func (t *Type) RegisterOnce(c Criteria, action Action, opts ...RuleOption) {
	t.Register(c, action, append(opts, Once())...)
}

// Name returns the type name.
func (t *Type) Name() string {
	return t.name
}

// Parent returns the type t was extended from, or nil.
func (t *Type) Parent() *Type {
	return t.parent
}

// Len returns the number of rules, inherited ones included.
func (t *Type) Len() int {
	return len(t.rules)
}

// Rules iterates over the registry in match order.
func (t *Type) Rules() iter.Seq2[int, Rule] {
	return func(yield func(int, Rule) bool) {
		for i, r := range t.rules {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Sealed reports whether rules can no longer be registered.
func (t *Type) Sealed() bool {
	return t.sealed.Load()
}

func (t *Type) seal() {
	t.sealed.Store(true)
}

// newRow builds the per-row state from the defaults template.
func (t *Type) newRow(header []string, line int) *Row {
	res := t.defaults()
	if res == nil {
		res = Result{}
	}
	return &Row{result: res, header: header, line: line}
}
