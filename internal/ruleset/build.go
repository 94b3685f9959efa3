package ruleset

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/parsers"
	"github.com/JonMunkholm/csvrules/internal/rules"
)

// LookupFunc resolves the parent named by a definition's extends field.
type LookupFunc func(name string) (*rules.Type, bool)

// CatalogLookup resolves parents among the built-in catalog entries.
// Entries loaded from rulesets are not visible, so a reload never builds on
// the definitions it is replacing.
func CatalogLookup(name string) (*rules.Type, bool) {
	e, ok := catalog.Get(name)
	if !ok || e.Source != catalog.SourceBuiltin {
		return nil, false
	}
	return e.Type, true
}

var transforms = map[string]func(string) string{
	"":      nil,
	"trim":  strings.TrimSpace,
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
	"state": parsers.NormalizeUsState,
}

// Build turns definitions into catalog entries. A definition may extend a
// parser defined earlier in the same file or any parser lookup resolves.
// All problems are reported together.
func Build(f *File, lookup LookupFunc) ([]catalog.Entry, error) {
	var errs []error
	built := make(map[string]*rules.Type, len(f.Parsers))
	entries := make([]catalog.Entry, 0, len(f.Parsers))

	for i, def := range f.Parsers {
		if def.Name == "" {
			errs = append(errs, fmt.Errorf("parsers[%d]: name is required", i))
			continue
		}
		if _, dup := built[def.Name]; dup {
			errs = append(errs, fmt.Errorf("parser %q: defined twice", def.Name))
			continue
		}

		t, err := buildType(def, built, lookup)
		if err != nil {
			errs = append(errs, fmt.Errorf("parser %q: %w", def.Name, err))
			continue
		}
		built[def.Name] = t

		entries = append(entries, catalog.Entry{
			Name:        def.Name,
			Group:       def.Group,
			Label:       def.Label,
			Description: def.Description,
			Source:      catalog.SourceRuleset,
			Type:        t,
		})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return entries, nil
}

func buildType(def Definition, built map[string]*rules.Type, lookup LookupFunc) (*rules.Type, error) {
	var opts []rules.TypeOption
	if def.Defaults != nil {
		opts = append(opts, rules.WithTemplate(rules.Result(def.Defaults)))
	}

	var t *rules.Type
	if def.Extends == "" {
		t = rules.NewType(def.Name, opts...)
	} else {
		parent, ok := built[def.Extends]
		if !ok && lookup != nil {
			parent, ok = lookup(def.Extends)
		}
		if !ok {
			return nil, fmt.Errorf("extends unknown parser %q", def.Extends)
		}
		t = parent.Extend(def.Name, opts...)
	}

	var errs []error
	for i, rs := range def.Rules {
		crit, action, err := compileRule(rs)
		if err != nil {
			errs = append(errs, fmt.Errorf("rules[%d]: %w", i, err))
			continue
		}
		var ruleOpts []rules.RuleOption
		if rs.Name != "" {
			ruleOpts = append(ruleOpts, rules.Named(rs.Name))
		}
		if rs.Once {
			t.RegisterOnce(crit, action, ruleOpts...)
		} else {
			t.Register(crit, action, ruleOpts...)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

func compileRule(rs RuleSpec) (rules.Criteria, rules.Action, error) {
	crit, err := compileCriteria(rs)
	if err != nil {
		return nil, nil, err
	}

	transform, ok := transforms[rs.Transform]
	if !ok {
		return nil, nil, fmt.Errorf("unknown transform %q", rs.Transform)
	}

	var write func(row *rules.Row, key, val string) error
	switch rs.Action {
	case "", "set":
		write = func(row *rules.Row, key, val string) error {
			row.Set(key, val)
			return nil
		}
	case "append":
		write = func(row *rules.Row, key, val string) error {
			return row.Append(key, val)
		}
	case "split":
		write = func(row *rules.Row, key, val string) error {
			for _, item := range parsers.SplitList(val) {
				if err := row.Append(key, item); err != nil {
					return err
				}
			}
			return nil
		}
	default:
		return nil, nil, fmt.Errorf("unknown action %q", rs.Action)
	}

	path := rs.Path
	action := func(row *rules.Row, val, header string) error {
		if rs.SkipEmpty && val == "" {
			return nil
		}
		if transform != nil {
			val = transform(val)
		}
		target := row
		for _, p := range path {
			next, err := target.Nested(p)
			if err != nil {
				return err
			}
			target = next
		}
		key := rs.Key
		if key == "" {
			key = header
		}
		return write(target, key, val)
	}
	return crit, action, nil
}

func compileCriteria(rs RuleSpec) (rules.Criteria, error) {
	n := 0
	var crit rules.Criteria
	if rs.Exact != "" {
		n++
		crit = rules.Exact(rs.Exact)
	}
	if rs.Pattern != "" {
		n++
		re, err := regexp.Compile(rs.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		crit = rules.Pattern(re)
	}
	if rs.Any {
		n++
		crit = rules.Any()
	}

	switch n {
	case 0:
		return nil, errors.New("one of exact, pattern or any is required")
	case 1:
		return crit, nil
	default:
		return nil, errors.New("exact, pattern and any are mutually exclusive")
	}
}
