package ruleset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/rules"
)

const leadsYAML = `
parsers:
  - name: leads
    group: CRM
    label: Leads
    defaults:
      notes: []
      address: {}
    rules:
      - exact: Email
        once: true
        key: email
        transform: lower
      - pattern: '^Note #\d$'
        action: append
        key: notes
        skip_empty: true
      - exact: State
        path: [address]
        key: state
        transform: state
      - exact: Tags
        action: split
        key: tags
  - name: leads_raw
    extends: leads
    rules:
      - any: true
        name: raw
`

func parseAll(t *testing.T, typ *rules.Type, input string) []rules.Result {
	t.Helper()
	got, err := rules.NewCSVParser(typ, strings.NewReader(input), rules.ReaderOptions{}).Collect()
	require.NoError(t, err)
	return got
}

func TestBuild(t *testing.T) {
	f, err := Parse([]byte(leadsYAML))
	require.NoError(t, err)

	entries, err := Build(f, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	leads := entries[0]
	assert.Equal(t, "leads", leads.Name)
	assert.Equal(t, "CRM", leads.Group)
	assert.Equal(t, catalog.SourceRuleset, leads.Source)
	assert.Equal(t, 4, leads.Type.Len())

	input := "Email,Note #1,Note #2,State,Tags\nJane@X.com,first,,texas,a;b c\n"
	got := parseAll(t, leads.Type, input)
	require.Len(t, got, 1)
	assert.Equal(t, rules.Result{
		"email":   "jane@x.com",
		"notes":   []any{"first"},
		"address": map[string]any{"state": "TX"},
		"tags":    []any{"a", "b", "c"},
	}, got[0])

	raw := entries[1]
	assert.Equal(t, 5, raw.Type.Len())
	assert.Same(t, leads.Type, raw.Type.Parent())

	got = parseAll(t, raw.Type, input)
	assert.Equal(t, "Jane@X.com", got[0]["Email"], "inherited rules run first, raw copy after")
	assert.Equal(t, "jane@x.com", got[0]["email"])
}

func TestBuild_ExtendsLookup(t *testing.T) {
	base := rules.NewType("base")
	base.Register(rules.Exact("id"), func(row *rules.Row, val, _ string) error {
		row.Set("id", val)
		return nil
	})
	lookup := func(name string) (*rules.Type, bool) {
		if name == "base" {
			return base, true
		}
		return nil, false
	}

	f, err := Parse([]byte(`
parsers:
  - name: child
    extends: base
    rules:
      - exact: name
`))
	require.NoError(t, err)

	entries, err := Build(f, lookup)
	require.NoError(t, err)
	got := parseAll(t, entries[0].Type, "id,name\n7,x\n")
	assert.Equal(t, rules.Result{"id": "7", "name": "x"}, got[0])
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "parsers:\n  - rules: []\n", "name is required"},
		{"defined twice", "parsers:\n  - name: a\n  - name: a\n", "defined twice"},
		{"unknown parent", "parsers:\n  - name: a\n    extends: nope\n", `extends unknown parser "nope"`},
		{"no criteria", "parsers:\n  - name: a\n    rules:\n      - key: x\n", "one of exact, pattern or any"},
		{"two criteria", "parsers:\n  - name: a\n    rules:\n      - exact: x\n        any: true\n", "mutually exclusive"},
		{"bad pattern", "parsers:\n  - name: a\n    rules:\n      - pattern: '('\n", "invalid pattern"},
		{"bad action", "parsers:\n  - name: a\n    rules:\n      - any: true\n        action: delete\n", `unknown action "delete"`},
		{"bad transform", "parsers:\n  - name: a\n    rules:\n      - any: true\n        transform: shout\n", `unknown transform "shout"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)

			_, err = Build(f, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Parsers)

	_, err = Parse([]byte("parsers:\n  - name: a\n    rulez: []\n"))
	require.Error(t, err, "unknown fields are rejected")
}

func TestAction_NestedConflict(t *testing.T) {
	f, err := Parse([]byte(`
parsers:
  - name: a
    defaults:
      address: "not a map"
    rules:
      - exact: city
        path: [address]
`))
	require.NoError(t, err)
	entries, err := Build(f, nil)
	require.NoError(t, err)

	_, err = rules.NewCSVParser(entries[0].Type, strings.NewReader("city\nParis\n"), rules.ReaderOptions{}).Collect()
	var rowErr *rules.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "city", rowErr.Header)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestApply(t *testing.T) {
	catalog.Clear()
	defer catalog.Clear()

	catalog.Register(catalog.Entry{Name: "builtin", Type: rules.NewType("builtin")})

	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, path, "parsers:\n  - name: one\n    extends: builtin\n  - name: two\n")

	entries, err := Apply(path)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 3, catalog.Count())

	// A broken file leaves the previous set in place.
	writeFile(t, path, "parsers:\n  - name: three\n    extends: missing\n")
	_, err = Apply(path)
	require.Error(t, err)
	_, ok := catalog.Get("one")
	assert.True(t, ok)

	_, err = Apply(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestWatch(t *testing.T) {
	catalog.Clear()
	defer catalog.Clear()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, path, "parsers:\n  - name: one\n")
	_, err := Apply(path)
	require.NoError(t, err)

	reloaded := make(chan []catalog.Entry, 4)
	closer, err := Watch(path, 20*time.Millisecond, func(entries []catalog.Entry, err error) {
		if err == nil {
			reloaded <- entries
		}
	})
	require.NoError(t, err)
	defer closer.Close()

	writeFile(t, path, "parsers:\n  - name: two\n")

	select {
	case entries := <-reloaded:
		require.Len(t, entries, 1)
		assert.Equal(t, "two", entries[0].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	_, ok := catalog.Get("one")
	assert.False(t, ok)
	_, ok = catalog.Get("two")
	assert.True(t, ok)
}

func TestWatch_CloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeFile(t, path, "parsers: []\n")

	closer, err := Watch(path, 10*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, closer.Close())
	assert.NotPanics(t, func() {
		assert.NoError(t, closer.Close())
	})
}
