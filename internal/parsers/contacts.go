package parsers

import (
	"strings"

	"github.com/JonMunkholm/csvrules/internal/catalog"
	"github.com/JonMunkholm/csvrules/internal/rules"
)

// Contacts parses CRM lead exports into contact records.
var Contacts = rules.NewType("contacts", rules.WithTemplate(rules.Result{
	"notes":         []any{},
	"contact_types": []any{},
	"phone_numbers": []any{},
	"property_search": rules.Result{
		"misc_locations": []any{},
	},
}))

func init() {
	registerContacts()
}

func registerContacts() {
	c := Contacts

	c.RegisterOnce(rules.Exact("Name"), func(row *rules.Row, val, _ string) error {
		first, last := SplitName(val)
		row.Set("first_name", first)
		row.Set("last_name", last)
		return nil
	})

	c.RegisterOnce(rules.Exact("Search Timeframe"), func(row *rules.Row, val, _ string) error {
		row.Set("timeframe", val)
		return nil
	})

	c.RegisterOnce(rules.Exact("Email (Personal) #1"), func(row *rules.Row, val, _ string) error {
		row.Set("email", strings.Join(SplitList(val), ","))
		return nil
	})

	c.RegisterOnce(rules.Exact("State"), func(row *rules.Row, val, _ string) error {
		row.Set("state", NormalizeUsState(val))
		return nil
	})

	c.RegisterOnce(rules.Exact("Contact Type"), skipEmpty(func(row *rules.Row, val, _ string) error {
		return row.Append("contact_types", val)
	}))

	// First non-blank mobile number only. Not a once-rule: a blank #1
	// must not use up the rule before #2 is seen.
	c.Register(rules.MustPattern(`^Phone \(Mobile\) #\d$`), skipEmpty(func(row *rules.Row, val, _ string) error {
		if phones, _ := row.Get("phone_numbers").([]any); len(phones) > 0 {
			return nil
		}
		return row.Append("phone_numbers", rules.Result{
			"label":  "Cell",
			"number": val,
		})
	}))

	// Notes
	for _, crit := range []rules.Criteria{
		rules.Exact("Note"),
		rules.Exact("Home Type"),
		rules.Exact("Latest Communication"),
		rules.MustPattern(`^Listing #\d$`),
	} {
		c.Register(crit, skipEmpty(func(row *rules.Row, val, _ string) error {
			return row.Append("notes", rules.Result{"content": val})
		}))
	}

	// Property search
	c.RegisterOnce(rules.Exact("Min. Price"), func(row *rules.Row, val, _ string) error {
		return setNested(row, "property_search", "price_low", val)
	})

	c.RegisterOnce(rules.Exact("Max. Price"), func(row *rules.Row, val, _ string) error {
		return setNested(row, "property_search", "price_high", val)
	})

	c.Register(rules.MustPattern(`^Location #\d$`), skipEmpty(func(row *rules.Row, val, _ string) error {
		search, err := row.Nested("property_search")
		if err != nil {
			return err
		}
		return search.Append("misc_locations", rules.Result{
			"name":           "Other " + val,
			"location_value": val,
		})
	}))

	catalog.Register(catalog.Entry{
		Name:        "contacts",
		Group:       "CRM",
		Label:       "Contact export",
		Description: "Lead export with names, phones, notes and property search preferences",
		Type:        c,
	})
}

// skipEmpty wraps an action so blank cells are ignored. List-valued fields
// should not collect empty entries.
func skipEmpty(action rules.Action) rules.Action {
	return func(row *rules.Row, val, header string) error {
		if val == "" {
			return nil
		}
		return action(row, val, header)
	}
}

func setNested(row *rules.Row, key, field string, val any) error {
	nested, err := row.Nested(key)
	if err != nil {
		return err
	}
	nested.Set(field, val)
	return nil
}
