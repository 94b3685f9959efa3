package service

import (
	"fmt"

	"github.com/JonMunkholm/csvrules/internal/catalog"
)

// ParserInfo describes a catalog entry for listings.
type ParserInfo struct {
	Name        string     `json:"name"`
	Group       string     `json:"group"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Source      string     `json:"source"`
	Extends     string     `json:"extends,omitempty"`
	RuleCount   int        `json:"rule_count"`
	Rules       []RuleInfo `json:"rules,omitempty"`
}

// RuleInfo describes one rule in registration order.
type RuleInfo struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Criteria string `json:"criteria"`
	Once     bool   `json:"once"`
}

// Parsers lists every catalog entry without rule detail.
func (s *Service) Parsers() []ParserInfo {
	all := catalog.All()
	out := make([]ParserInfo, 0, len(all))
	for _, e := range all {
		out = append(out, describe(e, false))
	}
	return out
}

// Describe returns one parser with its rules.
func (s *Service) Describe(name string) (ParserInfo, error) {
	e, ok := s.lookup(name)
	if !ok {
		return ParserInfo{}, fmt.Errorf("%w %q", ErrUnknownParser, name)
	}
	return describe(e, true), nil
}

func describe(e catalog.Entry, withRules bool) ParserInfo {
	info := ParserInfo{
		Name:        e.Name,
		Group:       e.Group,
		Label:       e.Label,
		Description: e.Description,
		Source:      string(e.Source),
		RuleCount:   e.Type.Len(),
	}
	if parent := e.Type.Parent(); parent != nil {
		info.Extends = parent.Name()
	}
	if withRules {
		for i, r := range e.Type.Rules() {
			info.Rules = append(info.Rules, RuleInfo{
				Index:    i,
				Label:    r.Label(),
				Criteria: r.Criteria.String(),
				Once:     r.Once,
			})
		}
	}
	return info
}
