package classify

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Rule is one classification rule. Matching is case-insensitive substring
// matching over the normalized description, optionally bounded by amount.
type Rule struct {
	Name      string
	Category  string
	Priority  int
	Includes  []string
	Excludes  []string
	AmountMin decimal.Decimal
	AmountMax decimal.Decimal
}

// Matches reports whether the rule applies to a transaction. A rule with no
// include terms never matches.
func (r *Rule) Matches(normalizedDesc string, amount decimal.Decimal) bool {
	if len(r.Includes) == 0 {
		return false
	}
	if amount.LessThan(r.AmountMin) || amount.GreaterThan(r.AmountMax) {
		return false
	}
	for _, term := range r.Excludes {
		if strings.Contains(normalizedDesc, term) {
			return false
		}
	}
	for _, term := range r.Includes {
		if strings.Contains(normalizedDesc, term) {
			return true
		}
	}
	return false
}

type rawRule struct {
	Name         string   `yaml:"name"`
	CategoryCode string   `yaml:"category_code"`
	Category     string   `yaml:"category"`
	Priority     *int     `yaml:"priority"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	AmountMin    *float64 `yaml:"amount_min"`
	AmountMax    *float64 `yaml:"amount_max"`
}

// LoadRules reads the rules file and returns rules sorted by ascending
// priority value, ties kept in file order. Defaults: priority 100 and
// effectively unbounded amounts.
func LoadRules(path string) ([]*Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}

	rules := make([]*Rule, 0, len(raw))
	for i, r := range raw {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i)
		}
		// category_code is the documented field; category is a legacy alias.
		category := r.CategoryCode
		if category == "" {
			category = r.Category
		}
		if category == "" {
			return nil, fmt.Errorf("rule %q: missing category_code", r.Name)
		}

		rule := &Rule{
			Name:      r.Name,
			Category:  category,
			Priority:  100,
			Includes:  upperAll(r.Includes),
			Excludes:  upperAll(r.Excludes),
			AmountMin: decimal.NewFromFloat(-1e15),
			AmountMax: decimal.NewFromFloat(1e15),
		}
		if r.Priority != nil {
			rule.Priority = *r.Priority
		}
		if r.AmountMin != nil {
			rule.AmountMin = decimal.NewFromFloat(*r.AmountMin)
		}
		if r.AmountMax != nil {
			rule.AmountMax = decimal.NewFromFloat(*r.AmountMax)
		}
		rules = append(rules, rule)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})
	return rules, nil
}

func upperAll(terms []string) []string {
	result := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.TrimSpace(term); term != "" {
			result = append(result, strings.ToUpper(term))
		}
	}
	return result
}
