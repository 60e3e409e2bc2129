package style

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Rule rewrites prose that matches a pattern. Patterns are matched
// case-insensitively; replacements may use Go regexp templates ($1, $2)
// for back-references.
type Rule struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	Reason      string `json:"reason"`
}

// DefaultRules returns the built-in writing-style rule set. Order matters:
// the first matching rule decides which suggestion, if any, a line receives.
func DefaultRules() []Rule {
	return []Rule{
		{
			Pattern:     `\b(?:utilize|utilization|utilizes|utilizing)\b`,
			Replacement: "use",
			Reason:      "Use 'use' instead of 'utilize' for simplicity.",
		},
		{
			Pattern:     `\b(?:optimize|optimization|optimizes|optimizing)\b`,
			Replacement: "improve",
			Reason:      "Simplify language by replacing 'optimize' with 'improve'.",
		},
		{
			Pattern:     `\bin order to\b`,
			Replacement: "to",
			Reason:      "Use 'to' instead of 'in order to' for conciseness.",
		},
		{
			Pattern:     `\bplease note that\b`,
			Replacement: "",
			Reason:      "Remove 'please note that' for directness.",
		},
		{
			Pattern:     `\bthe data (?:is|was) processed\b`,
			Replacement: "processed the data",
			Reason:      "Use active voice instead of passive voice.",
		},
		{
			Pattern:     `\byou should\b`,
			Replacement: "",
			Reason:      "Be direct with instructions, avoid 'you should'.",
		},
	}
}

// LoadRules reads an ordered rule list from a JSON file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("rules file %s is not valid JSON: %w", path, err)
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("rules file %s contains no rules", path)
	}

	return rules, nil
}

// compiledRule is a Rule with its pattern compiled for matching.
type compiledRule struct {
	re          *regexp.Regexp
	replacement string
	reason      string
}

// RuleSet is an ordered, compiled set of style rules. The ordering is
// behaviorally significant and preserved exactly.
type RuleSet struct {
	rules []compiledRule
}

// Compile compiles rules with case-insensitive matching.
func Compile(rules []Rule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Pattern, err)
		}
		compiled = append(compiled, compiledRule{
			re:          re,
			replacement: r.Replacement,
			reason:      r.Reason,
		})
	}
	return &RuleSet{rules: compiled}, nil
}

// MustCompile compiles rules and panics on error. Intended for the
// built-in rule set.
func MustCompile(rules []Rule) *RuleSet {
	rs, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}
