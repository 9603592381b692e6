// Package rules classifies agent actions as safe or dangerous.
//
// A RuleSet is loaded once per process and never mutated. Every check is a
// pure function of the rule set and its input, so the engine can be tested
// without any hook plumbing.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/maklarsystem/hookguard/internal/util"
)

//go:embed defaults.toml
var defaultRules []byte

// List names a rule list within a RuleSet.
type List string

// Rule lists, in the order they are documented in defaults.toml.
const (
	ListDangerousCommand List = "dangerous_command"
	ListPolicy           List = "policy"
	ListSensitivePath    List = "sensitive_path"
	ListSensitiveRead    List = "sensitive_read"
	ListDangerousPrompt  List = "dangerous_prompt"
)

// Reason templates used when a rule does not carry its own.
var defaultReasons = map[List]string{
	ListDangerousCommand: "Dangerous pattern detected: {pattern}",
	ListPolicy:           "Dangerous RLS operation detected: {pattern}",
	ListSensitivePath:    "Attempting to modify sensitive file: {pattern}",
	ListSensitiveRead:    "Reading sensitive file: {match}",
	ListDangerousPrompt:  "Potentially dangerous prompt pattern: {pattern}",
}

// Rule is a named case-insensitive pattern with a reason template.
// Regex rules apply to commands; substring rules apply to paths and prompts.
type Rule struct {
	Name    string
	Pattern string
	Reason  string

	re     *regexp.Regexp
	folded string
}

// IsRegex reports whether the rule matches by regular expression.
func (r *Rule) IsRegex() bool { return r.re != nil }

// Match returns the matched text and true if s matches the rule.
func (r *Rule) Match(s string) (string, bool) {
	if r.re != nil {
		loc := r.re.FindStringIndex(s)
		if loc == nil {
			return "", false
		}
		return s[loc[0]:loc[1]], true
	}
	if r.folded == "" {
		return "", false
	}
	if strings.Contains(util.Fold(s), r.folded) {
		return r.Pattern, true
	}
	return "", false
}

// Explain expands the reason template for a match.
func (r *Rule) Explain(match string) string {
	return strings.NewReplacer("{pattern}", r.Pattern, "{match}", match).Replace(r.Reason)
}

// RuleSet is the immutable collection of rules the engine evaluates.
type RuleSet struct {
	DangerousCommand []Rule
	Policy           []Rule
	SensitivePath    []Rule
	SensitiveRead    []Rule
	DangerousPrompt  []Rule
}

// Lists returns each list with its name, in evaluation order.
func (rs *RuleSet) Lists() []struct {
	Name  List
	Rules []Rule
} {
	return []struct {
		Name  List
		Rules []Rule
	}{
		{ListDangerousCommand, rs.DangerousCommand},
		{ListPolicy, rs.Policy},
		{ListSensitivePath, rs.SensitivePath},
		{ListSensitiveRead, rs.SensitiveRead},
		{ListDangerousPrompt, rs.DangerousPrompt},
	}
}

// Len returns the total number of rules.
func (rs *RuleSet) Len() int {
	return len(rs.DangerousCommand) + len(rs.Policy) + len(rs.SensitivePath) +
		len(rs.SensitiveRead) + len(rs.DangerousPrompt)
}

// ruleSpec is one rule as written in TOML.
type ruleSpec struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
	Reason  string `toml:"reason"`
}

// ruleFile is the TOML document shape shared by defaults.toml and rules_file.
type ruleFile struct {
	DangerousCommand []ruleSpec `toml:"dangerous_command"`
	Policy           []ruleSpec `toml:"policy"`
	SensitivePath    []ruleSpec `toml:"sensitive_path"`
	SensitiveRead    []ruleSpec `toml:"sensitive_read"`
	DangerousPrompt  []ruleSpec `toml:"dangerous_prompt"`
}

// Parse builds a RuleSet from a TOML document.
func Parse(data []byte) (*RuleSet, error) {
	var f ruleFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	var rs RuleSet
	var err error
	if rs.DangerousCommand, err = compile(ListDangerousCommand, f.DangerousCommand, true); err != nil {
		return nil, err
	}
	if rs.Policy, err = compile(ListPolicy, f.Policy, true); err != nil {
		return nil, err
	}
	if rs.SensitivePath, err = compile(ListSensitivePath, f.SensitivePath, false); err != nil {
		return nil, err
	}
	if rs.SensitiveRead, err = compile(ListSensitiveRead, f.SensitiveRead, false); err != nil {
		return nil, err
	}
	if rs.DangerousPrompt, err = compile(ListDangerousPrompt, f.DangerousPrompt, false); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadFile reads and parses a rules file.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Resolve returns the rules from path, or the built-in rules when path is
// empty. If path cannot be loaded the built-in rules are returned together
// with the error, so a broken override never disables enforcement.
func Resolve(path string) (*RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	rs, err := LoadFile(path)
	if err != nil {
		return Default(), err
	}
	return rs, nil
}

var defaultSet = sync.OnceValues(func() (*RuleSet, error) {
	return Parse(defaultRules)
})

// Default returns the built-in rule set.
func Default() *RuleSet {
	rs, err := defaultSet()
	if err != nil {
		// defaults.toml is compiled into the binary; a failure here is a build defect.
		panic(fmt.Sprintf("built-in rules: %v", err))
	}
	return rs
}

func compile(list List, specs []ruleSpec, regex bool) ([]Rule, error) {
	out := make([]Rule, 0, len(specs))
	for i, s := range specs {
		if strings.TrimSpace(s.Pattern) == "" {
			return nil, fmt.Errorf("%s[%d]: empty pattern", list, i)
		}
		r := Rule{Name: s.Name, Pattern: s.Pattern, Reason: s.Reason}
		if r.Name == "" {
			r.Name = s.Pattern
		}
		if r.Reason == "" {
			r.Reason = defaultReasons[list]
		}
		if regex {
			re, err := regexp.Compile("(?i)" + s.Pattern)
			if err != nil {
				return nil, fmt.Errorf("%s[%d] %q: %w", list, i, s.Name, err)
			}
			r.re = re
		} else {
			r.folded = util.Fold(s.Pattern)
		}
		out = append(out, r)
	}
	return out, nil
}
