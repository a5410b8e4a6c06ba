package filter

import (
	"regexp"
	"strings"

	"github.com/yildizm/glancelog/internal/common"
)

// Placeholder replaces every match of a rule
const Placeholder = "#"

// Rule is a compiled pattern and the token substituted for its matches
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Filter is an ordered, immutable set of substitution rules.
// A nil or empty Filter leaves text unchanged.
type Filter struct {
	rules []Rule
}

// baselinePatterns suppress the variable parts almost every log line carries.
// Order matters: timestamps and addresses must go before the bare digit rule
// breaks them into fragments.
var baselinePatterns = []string{
	`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?`,
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`,
	`\d+`,
}

// Compile builds a filter from pattern lines. Each line is trimmed of
// surrounding whitespace before compiling, so a pattern that has to start or
// end with a space must spell it as [ ] or \s. Blank lines are skipped and
// lines that fail to compile are reported as *common.InvalidPatternError
// warnings without aborting the rest.
func Compile(lines []string) (*Filter, []error) {
	f := &Filter{}
	var warnings []error

	for i, line := range lines {
		pattern := strings.TrimSpace(line)
		if pattern == "" {
			continue
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			warnings = append(warnings, &common.InvalidPatternError{Line: i + 1, Pattern: pattern, Err: err})
			continue
		}

		f.rules = append(f.rules, Rule{Pattern: re, Replacement: Placeholder})
	}

	return f, warnings
}

// CompileString compiles newline separated filter content
func CompileString(content string) (*Filter, []error) {
	return Compile(strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n"))
}

// Baseline returns the rule set used when no filter content is available:
// ISO-ish timestamps, dotted quads and digit runs.
func Baseline() *Filter {
	f, _ := Compile(baselinePatterns)
	return f
}

// Apply runs every rule in order, each over the output of the previous one
func (f *Filter) Apply(text string) string {
	if f == nil {
		return text
	}
	for _, rule := range f.rules {
		text = rule.Pattern.ReplaceAllLiteralString(text, rule.Replacement)
	}
	return text
}

// Bleach reports whether the filter reduces text to nothing but the placeholder
func (f *Filter) Bleach(text string) bool {
	if f == nil || len(f.rules) == 0 {
		return false
	}
	return f.Apply(text) == Placeholder
}

// Len returns the number of compiled rules
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}

// Patterns returns the source of every compiled rule in order
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	patterns := make([]string, 0, len(f.rules))
	for _, rule := range f.rules {
		patterns = append(patterns, rule.Pattern.String())
	}
	return patterns
}
