package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harun/cheetah/internal/observability"
	"github.com/harun/cheetah/pkg/chain"
)

// Rule applies backend output to a context.
type Rule interface {
	Apply(output string, c chain.Context) chain.Context
}

// Pattern is one regular expression with a primary named capture and an optional secondary one.
type Pattern struct {
	Regexp    *regexp.Regexp
	Primary   string
	Secondary string
}

// NewPattern compiles expr and checks that the named captures exist.
func NewPattern(expr, primary, secondary string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if re.SubexpIndex(primary) < 0 {
		return Pattern{}, fmt.Errorf("pattern %q has no capture named %q", expr, primary)
	}
	if secondary != "" && re.SubexpIndex(secondary) < 0 {
		return Pattern{}, fmt.Errorf("pattern %q has no capture named %q", expr, secondary)
	}
	return Pattern{Regexp: re, Primary: primary, Secondary: secondary}, nil
}

// MustPattern is like NewPattern but panics on error. Intended for package-level rules.
func MustPattern(expr, primary, secondary string) Pattern {
	p, err := NewPattern(expr, primary, secondary)
	if err != nil {
		panic(err)
	}
	return p
}

// PatternRule writes the captures of the first matching pattern into Target (and SecondaryTarget).
type PatternRule struct {
	Patterns        []Pattern
	Target          chain.Key
	SecondaryTarget chain.Key
}

func (r PatternRule) Apply(output string, c chain.Context) chain.Context {
	output = strings.TrimSpace(output)
	for _, p := range r.Patterns {
		m := p.Regexp.FindStringSubmatchIndex(output)
		if m == nil {
			continue
		}
		c.Set(r.Target, capture(output, m, p.Regexp.SubexpIndex(p.Primary)))
		if p.Secondary != "" && r.SecondaryTarget != "" {
			if idx := p.Regexp.SubexpIndex(p.Secondary); idx >= 0 && m[2*idx] >= 0 {
				c.Set(r.SecondaryTarget, capture(output, m, idx))
			}
		}
		observability.RecordExtraction(string(r.Target), true)
		return c
	}
	observability.RecordExtraction(string(r.Target), false)
	return c
}

func capture(s string, m []int, idx int) string {
	if m[2*idx] < 0 {
		return ""
	}
	return s[m[2*idx]:m[2*idx+1]]
}

// VerbatimRule overwrites Target with the whole trimmed output.
type VerbatimRule struct {
	Target chain.Key
}

func (r VerbatimRule) Apply(output string, c chain.Context) chain.Context {
	c.Set(r.Target, strings.TrimSpace(output))
	observability.RecordExtraction(string(r.Target), true)
	return c
}

// Updater adapts a rule to a chain.Updater.
func Updater(r Rule) chain.Updater {
	return r.Apply
}
