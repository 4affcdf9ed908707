// Package locator turns selector strings into WebDriver lookups and resolves
// ordered fallback chains of them against a live screen.
package locator

import (
	"strings"
	"time"
)

// WebDriver location strategies understood by the XCUITest driver.
const (
	StrategyAccessibilityID = "accessibility id"
	StrategyXPath           = "xpath"
	StrategyPredicate       = "-ios predicate string"
	StrategyClassChain      = "-ios class chain"
)

const (
	predicatePrefix  = StrategyPredicate + ":"
	classChainPrefix = StrategyClassChain + ":"
)

// Locator is a selector string:
//
//	~name                          accessibility id
//	//path or (//path)[n]          xpath
//	-ios predicate string:expr     NSPredicate
//	-ios class chain:expr          class chain
//	*                              any element
//
// Anything else is taken as an accessibility id.
type Locator string

// Parse returns the WebDriver strategy and value for l.
func (l Locator) Parse() (strategy, value string) {
	s := string(l)
	switch {
	case strings.HasPrefix(s, "~"):
		return StrategyAccessibilityID, s[1:]
	case strings.HasPrefix(s, "//"), strings.HasPrefix(s, "(//"):
		return StrategyXPath, s
	case strings.HasPrefix(s, predicatePrefix):
		return StrategyPredicate, strings.TrimPrefix(s, predicatePrefix)
	case strings.HasPrefix(s, classChainPrefix):
		return StrategyClassChain, strings.TrimPrefix(s, classChainPrefix)
	case s == "*":
		return StrategyXPath, "//*"
	default:
		return StrategyAccessibilityID, s
	}
}

func (l Locator) String() string { return string(l) }

// ID builds an accessibility id locator.
func ID(name string) Locator {
	return Locator("~" + name)
}

// XPath builds an xpath locator.
func XPath(expr string) Locator {
	return Locator(expr)
}

// LabelContains matches elements whose label or name contains text,
// case-insensitively.
func LabelContains(text string) Locator {
	escaped := escapePredicateString(text)
	return Locator(predicatePrefix + `label CONTAINS[c] "` + escaped + `" OR name CONTAINS[c] "` + escaped + `"`)
}

// escapePredicateString escapes quotes for an NSPredicate string literal
func escapePredicateString(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Chain is a named, ordered list of alternative locators for one logical
// element. The first candidate that satisfies the predicate wins.
type Chain struct {
	Name       string
	Candidates []Locator
	Timeout    time.Duration // per candidate; 0 uses the resolver default
	Optional   bool          // absent on some app builds
}

// NewChain builds a chain from its candidates.
func NewChain(name string, candidates ...Locator) Chain {
	return Chain{Name: name, Candidates: candidates}
}

// WithTimeout returns a copy of c with a per-candidate timeout.
func (c Chain) WithTimeout(d time.Duration) Chain {
	c.Timeout = d
	return c
}

// AsOptional returns a copy of c marked optional.
func (c Chain) AsOptional() Chain {
	c.Optional = true
	return c
}

// Locators returns the candidates as strings.
func (c Chain) Locators() []string {
	out := make([]string, len(c.Candidates))
	for i, l := range c.Candidates {
		out[i] = string(l)
	}
	return out
}

// Predicate is what a candidate element must satisfy.
type Predicate int

const (
	Exists Predicate = iota
	Displayed
)

func (p Predicate) String() string {
	if p == Displayed {
		return "displayed"
	}
	return "exists"
}
