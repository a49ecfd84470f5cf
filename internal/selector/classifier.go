// Package selector turns raw locator strings into structured selectors and
// synthesizes stable locators from live page elements.
package selector

import (
	"regexp"
	"strings"

	"github.com/xkilldash9x/webhand/api/schemas"
)

// attrRule binds a locator pattern to the attribute name recorded on the
// resulting selector. Rules are evaluated in order; the first match wins.
type attrRule struct {
	attribute string
	// keepMarker retains the pattern's leading marker character in the
	// stored value. Only the id and class rules set it; downstream
	// conversion strips the marker again when rebuilding a query string.
	keepMarker bool
	re         *regexp.Regexp
}

var attrRules = []attrRule{
	{attribute: "id", keepMarker: true, re: regexp.MustCompile(`^#([\w-]+)$`)},
	{attribute: "class", keepMarker: true, re: regexp.MustCompile(`^\.([\w-]+)$`)},
	{attribute: "name", re: regexp.MustCompile(`^\[name=['"]([^'"]*)['"]\]$`)},
	{attribute: "type", re: regexp.MustCompile(`^\[type=['"]([^'"]*)['"]\]$`)},
	{attribute: "value", re: regexp.MustCompile(`^\[value=['"]([^'"]*)['"]\]$`)},
	{attribute: "placeholder", re: regexp.MustCompile(`^\[placeholder=['"]([^'"]*)['"]\]$`)},
	{attribute: "title", re: regexp.MustCompile(`^\[title=['"]([^'"]*)['"]\]$`)},
	{attribute: "alt", re: regexp.MustCompile(`^\[alt=['"]([^'"]*)['"]\]$`)},
	{attribute: "href", re: regexp.MustCompile(`^\[href=['"]([^'"]*)['"]\]$`)},
	{attribute: "src", re: regexp.MustCompile(`^\[src=['"]([^'"]*)['"]\]$`)},
	{attribute: "data-testid", re: regexp.MustCompile(`^\[data-testid=['"]([^'"]*)['"]\]$`)},
	{attribute: "data-id", re: regexp.MustCompile(`^\[data-id=['"]([^'"]*)['"]\]$`)},
}

// xpathPrefixes mark locators handed through verbatim as XPath expressions:
// path shapes first, then every axis keyword.
var xpathPrefixes = []string{
	"//", "/html", "./", "(//", "..",
	"ancestor::", "ancestor-or-self::",
	"child::",
	"descendant::", "descendant-or-self::",
	"following::", "following-sibling::",
	"parent::",
	"preceding::", "preceding-sibling::",
	"self::",
}

func isXPath(locator string) bool {
	for _, p := range xpathPrefixes {
		if strings.HasPrefix(locator, p) {
			return true
		}
	}
	return false
}

// Classify converts a raw locator string into its structured selector form.
// Precedence is fixed: XPath shapes first, then the attribute rule table in
// order, then a text-containment fallback carrying the original string
// verbatim. Classification never fails.
//
// For id and class matches the stored value keeps its leading '#' or '.'
// marker; see schemas.Selector for the conversion contract.
func Classify(locator string) schemas.Selector {
	trimmed := strings.TrimSpace(locator)

	if isXPath(trimmed) {
		return schemas.Selector{Kind: schemas.SelectorXPath, Value: trimmed}
	}

	for _, rule := range attrRules {
		m := rule.re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		value := m[1]
		if rule.keepMarker {
			value = trimmed[:1] + value
		}
		return schemas.Selector{
			Kind:      schemas.SelectorAttributeValue,
			Attribute: rule.attribute,
			Value:     value,
		}
	}

	return schemas.Selector{Kind: schemas.SelectorTagContains, Value: locator}
}
