package schemas

import (
	"fmt"
	"strings"
)

// SelectorKind discriminates the closed set of structured selector
// representations carried on the wire.
type SelectorKind string

const (
	// SelectorAttributeValue matches elements by a single attribute/value
	// pair (id, class, name, placeholder, and so on).
	SelectorAttributeValue SelectorKind = "attributeValueSelector"

	// SelectorTagContains matches elements whose visible text contains the
	// stored value.
	SelectorTagContains SelectorKind = "tagContainsSelector"

	// SelectorXPath carries a raw XPath expression verbatim.
	SelectorXPath SelectorKind = "xpathSelector"
)

// Selector is the structured form of a raw locator string. It is produced by
// the classifier, embedded in serialized actions, and converted back to an
// engine query string at execution time.
//
// For id and class attribute selectors the Value field retains the leading
// '#' or '.' marker exactly as classified; Query strips the marker again when
// rebuilding the engine string. Stored values are therefore not interchangeable
// with bare attribute values.
type Selector struct {
	Kind      SelectorKind `json:"type"`
	Value     string       `json:"value"`
	Attribute string       `json:"attribute,omitempty"`
}

// xpathShapes are the path openings and axis keywords a plausible XPath
// value may begin with. The classifier recognizes the same set.
var xpathShapes = []string{
	"/", "./", "..", "(",
	"ancestor::", "ancestor-or-self::",
	"child::",
	"descendant::", "descendant-or-self::",
	"following::", "following-sibling::",
	"parent::",
	"preceding::", "preceding-sibling::",
	"self::",
}

func plausibleXPath(value string) bool {
	for _, p := range xpathShapes {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

// Validate checks structural well-formedness of the selector.
func (s *Selector) Validate() error {
	if s == nil {
		return &ValidationError{Reason: "selector is nil"}
	}
	switch s.Kind {
	case SelectorAttributeValue:
		if s.Attribute == "" {
			return &ValidationError{Reason: "attribute selector requires an attribute name"}
		}
	case SelectorTagContains:
		if s.Attribute != "" {
			return &ValidationError{Reason: fmt.Sprintf("%s selector must not carry an attribute", s.Kind)}
		}
	case SelectorXPath:
		if s.Attribute != "" {
			return &ValidationError{Reason: fmt.Sprintf("%s selector must not carry an attribute", s.Kind)}
		}
		if s.Value != "" && !plausibleXPath(s.Value) {
			return &ValidationError{Reason: fmt.Sprintf("value %q is not a plausible xpath expression", s.Value)}
		}
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown selector kind %q", s.Kind)}
	}
	if s.Value == "" {
		return &ValidationError{Reason: "selector value is empty"}
	}
	return nil
}

// Query converts the structured selector back into the query string handed to
// the browser engine.
func (s *Selector) Query() string {
	if s == nil {
		return ""
	}
	switch s.Kind {
	case SelectorAttributeValue:
		switch s.Attribute {
		case "id":
			return "#" + strings.TrimPrefix(s.Value, "#")
		case "class":
			return "." + strings.TrimPrefix(s.Value, ".")
		default:
			return fmt.Sprintf("[%s='%s']", s.Attribute, s.Value)
		}
	case SelectorTagContains:
		return "text=" + s.Value
	case SelectorXPath:
		return s.Value
	default:
		return s.Value
	}
}

// String implements fmt.Stringer for log output.
func (s *Selector) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.Attribute != "" {
		return fmt.Sprintf("%s(%s=%s)", s.Kind, s.Attribute, s.Value)
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Value)
}
