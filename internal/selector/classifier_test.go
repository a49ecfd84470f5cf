package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/webhand/api/schemas"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name    string
		locator string
		want    schemas.Selector
	}{
		{
			name:    "id keeps its marker in the stored value",
			locator: "#submit-button",
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "id", Value: "#submit-button"},
		},
		{
			name:    "class keeps its marker in the stored value",
			locator: ".btn-primary",
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "class", Value: ".btn-primary"},
		},
		{
			name:    "name attribute",
			locator: "[name='username']",
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "name", Value: "username"},
		},
		{
			name:    "double quoted attribute",
			locator: `[placeholder="Search..."]`,
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "placeholder", Value: "Search..."},
		},
		{
			name:    "data-testid attribute",
			locator: "[data-testid='login-form']",
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "data-testid", Value: "login-form"},
		},
		{
			name:    "href attribute",
			locator: "[href='/docs']",
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "href", Value: "/docs"},
		},
		{
			name:    "double slash xpath",
			locator: "//div[@id='main']/button[2]",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "//div[@id='main']/button[2]"},
		},
		{
			name:    "absolute xpath",
			locator: "/html/body/div[1]",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "/html/body/div[1]"},
		},
		{
			name:    "relative xpath",
			locator: "./div/span",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "./div/span"},
		},
		{
			name:    "parenthesized xpath",
			locator: "(//button)[1]",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "(//button)[1]"},
		},
		{
			name:    "axis xpath",
			locator: "ancestor::form",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "ancestor::form"},
		},
		{
			name:    "parent axis xpath",
			locator: "parent::form",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "parent::form"},
		},
		{
			name:    "self axis xpath",
			locator: "self::div",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "self::div"},
		},
		{
			name:    "sibling axis xpath",
			locator: "following-sibling::li[1]",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "following-sibling::li[1]"},
		},
		{
			name:    "compound axis xpath",
			locator: "ancestor-or-self::section",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "ancestor-or-self::section"},
		},
		{
			name:    "preceding axis xpath",
			locator: "preceding::input",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "preceding::input"},
		},
		{
			name:    "descendant-or-self axis xpath",
			locator: "descendant-or-self::a[@href]",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "descendant-or-self::a[@href]"},
		},
		{
			name:    "xpath wins over attribute shapes inside it",
			locator: "//input[@name='q']",
			want:    schemas.Selector{Kind: schemas.SelectorXPath, Value: "//input[@name='q']"},
		},
		{
			name:    "plain text falls through verbatim",
			locator: "Sign in",
			want:    schemas.Selector{Kind: schemas.SelectorTagContains, Value: "Sign in"},
		},
		{
			name:    "compound css falls through as text",
			locator: "div.container > button",
			want:    schemas.Selector{Kind: schemas.SelectorTagContains, Value: "div.container > button"},
		},
		{
			name:    "surrounding whitespace is trimmed before matching",
			locator: "  #login  ",
			want:    schemas.Selector{Kind: schemas.SelectorAttributeValue, Attribute: "id", Value: "#login"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.locator))
		})
	}
}

func TestClassifyQueryRoundTrip(t *testing.T) {
	// Classification followed by query conversion must reproduce the
	// original engine string for canonical locator shapes.
	locators := []string{
		"#submit-button",
		".btn-primary",
		"[name='username']",
		"//div[@id='main']/button[2]",
	}
	for _, locator := range locators {
		sel := Classify(locator)
		assert.Equal(t, locator, sel.Query(), "locator %q should survive the round trip", locator)
	}
}
