package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorQuery(t *testing.T) {
	testCases := []struct {
		name     string
		selector Selector
		want     string
	}{
		{
			name:     "id selector strips the stored marker once",
			selector: Selector{Kind: SelectorAttributeValue, Attribute: "id", Value: "#submit-button"},
			want:     "#submit-button",
		},
		{
			name:     "id selector without marker gains one",
			selector: Selector{Kind: SelectorAttributeValue, Attribute: "id", Value: "submit-button"},
			want:     "#submit-button",
		},
		{
			name:     "class selector strips the stored marker once",
			selector: Selector{Kind: SelectorAttributeValue, Attribute: "class", Value: ".btn-primary"},
			want:     ".btn-primary",
		},
		{
			name:     "name selector renders an attribute query",
			selector: Selector{Kind: SelectorAttributeValue, Attribute: "name", Value: "username"},
			want:     "[name='username']",
		},
		{
			name:     "placeholder selector renders an attribute query",
			selector: Selector{Kind: SelectorAttributeValue, Attribute: "placeholder", Value: "Search..."},
			want:     "[placeholder='Search...']",
		},
		{
			name:     "text selector gains the text prefix",
			selector: Selector{Kind: SelectorTagContains, Value: "Sign in"},
			want:     "text=Sign in",
		},
		{
			name:     "xpath passes through verbatim",
			selector: Selector{Kind: SelectorXPath, Value: "//div[@id='main']/button[2]"},
			want:     "//div[@id='main']/button[2]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.selector.Query())
		})
	}
}

func TestSelectorValidate(t *testing.T) {
	testCases := []struct {
		name     string
		selector *Selector
		wantErr  string
	}{
		{
			name:     "valid attribute selector",
			selector: &Selector{Kind: SelectorAttributeValue, Attribute: "id", Value: "#main"},
		},
		{
			name:     "valid xpath selector",
			selector: &Selector{Kind: SelectorXPath, Value: "//button"},
		},
		{
			name:     "attribute selector without attribute",
			selector: &Selector{Kind: SelectorAttributeValue, Value: "#main"},
			wantErr:  "requires an attribute name",
		},
		{
			name:     "axis xpath selector",
			selector: &Selector{Kind: SelectorXPath, Value: "parent::form"},
		},
		{
			name:     "implausible xpath value",
			selector: &Selector{Kind: SelectorXPath, Value: "button.primary"},
			wantErr:  "not a plausible xpath expression",
		},
		{
			name:     "xpath selector with stray attribute",
			selector: &Selector{Kind: SelectorXPath, Attribute: "id", Value: "//button"},
			wantErr:  "must not carry an attribute",
		},
		{
			name:     "unknown kind",
			selector: &Selector{Kind: "cssSelector", Value: "div"},
			wantErr:  "unknown selector kind",
		},
		{
			name:     "empty value",
			selector: &Selector{Kind: SelectorTagContains},
			wantErr:  "value is empty",
		},
		{
			name:    "nil selector",
			wantErr: "selector is nil",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.selector.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSelectorMarkerAsymmetry(t *testing.T) {
	// The classifier stores id and class values with their marker attached.
	// Query must not double it, and non-marked attributes must be untouched.
	withMarker := Selector{Kind: SelectorAttributeValue, Attribute: "id", Value: "#login"}
	require.Equal(t, "#login", withMarker.Query())

	name := Selector{Kind: SelectorAttributeValue, Attribute: "name", Value: "#literal"}
	assert.Equal(t, "[name='#literal']", name.Query())
}
