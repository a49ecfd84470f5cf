package schemas

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sel(kind SelectorKind, attr, value string) *Selector {
	return &Selector{Kind: kind, Attribute: attr, Value: value}
}

func TestActionRoundTrip(t *testing.T) {
	target := sel(SelectorAttributeValue, "id", "#target")

	testCases := []struct {
		name   string
		action Action
	}{
		{"click", ClickAction{Target: target}},
		{"click at coordinates", ClickAction{X: intPtr(120), Y: intPtr(240)}},
		{"double click", DoubleClickAction{Target: target}},
		{"navigate to url", NavigateAction{URL: "https://example.com/login"}},
		{"navigate back", NavigateAction{GoBack: true}},
		{"navigate forward", NavigateAction{GoForward: true}},
		{"type", TypeAction{Target: target, Text: "hello world"}},
		{"select", SelectAction{Target: target, Value: "opt-2"}},
		{"hover", HoverAction{Target: target}},
		{"wait", WaitAction{Seconds: 1.5}},
		{"scroll by value", ScrollAction{Value: "400", Down: true}},
		{"scroll element to top", ScrollAction{Target: target, Value: "top"}},
		{"submit", SubmitAction{Target: target}},
		{
			"drag and drop",
			DragAndDropAction{
				Source: sel(SelectorXPath, "", "//li[1]"),
				Dest:   sel(SelectorXPath, "", "//ul[@id='done']"),
			},
		},
		{"screenshot", ScreenshotAction{FilePath: "/tmp/page.png"}},
		{"get dropdown options", GetDropDownOptionsAction{Target: target}},
		{"select dropdown option", SelectDropDownOptionAction{Target: target, Text: "Canada"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := MarshalAction(tc.action)
			require.NoError(t, err)

			decoded, err := UnmarshalAction(data)
			require.NoError(t, err)

			if diff := cmp.Diff(tc.action, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tc.action.Type(), decoded.Type())
		})
	}
}

func TestEncodeActionWireShape(t *testing.T) {
	t.Run("selector key is always present", func(t *testing.T) {
		m, err := EncodeAction(WaitAction{Seconds: 2})
		require.NoError(t, err)
		v, ok := m["selector"]
		require.True(t, ok, "wait action must carry an explicit null selector")
		assert.Nil(t, v)
		assert.Equal(t, "wait", m["type"])
		assert.Equal(t, 2.0, m["time_seconds"])
	})

	t.Run("drag and drop mirrors the destination", func(t *testing.T) {
		a := DragAndDropAction{
			Source: sel(SelectorXPath, "", "//li[1]"),
			Dest:   sel(SelectorXPath, "", "//ul[@id='done']"),
		}
		m, err := EncodeAction(a)
		require.NoError(t, err)

		mirror, ok := m["selector"].(map[string]any)
		require.True(t, ok)
		dest, ok := m["target_selector"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, dest["value"], mirror["value"])
		assert.Equal(t, "//ul[@id='done']", mirror["value"])
	})

	t.Run("optional coordinates are omitted when unset", func(t *testing.T) {
		m, err := EncodeAction(ClickAction{Target: sel(SelectorAttributeValue, "id", "#go")})
		require.NoError(t, err)
		_, hasX := m["x"]
		_, hasY := m["y"]
		assert.False(t, hasX)
		assert.False(t, hasY)
	})
}

func TestDecodeActionRejectsUnknownType(t *testing.T) {
	_, err := DecodeAction(map[string]any{"type": "teleport", "selector": nil})
	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), `unknown action type "teleport"`)

	_, err = DecodeAction(map[string]any{"selector": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing the type discriminant")
}

func TestDragAndDropSelectorAccessor(t *testing.T) {
	a := DragAndDropAction{
		Source: sel(SelectorXPath, "", "//li[1]"),
		Dest:   sel(SelectorXPath, "", "//ul[@id='done']"),
	}
	require.NotNil(t, a.Selector())
	assert.Equal(t, a.Dest, a.Selector(), "the common accessor must report the drop destination")
}

func TestUnmarshalActionsPreservesOrder(t *testing.T) {
	payload := `[
		{"type": "navigate", "selector": null, "url": "https://example.com"},
		{"type": "click", "selector": {"type": "attributeValueSelector", "value": "#go", "attribute": "id"}},
		{"type": "wait", "selector": null, "time_seconds": 0.5}
	]`

	actions, err := UnmarshalActions([]byte(payload))
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, ActionNavigate, actions[0].Type())
	assert.Equal(t, ActionClick, actions[1].Type())
	assert.Equal(t, ActionWait, actions[2].Type())

	click, ok := actions[1].(ClickAction)
	require.True(t, ok)
	require.NotNil(t, click.Target)
	assert.Equal(t, "#go", click.Target.Value)
}
