package schemas

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// ActionType identifies one of the closed set of executable action kinds.
type ActionType string

const (
	ActionClick                ActionType = "click"
	ActionDoubleClick          ActionType = "doubleClick"
	ActionNavigate             ActionType = "navigate"
	ActionTypeText             ActionType = "type"
	ActionSelect               ActionType = "select"
	ActionHover                ActionType = "hover"
	ActionWait                 ActionType = "wait"
	ActionScroll               ActionType = "scroll"
	ActionSubmit               ActionType = "submit"
	ActionDragAndDrop          ActionType = "dragAndDrop"
	ActionScreenshot           ActionType = "screenshot"
	ActionGetDropDownOptions   ActionType = "getDropDownOptions"
	ActionSelectDropDownOption ActionType = "selectDropDownOption"
)

// Action is the closed union of executable page actions. The set of
// implementations is fixed; the unexported marker method prevents packages
// outside schemas from adding variants, so dispatch switches stay exhaustive.
type Action interface {
	// Type returns the wire discriminant for this variant.
	Type() ActionType

	// Selector returns the primary target selector, or nil for variants
	// that do not address an element (navigate, wait, screenshot).
	Selector() *Selector

	isAction()
}

// -- variants --

// ClickAction clicks an element, or raw viewport coordinates when X and Y are
// set and Target is nil.
type ClickAction struct {
	Target *Selector `json:"selector"`
	X      *int      `json:"x,omitempty"`
	Y      *int      `json:"y,omitempty"`
}

func (ClickAction) Type() ActionType      { return ActionClick }
func (a ClickAction) Selector() *Selector { return a.Target }
func (ClickAction) isAction()             {}

// DoubleClickAction performs a double click on the target element.
type DoubleClickAction struct {
	Target *Selector `json:"selector"`
}

func (DoubleClickAction) Type() ActionType      { return ActionDoubleClick }
func (a DoubleClickAction) Selector() *Selector { return a.Target }
func (DoubleClickAction) isAction()             {}

// NavigateAction loads a URL, or moves through session history when GoBack or
// GoForward is set. Exactly one of the three should be populated.
type NavigateAction struct {
	URL       string `json:"url,omitempty"`
	GoBack    bool   `json:"go_back,omitempty"`
	GoForward bool   `json:"go_forward,omitempty"`
}

func (NavigateAction) Type() ActionType    { return ActionNavigate }
func (NavigateAction) Selector() *Selector { return nil }
func (NavigateAction) isAction()           {}

// TypeAction clears the target field and types Text into it.
type TypeAction struct {
	Target *Selector `json:"selector"`
	Text   string    `json:"text"`
}

func (TypeAction) Type() ActionType      { return ActionTypeText }
func (a TypeAction) Selector() *Selector { return a.Target }
func (TypeAction) isAction()             {}

// SelectAction chooses the option with the given value attribute on a
// <select> element.
type SelectAction struct {
	Target *Selector `json:"selector"`
	Value  string    `json:"value"`
}

func (SelectAction) Type() ActionType      { return ActionSelect }
func (a SelectAction) Selector() *Selector { return a.Target }
func (SelectAction) isAction()             {}

// HoverAction moves the pointer over the target element.
type HoverAction struct {
	Target *Selector `json:"selector"`
}

func (HoverAction) Type() ActionType      { return ActionHover }
func (a HoverAction) Selector() *Selector { return a.Target }
func (HoverAction) isAction()             {}

// WaitAction pauses execution for Seconds.
type WaitAction struct {
	Seconds float64 `json:"time_seconds"`
}

func (WaitAction) Type() ActionType    { return ActionWait }
func (WaitAction) Selector() *Selector { return nil }
func (WaitAction) isAction()           {}

// ScrollAction scrolls the page or, when Target is set, an element. Value
// carries a pixel amount or one of the keywords "top" and "bottom"; Up and
// Down select a direction for relative scrolls.
type ScrollAction struct {
	Target *Selector `json:"selector"`
	Value  string    `json:"value,omitempty"`
	Up     bool      `json:"up,omitempty"`
	Down   bool      `json:"down,omitempty"`
}

func (ScrollAction) Type() ActionType      { return ActionScroll }
func (a ScrollAction) Selector() *Selector { return a.Target }
func (ScrollAction) isAction()             {}

// SubmitAction submits the form associated with the target element. The
// target may be the form itself, a submit control inside it, or any element
// whose enclosing form should be submitted.
type SubmitAction struct {
	Target *Selector `json:"selector"`
}

func (SubmitAction) Type() ActionType      { return ActionSubmit }
func (a SubmitAction) Selector() *Selector { return a.Target }
func (SubmitAction) isAction()             {}

// DragAndDropAction drags Source onto Dest. The common selector accessor
// reports the drop destination, which is the element acted upon.
type DragAndDropAction struct {
	Source *Selector `json:"source_selector"`
	Dest   *Selector `json:"target_selector"`
}

func (DragAndDropAction) Type() ActionType      { return ActionDragAndDrop }
func (a DragAndDropAction) Selector() *Selector { return a.Dest }
func (DragAndDropAction) isAction()             {}

// ScreenshotAction captures the current viewport to FilePath.
type ScreenshotAction struct {
	FilePath string `json:"file_path"`
}

func (ScreenshotAction) Type() ActionType    { return ActionScreenshot }
func (ScreenshotAction) Selector() *Selector { return nil }
func (ScreenshotAction) isAction()           {}

// GetDropDownOptionsAction reads every option of a <select> element.
type GetDropDownOptionsAction struct {
	Target *Selector `json:"selector"`
}

func (GetDropDownOptionsAction) Type() ActionType      { return ActionGetDropDownOptions }
func (a GetDropDownOptionsAction) Selector() *Selector { return a.Target }
func (GetDropDownOptionsAction) isAction()             {}

// SelectDropDownOptionAction chooses the option whose visible text matches
// Text after trimming surrounding whitespace.
type SelectDropDownOptionAction struct {
	Target *Selector `json:"selector"`
	Text   string    `json:"text"`
}

func (SelectDropDownOptionAction) Type() ActionType      { return ActionSelectDropDownOption }
func (a SelectDropDownOptionAction) Selector() *Selector { return a.Target }
func (SelectDropDownOptionAction) isAction()             {}

// -- wire codec --

// EncodeAction converts an action into its generic wire form. Every encoded
// map carries "type" and "selector" keys; the selector is null for variants
// that do not address an element. For dragAndDrop the "selector" key mirrors
// target_selector so generic consumers can treat all actions uniformly.
func EncodeAction(a Action) (map[string]any, error) {
	if a == nil {
		return nil, &ValidationError{Reason: "action is nil"}
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encoding %s action: %w", a.Type(), err)
	}
	m := make(map[string]any)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encoding %s action: %w", a.Type(), err)
	}
	m["type"] = string(a.Type())
	if _, ok := m["selector"]; !ok {
		if sel := a.Selector(); sel != nil {
			selRaw, err := json.Marshal(sel)
			if err != nil {
				return nil, fmt.Errorf("encoding %s selector: %w", a.Type(), err)
			}
			var selMap map[string]any
			if err := json.Unmarshal(selRaw, &selMap); err != nil {
				return nil, fmt.Errorf("encoding %s selector: %w", a.Type(), err)
			}
			m["selector"] = selMap
		} else {
			m["selector"] = nil
		}
	}
	return m, nil
}

// MarshalAction serializes an action to its JSON wire form.
func MarshalAction(a Action) ([]byte, error) {
	m, err := EncodeAction(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

type actionDecoder func(raw []byte) (Action, error)

func decodeInto[T Action](raw []byte) (Action, error) {
	var a T
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed %s payload: %v", a.Type(), err)}
	}
	return a, nil
}

var actionDecoders = map[ActionType]actionDecoder{
	ActionClick:                decodeInto[ClickAction],
	ActionDoubleClick:          decodeInto[DoubleClickAction],
	ActionNavigate:             decodeInto[NavigateAction],
	ActionTypeText:             decodeInto[TypeAction],
	ActionSelect:               decodeInto[SelectAction],
	ActionHover:                decodeInto[HoverAction],
	ActionWait:                 decodeInto[WaitAction],
	ActionScroll:               decodeInto[ScrollAction],
	ActionSubmit:               decodeInto[SubmitAction],
	ActionDragAndDrop:          decodeInto[DragAndDropAction],
	ActionScreenshot:           decodeInto[ScreenshotAction],
	ActionGetDropDownOptions:   decodeInto[GetDropDownOptionsAction],
	ActionSelectDropDownOption: decodeInto[SelectDropDownOptionAction],
}

// DecodeAction reconstructs a typed action from its generic wire form. An
// unknown or missing "type" discriminant yields a ValidationError.
func DecodeAction(m map[string]any) (Action, error) {
	t, ok := m["type"].(string)
	if !ok {
		return nil, &ValidationError{Reason: "action payload is missing the type discriminant"}
	}
	dec, ok := actionDecoders[ActionType(t)]
	if !ok {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown action type %q", t)}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("re-encoding action payload: %v", err)}
	}
	return dec(raw)
}

// UnmarshalAction parses a JSON wire payload into a typed action.
func UnmarshalAction(data []byte) (Action, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed action JSON: %v", err)}
	}
	return DecodeAction(m)
}

// UnmarshalActions parses a JSON array of action payloads, preserving order.
func UnmarshalActions(data []byte) ([]Action, error) {
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed action list JSON: %v", err)}
	}
	actions := make([]Action, 0, len(raw))
	for i, m := range raw {
		a, err := DecodeAction(m)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}
