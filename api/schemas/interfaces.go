package schemas

import (
	"context"
	"time"
)

// -- Driver Interfaces --

// ElementInfo captures the identifying attributes of a live element as read
// from the page. The selector synthesizer consumes it to derive a stable
// locator without touching the DOM node again.
type ElementInfo struct {
	TagName     string `json:"tagName"`
	ID          string `json:"id"`
	ClassName   string `json:"className"`
	Name        string `json:"name"`
	TypeAttr    string `json:"type"`
	Text        string `json:"text"`
	Href        string `json:"href"`
	Src         string `json:"src"`
	Title       string `json:"title"`
	Placeholder string `json:"placeholder"`
	DataTestID  string `json:"dataTestId"`
	DataID      string `json:"dataId"`
}

// PageDriver is the engine-facing surface the execution coordinator drives.
// Locator strings follow the engine query convention: a leading '/' or '('
// denotes XPath, a "text=" prefix denotes visible-text matching, anything
// else is treated as CSS. Implementations must honor context cancellation on
// every call.
type PageDriver interface {
	// Navigation.
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	Forward(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// Element readiness and inspection.
	WaitAttached(ctx context.Context, locator string, timeout time.Duration) error
	WaitVisible(ctx context.Context, locator string, timeout time.Duration) error
	ScrollIntoView(ctx context.Context, locator string) error
	TagName(ctx context.Context, locator string) (string, error)
	OuterHTML(ctx context.Context, locator string) (string, error)

	// Structured interactions.
	Click(ctx context.Context, locator string) error
	ClickAt(ctx context.Context, x, y float64) error
	DoubleClick(ctx context.Context, locator string) error
	Hover(ctx context.Context, locator string) error
	Type(ctx context.Context, locator, text string) error
	SelectByValue(ctx context.Context, locator, value string) error
	Submit(ctx context.Context, locator string) error
	DragTo(ctx context.Context, source, target string, timeout time.Duration) error

	// Evaluate runs a JavaScript expression in the page and unmarshals the
	// result into out. Pass nil when the result is irrelevant.
	Evaluate(ctx context.Context, script string, out any) error

	// Screenshot captures the viewport to the given file path.
	Screenshot(ctx context.Context, path string) error
}

// DOMQuerier exposes the read-only page queries the selector synthesizer
// needs. A PageDriver typically implements it too, but static snapshots can
// satisfy it without a live browser.
type DOMQuerier interface {
	// FirstMatch resolves a locator to the attributes of the first matching
	// element, or nil when nothing matches.
	FirstMatch(ctx context.Context, locator string) (*ElementInfo, error)

	// CountByCSS reports how many elements match a CSS selector.
	CountByCSS(ctx context.Context, css string) (int, error)

	// CountByText reports how many elements have exactly the given trimmed
	// visible text.
	CountByText(ctx context.Context, text string) (int, error)

	// PositionalPath derives a hierarchical tag[index] XPath for the first
	// element matching the locator.
	PositionalPath(ctx context.Context, locator string) (string, error)
}

// MutationWatcher reports DOM additions observed on the live page. Subscribe
// registers a callback that receives a human-readable description of newly
// appeared elements and returns the matching unsubscribe function; callers
// must invoke it once the observation window closes.
type MutationWatcher interface {
	Subscribe(fn func(description string)) (unsubscribe func())
}
