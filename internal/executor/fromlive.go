package executor

import (
	"context"

	"github.com/xkilldash9x/webhand/api/schemas"
	"github.com/xkilldash9x/webhand/internal/selector"
)

// From-live constructors build ready-to-execute actions out of raw locator
// strings by first resolving them against the current page. A locator that
// matches nothing yields ok == false rather than an error; callers treat
// that the same as an element that disappeared.

// ResolveSelector synthesizes a stable XPath for the locator and classifies
// it into a structured selector.
func (c *Coordinator) ResolveSelector(ctx context.Context, locator string) (*schemas.Selector, bool) {
	if c.dom == nil {
		return nil, false
	}
	xpath, err := c.synth.Synthesize(ctx, c.dom, locator)
	if err != nil {
		return nil, false
	}
	sel := selector.Classify(xpath)
	return &sel, true
}

// ClickFromLocator builds a ClickAction for the element matching the locator.
func (c *Coordinator) ClickFromLocator(ctx context.Context, locator string) (schemas.ClickAction, bool) {
	sel, ok := c.ResolveSelector(ctx, locator)
	if !ok {
		return schemas.ClickAction{}, false
	}
	return schemas.ClickAction{Target: sel}, true
}

// TypeFromLocator builds a TypeAction for the element matching the locator.
func (c *Coordinator) TypeFromLocator(ctx context.Context, locator, text string) (schemas.TypeAction, bool) {
	sel, ok := c.ResolveSelector(ctx, locator)
	if !ok {
		return schemas.TypeAction{}, false
	}
	return schemas.TypeAction{Target: sel, Text: text}, true
}

// SelectFromLocator builds a SelectAction for the element matching the
// locator.
func (c *Coordinator) SelectFromLocator(ctx context.Context, locator, value string) (schemas.SelectAction, bool) {
	sel, ok := c.ResolveSelector(ctx, locator)
	if !ok {
		return schemas.SelectAction{}, false
	}
	return schemas.SelectAction{Target: sel, Value: value}, true
}

// DragAndDropFromLocators builds a DragAndDropAction; both locators must
// resolve.
func (c *Coordinator) DragAndDropFromLocators(ctx context.Context, source, target string) (schemas.DragAndDropAction, bool) {
	srcSel, ok := c.ResolveSelector(ctx, source)
	if !ok {
		return schemas.DragAndDropAction{}, false
	}
	dstSel, ok := c.ResolveSelector(ctx, target)
	if !ok {
		return schemas.DragAndDropAction{}, false
	}
	return schemas.DragAndDropAction{Source: srcSel, Dest: dstSel}, true
}
