package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/webhand/api/schemas"
)

// -- per-action execution procedures --

func (c *Coordinator) click(ctx context.Context, a schemas.ClickAction) schemas.SkillResult {
	if a.Target == nil {
		if a.X == nil || a.Y == nil {
			return failure(
				"Click failed: neither a selector nor coordinates were provided.",
				"A click action needs a target selector, or both x and y coordinates.")
		}
		if err := c.driver.ClickAt(ctx, float64(*a.X), float64(*a.Y)); err != nil {
			return failure(
				fmt.Sprintf("Failed to click at coordinates (%d, %d).", *a.X, *a.Y),
				fmt.Sprintf("The coordinate click at (%d, %d) failed: %v.", *a.X, *a.Y, err))
		}
		msg := fmt.Sprintf("Executed a click at coordinates (%d, %d).", *a.X, *a.Y)
		return success(msg, msg)
	}

	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "native click", run: func(ctx context.Context) (string, error) {
			if err := c.driver.Click(ctx, tgt.locator); err != nil {
				return "", err
			}
			return fmt.Sprintf("Executed a click on the element with selector '%s'.", tgt.locator), nil
		}},
		{name: "scripted click", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, clickScript(tgt.locator))
		}},
	})
}

func (c *Coordinator) doubleClick(ctx context.Context, a schemas.DoubleClickAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "native double click", run: func(ctx context.Context) (string, error) {
			if err := c.driver.DoubleClick(ctx, tgt.locator); err != nil {
				return "", err
			}
			return fmt.Sprintf("Executed a double click on the element with selector '%s'.", tgt.locator), nil
		}},
		{name: "scripted double click", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, doubleClickScript(tgt.locator))
		}},
	})
}

func (c *Coordinator) navigate(ctx context.Context, a schemas.NavigateAction) schemas.SkillResult {
	var err error
	var what string
	switch {
	case a.GoBack:
		what = "back in session history"
		err = c.driver.Back(ctx)
	case a.GoForward:
		what = "forward in session history"
		err = c.driver.Forward(ctx)
	case a.URL != "":
		what = fmt.Sprintf("to '%s'", a.URL)
		err = c.driver.Navigate(ctx, a.URL)
	default:
		return failure(
			"Navigation failed: no destination was provided.",
			"A navigate action needs a url, go_back, or go_forward.")
	}
	if err != nil {
		return failure(
			fmt.Sprintf("Failed to navigate %s.", what),
			fmt.Sprintf("Navigation %s failed: %v.", what, err))
	}

	summary := fmt.Sprintf("Navigated %s.", what)
	detailed := summary
	if url, uerr := c.driver.URL(ctx); uerr == nil {
		detailed = fmt.Sprintf("%s The page now reports URL '%s'.", summary, url)
	}
	return success(summary, detailed)
}

func (c *Coordinator) typeText(ctx context.Context, a schemas.TypeAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "native typing", run: func(ctx context.Context) (string, error) {
			if err := c.driver.Type(ctx, tgt.locator, a.Text); err != nil {
				return "", err
			}
			return fmt.Sprintf("Typed %d characters into the element with selector '%s'.", len(a.Text), tgt.locator), nil
		}},
		{name: "scripted value assignment", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, typeScript(tgt.locator, a.Text))
		}},
	})
}

func (c *Coordinator) selectValue(ctx context.Context, a schemas.SelectAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "native select", run: func(ctx context.Context) (string, error) {
			if tgt.tag != "select" && tgt.tag != "unknown" {
				return "", fmt.Errorf("the element is a <%s>, not a <select>", tgt.tag)
			}
			if err := c.driver.SelectByValue(ctx, tgt.locator, a.Value); err != nil {
				return "", err
			}
			return fmt.Sprintf("Selected the option with value '%s' on the element with selector '%s'.", a.Value, tgt.locator), nil
		}},
		{name: "scripted select", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, selectValueScript(tgt.locator, a.Value))
		}},
	})
}

func (c *Coordinator) hover(ctx context.Context, a schemas.HoverAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "native hover", run: func(ctx context.Context) (string, error) {
			if err := c.driver.Hover(ctx, tgt.locator); err != nil {
				return "", err
			}
			return fmt.Sprintf("Hovered over the element with selector '%s'.", tgt.locator), nil
		}},
		{name: "scripted hover", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, hoverScript(tgt.locator))
		}},
	})
}

func (c *Coordinator) wait(ctx context.Context, a schemas.WaitAction) schemas.SkillResult {
	seconds := a.Seconds
	if seconds <= 0 {
		seconds = 1.0
	}
	d := time.Duration(seconds * float64(time.Second))
	if err := sleep(ctx, d); err != nil {
		return failure(
			"The wait was interrupted.",
			fmt.Sprintf("Waiting for %.2f seconds was interrupted: %v.", seconds, err))
	}
	msg := fmt.Sprintf("Waited for %.2f seconds.", seconds)
	return success(msg, msg)
}

func (c *Coordinator) scroll(ctx context.Context, a schemas.ScrollAction) schemas.SkillResult {
	if a.Target != nil {
		tgt, fail := c.prepareTarget(ctx, a.Target)
		if fail != nil {
			return *fail
		}
		return c.runChain(ctx, tgt, []strategy{
			{name: "scripted element scroll", run: func(ctx context.Context) (string, error) {
				return c.evalString(ctx, scrollElementScript(tgt.locator, a.Value, a.Up))
			}},
		})
	}

	msg, err := c.evalString(ctx, scrollWindowScript(a.Value, a.Up))
	if err != nil {
		return failure(
			"Failed to scroll the window.",
			fmt.Sprintf("The window scroll failed: %v.", err))
	}
	return success(msg, msg)
}

func (c *Coordinator) submit(ctx context.Context, a schemas.SubmitAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "native submit", run: func(ctx context.Context) (string, error) {
			if err := c.driver.Submit(ctx, tgt.locator); err != nil {
				return "", err
			}
			return fmt.Sprintf("Submitted the form for the element with selector '%s'.", tgt.locator), nil
		}},
		{name: "scripted submit", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, submitScript(tgt.locator))
		}},
	})
}

func (c *Coordinator) dragAndDrop(ctx context.Context, a schemas.DragAndDropAction) schemas.SkillResult {
	src, fail := c.prepareTarget(ctx, a.Source)
	if fail != nil {
		return *fail
	}
	if a.Dest == nil {
		return failure(
			"Drag and drop failed: no drop target selector was provided.",
			"A dragAndDrop action requires both source_selector and target_selector.")
	}
	dst, fail := c.prepareTarget(ctx, a.Dest)
	if fail != nil {
		return *fail
	}
	dstLocator := dst.locator

	// Result diagnostics carry both ends of the gesture.
	src.outer = fmt.Sprintf("%s, and the drop target's outer HTML was: %s", src.outer, dst.outer)

	return c.runChain(ctx, src, []strategy{
		{name: "native drag", run: func(ctx context.Context) (string, error) {
			if err := c.driver.DragTo(ctx, src.locator, dstLocator, c.cfg.DragTimeout); err != nil {
				return "", err
			}
			return fmt.Sprintf("Dragged the element '%s' onto '%s'.", src.locator, dstLocator), nil
		}},
		{name: "scripted drag events", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, dragAndDropScript(src.locator, dstLocator))
		}},
	})
}

func (c *Coordinator) screenshot(ctx context.Context, a schemas.ScreenshotAction) schemas.SkillResult {
	path := a.FilePath
	if path == "" {
		path = fmt.Sprintf("screenshot_%s.png", time.Now().UTC().Format("20060102T150405"))
	}
	if err := c.driver.Screenshot(ctx, path); err != nil {
		return failure(
			"Failed to capture a screenshot.",
			fmt.Sprintf("Capturing a screenshot to '%s' failed: %v.", path, err))
	}
	msg := fmt.Sprintf("Captured a screenshot to '%s'.", path)
	return success(msg, msg)
}

func (c *Coordinator) dropDownOptions(ctx context.Context, a schemas.GetDropDownOptionsAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	if tgt.tag != "select" && tgt.tag != "unknown" {
		return failure(
			fmt.Sprintf("Cannot read options: the element with selector '%s' is a <%s>, not a <select>.", tgt.locator, tgt.tag),
			fmt.Sprintf("The element's outer HTML was: %s", tgt.outer))
	}

	var options []schemas.DropDownOption
	if err := c.driver.Evaluate(ctx, dropDownOptionsScript(tgt.locator), &options); err != nil {
		return failure(
			fmt.Sprintf("Failed to read the options of the element with selector '%s'.", tgt.locator),
			fmt.Sprintf("Reading dropdown options failed: %v. The element's outer HTML was: %s", err, tgt.outer))
	}
	if len(options) == 0 {
		return failure(
			fmt.Sprintf("The element with selector '%s' has no options.", tgt.locator),
			fmt.Sprintf("No options were found. The element's outer HTML was: %s", tgt.outer))
	}

	lines := make([]string, 0, len(options))
	for _, o := range options {
		lines = append(lines, fmt.Sprintf("%d: '%s' (value='%s')", o.Index, o.Text, o.Value))
	}
	return success(
		fmt.Sprintf("Found %d options in the element with selector '%s'.", len(options), tgt.locator),
		fmt.Sprintf("The dropdown '%s' contains: %s.", tgt.locator, strings.Join(lines, ", ")))
}

func (c *Coordinator) selectDropDownOption(ctx context.Context, a schemas.SelectDropDownOptionAction) schemas.SkillResult {
	tgt, fail := c.prepareTarget(ctx, a.Target)
	if fail != nil {
		return *fail
	}
	return c.runChain(ctx, tgt, []strategy{
		{name: "scripted option match", run: func(ctx context.Context) (string, error) {
			return c.evalString(ctx, selectOptionByTextScript(tgt.locator, a.Text))
		}},
	})
}
