// Package executor turns typed page actions into driver calls, with scripted
// fallbacks, DOM mutation correlation, and history recording.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/webhand/api/schemas"
	"github.com/xkilldash9x/webhand/internal/config"
	"github.com/xkilldash9x/webhand/internal/history"
	"github.com/xkilldash9x/webhand/internal/selector"
)

// outerHTMLLimit truncates diagnostic HTML captures in result messages.
const outerHTMLLimit = 300

// Options carries the coordinator's dependencies. Driver is required; the
// rest degrade gracefully when absent.
type Options struct {
	Driver    schemas.PageDriver
	DOM       schemas.DOMQuerier
	Watcher   schemas.MutationWatcher
	History   history.Store
	Config    config.ExecutorConfig
	Logger    *zap.Logger
	SessionID string
}

// Coordinator executes typed actions against a live page. Actions on one
// coordinator are serialized; a page can only be driven by one interaction at
// a time.
type Coordinator struct {
	driver    schemas.PageDriver
	dom       schemas.DOMQuerier
	watcher   schemas.MutationWatcher
	store     history.Store
	synth     *selector.Synthesizer
	logger    *zap.Logger
	cfg       config.ExecutorConfig
	gate      *semaphore.Weighted
	limiter   *rate.Limiter
	sessionID string
}

// New builds a Coordinator, filling unset timeouts with defaults.
func New(opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	if cfg.AttachTimeout <= 0 {
		cfg.AttachTimeout = 2 * time.Second
	}
	if cfg.VisibilityTimeout <= 0 {
		cfg.VisibilityTimeout = 200 * time.Millisecond
	}
	if cfg.DragTimeout <= 0 {
		cfg.DragTimeout = 800 * time.Millisecond
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 100 * time.Millisecond
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Coordinator{
		driver:    opts.Driver,
		dom:       opts.DOM,
		watcher:   opts.Watcher,
		store:     opts.History,
		synth:     selector.NewSynthesizer(logger),
		logger:    logger.Named("executor").With(zap.String("session_id", sessionID)),
		cfg:       cfg,
		gate:      semaphore.NewWeighted(1),
		limiter:   limiter,
		sessionID: sessionID,
	}
}

// SessionID returns the identifier attached to every history record.
func (c *Coordinator) SessionID() string { return c.sessionID }

// ExecOption tunes a single Execute call.
type ExecOption func(*execOptions)

type execOptions struct {
	preDelay time.Duration
}

// WithPreDelay pauses before the action touches the page.
func WithPreDelay(d time.Duration) ExecOption {
	return func(o *execOptions) { o.preDelay = d }
}

// Execute runs one action to completion. Interaction failures are folded into
// the returned SkillResult; the error return is reserved for preconditions
// (no attached driver) and context cancellation.
func (c *Coordinator) Execute(ctx context.Context, action schemas.Action, opts ...ExecOption) (schemas.SkillResult, error) {
	if c.driver == nil {
		return schemas.SkillResult{}, schemas.ErrNoActivePage
	}
	if action == nil {
		return failure("No action was provided.", "Execute was called with a nil action."), nil
	}

	var eo execOptions
	for _, opt := range opts {
		opt(&eo)
	}

	if err := c.gate.Acquire(ctx, 1); err != nil {
		return schemas.SkillResult{}, err
	}
	defer c.gate.Release(1)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return schemas.SkillResult{}, err
		}
	}
	if eo.preDelay > 0 {
		if err := sleep(ctx, eo.preDelay); err != nil {
			return schemas.SkillResult{}, err
		}
	}

	log := c.logger.With(zap.String("action", string(action.Type())))
	log.Debug("executing action")

	start := time.Now()
	res := c.observe(ctx, func() schemas.SkillResult {
		return c.dispatch(ctx, action)
	})
	elapsed := time.Since(start)

	if res.Success {
		log.Info("action completed", zap.Duration("duration", elapsed))
	} else {
		log.Warn("action failed", zap.Duration("duration", elapsed), zap.String("summary", res.Summary))
	}

	c.record(ctx, action, res, elapsed)
	return res, nil
}

// dispatch is the exhaustive switch over the closed action union. A variant
// missing here is a bug in this package, not a recoverable condition.
func (c *Coordinator) dispatch(ctx context.Context, action schemas.Action) schemas.SkillResult {
	switch a := action.(type) {
	case schemas.ClickAction:
		return c.click(ctx, a)
	case schemas.DoubleClickAction:
		return c.doubleClick(ctx, a)
	case schemas.NavigateAction:
		return c.navigate(ctx, a)
	case schemas.TypeAction:
		return c.typeText(ctx, a)
	case schemas.SelectAction:
		return c.selectValue(ctx, a)
	case schemas.HoverAction:
		return c.hover(ctx, a)
	case schemas.WaitAction:
		return c.wait(ctx, a)
	case schemas.ScrollAction:
		return c.scroll(ctx, a)
	case schemas.SubmitAction:
		return c.submit(ctx, a)
	case schemas.DragAndDropAction:
		return c.dragAndDrop(ctx, a)
	case schemas.ScreenshotAction:
		return c.screenshot(ctx, a)
	case schemas.GetDropDownOptionsAction:
		return c.dropDownOptions(ctx, a)
	case schemas.SelectDropDownOptionAction:
		return c.selectDropDownOption(ctx, a)
	default:
		return failure(
			fmt.Sprintf("Unsupported action type '%s'.", action.Type()),
			fmt.Sprintf("The action type '%s' has no execution procedure.", action.Type()))
	}
}

// observe brackets an action with DOM mutation observation. The subscription
// is registered before the action starts and removed after a short settle
// window, so late mutations triggered by the action are still attributed to
// it. When mutations arrived, both result messages grow an explicit directive
// to re-fetch the page structure.
func (c *Coordinator) observe(ctx context.Context, run func() schemas.SkillResult) schemas.SkillResult {
	if c.watcher == nil {
		return run()
	}

	var mu sync.Mutex
	var changes []string
	unsubscribe := c.watcher.Subscribe(func(description string) {
		mu.Lock()
		changes = append(changes, description)
		mu.Unlock()
	})
	defer unsubscribe()

	res := run()

	// Give the observer a beat to deliver mutations caused by the action.
	_ = sleep(ctx, c.cfg.SettleDelay)

	mu.Lock()
	described := strings.Join(changes, "; ")
	mu.Unlock()

	if described != "" {
		note := fmt.Sprintf(
			"As a consequence of this action, new elements have appeared in view: %s. Get the DOM fields again before deciding the next action.",
			described)
		res.Summary = strings.TrimSpace(res.Summary + " " + note)
		res.Detailed = strings.TrimSpace(res.Detailed + " " + note)
	}
	return res
}

// -- target preparation --

// target is a prepared, attached element.
type target struct {
	locator string
	tag     string
	outer   string
}

// prepareTarget runs the shared pre-interaction phase: selector validation,
// a bounded wait for DOM attachment, best-effort scroll and visibility, and
// diagnostic capture of the element's tag and outer HTML. A non-nil
// SkillResult means the action is unexecutable and must be returned as-is.
func (c *Coordinator) prepareTarget(ctx context.Context, sel *schemas.Selector) (*target, *schemas.SkillResult) {
	if sel == nil {
		res := failure(
			"Action failed: no target selector was provided.",
			"The action requires a target selector but none was supplied.")
		return nil, &res
	}
	if err := sel.Validate(); err != nil {
		res := failure(
			"Action failed: the target selector is invalid.",
			fmt.Sprintf("Selector validation failed: %v.", err))
		return nil, &res
	}

	locator := sel.Query()
	if err := c.driver.WaitAttached(ctx, locator, c.cfg.AttachTimeout); err != nil {
		res := failure(
			fmt.Sprintf("Action failed: no element matched the selector '%s'.", locator),
			fmt.Sprintf(
				"No element with selector '%s' appeared in the DOM within %s. The page may have changed; get the DOM fields again and retry with a fresh selector. Underlying error: %v.",
				locator, c.cfg.AttachTimeout, err))
		return nil, &res
	}

	// Visibility is best effort: occluded or offscreen elements are still
	// actionable through the scripted fallbacks.
	if err := c.driver.ScrollIntoView(ctx, locator); err != nil {
		c.logger.Debug("scroll into view failed", zap.String("locator", locator), zap.Error(err))
	}
	if err := c.driver.WaitVisible(ctx, locator, c.cfg.VisibilityTimeout); err != nil {
		c.logger.Debug("element not visible before action", zap.String("locator", locator), zap.Error(err))
	}

	tgt := &target{locator: locator, tag: "unknown", outer: "<unavailable>"}
	if tag, err := c.driver.TagName(ctx, locator); err == nil && tag != "" {
		tgt.tag = strings.ToLower(tag)
	}
	if outer, err := c.driver.OuterHTML(ctx, locator); err == nil && outer != "" {
		tgt.outer = truncate(outer, outerHTMLLimit)
	}
	return tgt, nil
}

// -- strategy chain --

// strategy is one way of accomplishing an action. Strategies run in order
// until one succeeds; every failure is collected for the result message.
type strategy struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// runChain executes strategies in order and folds the outcome into a
// SkillResult. When a non-primary strategy wins, the result says so.
func (c *Coordinator) runChain(ctx context.Context, tgt *target, chain []strategy) schemas.SkillResult {
	var failures []string
	for i, s := range chain {
		msg, err := s.run(ctx)
		if err == nil {
			detailed := fmt.Sprintf("%s The element's outer HTML was: %s", msg, tgt.outer)
			summary := msg
			if i > 0 {
				summary = fmt.Sprintf("%s (completed via %s)", msg, s.name)
				detailed = fmt.Sprintf("%s Earlier attempts failed: %s.", detailed, strings.Join(failures, "; "))
			}
			return success(summary, detailed)
		}
		failures = append(failures, fmt.Sprintf("%s: %v", s.name, err))
		c.logger.Warn("strategy failed, trying next",
			zap.String("strategy", s.name),
			zap.String("locator", tgt.locator),
			zap.Error(err))
	}
	return failure(
		fmt.Sprintf("Action failed on the element with selector '%s'.", tgt.locator),
		fmt.Sprintf("Every strategy failed for selector '%s': %s. The element's outer HTML was: %s",
			tgt.locator, strings.Join(failures, "; "), tgt.outer))
}

// evalString evaluates a fallback script and converts its "Error:" prefixed
// return convention into a Go error.
func (c *Coordinator) evalString(ctx context.Context, script string) (string, error) {
	var out string
	if err := c.driver.Evaluate(ctx, script, &out); err != nil {
		return "", err
	}
	if strings.HasPrefix(out, "Error:") {
		return "", errors.New(strings.TrimSpace(strings.TrimPrefix(out, "Error:")))
	}
	return out, nil
}

// -- history --

func (c *Coordinator) record(ctx context.Context, action schemas.Action, res schemas.SkillResult, elapsed time.Duration) {
	if c.store == nil {
		return
	}

	payload, err := schemas.EncodeAction(c.canonicalize(ctx, action))
	if err != nil {
		c.logger.Warn("could not encode action for history", zap.Error(err))
		payload = map[string]any{"type": string(action.Type())}
	}

	rec := history.Record{
		Timestamp:  time.Now().UTC(),
		SessionID:  c.sessionID,
		ActionType: string(action.Type()),
		Action:     payload,
		Success:    res.Success,
		Message:    res.Summary,
		DurationMS: elapsed.Milliseconds(),
	}
	if url, err := c.driver.URL(ctx); err == nil {
		rec.URL = url
	}
	if title, err := c.driver.Title(ctx); err == nil {
		rec.PageTitle = title
	}

	// History is advisory; a persistence failure never fails the action.
	if err := c.store.Append(ctx, rec); err != nil {
		c.logger.Warn("failed to append action history", zap.Error(err))
	}
}

// canonicalize rewrites the action's selectors as synthesized stable XPaths
// so history replays survive page re-renders. Selectors that no longer
// resolve are kept as-is.
func (c *Coordinator) canonicalize(ctx context.Context, action schemas.Action) schemas.Action {
	if c.dom == nil {
		return action
	}
	switch a := action.(type) {
	case schemas.ClickAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.DoubleClickAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.TypeAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.SelectAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.HoverAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.ScrollAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.SubmitAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.DragAndDropAction:
		a.Source = c.refreshSelector(ctx, a.Source)
		a.Dest = c.refreshSelector(ctx, a.Dest)
		return a
	case schemas.GetDropDownOptionsAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	case schemas.SelectDropDownOptionAction:
		a.Target = c.refreshSelector(ctx, a.Target)
		return a
	default:
		return action
	}
}

func (c *Coordinator) refreshSelector(ctx context.Context, sel *schemas.Selector) *schemas.Selector {
	if sel == nil {
		return nil
	}
	xpath, err := c.synth.Synthesize(ctx, c.dom, sel.Query())
	if err != nil {
		c.logger.Debug("could not canonicalize selector",
			zap.String("selector", sel.String()), zap.Error(err))
		return sel
	}
	fresh := selector.Classify(xpath)
	return &fresh
}

// -- helpers --

func success(summary, detailed string) schemas.SkillResult {
	return schemas.SkillResult{Summary: summary, Detailed: detailed, Success: true}
}

func failure(summary, detailed string) schemas.SkillResult {
	return schemas.SkillResult{Summary: summary, Detailed: detailed, Success: false}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
