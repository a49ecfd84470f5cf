package browser

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webhand/api/schemas"
	"github.com/xkilldash9x/webhand/internal/config"
)

// Session owns a browser tab and implements the engine driver surface on top
// of CDP. All operations combine the session context (which carries the CDP
// target) with the caller's context, so either side can cancel.
type Session struct {
	id string

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	logger  *zap.Logger
	cfg     config.Interface
	watcher *MutationObserver

	mu       sync.Mutex
	isClosed bool
}

// Ensure Session satisfies the driver surfaces.
var (
	_ schemas.PageDriver = (*Session)(nil)
	_ schemas.DOMQuerier = (*Session)(nil)
)

// getExecOptions translates the application config into chromedp allocator options.
func getExecOptions(cfg config.Interface) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened systems where the Chrome sandbox cannot start.
		chromedp.NoSandbox,
		// Recommended for stability in containers/headless envs.
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if cfg.Browser().Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.Browser().IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	if cfg.Browser().DisableCache {
		opts = append(opts, chromedp.Flag("disable-application-cache", true))
	}

	// Additional flags from the config file's 'args' slice.
	for _, arg := range cfg.Browser().Args {
		arg = strings.TrimPrefix(arg, "--")
		if arg == "" {
			continue
		}
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(arg, true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(parts[0], parts[1]))
	}
	return opts
}

// NewSession launches a browser, opens a tab and wires the mutation observer.
// The returned session must be released with Close.
func NewSession(parent context.Context, cfg config.Interface, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sessionID := uuid.New().String()
	sessionLogger := logger.Named("browser").With(zap.String("session_id", sessionID))

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, getExecOptions(cfg)...)

	var ctxOpts []chromedp.ContextOption
	if cfg.Browser().Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sessionLogger.Sugar().Debugf))
	}
	ctx, cancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:          sessionID,
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      sessionLogger,
		cfg:         cfg,
		watcher:     NewMutationObserver(sessionLogger),
	}

	var bootstrap chromedp.Tasks
	if vp := cfg.Browser().Viewport; vp["width"] > 0 && vp["height"] > 0 {
		bootstrap = append(bootstrap, chromedp.EmulateViewport(int64(vp["width"]), int64(vp["height"])))
	}
	if cfg.Browser().DisableCache {
		bootstrap = append(bootstrap, network.SetCacheDisabled(true))
	}

	// Ensure the target is created and CDP is connected.
	if err := chromedp.Run(ctx, bootstrap); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to initialize browser target: %w", err)
	}

	if err := s.watcher.install(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to install mutation observer: %w", err)
	}

	sessionLogger.Info("Browser session started.",
		zap.Bool("headless", cfg.Browser().Headless))
	return s, nil
}

// ID returns the unique identifier for this session.
func (s *Session) ID() string { return s.id }

// Watcher exposes the session's DOM mutation feed.
func (s *Session) Watcher() schemas.MutationWatcher { return s.watcher }

// Close tears down the tab and the browser process. Safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true

	s.logger.Info("Closing browser session.")
	s.cancel()
	s.allocCancel()
	return nil
}

// run executes chromedp actions against the session target under the caller's
// cancellation.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.isClosed
	s.mu.Unlock()
	if closed {
		return schemas.ErrNoActivePage
	}

	combined, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(combined, actions...)
}

func (s *Session) runWithTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.run(ctx, actions...)
}

// -- Navigation --

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	err := s.runWithTimeout(ctx, s.cfg.Network().NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Network().PostLoadWait),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *Session) Back(ctx context.Context) error {
	return s.runWithTimeout(ctx, s.cfg.Network().NavigationTimeout,
		chromedp.NavigateBack(),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Network().PostLoadWait),
	)
}

func (s *Session) Forward(ctx context.Context) error {
	return s.runWithTimeout(ctx, s.cfg.Network().NavigationTimeout,
		chromedp.NavigateForward(),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Network().PostLoadWait),
	)
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, chromedp.Location(&url))
	return url, err
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, chromedp.Title(&title))
	return title, err
}

// -- Element readiness and inspection --

func (s *Session) WaitAttached(ctx context.Context, locator string, timeout time.Duration) error {
	sel, opt := queryOption(locator)
	return s.runWithTimeout(ctx, timeout, chromedp.WaitReady(sel, opt))
}

func (s *Session) WaitVisible(ctx context.Context, locator string, timeout time.Duration) error {
	sel, opt := queryOption(locator)
	return s.runWithTimeout(ctx, timeout, chromedp.WaitVisible(sel, opt))
}

func (s *Session) ScrollIntoView(ctx context.Context, locator string) error {
	sel, opt := queryOption(locator)
	return s.run(ctx, chromedp.ScrollIntoView(sel, opt))
}

func (s *Session) TagName(ctx context.Context, locator string) (string, error) {
	var res struct {
		Found bool                `json:"found"`
		Info  schemas.ElementInfo `json:"info"`
	}
	if err := s.Evaluate(ctx, elementInfoScript(locator), &res); err != nil {
		return "", err
	}
	if !res.Found {
		return "", schemas.ErrNoElement
	}
	return res.Info.TagName, nil
}

func (s *Session) OuterHTML(ctx context.Context, locator string) (string, error) {
	sel, opt := queryOption(locator)
	var html string
	err := s.run(ctx, chromedp.OuterHTML(sel, &html, opt))
	return html, err
}

// -- Structured interactions --

func (s *Session) Click(ctx context.Context, locator string) error {
	sel, opt := queryOption(locator)
	return s.run(ctx, chromedp.Click(sel, opt))
}

func (s *Session) ClickAt(ctx context.Context, x, y float64) error {
	return s.run(ctx, chromedp.MouseClickXY(x, y))
}

func (s *Session) DoubleClick(ctx context.Context, locator string) error {
	sel, opt := queryOption(locator)
	return s.run(ctx, chromedp.DoubleClick(sel, opt))
}

func (s *Session) Hover(ctx context.Context, locator string) error {
	x, y, err := s.elementCenter(ctx, locator)
	if err != nil {
		return err
	}
	return s.run(ctx, chromedp.MouseEvent(input.MouseMoved, x, y))
}

func (s *Session) Type(ctx context.Context, locator, text string) error {
	sel, opt := queryOption(locator)
	return s.run(ctx,
		chromedp.Focus(sel, opt),
		chromedp.Clear(sel, opt),
		chromedp.SendKeys(sel, text, opt),
	)
}

func (s *Session) SelectByValue(ctx context.Context, locator, value string) error {
	var failure string
	if err := s.Evaluate(ctx, setSelectValueScript(locator, value), &failure); err != nil {
		return err
	}
	if failure != "" {
		return fmt.Errorf("select failed: %s", failure)
	}
	return nil
}

func (s *Session) Submit(ctx context.Context, locator string) error {
	sel, opt := queryOption(locator)
	return s.run(ctx, chromedp.Submit(sel, opt))
}

// DragTo performs a native mouse press-move-release gesture from the center
// of source to the center of target.
func (s *Session) DragTo(ctx context.Context, source, target string, timeout time.Duration) error {
	sx, sy, err := s.elementCenter(ctx, source)
	if err != nil {
		return fmt.Errorf("drag source: %w", err)
	}
	tx, ty, err := s.elementCenter(ctx, target)
	if err != nil {
		return fmt.Errorf("drag target: %w", err)
	}

	const steps = 8
	gesture := chromedp.Tasks{
		chromedp.MouseEvent(input.MouseMoved, sx, sy),
		chromedp.MouseEvent(input.MousePressed, sx, sy, chromedp.Button("left"), chromedp.ClickCount(1)),
	}
	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		gesture = append(gesture, chromedp.MouseEvent(input.MouseMoved,
			sx+(tx-sx)*frac, sy+(ty-sy)*frac, chromedp.Button("left")))
	}
	gesture = append(gesture,
		chromedp.MouseEvent(input.MouseReleased, tx, ty, chromedp.Button("left"), chromedp.ClickCount(1)))

	return s.runWithTimeout(ctx, timeout, gesture)
}

// Evaluate runs a JavaScript expression in the page. out may be nil.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	return s.run(ctx, chromedp.Evaluate(script, out))
}

// Screenshot captures the full viewport as a PNG at path.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	s.logger.Debug("Screenshot captured.", zap.String("path", path))
	return nil
}

// -- DOMQuerier --

func (s *Session) FirstMatch(ctx context.Context, locator string) (*schemas.ElementInfo, error) {
	var res struct {
		Found bool                `json:"found"`
		Info  schemas.ElementInfo `json:"info"`
	}
	if err := s.Evaluate(ctx, elementInfoScript(locator), &res); err != nil {
		return nil, err
	}
	if !res.Found {
		return nil, nil
	}
	return &res.Info, nil
}

func (s *Session) CountByCSS(ctx context.Context, css string) (int, error) {
	var n int
	if err := s.Evaluate(ctx, countCSSScript(css), &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid css selector: %q", css)
	}
	return n, nil
}

func (s *Session) CountByText(ctx context.Context, text string) (int, error) {
	var n float64
	if err := s.Evaluate(ctx, countTextScript(text), &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("text count query failed for %q", text)
	}
	return int(n), nil
}

func (s *Session) PositionalPath(ctx context.Context, locator string) (string, error) {
	var path string
	if err := s.Evaluate(ctx, positionalPathScript(locator), &path); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Session) elementCenter(ctx context.Context, locator string) (float64, float64, error) {
	var res struct {
		Found bool    `json:"found"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if err := s.Evaluate(ctx, centerScript(locator), &res); err != nil {
		return 0, 0, err
	}
	if !res.Found {
		return 0, 0, schemas.ErrNoElement
	}
	return res.X, res.Y, nil
}
