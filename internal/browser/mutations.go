package browser

import (
	"context"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// mutationBinding is the JS-to-Go bridge function name the in-page observer
// calls with a description of newly added elements.
const mutationBinding = "__webhandMutation"

// mutationObserverJS watches the document for added element nodes and reports
// a compact description of each batch through the CDP binding. It is injected
// both into the current document and into every new document so the feed
// survives navigations.
const mutationObserverJS = `(() => {
	if (window.__webhandObserverInstalled) return;
	window.__webhandObserverInstalled = true;

	const describe = (el) => {
		let d = el.tagName.toLowerCase();
		if (el.id) d += '#' + el.id;
		if (typeof el.className === 'string') {
			const cls = el.className.trim().split(/\s+/).filter(Boolean).slice(0, 3).join('.');
			if (cls) d += '.' + cls;
		}
		const text = (el.textContent || '').trim().replace(/\s+/g, ' ');
		if (text) d += ' "' + text.slice(0, 40) + '"';
		return d;
	};

	const observer = new MutationObserver((mutations) => {
		const added = [];
		for (const m of mutations) {
			for (const n of m.addedNodes) {
				if (n.nodeType === Node.ELEMENT_NODE) added.push(describe(n));
			}
		}
		if (added.length && typeof window.` + mutationBinding + ` === 'function') {
			window.` + mutationBinding + `(added.slice(0, 10).join('; '));
		}
	});

	const start = () => {
		if (document.body) {
			observer.observe(document.body, {childList: true, subtree: true});
		}
	};
	if (document.body) start();
	else window.addEventListener('DOMContentLoaded', start);
})()`

// MutationObserver fans page mutation reports out to subscribers. It
// implements schemas.MutationWatcher.
type MutationObserver struct {
	logger *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(string)
}

// NewMutationObserver creates the fan-out hub. It reports nothing until
// install attaches it to a session context.
func NewMutationObserver(logger *zap.Logger) *MutationObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MutationObserver{
		logger: logger.Named("mutations"),
		subs:   make(map[int]func(string)),
	}
}

// install registers the CDP binding, injects the observer script into the
// current and all future documents, and starts listening for reports. The
// listener lives as long as the session context.
func (m *MutationObserver) install(ctx context.Context) error {
	err := chromedp.Run(ctx,
		runtime.AddBinding(mutationBinding),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(mutationObserverJS).Do(ctx)
			return err
		}),
		// New-document scripts do not run in the already-loaded page.
		chromedp.Evaluate(mutationObserverJS, nil),
	)
	if err != nil {
		return err
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if ev, ok := ev.(*runtime.EventBindingCalled); ok && ev.Name == mutationBinding {
			m.dispatch(ev.Payload)
		}
	})
	return nil
}

// Subscribe registers a callback for mutation descriptions and returns its
// unsubscribe function.
func (m *MutationObserver) Subscribe(fn func(description string)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// dispatch runs on the CDP event goroutine; keep it quick.
func (m *MutationObserver) dispatch(payload string) {
	desc := strings.TrimSpace(payload)
	if desc == "" {
		return
	}

	m.mu.Lock()
	callbacks := make([]func(string), 0, len(m.subs))
	for _, fn := range m.subs {
		callbacks = append(callbacks, fn)
	}
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	m.logger.Debug("DOM additions observed.", zap.String("elements", desc))
	for _, fn := range callbacks {
		fn(desc)
	}
}
