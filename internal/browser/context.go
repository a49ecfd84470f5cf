package browser

import (
	"context"
)

// combineContext creates a context derived from ctx1 that is canceled when
// either ctx1 or ctx2 is canceled. It inherits values from ctx1, which is how
// chromedp carries its CDP target information: ctx1 is the session context,
// ctx2 the operational deadline.
func combineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
