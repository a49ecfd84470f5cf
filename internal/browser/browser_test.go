package browser

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueryOptionDispatch(t *testing.T) {
	byQuery := reflect.ValueOf(chromedp.ByQuery).Pointer()
	bySearch := reflect.ValueOf(chromedp.BySearch).Pointer()

	testCases := []struct {
		name       string
		locator    string
		wantSel    string
		wantSearch bool
	}{
		{"css id", "#login", "#login", false},
		{"css attribute", "[name='q']", "[name='q']", false},
		{"bare tag", "button", "button", false},
		{"xpath absolute", "//div[@id='x']", "//div[@id='x']", true},
		{"xpath rooted", "/html/body/div[1]", "/html/body/div[1]", true},
		{"xpath grouped", "(//a)[2]", "(//a)[2]", true},
		{"xpath relative", "./span", "./span", true},
		{"text prefix stripped", "text=Sign in", "Sign in", true},
		{"text prefix trims space", "text=  Sign in ", "Sign in", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sel, opt := queryOption(tc.locator)
			assert.Equal(t, tc.wantSel, sel)
			got := reflect.ValueOf(opt).Pointer()
			if tc.wantSearch {
				assert.Equal(t, bySearch, got, "expected BySearch")
			} else {
				assert.Equal(t, byQuery, got, "expected ByQuery")
			}
		})
	}
}

func TestScriptBuildersQuoteArguments(t *testing.T) {
	scripts := []string{
		elementInfoScript(`input[name='user "x"']`),
		countCSSScript(`.btn`),
		countTextScript(`O'Reilly "quoted"`),
		positionalPathScript(`//td[2]`),
		centerScript(`#drop`),
		setSelectValueScript(`#choice`, `opt "1"`),
	}
	for _, script := range scripts {
		assert.NotContains(t, script, "%!", "fmt verb mismatch leaked into script")
	}

	// jsArg must produce a double-quoted JSON string literal.
	assert.Equal(t, `"plain"`, jsArg("plain"))
	assert.Equal(t, `"say \"hi\""`, jsArg(`say "hi"`))

	info := elementInfoScript(`#user`)
	assert.Contains(t, info, `__resolve("#user")`)
	assert.Contains(t, info, "tagName: el.tagName.toLowerCase()")

	sel := setSelectValueScript("#choice", "b")
	assert.Contains(t, sel, `el.value = "b"`)
	assert.Contains(t, sel, "dispatchEvent(new Event('change'")
}

func TestMutationObserverFanOut(t *testing.T) {
	m := NewMutationObserver(zap.NewNop())

	var first, second []string
	unsub1 := m.Subscribe(func(desc string) { first = append(first, desc) })
	unsub2 := m.Subscribe(func(desc string) { second = append(second, desc) })

	m.dispatch(`div#toast "Saved"`)
	assert.Equal(t, []string{`div#toast "Saved"`}, first)
	assert.Equal(t, []string{`div#toast "Saved"`}, second)

	unsub1()
	m.dispatch("span.badge")
	assert.Len(t, first, 1, "unsubscribed callback must not fire")
	assert.Len(t, second, 2)

	// Blank payloads are dropped.
	m.dispatch("   ")
	assert.Len(t, second, 2)

	unsub2()
	unsub2() // double-unsubscribe is harmless
	m.dispatch("p")
	assert.Len(t, second, 2)
}

func TestMutationObserverConcurrentSubscribers(t *testing.T) {
	m := NewMutationObserver(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			unsub := m.Subscribe(func(string) {})
			unsub()
		}
	}()
	for i := 0; i < 100; i++ {
		m.dispatch("div")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber churn deadlocked")
	}
}

func TestCombineContextCancellation(t *testing.T) {
	t.Run("base cancellation propagates", func(t *testing.T) {
		base, cancelBase := context.WithCancel(context.Background())
		combined, cancel := combineContext(base, context.Background())
		defer cancel()

		cancelBase()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context did not observe base cancellation")
		}
	})

	t.Run("caller cancellation propagates", func(t *testing.T) {
		caller, cancelCaller := context.WithCancel(context.Background())
		combined, cancel := combineContext(context.Background(), caller)
		defer cancel()

		cancelCaller()
		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context did not observe caller cancellation")
		}
	})
}

func TestObserverScriptShape(t *testing.T) {
	require.Contains(t, mutationObserverJS, "window."+mutationBinding)
	require.Contains(t, mutationObserverJS, "MutationObserver")
	assert.True(t, strings.Contains(mutationObserverJS, "__webhandObserverInstalled"),
		"script must be idempotent across re-injection")
}
