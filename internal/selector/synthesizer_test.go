package selector

import (
	"context"
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/webhand/api/schemas"
)

const fixturePage = `
<html>
<body>
  <div id="app">
    <form class="login-form" name="login">
      <input id="user" name="username" type="text" placeholder="Username">
      <input name="password" type="password">
      <button class="btn btn-primary" type="submit">Sign in</button>
    </form>
    <div class="col-md-6 d-flex">
      <span>Some content here</span>
    </div>
    <input class="d-none" type="hidden">
    <input name="choice" type="radio">
    <input name="choice" type="radio">
    <table><tr><td></td><td></td></tr></table>
  </div>
</body>
</html>`

func newFixture(t *testing.T) *StaticPage {
	t.Helper()
	page, err := ParsePage(fixturePage)
	require.NoError(t, err)
	return page
}

func TestSynthesize(t *testing.T) {
	page := newFixture(t)
	synth := NewSynthesizer(nil)
	ctx := context.Background()

	testCases := []struct {
		name    string
		locator string
		want    string
	}{
		{
			name:    "unique id wins over everything",
			locator: "#user",
			want:    "//*[@id='user']",
		},
		{
			name:    "unique meaningful classes stay bare",
			locator: "button",
			want:    "//*[@class='btn btn-primary']",
		},
		{
			name:    "id takes precedence over other attributes",
			locator: "[name='username']",
			want:    "//*[@id='user']",
		},
		{
			name:    "unique name attribute stays bare",
			locator: "[name='password']",
			want:    "//*[@name='password']",
		},
		{
			name:    "duplicate name attribute gets tag qualified",
			locator: "[name='choice']",
			want:    "//input[@name='choice']",
		},
		{
			name:    "short unique text",
			locator: "span",
			want:    "//*[text()='Some content here']",
		},
		{
			name:    "utility classes are skipped, compound class and type",
			locator: "[type='hidden']",
			want:    "//input[@class='d-none' and @type='hidden']",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := synth.Synthesize(ctx, page, tc.locator)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			// The synthesized XPath must resolve on the page it came from.
			doc, err := htmlquery.Parse(strings.NewReader(fixturePage))
			require.NoError(t, err)
			node, err := htmlquery.Query(doc, got)
			require.NoError(t, err)
			assert.NotNil(t, node, "synthesized xpath %q should match the fixture", got)
		})
	}
}

func TestSynthesizePositionalFallback(t *testing.T) {
	page := newFixture(t)
	synth := NewSynthesizer(nil)

	// An empty cell has no identity at all, only its position.
	got, err := synth.Synthesize(context.Background(), page, "//td[2]")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "/html"), "positional path should be rooted, got %q", got)
	assert.True(t, strings.HasSuffix(got, "td[2]"), "positional path should keep the sibling index, got %q", got)
}

func TestSynthesizeNoMatch(t *testing.T) {
	page := newFixture(t)
	synth := NewSynthesizer(nil)
	ctx := context.Background()

	_, err := synth.Synthesize(ctx, page, "#does-not-exist")
	assert.ErrorIs(t, err, schemas.ErrNoElement)

	_, err = synth.Synthesize(ctx, page, "   ")
	assert.ErrorIs(t, err, schemas.ErrNoElement)
}

func TestMeaningfulClasses(t *testing.T) {
	testCases := []struct {
		name      string
		className string
		want      []string
	}{
		{"keeps identity classes", "btn btn-primary", []string{"btn", "btn-primary"}},
		{"drops grid and spacing helpers", "col-md-6 d-flex p-2 m-0 nav-link", []string{"nav-link"}},
		{"all utility yields nothing", "text-center bg-dark border-0", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, meaningfulClasses(tc.className))
		})
	}
}
