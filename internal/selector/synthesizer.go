package selector

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/webhand/api/schemas"
)

// utilityClassPrefixes mark presentational CSS classes (grid, spacing, color
// helpers) that carry no identity and are skipped when building class based
// locators.
var utilityClassPrefixes = []string{"col-", "row-", "d-", "p-", "m-", "text-", "bg-", "border-"}

// maxTextLength bounds visible-text locators; longer strings are too brittle.
const maxTextLength = 50

// Synthesizer derives a stable XPath locator for an element found on a live
// page. It walks a fixed priority chain, preferring identity attributes over
// structure, and consults the page for uniqueness counts at each step.
type Synthesizer struct {
	logger *zap.Logger
}

// NewSynthesizer constructs a Synthesizer.
func NewSynthesizer(logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{logger: logger.Named("synthesizer")}
}

// Synthesize resolves the locator against the page and emits a stable XPath
// for the first matching element. It returns schemas.ErrNoElement when the
// locator matches nothing.
func (s *Synthesizer) Synthesize(ctx context.Context, page schemas.DOMQuerier, locator string) (string, error) {
	trimmed := strings.TrimSpace(locator)
	if trimmed == "" {
		return "", schemas.ErrNoElement
	}
	info, err := page.FirstMatch(ctx, trimmed)
	if err != nil {
		return "", fmt.Errorf("resolving locator %q: %w", trimmed, err)
	}
	if info == nil {
		return "", schemas.ErrNoElement
	}
	xpath := s.locatorFor(ctx, page, trimmed, info)
	s.logger.Debug("synthesized locator",
		zap.String("input", trimmed),
		zap.String("xpath", xpath))
	return xpath, nil
}

// locatorFor runs the priority chain. Uniqueness probes that fail are treated
// as non-unique so the chain can keep degrading instead of aborting.
func (s *Synthesizer) locatorFor(ctx context.Context, page schemas.DOMQuerier, locator string, info *schemas.ElementInfo) string {
	tag := strings.ToLower(info.TagName)

	// 1. A unique id beats everything.
	if info.ID != "" {
		if s.uniqueCSS(ctx, page, fmt.Sprintf("[id=%q]", info.ID)) {
			return fmt.Sprintf("//*[@id='%s']", info.ID)
		}
		return fmt.Sprintf("//%s[@id='%s']", tag, info.ID)
	}

	// 2. Meaningful classes, with utility prefixes filtered out.
	if info.ClassName != "" {
		if meaningful := meaningfulClasses(info.ClassName); len(meaningful) > 0 {
			css := "." + strings.Join(meaningful, ".")
			if s.uniqueCSS(ctx, page, css) {
				return fmt.Sprintf("//*[@class='%s']", info.ClassName)
			}
			return fmt.Sprintf("//%s[@class='%s']", tag, info.ClassName)
		}
	}

	// 3. The first populated single identity attribute decides the locator,
	// bare when page-unique, tag-qualified otherwise.
	singles := []struct{ attr, value string }{
		{"name", info.Name},
		{"data-testid", info.DataTestID},
		{"data-id", info.DataID},
		{"href", info.Href},
		{"src", info.Src},
		{"title", info.Title},
		{"placeholder", info.Placeholder},
	}
	for _, c := range singles {
		if c.value == "" {
			continue
		}
		if s.uniqueCSS(ctx, page, fmt.Sprintf("[%s=%q]", c.attr, c.value)) {
			return fmt.Sprintf("//*[@%s='%s']", c.attr, c.value)
		}
		return fmt.Sprintf("//%s[@%s='%s']", tag, c.attr, c.value)
	}

	// 4. Short visible text.
	if text := strings.TrimSpace(info.Text); text != "" && len(text) < maxTextLength {
		if n, err := page.CountByText(ctx, text); err == nil && n == 1 {
			return fmt.Sprintf("//*[text()='%s']", text)
		}
		return fmt.Sprintf("//%s[text()='%s']", tag, text)
	}

	// 5. Compound attribute pairs.
	switch {
	case info.ClassName != "" && info.Name != "":
		return fmt.Sprintf("//%s[@class='%s' and @name='%s']", tag, info.ClassName, info.Name)
	case info.ClassName != "" && info.TypeAttr != "":
		return fmt.Sprintf("//%s[@class='%s' and @type='%s']", tag, info.ClassName, info.TypeAttr)
	case info.Name != "" && info.TypeAttr != "":
		return fmt.Sprintf("//%s[@name='%s' and @type='%s']", tag, info.Name, info.TypeAttr)
	}

	// 6-8. Single non-unique attributes, tag-qualified.
	if info.ClassName != "" {
		return fmt.Sprintf("//%s[@class='%s']", tag, info.ClassName)
	}
	if info.Name != "" {
		return fmt.Sprintf("//%s[@name='%s']", tag, info.Name)
	}
	if info.TypeAttr != "" {
		return fmt.Sprintf("//%s[@type='%s']", tag, info.TypeAttr)
	}

	// 9. Positional ancestor path, then bare-tag degradation.
	if path, err := page.PositionalPath(ctx, locator); err == nil && path != "" {
		return path
	}
	if tag != "" {
		return "//" + tag
	}
	return "//*"
}

func (s *Synthesizer) uniqueCSS(ctx context.Context, page schemas.DOMQuerier, css string) bool {
	n, err := page.CountByCSS(ctx, css)
	if err != nil {
		s.logger.Debug("uniqueness probe failed", zap.String("css", css), zap.Error(err))
		return false
	}
	return n == 1
}

func meaningfulClasses(className string) []string {
	var out []string
	for _, c := range strings.Fields(className) {
		if isUtilityClass(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isUtilityClass(class string) bool {
	for _, p := range utilityClassPrefixes {
		if strings.HasPrefix(class, p) {
			return true
		}
	}
	return false
}
