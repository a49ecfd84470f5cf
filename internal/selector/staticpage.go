package selector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/webhand/api/schemas"
)

// StaticPage is a schemas.DOMQuerier over a parsed HTML snapshot. It lets the
// synthesizer run against fixtures and offline captures without a browser.
type StaticPage struct {
	doc *html.Node
}

// ParsePage parses an HTML document into a StaticPage.
func ParsePage(src string) (*StaticPage, error) {
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML snapshot: %w", err)
	}
	return &StaticPage{doc: doc}, nil
}

// FirstMatch implements schemas.DOMQuerier.
func (p *StaticPage) FirstMatch(_ context.Context, locator string) (*schemas.ElementInfo, error) {
	node, err := p.find(locator)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	return elementInfo(node), nil
}

// CountByCSS implements schemas.DOMQuerier for the selector shapes the
// synthesizer emits: #id, .class chains, [attr='v'], bare tags.
func (p *StaticPage) CountByCSS(_ context.Context, css string) (int, error) {
	xpath, err := cssToXPath(css)
	if err != nil {
		return 0, err
	}
	nodes, err := htmlquery.QueryAll(p.doc, xpath)
	if err != nil {
		return 0, fmt.Errorf("querying %q: %w", xpath, err)
	}
	return len(nodes), nil
}

// CountByText implements schemas.DOMQuerier.
func (p *StaticPage) CountByText(_ context.Context, text string) (int, error) {
	nodes, err := htmlquery.QueryAll(p.doc, fmt.Sprintf("//*[normalize-space(text())='%s']", text))
	if err != nil {
		return 0, fmt.Errorf("querying text %q: %w", text, err)
	}
	return len(nodes), nil
}

// PositionalPath implements schemas.DOMQuerier. It walks the ancestor chain
// of the first match and emits a 1-based tag[index] path from the root.
func (p *StaticPage) PositionalPath(_ context.Context, locator string) (string, error) {
	node, err := p.find(locator)
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", schemas.ErrNoElement
	}

	var path []string
	for n := node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if tag == "" {
			continue
		}
		// Index among preceding siblings of the same tag, 1-based.
		index := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				index++
			}
		}
		path = append(path, fmt.Sprintf("%s[%d]", tag, index))
	}
	if len(path) == 0 {
		return "", schemas.ErrNoElement
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return "/" + strings.Join(path, "/"), nil
}

// find resolves a locator in engine query convention to its first match.
func (p *StaticPage) find(locator string) (*html.Node, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return nil, nil
	}

	var xpath string
	switch {
	case strings.HasPrefix(locator, "/") || strings.HasPrefix(locator, "("):
		xpath = locator
	case strings.HasPrefix(locator, "text="):
		text := strings.TrimSpace(strings.TrimPrefix(locator, "text="))
		xpath = fmt.Sprintf("//*[normalize-space(text())='%s']", text)
	default:
		var err error
		xpath, err = cssToXPath(locator)
		if err != nil {
			return nil, err
		}
	}

	node, err := htmlquery.Query(p.doc, xpath)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", xpath, err)
	}
	return node, nil
}

var (
	cssIDRe    = regexp.MustCompile(`^#([\w-]+)$`)
	cssClassRe = regexp.MustCompile(`^(\.[\w-]+)+$`)
	cssAttrRe  = regexp.MustCompile(`^\[([\w-]+)=['"]([^'"]*)['"]\]$`)
	cssTagRe   = regexp.MustCompile(`^[a-zA-Z][\w-]*$`)
)

// cssToXPath translates the small CSS dialect used by the classifier and
// synthesizer into XPath. It is not a general CSS engine.
func cssToXPath(css string) (string, error) {
	css = strings.TrimSpace(css)
	if m := cssIDRe.FindStringSubmatch(css); m != nil {
		return fmt.Sprintf("//*[@id='%s']", m[1]), nil
	}
	if cssClassRe.MatchString(css) {
		classes := strings.Split(strings.TrimPrefix(css, "."), ".")
		preds := make([]string, 0, len(classes))
		for _, c := range classes {
			preds = append(preds, fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), ' %s ')", c))
		}
		return "//*[" + strings.Join(preds, " and ") + "]", nil
	}
	if m := cssAttrRe.FindStringSubmatch(css); m != nil {
		return fmt.Sprintf("//*[@%s='%s']", m[1], m[2]), nil
	}
	if cssTagRe.MatchString(css) {
		return "//" + strings.ToLower(css), nil
	}
	return "", fmt.Errorf("unsupported CSS selector %q", css)
}

// elementInfo flattens an element node into the attribute bundle the
// synthesizer consumes.
func elementInfo(n *html.Node) *schemas.ElementInfo {
	return &schemas.ElementInfo{
		TagName:     strings.ToLower(n.Data),
		ID:          htmlquery.SelectAttr(n, "id"),
		ClassName:   htmlquery.SelectAttr(n, "class"),
		Name:        htmlquery.SelectAttr(n, "name"),
		TypeAttr:    htmlquery.SelectAttr(n, "type"),
		Text:        strings.TrimSpace(htmlquery.InnerText(n)),
		Href:        htmlquery.SelectAttr(n, "href"),
		Src:         htmlquery.SelectAttr(n, "src"),
		Title:       htmlquery.SelectAttr(n, "title"),
		Placeholder: htmlquery.SelectAttr(n, "placeholder"),
		DataTestID:  htmlquery.SelectAttr(n, "data-testid"),
		DataID:      htmlquery.SelectAttr(n, "data-id"),
	}
}
