package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
)

// queryOption maps an engine locator onto a chromedp selector and query
// option. A leading '/' or '(' selects XPath matching, a "text=" prefix
// selects visible-text search, anything else is CSS.
func queryOption(locator string) (string, chromedp.QueryOption) {
	switch {
	case strings.HasPrefix(locator, "text="):
		return strings.TrimSpace(strings.TrimPrefix(locator, "text=")), chromedp.BySearch
	case strings.HasPrefix(locator, "/"), strings.HasPrefix(locator, "("), strings.HasPrefix(locator, "./"):
		return locator, chromedp.BySearch
	default:
		return locator, chromedp.ByQuery
	}
}

func jsArg(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// resolveFn is the in-page twin of queryOption, used by scripts that need the
// element object itself.
const resolveFn = `
const __resolve = (loc) => {
	if (!loc) return null;
	if (loc.startsWith('text=')) {
		const text = loc.slice(5).trim();
		const walker = document.createTreeWalker(document.body, NodeFilter.SHOW_ELEMENT);
		let node;
		while ((node = walker.nextNode())) {
			if (node.childElementCount === 0 && node.textContent && node.textContent.trim() === text) {
				return node;
			}
		}
		return null;
	}
	if (loc.startsWith('/') || loc.startsWith('(')) {
		const r = document.evaluate(loc, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
		return r.singleNodeValue;
	}
	try { return document.querySelector(loc); } catch (e) { return null; }
};`

func elementInfoScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __resolve(%s);
	if (!el) return {found: false};
	const attr = (n) => el.getAttribute(n) || '';
	return {
		found: true,
		info: {
			tagName: el.tagName.toLowerCase(),
			id: attr('id'),
			className: attr('class'),
			name: attr('name'),
			type: attr('type'),
			text: (el.textContent || '').trim(),
			href: attr('href'),
			src: attr('src'),
			title: attr('title'),
			placeholder: attr('placeholder'),
			dataTestId: attr('data-testid'),
			dataId: attr('data-id'),
		},
	};
})()`, resolveFn, jsArg(locator))
}

func countCSSScript(css string) string {
	return fmt.Sprintf(`(() => {
	try { return document.querySelectorAll(%s).length; } catch (e) { return -1; }
})()`, jsArg(css))
}

func countTextScript(text string) string {
	return fmt.Sprintf(`(() => {
	const text = %s;
	const xpath = "//*[normalize-space(text())=" + JSON.stringify(text) + "]";
	try {
		return document.evaluate('count(' + xpath + ')', document, null, XPathResult.NUMBER_TYPE, null).numberValue;
	} catch (e) { return -1; }
})()`, jsArg(text))
}

// positionalPathScript derives a rooted tag[index] path for the first match.
func positionalPathScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	let el = __resolve(%s);
	if (!el) return '';
	const parts = [];
	while (el && el.nodeType === Node.ELEMENT_NODE) {
		const tag = el.tagName.toLowerCase();
		let index = 1;
		for (let prev = el.previousElementSibling; prev; prev = prev.previousElementSibling) {
			if (prev.tagName.toLowerCase() === tag) index++;
		}
		parts.unshift(tag + '[' + index + ']');
		el = el.parentElement;
	}
	return parts.length ? '/' + parts.join('/') : '';
})()`, resolveFn, jsArg(locator))
}

func centerScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __resolve(%s);
	if (!el) return {found: false};
	const r = el.getBoundingClientRect();
	return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};
})()`, resolveFn, jsArg(locator))
}

func setSelectValueScript(locator, value string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __resolve(%[2]s);
	if (!el) return 'no element matched the locator';
	if (el.tagName.toLowerCase() !== 'select') return 'the element is not a <select>';
	el.value = %[3]s;
	if (el.value !== %[3]s) return 'no option carries that value';
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return '';
})()`, resolveFn, jsArg(locator), jsArg(value))
}
