package executor

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// jsArg encodes a Go string as a JavaScript string literal.
func jsArg(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

// findFn resolves an engine locator inside the page. It mirrors the locator
// convention of the driver: "text=" prefix for visible text, a leading '/' or
// '(' for XPath, CSS otherwise. Fallback scripts must locate their target
// independently of the driver's query machinery.
const findFn = `
const __find = (loc) => {
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

// Scripted fallbacks never throw for missing elements; they return an
// "Error:" prefixed string that the coordinator converts into a strategy
// failure.

func clickScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted click on ' + %[2]s + '.';
	el.click();
	return 'Executed a scripted click on the element with selector ' + %[2]s + '.';
})()`, findFn, jsArg(locator))
}

func doubleClickScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted double click on ' + %[2]s + '.';
	el.dispatchEvent(new MouseEvent('dblclick', {bubbles: true, cancelable: true}));
	return 'Executed a scripted double click on the element with selector ' + %[2]s + '.';
})()`, findFn, jsArg(locator))
}

func typeScript(locator, text string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted typing on ' + %[2]s + '.';
	el.focus();
	if ('value' in el) {
		el.value = %[3]s;
	} else if (el.isContentEditable) {
		el.textContent = %[3]s;
	} else {
		return 'Error: the element with selector ' + %[2]s + ' does not accept text input.';
	}
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return 'Set the value of the element with selector ' + %[2]s + ' via script.';
})()`, findFn, jsArg(locator), jsArg(text))
}

func selectValueScript(locator, value string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted select on ' + %[2]s + '.';
	if (el.tagName.toLowerCase() !== 'select') {
		return 'Error: the element with selector ' + %[2]s + ' is not a <select>.';
	}
	el.value = %[3]s;
	if (el.value !== %[3]s) {
		return 'Error: no option with value ' + %[3]s + ' exists in the dropdown.';
	}
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return 'Selected the option with value ' + %[3]s + ' via script.';
})()`, findFn, jsArg(locator), jsArg(value))
}

func hoverScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted hover on ' + %[2]s + '.';
	el.dispatchEvent(new MouseEvent('mouseover', {bubbles: true}));
	el.dispatchEvent(new MouseEvent('mouseenter', {bubbles: false}));
	return 'Dispatched scripted hover events on the element with selector ' + %[2]s + '.';
})()`, findFn, jsArg(locator))
}

func submitScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted submit on ' + %[2]s + '.';
	const tag = el.tagName.toLowerCase();
	if (tag === 'form') {
		el.submit();
		return 'Submitted the form with selector ' + %[2]s + ' via script.';
	}
	if (tag === 'button' || (tag === 'input' && (el.type === 'submit' || el.type === 'image'))) {
		el.click();
		return 'Clicked the submit control with selector ' + %[2]s + ' via script.';
	}
	let p = el.parentElement;
	while (p) {
		if (p.tagName.toLowerCase() === 'form') {
			p.submit();
			return 'Submitted the form enclosing the element with selector ' + %[2]s + ' via script.';
		}
		p = p.parentElement;
	}
	return 'Error: no form found to submit for selector ' + %[2]s + '.';
})()`, findFn, jsArg(locator))
}

// dragAndDropScript emulates the HTML5 drag event sequence with a shared
// DataTransfer, which drives most JS drag libraries when real pointer drags
// do not register.
func dragAndDropScript(source, target string) string {
	return fmt.Sprintf(`(() => {%s
	const src = __find(%[2]s);
	const dst = __find(%[3]s);
	if (!src) return 'Error: drag source ' + %[2]s + ' not found.';
	if (!dst) return 'Error: drop target ' + %[3]s + ' not found.';
	const dt = new DataTransfer();
	const fire = (el, type) => el.dispatchEvent(new DragEvent(type, {bubbles: true, cancelable: true, dataTransfer: dt}));
	fire(src, 'dragstart');
	fire(dst, 'dragenter');
	fire(dst, 'dragover');
	fire(dst, 'drop');
	fire(src, 'dragend');
	return 'Executed a scripted drag of ' + %[2]s + ' onto ' + %[3]s + '.';
})()`, findFn, jsArg(source), jsArg(target))
}

func dropDownOptionsScript(locator string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el || el.tagName.toLowerCase() !== 'select') return [];
	return Array.from(el.options).map((o, i) => ({value: o.value, text: o.text, index: i}));
})()`, findFn, jsArg(locator))
}

func selectOptionByTextScript(locator, text string) string {
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for selector ' + %[2]s + '.';
	if (el.tagName.toLowerCase() !== 'select') {
		return 'Error: the element with selector ' + %[2]s + ' is not a <select>.';
	}
	const wanted = %[3]s.trim();
	const opt = Array.from(el.options).find(o => o.text.trim() === wanted);
	if (!opt) return 'Error: no option with text ' + %[3]s + ' exists in the dropdown.';
	el.value = opt.value;
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return 'Selected the option with text ' + %[3]s + '.';
})()`, findFn, jsArg(locator), jsArg(text))
}

func scrollElementScript(locator, value string, up bool) string {
	direction := 1
	if up {
		direction = -1
	}
	return fmt.Sprintf(`(() => {%s
	const el = __find(%[2]s);
	if (!el) return 'Error: no element found for scripted scroll on ' + %[2]s + '.';
	const value = %[3]s;
	if (value === 'top') { el.scrollTop = 0; return 'Scrolled the element to its top.'; }
	if (value === 'bottom') { el.scrollTop = el.scrollHeight; return 'Scrolled the element to its bottom.'; }
	const amount = parseFloat(value);
	if (!isNaN(amount)) {
		el.scrollBy(0, %[4]d * amount);
		return 'Scrolled the element by ' + amount + ' pixels.';
	}
	el.scrollIntoView({block: 'center'});
	return 'Scrolled the element into view.';
})()`, findFn, jsArg(locator), jsArg(value), direction)
}

func scrollWindowScript(value string, up bool) string {
	direction := 1
	if up {
		direction = -1
	}
	return fmt.Sprintf(`(() => {
	const value = %[1]s;
	if (value === 'top') { window.scrollTo(0, 0); return 'Scrolled the window to the top.'; }
	if (value === 'bottom') { window.scrollTo(0, document.body.scrollHeight); return 'Scrolled the window to the bottom.'; }
	const amount = parseFloat(value);
	if (!isNaN(amount)) {
		window.scrollBy(0, %[2]d * amount);
		return 'Scrolled the window by ' + amount + ' pixels.';
	}
	window.scrollBy(0, %[2]d * Math.round(window.innerHeight * 0.8));
	return 'Scrolled the window by most of one viewport.';
})()`, jsArg(value), direction)
}
