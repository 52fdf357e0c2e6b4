package htmldoc

import (
	"context"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// findInput returns the first <input> inside form #formID accepted by match.
func (d *Document) findInput(formID string, match func(*html.Node) bool) *html.Node {
	form := byID(d.root, formID)
	if form == nil {
		return nil
	}
	var found *html.Node
	walk(form, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Input && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func named(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, _ := attr(n, "name")
		return v == name
	}
}

// InputValue returns the value of input[name] inside form #formID.
func (d *Document) InputValue(_ context.Context, formID, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.findInput(formID, named(name))
	if n == nil {
		return "", false, nil
	}
	v, _ := attr(n, "value")
	return v, true, nil
}

// SetInputValue sets the value of input[name] inside form #formID.
func (d *Document) SetInputValue(_ context.Context, formID, name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.findInput(formID, named(name))
	if n == nil {
		return fmt.Errorf("input %q not found in #%s", name, formID)
	}
	setAttr(n, "value", value)
	return nil
}

// SetDateMin sets the min attribute of the form's date input. It reports
// false when the form or its date input is absent.
func (d *Document) SetDateMin(_ context.Context, formID, value string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := d.findInput(formID, func(n *html.Node) bool {
		t, _ := attr(n, "type")
		return t == "date"
	})
	if n == nil {
		return false, nil
	}
	setAttr(n, "min", value)
	return true, nil
}
