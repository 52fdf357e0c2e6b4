// Package htmldoc is the static page backend: a server-rendered HTML document
// parsed into memory, enhanced in place and serialized back out. It serves
// the chart loader, the chart renderers, the notification updater and the
// booking form assist with the same node tree.
package htmldoc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a mutable HTML page. It is safe for concurrent use.
type Document struct {
	mu   sync.Mutex
	root *html.Node
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML page held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the current document.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.root)
}

// String renders the document, returning "" on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Global returns the JSON value assigned to a page variable by an inline
// script: `window.name = ...`, or `var|let|const name = ...`. Comparisons
// such as `window.name === undefined` are not assignments. When the variable
// is assigned more than once the last JSON assignment wins, so a later
// `let name = window.name;` does not hide the injected value. If no
// assignment holds JSON the last one is returned as written so the caller
// can report it.
func (d *Document) Global(_ context.Context, name string) (json.RawMessage, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	re, err := assignmentPattern(name)
	if err != nil {
		return nil, false, err
	}

	var lastJSON, lastRaw json.RawMessage
	walk(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Script {
			return true
		}
		if _, external := attr(n, "src"); external {
			return false
		}
		if typ, ok := attr(n, "type"); ok && !isJavaScriptType(typ) {
			return false
		}
		src := textContent(n)
		for _, loc := range re.FindAllStringIndex(src, -1) {
			rest := src[loc[1]:]
			if strings.HasPrefix(rest, "=") {
				continue
			}
			value, isJSON := readValue(rest)
			if isJSON {
				lastJSON = value
			} else {
				lastRaw = value
			}
		}
		return false
	})
	switch {
	case lastJSON != nil:
		return lastJSON, true, nil
	case lastRaw != nil:
		return lastRaw, true, nil
	}
	return nil, false, nil
}

// assignmentPattern matches up to and including the "=" of an assignment.
// The caller rejects matches followed by another "=".
func assignmentPattern(name string) (*regexp.Regexp, error) {
	if name == "" {
		return nil, fmt.Errorf("empty variable name")
	}
	q := regexp.QuoteMeta(name)
	return regexp.Compile(`(?:\bwindow\.` + q + `|\b(?:var|let|const)\s+` + q + `)\s*=`)
}

func isJavaScriptType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// readValue takes the JSON value at the start of src, or the raw statement
// text up to the next semicolon or line break if it is not JSON.
func readValue(src string) (json.RawMessage, bool) {
	src = strings.TrimLeft(src, " \t\r\n")
	var raw json.RawMessage
	if err := json.NewDecoder(strings.NewReader(src)).Decode(&raw); err == nil {
		return raw, true
	}
	end := strings.IndexAny(src, ";\n")
	if end < 0 {
		end = len(src)
	}
	return json.RawMessage(strings.TrimSpace(src[:end])), false
}

// Attribute returns an attribute of the element with the given id.
func (d *Document) Attribute(_ context.Context, elementID, name string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, elementID)
	if n == nil {
		return "", false, nil
	}
	v, ok := attr(n, name)
	return v, ok, nil
}

// Text returns the text content of the element with the given id.
func (d *Document) Text(_ context.Context, elementID string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, elementID)
	if n == nil {
		return "", false, nil
	}
	return textContent(n), true, nil
}

// ShowError writes message into the element and makes it visible.
func (d *Document) ShowError(_ context.Context, elementID, message string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, elementID)
	if n == nil {
		return fmt.Errorf("error element #%s not found", elementID)
	}
	setText(n, message)
	setStyle(n, "display", "block")
	return nil
}

// Style returns one inline style property of the element with the given id.
func (d *Document) Style(elementID, property string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, elementID)
	if n == nil {
		return "", false
	}
	return styleProperty(n, property)
}
