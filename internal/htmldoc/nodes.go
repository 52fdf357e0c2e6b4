package htmldoc

import (
	"strings"

	"golang.org/x/net/html"
)

// walk visits n and its descendants depth-first. fn returns false to skip a
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func byID(root *html.Node, id string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

func byClass(root *html.Node, class string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func setText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func classes(n *html.Node) []string {
	v, _ := attr(n, "class")
	return strings.Fields(v)
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

func addClass(n *html.Node, class string) {
	if class == "" || hasClass(n, class) {
		return
	}
	setAttr(n, "class", strings.Join(append(classes(n), class), " "))
}

func removeClass(n *html.Node, class string) {
	cs := classes(n)
	kept := cs[:0]
	for _, c := range cs {
		if c != class {
			kept = append(kept, c)
		}
	}
	if _, ok := attr(n, "class"); ok {
		setAttr(n, "class", strings.Join(kept, " "))
	}
}

// closest mirrors Element.closest for a single class: n itself counts.
func closest(n *html.Node, class string) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && hasClass(p, class) {
			return p
		}
	}
	return nil
}

type declaration struct {
	prop, value string
}

func parseStyle(s string) []declaration {
	var out []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

func formatStyle(decls []declaration) string {
	parts := make([]string, len(decls))
	for i, d := range decls {
		parts[i] = d.prop + ": " + d.value
	}
	return strings.Join(parts, "; ") + ";"
}

func setStyle(n *html.Node, prop, value string) {
	current, _ := attr(n, "style")
	decls := parseStyle(current)
	replaced := false
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, declaration{prop: prop, value: value})
	}
	setAttr(n, "style", formatStyle(decls))
}

func styleProperty(n *html.Node, prop string) (string, bool) {
	current, _ := attr(n, "style")
	var (
		value string
		found bool
	)
	for _, d := range parseStyle(current) {
		if d.prop == prop {
			value, found = d.value, true
		}
	}
	return value, found
}

func insertAfter(ref, n *html.Node) {
	if ref.Parent == nil {
		return
	}
	ref.Parent.InsertBefore(n, ref.NextSibling)
}
