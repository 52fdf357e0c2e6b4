package htmldoc

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ChartConfigAttribute carries the serialized Chart.js configuration.
const ChartConfigAttribute = "data-chart-config"

// MountChart stores config on the mount canvas and appends the inline
// bootstrap script that instantiates the chart when the page loads.
func (d *Document) MountChart(_ context.Context, mountID string, config []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, mountID)
	if n == nil {
		return fmt.Errorf("chart mount #%s not found", mountID)
	}
	setAttr(n, ChartConfigAttribute, string(config))

	id := strconv.Quote(mountID)
	script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: "(function () { var el = document.getElementById(" + id + "); " +
			"new Chart(el.getContext('2d'), JSON.parse(el.dataset.chartConfig)); })();",
	})
	insertAfter(n, script)
	return nil
}

// MountImage replaces the mount element with an <img> holding the rendered
// chart as a data URI. The id and class of the mount are kept.
func (d *Document) MountImage(_ context.Context, mountID, mime string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := byID(d.root, mountID)
	if n == nil {
		return fmt.Errorf("chart mount #%s not found", mountID)
	}
	if n.Parent == nil {
		return fmt.Errorf("chart mount #%s is detached", mountID)
	}

	img := &html.Node{Type: html.ElementNode, Data: "img", DataAtom: atom.Img}
	setAttr(img, "id", mountID)
	if class, ok := attr(n, "class"); ok {
		setAttr(img, "class", class)
	}
	setAttr(img, "alt", mountID)
	setAttr(img, "src", "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(data))

	n.Parent.InsertBefore(img, n)
	n.Parent.RemoveChild(n)
	return nil
}
