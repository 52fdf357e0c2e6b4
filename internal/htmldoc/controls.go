package htmldoc

import (
	"context"
	"fmt"

	"lessonpanel/internal/notify"
)

// Controls lists the notification ids of every mark-read control, in
// document order.
func (d *Document) Controls(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for _, n := range byClass(d.root, notify.ControlClass) {
		if id, ok := attr(n, notify.IDAttribute); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ApplyRead applies a to every control for notification id.
func (d *Document) ApplyRead(_ context.Context, id string, a notify.Appearance) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	applied := 0
	for _, n := range byClass(d.root, notify.ControlClass) {
		if v, _ := attr(n, notify.IDAttribute); v != id {
			continue
		}
		if item := closest(n, notify.ItemClass); item != nil && a.Opacity != "" {
			setStyle(item, "opacity", a.Opacity)
		}
		if a.Label != "" {
			setText(n, a.Label)
		}
		if a.RemoveClass != "" {
			removeClass(n, a.RemoveClass)
		}
		addClass(n, a.AddClass)
		if a.Disable {
			setAttr(n, "disabled", "")
		}
		applied++
	}
	if applied == 0 {
		return fmt.Errorf("no control for notification %s", id)
	}
	return nil
}

// ControlState reports the visible state of the first control for id.
type ControlState struct {
	Opacity  string
	Label    string
	Classes  []string
	Disabled bool
}

// Control returns the state of the first control for notification id.
func (d *Document) Control(id string) (ControlState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range byClass(d.root, notify.ControlClass) {
		if v, _ := attr(n, notify.IDAttribute); v != id {
			continue
		}
		st := ControlState{Label: textContent(n), Classes: classes(n)}
		_, st.Disabled = attr(n, "disabled")
		if item := closest(n, notify.ItemClass); item != nil {
			st.Opacity, _ = styleProperty(item, "opacity")
		}
		return st, true
	}
	return ControlState{}, false
}
