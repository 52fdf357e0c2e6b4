package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"lessonpanel/internal/notify"
)

// LivePage runs page operations in a live browser tab. It satisfies the
// chart loader's source, error surface, and mount capabilities, the
// notification view and binder, and the booking form.
type LivePage struct {
	page         *rod.Page
	logger       *zap.Logger
	pollInterval time.Duration
}

// PageOption configures a LivePage.
type PageOption func(*LivePage)

// WithPageLogger sets the diagnostic logger.
func WithPageLogger(logger *zap.Logger) PageOption {
	return func(p *LivePage) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPollInterval sets how often queued clicks are drained.
func WithPollInterval(d time.Duration) PageOption {
	return func(p *LivePage) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// NewLivePage wraps a Rod page.
func NewLivePage(page *rod.Page, opts ...PageOption) *LivePage {
	p := &LivePage{page: page, logger: zap.NewNop(), pollInterval: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LivePage) eval(ctx context.Context, js string, args ...interface{}) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           js,
		JSArgs:       args,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return gson.JSON{}, err
	}
	if res == nil {
		return gson.JSON{}, fmt.Errorf("empty evaluation result")
	}
	return res.Value, nil
}

func decode(v gson.JSON, out interface{}) error {
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// Global serializes a window property. An undefined property is absent.
func (p *LivePage) Global(ctx context.Context, name string) (json.RawMessage, bool, error) {
	v, err := p.eval(ctx, `(name) => {
		if (!(name in window) || window[name] === undefined) return {defined: false};
		try {
			const json = JSON.stringify(window[name]);
			return {defined: true, json: json === undefined ? String(window[name]) : json};
		} catch (e) {
			return {defined: true, json: String(e)};
		}
	}`, name)
	if err != nil {
		return nil, false, fmt.Errorf("read window.%s: %w", name, err)
	}
	var out struct {
		Defined bool   `json:"defined"`
		JSON    string `json:"json"`
	}
	if err := decode(v, &out); err != nil {
		return nil, false, err
	}
	if !out.Defined {
		return nil, false, nil
	}
	return json.RawMessage(out.JSON), true, nil
}

// Attribute returns an attribute of the element with the given id.
func (p *LivePage) Attribute(ctx context.Context, elementID, name string) (string, bool, error) {
	v, err := p.eval(ctx, `(id, name) => {
		const el = document.getElementById(id);
		if (!el || !el.hasAttribute(name)) return null;
		return el.getAttribute(name);
	}`, elementID, name)
	if err != nil {
		return "", false, fmt.Errorf("read #%s[%s]: %w", elementID, name, err)
	}
	if v.Nil() {
		return "", false, nil
	}
	return v.Str(), true, nil
}

// Text returns the text content of the element with the given id.
func (p *LivePage) Text(ctx context.Context, elementID string) (string, bool, error) {
	v, err := p.eval(ctx, `(id) => {
		const el = document.getElementById(id);
		return el ? el.textContent : null;
	}`, elementID)
	if err != nil {
		return "", false, fmt.Errorf("read #%s text: %w", elementID, err)
	}
	if v.Nil() {
		return "", false, nil
	}
	return v.Str(), true, nil
}

// ShowError writes message into the element and makes it visible.
func (p *LivePage) ShowError(ctx context.Context, elementID, message string) error {
	v, err := p.eval(ctx, `(id, msg) => {
		const el = document.getElementById(id);
		if (!el) return false;
		el.textContent = msg;
		el.style.display = 'block';
		return true;
	}`, elementID, message)
	if err != nil {
		return fmt.Errorf("show error in #%s: %w", elementID, err)
	}
	if !v.Bool() {
		return fmt.Errorf("error element #%s not found", elementID)
	}
	return nil
}

// MountChart instantiates a Chart.js chart on the mount canvas.
func (p *LivePage) MountChart(ctx context.Context, mountID string, config []byte) error {
	v, err := p.eval(ctx, `(id, cfg) => {
		const el = document.getElementById(id);
		if (!el) return 'mount not found';
		if (typeof Chart === 'undefined') return 'Chart.js is not loaded';
		const existing = Chart.getChart ? Chart.getChart(el) : null;
		if (existing) existing.destroy();
		new Chart(el.getContext('2d'), JSON.parse(cfg));
		return '';
	}`, mountID, string(config))
	if err != nil {
		return fmt.Errorf("mount chart #%s: %w", mountID, err)
	}
	if msg := v.Str(); msg != "" {
		return fmt.Errorf("mount chart #%s: %s", mountID, msg)
	}
	return nil
}

// MountImage replaces the mount element with an image.
func (p *LivePage) MountImage(ctx context.Context, mountID, mime string, data []byte) error {
	src := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	v, err := p.eval(ctx, `(id, src) => {
		const el = document.getElementById(id);
		if (!el || !el.parentNode) return false;
		const img = document.createElement('img');
		img.id = id;
		img.className = el.className;
		img.alt = id;
		img.src = src;
		el.parentNode.replaceChild(img, el);
		return true;
	}`, mountID, src)
	if err != nil {
		return fmt.Errorf("mount image #%s: %w", mountID, err)
	}
	if !v.Bool() {
		return fmt.Errorf("chart mount #%s not found", mountID)
	}
	return nil
}

// Controls lists the notification ids of every mark-read control.
func (p *LivePage) Controls(ctx context.Context) ([]string, error) {
	v, err := p.eval(ctx, `(cls, attr) => Array.from(document.getElementsByClassName(cls))
		.filter(el => el.hasAttribute(attr))
		.map(el => el.getAttribute(attr))`, notify.ControlClass, notify.IDAttribute)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	var ids []string
	if err := decode(v, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// ApplyRead applies a to every control for notification id.
func (p *LivePage) ApplyRead(ctx context.Context, id string, a notify.Appearance) error {
	v, err := p.eval(ctx, `(cls, item, attr, id, a) => {
		let n = 0;
		for (const el of document.getElementsByClassName(cls)) {
			if (el.getAttribute(attr) !== id) continue;
			const container = el.closest('.' + item);
			if (container && a.Opacity) container.style.opacity = a.Opacity;
			if (a.Label) el.textContent = a.Label;
			if (a.RemoveClass) el.classList.remove(a.RemoveClass);
			if (a.AddClass) el.classList.add(a.AddClass);
			if (a.Disable) el.disabled = true;
			n++;
		}
		return n;
	}`, notify.ControlClass, notify.ItemClass, notify.IDAttribute, id, a)
	if err != nil {
		return fmt.Errorf("apply read to %s: %w", id, err)
	}
	if v.Int() == 0 {
		return fmt.Errorf("no control for notification %s", id)
	}
	return nil
}

// clickHookJS installs the capture-phase click listener once per document
// and drains the ids queued since the last call.
const clickHookJS = `(cls, attr) => {
	const w = window;
	if (!w.__lessonpanelHooked) {
		w.__lessonpanelHooked = true;
		w.__lessonpanelClicks = [];
		document.addEventListener('click', (ev) => {
			const el = ev.target && ev.target.closest ? ev.target.closest('.' + cls) : null;
			if (!el) return;
			ev.preventDefault();
			ev.stopPropagation();
			w.__lessonpanelClicks.push(el.getAttribute(attr) || '');
		}, true);
	}
	const queued = w.__lessonpanelClicks;
	w.__lessonpanelClicks = [];
	return queued;
}`

// BindControls captures clicks on mark-read controls and hands each id to
// handler in click order. The default navigation is suppressed. The hook is
// reinstalled after a navigation replaces the document.
func (p *LivePage) BindControls(ctx context.Context, handler func(id string)) (func() error, error) {
	drain := func(ctx context.Context) error {
		return p.drain(ctx, handler, clickHookJS, notify.ControlClass, notify.IDAttribute)
	}
	if err := drain(ctx); err != nil {
		return nil, fmt.Errorf("install click hook: %w", err)
	}
	return p.poll(ctx, "clicks", drain), nil
}

// inputHookJS installs one change listener per form input and drains the
// values queued since the last call.
const inputHookJS = `(form, name) => {
	const w = window;
	const key = form + '/' + name;
	w.__lessonpanelInputs = w.__lessonpanelInputs || {};
	if (!w.__lessonpanelInputs[key]) {
		w.__lessonpanelInputs[key] = [];
		document.addEventListener('change', (ev) => {
			const el = ev.target;
			if (!el || el.name !== name || !el.form || el.form.id !== form) return;
			w.__lessonpanelInputs[key].push(el.value);
		}, true);
	}
	const queued = w.__lessonpanelInputs[key];
	w.__lessonpanelInputs[key] = [];
	return queued;
}`

// WatchInput reports each committed value of input[name] in form #formID.
func (p *LivePage) WatchInput(ctx context.Context, formID, name string, handler func(value string)) (func() error, error) {
	drain := func(ctx context.Context) error {
		return p.drain(ctx, handler, inputHookJS, formID, name)
	}
	if err := drain(ctx); err != nil {
		return nil, fmt.Errorf("install change hook on %s.%s: %w", formID, name, err)
	}
	return p.poll(ctx, formID+"."+name, drain), nil
}

// poll runs drain every pollInterval until the returned stop is called or
// ctx ends.
func (p *LivePage) poll(ctx context.Context, what string, drain func(context.Context) error) func() error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := drain(ctx); err != nil && ctx.Err() == nil {
					p.logger.Debug("drain page events", zap.String("hook", what), zap.Error(err))
				}
			}
		}
	}()

	return func() error {
		cancel()
		wg.Wait()
		return nil
	}
}

// drain evaluates a hook that returns the queued strings and feeds them to
// handler in order.
func (p *LivePage) drain(ctx context.Context, handler func(string), js string, args ...interface{}) error {
	v, err := p.eval(ctx, js, args...)
	if err != nil {
		return err
	}
	var queued []string
	if err := decode(v, &queued); err != nil {
		return err
	}
	for _, s := range queued {
		handler(s)
	}
	return nil
}

// InputValue returns the value of input[name] inside form #formID.
func (p *LivePage) InputValue(ctx context.Context, formID, name string) (string, bool, error) {
	v, err := p.eval(ctx, `(form, name) => {
		const f = document.getElementById(form);
		const el = f ? f.querySelector('input[name="' + CSS.escape(name) + '"]') : null;
		return el ? el.value : null;
	}`, formID, name)
	if err != nil {
		return "", false, fmt.Errorf("read %s.%s: %w", formID, name, err)
	}
	if v.Nil() {
		return "", false, nil
	}
	return v.Str(), true, nil
}

// SetInputValue sets the value of input[name] inside form #formID.
func (p *LivePage) SetInputValue(ctx context.Context, formID, name, value string) error {
	v, err := p.eval(ctx, `(form, name, value) => {
		const f = document.getElementById(form);
		const el = f ? f.querySelector('input[name="' + CSS.escape(name) + '"]') : null;
		if (!el) return false;
		el.value = value;
		return true;
	}`, formID, name, value)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", formID, name, err)
	}
	if !v.Bool() {
		return fmt.Errorf("input %q not found in #%s", name, formID)
	}
	return nil
}

// SetDateMin sets the min attribute of the form's date input.
func (p *LivePage) SetDateMin(ctx context.Context, formID, value string) (bool, error) {
	v, err := p.eval(ctx, `(form, value) => {
		const f = document.getElementById(form);
		const el = f ? f.querySelector('input[type="date"]') : null;
		if (!el) return false;
		el.min = value;
		return true;
	}`, formID, value)
	if err != nil {
		return false, fmt.Errorf("set %s date min: %w", formID, err)
	}
	return v.Bool(), nil
}
