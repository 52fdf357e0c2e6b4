package charts

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// fakePage is an in-memory Source and ErrorSurface.
type fakePage struct {
	mu      sync.Mutex
	globals map[string]string
	attrs   map[string]map[string]string
	texts   map[string]string
	shown   map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		globals: map[string]string{},
		attrs:   map[string]map[string]string{},
		texts:   map[string]string{},
		shown:   map[string]string{},
	}
}

func (p *fakePage) setAttr(id, name, value string) {
	if p.attrs[id] == nil {
		p.attrs[id] = map[string]string{}
	}
	p.attrs[id][name] = value
}

func (p *fakePage) Global(_ context.Context, name string) (json.RawMessage, bool, error) {
	v, ok := p.globals[name]
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(v), true, nil
}

func (p *fakePage) Attribute(_ context.Context, id, name string) (string, bool, error) {
	v, ok := p.attrs[id][name]
	return v, ok, nil
}

func (p *fakePage) Text(_ context.Context, id string) (string, bool, error) {
	v, ok := p.texts[id]
	return v, ok, nil
}

func (p *fakePage) ShowError(_ context.Context, id, msg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown[id] = msg
	return nil
}

// recordingRenderer captures every descriptor it is handed.
type recordingRenderer struct {
	mu    sync.Mutex
	calls []Descriptor
	fail  map[string]error
}

func (r *recordingRenderer) Render(_ context.Context, d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[d.MountID]; err != nil {
		return err
	}
	r.calls = append(r.calls, d)
	return nil
}

func (r *recordingRenderer) byMount(id string) []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Descriptor
	for _, d := range r.calls {
		if d.MountID == id {
			out = append(out, d)
		}
	}
	return out
}

var errBoom = errors.New("boom")
