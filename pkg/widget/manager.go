package widget

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chazu/gany/pkg/errors"
	"github.com/chazu/gany/pkg/model"
)

// RefPrefix marks a widget reference inside a state.
const RefPrefix = "IPY_MODEL_"

// Message methods.
const (
	MethodOpen   = "open"
	MethodUpdate = "update"
)

// Message is one unit sent to the peer.
type Message struct {
	Method      string         `json:"method"`
	ModelID     string         `json:"model_id"`
	State       map[string]any `json:"state"`
	BufferPaths [][]any        `json:"buffer_paths,omitempty"`
	Buffers     [][]byte       `json:"buffers,omitempty"`
}

// Transport delivers batches of messages to the peer.
type Transport interface {
	Send(msgs ...Message) error
}

var (
	_ model.Encoder  = (*Manager)(nil)
	_ model.Observer = (*Manager)(nil)
)

// Manager tracks displayed models and pushes their changes.
type Manager struct {
	transport Transport
	logger    *zap.Logger
	newID     func() string

	ids     map[model.Widget]string
	widgets map[string]model.Widget

	holding int
	batch   []Message
	fresh   []model.Widget // opened by the running Display
	pending map[model.Widget][]string
	order   []model.Widget
	err     error
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithIDGenerator replaces the random widget id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// NewManager creates a manager sending through t.
func NewManager(t Transport, opts ...Option) *Manager {
	m := &Manager{
		transport: t,
		logger:    zap.NewNop(),
		newID:     newUUID,
		ids:       make(map[model.Widget]string),
		widgets:   make(map[string]model.Widget),
		pending:   make(map[model.Widget][]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ID returns the widget id of w, or "" if w was never opened.
func (m *Manager) ID(w model.Widget) string { return m.ids[w] }

// Widget returns the widget with the given id.
func (m *Manager) Widget(id string) (model.Widget, bool) {
	w, ok := m.widgets[id]
	return w, ok
}

// Len returns the number of open widgets.
func (m *Manager) Len() int { return len(m.widgets) }

// Ref implements model.Encoder. Only opened widgets can be referenced.
func (m *Manager) Ref(w model.Widget) (string, error) {
	id, ok := m.ids[w]
	if !ok {
		return "", errors.New(errors.KindNotFound).
			Op("widget.ref").
			Detail("%s has not been opened", w.Spec().ModelName).
			Build()
	}
	return RefPrefix + id, nil
}

// Display opens w and everything it references, then returns the id of w.
// Widgets that are already open are not sent again.
func (m *Manager) Display(w model.Widget) (string, error) {
	saved := m.batch
	m.batch, m.fresh = nil, nil
	if err := m.open(w); err != nil {
		for _, f := range m.fresh {
			delete(m.widgets, m.ids[f])
			delete(m.ids, f)
		}
		m.batch, m.fresh = saved, nil
		return "", err
	}
	m.batch, m.fresh = append(saved, m.batch...), nil
	if m.holding == 0 {
		if err := m.flush(); err != nil {
			return "", err
		}
	}
	return m.ids[w], nil
}

// open queues open messages for w and its unopened references, children
// first.
func (m *Manager) open(w model.Widget) error {
	if _, ok := m.ids[w]; ok {
		return nil
	}
	// Reserve the id first so reference cycles terminate.
	id := m.newID()
	m.ids[w] = id
	m.widgets[id] = w
	m.fresh = append(m.fresh, w)

	for _, ref := range w.Refs() {
		if err := m.open(ref); err != nil {
			return err
		}
	}

	state, err := w.WireState(m)
	if err != nil {
		return fmt.Errorf("widget: open %s: %w", w.Spec().ModelName, err)
	}
	addSpec(state, w.Spec())
	m.batch = append(m.batch, newMessage(MethodOpen, id, state))
	w.Attach(m)

	m.logger.Debug("widget opened",
		zap.String("model", w.Spec().ModelName),
		zap.String("id", id),
	)
	return nil
}

func addSpec(state map[string]any, s model.Spec) {
	state["_model_name"] = s.ModelName
	state["_model_module"] = s.Module
	state["_model_module_version"] = s.ModuleVersion
	if s.ViewName != "" {
		state["_view_name"] = s.ViewName
		state["_view_module"] = s.Module
		state["_view_module_version"] = s.ModuleVersion
	}
}

func newMessage(method, id string, state map[string]any) Message {
	clean, paths, buffers := removeBuffers(state)
	return Message{
		Method:      method,
		ModelID:     id,
		State:       clean,
		BufferPaths: paths,
		Buffers:     buffers,
	}
}

// Changed implements model.Observer.
func (m *Manager) Changed(w model.Widget, attrs ...string) {
	if _, ok := m.ids[w]; !ok {
		return
	}
	if _, ok := m.pending[w]; !ok {
		m.order = append(m.order, w)
	}
	m.pending[w] = append(m.pending[w], attrs...)
	if m.holding == 0 {
		if err := m.flush(); err != nil {
			m.logger.Error("widget update failed", zap.Error(err))
		}
	}
}

// Hold implements model.Observer. Changes made by fn are sent as one
// batch when the outermost Hold returns.
// A panic in fn still releases the hold.
func (m *Manager) Hold(fn func() error) (err error) {
	m.holding++
	defer func() {
		m.holding--
		if m.holding > 0 {
			return
		}
		if ferr := m.flush(); err == nil {
			err = ferr
		}
	}()
	return fn()
}

func (m *Manager) flush() error {
	for _, w := range m.order {
		attrs := dedupe(m.pending[w])
		delete(m.pending, w)
		if err := m.update(w, attrs); err != nil {
			m.err = err
		}
	}
	m.order = m.order[:0]
	m.fresh = nil

	err := m.err
	m.err = nil
	if len(m.batch) == 0 {
		return err
	}
	batch := m.batch
	m.batch = nil
	if serr := m.transport.Send(batch...); serr != nil {
		return fmt.Errorf("widget: send: %w", serr)
	}
	return err
}

func (m *Manager) update(w model.Widget, attrs []string) error {
	// New references (a child added to a scene) must exist on the peer
	// before the update that points at them.
	for _, ref := range w.Refs() {
		if err := m.open(ref); err != nil {
			return err
		}
	}
	full, err := w.WireState(m)
	if err != nil {
		return fmt.Errorf("widget: update %s: %w", w.Spec().ModelName, err)
	}
	state := make(map[string]any, len(attrs))
	for _, a := range attrs {
		if v, ok := full[a]; ok {
			state[a] = v
		}
	}
	if len(state) == 0 {
		return nil
	}
	m.batch = append(m.batch, newMessage(MethodUpdate, m.ids[w], state))
	m.logger.Debug("widget updated",
		zap.String("model", w.Spec().ModelName),
		zap.Strings("attrs", attrs),
	)
	return nil
}

func dedupe(attrs []string) []string {
	seen := make(map[string]bool, len(attrs))
	out := attrs[:0]
	for _, a := range attrs {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// Apply sets attributes received from the peer. Attributes are applied in
// name order inside one Hold; the resulting state is echoed back so the
// peer sees the validated values. The first failing attribute aborts the
// remaining ones.
func (m *Manager) Apply(id string, patch map[string]any) error {
	w, ok := m.widgets[id]
	if !ok {
		return errors.NotFound("widget.apply", id)
	}
	p, ok := w.(model.Patchable)
	if !ok {
		return errors.InvalidInput("widget.apply", id, "%s does not accept updates", w.Spec().ModelName)
	}
	keys := sortedKeys(patch)
	return m.Hold(func() error {
		for _, k := range keys {
			if err := p.ApplyWire(k, patch[k]); err != nil {
				return fmt.Errorf("widget: apply %s.%s: %w", w.Spec().ModelName, k, err)
			}
		}
		return nil
	})
}
