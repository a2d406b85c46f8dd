package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"github.com/chazu/gany/pkg/config"
	"github.com/chazu/gany/pkg/engine"
	"github.com/chazu/gany/pkg/kernel"
	"github.com/chazu/gany/pkg/kernel/manifold"
	"github.com/chazu/gany/pkg/kernel/sdfx"
	"github.com/chazu/gany/pkg/model"
	"github.com/chazu/gany/pkg/widget"
)

// Events exchanged with the frontend.
const (
	// MessageEvent carries a batch of widget messages to the frontend.
	MessageEvent = "gany:msg"
	// ResetEvent tells the frontend to drop every model it holds.
	ResetEvent = "gany:reset"
	// PatchEvent carries attribute changes made by the frontend.
	PatchEvent = "gany:patch"
	// ResultEvent carries the EvalResult of the startup script.
	ResultEvent = "gany:result"
	// ErrorEvent reports a rejected PatchEvent.
	ErrorEvent = "gany:error"
)

// emitter sends an event to the frontend.
type emitter func(event string, data ...any)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	cfg    config.Config
	engine *engine.Engine
	logger *zap.Logger
	emit   emitter

	mu      sync.Mutex
	manager *widget.Manager
	scene   *model.Scene
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalWarningData is a JSON-serializable validation warning.
type EvalWarningData struct {
	Model   string `json:"model"`
	Message string `json:"message"`
}

// EvalResult is returned to the frontend after an evaluation. Scene and
// ColorBars are widget ids whose models were sent as MessageEvent batches
// before Evaluate returned.
type EvalResult struct {
	Scene     string            `json:"scene"`
	ColorBars []string          `json:"colorBars"`
	Errors    []EvalErrorData   `json:"errors"`
	Warnings  []EvalWarningData `json:"warnings"`
}

// AppOption configures an App.
type AppOption func(*App)

// withEmitter replaces the Wails runtime events, for running headless.
func withEmitter(fn emitter) AppOption {
	return func(a *App) { a.emit = fn }
}

// NewApp creates an App whose engine is configured from cfg.
func NewApp(cfg config.Config, logger *zap.Logger, opts ...AppOption) (*App, error) {
	k, err := newKernel(cfg.Kernel)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:    cfg,
		logger: logger,
		engine: engine.NewEngine(
			engine.WithKernel(k),
			engine.WithBaseDir(cfg.Engine.BaseDir),
			engine.WithTimeout(cfg.EvalTimeout()),
		),
	}
	a.emit = a.runtimeEmit
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// newKernel builds the configured solid modeling backend.
func newKernel(c config.KernelConfig) (kernel.Kernel, error) {
	switch c.Backend {
	case "", config.BackendSDFX:
		return sdfx.New(sdfx.WithMeshCells(c.MeshCells)), nil
	case config.BackendManifold:
		k, err := manifold.New(manifold.WithSegments(c.Segments))
		if err != nil {
			return nil, fmt.Errorf("kernel: %w", err)
		}
		return k, nil
	}
	return nil, fmt.Errorf("kernel: unknown backend %q", c.Backend)
}

// startup is called by Wails on app startup. The context is saved for the
// runtime event calls.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	runtime.EventsOn(ctx, PatchEvent, a.onPatch)
}

// domReady evaluates the configured script once the frontend listens.
func (a *App) domReady(ctx context.Context) {
	if a.cfg.Engine.Script == "" {
		return
	}
	res := a.EvaluateFile(a.cfg.Engine.Script)
	runtime.EventsEmit(ctx, ResultEvent, res)
}

func (a *App) runtimeEmit(event string, data ...any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, data...)
}

// Send implements widget.Transport over the runtime events.
func (a *App) Send(msgs ...widget.Message) error {
	a.emit(MessageEvent, msgs)
	return nil
}

// Evaluate runs scene script source and displays the resulting scene.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) EvalResult {
	res, errs, err := a.engine.Evaluate(source)
	return a.display(res, errs, err)
}

// EvaluateFile runs the script at path. Files it loads are resolved
// against the script's directory.
func (a *App) EvaluateFile(path string) EvalResult {
	res, errs, err := a.engine.EvaluateFile(path)
	return a.display(res, errs, err)
}

func (a *App) display(res *engine.Result, evalErrs []engine.EvalError, err error) EvalResult {
	result := EvalResult{
		ColorBars: []string{},
		Errors:    []EvalErrorData{},
		Warnings:  []EvalWarningData{},
	}
	if err != nil {
		a.logger.Error("evaluation failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalWarningData{Model: w.Model, Message: w.Message})
	}

	if err := a.applySceneDefaults(res.Scene); err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Each evaluation starts from a fresh set of models.
	a.emit(ResetEvent)
	a.manager, a.scene = nil, nil
	mgr := widget.NewManager(a, widget.WithLogger(a.logger))
	id, err := mgr.Display(res.Scene)
	if err != nil {
		a.logger.Error("display failed", zap.Error(err))
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	result.Scene = id
	for _, bar := range res.ColorBars {
		barID, err := mgr.Display(bar)
		if err != nil {
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
			return result
		}
		result.ColorBars = append(result.ColorBars, barID)
	}
	a.manager = mgr
	a.scene = res.Scene
	a.logger.Debug("scene displayed",
		zap.String("scene", id),
		zap.Int("models", mgr.Len()),
		zap.Int("warnings", len(result.Warnings)))
	return result
}

// applySceneDefaults applies the configured background to a scene that
// kept the model defaults.
func (a *App) applySceneDefaults(s *model.Scene) error {
	if bg := a.cfg.Scene.Background; bg != "" && s.BackgroundColor() == model.DefaultBackgroundColor {
		if err := s.SetBackgroundColor(bg); err != nil {
			return fmt.Errorf("config: scene background: %w", err)
		}
	}
	if o, ok := a.cfg.SceneOpacity(); ok && s.BackgroundOpacity() == model.DefaultBackgroundOpacity {
		if err := s.SetBackgroundOpacity(o); err != nil {
			return fmt.Errorf("config: scene opacity: %w", err)
		}
	}
	return nil
}

// Update applies attribute changes made in the frontend to the model with
// the given id. The validated values are echoed back as an update.
func (a *App) Update(modelID string, state map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.manager == nil {
		return fmt.Errorf("update %s: no scene displayed", modelID)
	}
	if err := a.manager.Apply(modelID, state); err != nil {
		a.logger.Warn("rejected update", zap.String("model", modelID), zap.Error(err))
		return err
	}
	return nil
}

// onPatch handles PatchEvent. The payload is a message shaped like the
// ones the backend sends, with base64 buffers.
func (a *App) onPatch(data ...any) {
	for _, d := range data {
		id, state, err := decodePatch(d)
		if err != nil {
			a.logger.Warn("malformed patch", zap.Error(err))
			continue
		}
		if err := a.Update(id, state); err != nil {
			a.emit(ErrorEvent, EvalErrorData{Message: err.Error()})
		}
	}
}

func decodePatch(d any) (string, map[string]any, error) {
	msg, ok := d.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("patch: expected object, got %T", d)
	}
	id, _ := msg["model_id"].(string)
	if id == "" {
		return "", nil, fmt.Errorf("patch: missing model_id")
	}
	state, ok := msg["state"].(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("patch %s: missing state", id)
	}
	rawPaths, _ := msg["buffer_paths"].([]any)
	rawBuffers, _ := msg["buffers"].([]any)
	if len(rawPaths) != len(rawBuffers) {
		return "", nil, fmt.Errorf("patch %s: %d buffer paths for %d buffers", id, len(rawPaths), len(rawBuffers))
	}
	if len(rawPaths) == 0 {
		return id, state, nil
	}
	paths := make([][]any, len(rawPaths))
	buffers := make([][]byte, len(rawBuffers))
	for i := range rawPaths {
		p, ok := rawPaths[i].([]any)
		if !ok {
			return "", nil, fmt.Errorf("patch %s: buffer path %d is not a list", id, i)
		}
		paths[i] = p
		s, _ := rawBuffers[i].(string)
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return "", nil, fmt.Errorf("patch %s: buffer %d: %w", id, i, err)
		}
		buffers[i] = b
	}
	widget.InsertBuffers(state, paths, buffers)
	return id, state, nil
}
