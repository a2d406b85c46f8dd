package main

import (
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/chazu/gany/pkg/config"
	"github.com/chazu/gany/pkg/kernel/sdfx"
	"github.com/chazu/gany/pkg/widget"
)

// events records what the App emits to the frontend.
type events struct {
	mu     sync.Mutex
	names  []string
	msgs   []widget.Message
	errors []EvalErrorData
}

func (e *events) emit(name string, data ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.names = append(e.names, name)
	for _, d := range data {
		switch v := d.(type) {
		case []widget.Message:
			e.msgs = append(e.msgs, v...)
		case EvalErrorData:
			e.errors = append(e.errors, v)
		}
	}
}

// opened returns the ids of the opened models with the given model name.
func (e *events) opened(modelName string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for _, m := range e.msgs {
		if m.Method == widget.MethodOpen && m.State["_model_name"] == modelName {
			ids = append(ids, m.ModelID)
		}
	}
	return ids
}

// last returns the last message for id.
func (e *events) last(id string) (widget.Message, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.msgs) - 1; i >= 0; i-- {
		if e.msgs[i].ModelID == id {
			return e.msgs[i], true
		}
	}
	return widget.Message{}, false
}

func newTestApp(t *testing.T, cfg config.Config) (*App, *events) {
	t.Helper()
	cfg.Resolve(config.Flags{})
	cfg.Kernel.MeshCells = 12
	ev := &events{}
	app, err := NewApp(cfg, zap.NewNop(), withEmitter(ev.emit))
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app, ev
}

// TestE2EHeatExample exercises the full pipeline: script file -> engine ->
// scene -> widget messages. This is the same path that the startup script
// takes, but without the Wails runtime.
func TestE2EHeatExample(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})

	result := app.EvaluateFile("examples/heat.gany")

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if result.Scene == "" {
		t.Fatal("expected a scene id")
	}
	if len(result.ColorBars) != 1 {
		t.Fatalf("expected 1 color bar, got %d", len(result.ColorBars))
	}
	if len(ev.names) == 0 || ev.names[0] != ResetEvent {
		t.Errorf("expected %s first, got %v", ResetEvent, ev.names)
	}

	for _, name := range []string{"TetraMeshModel", "IsoColorModel", "WarpModel", "SceneModel", "ColorBarModel"} {
		if n := len(ev.opened(name)); n != 1 {
			t.Errorf("expected 1 %s, got %d", name, n)
		}
	}

	scene, ok := ev.last(result.Scene)
	if !ok {
		t.Fatal("scene was never sent")
	}
	if got := scene.State["background_color"]; got != "black" {
		t.Errorf("background_color = %v, want black", got)
	}
	warps := ev.opened("WarpModel")
	if children, _ := scene.State["children"].([]string); len(children) != 1 || children[0] != widget.RefPrefix+warps[0] {
		t.Errorf("scene children = %v, want the warp", scene.State["children"])
	}

	// Every array attribute travels as a binary buffer.
	tets := ev.opened("TetraMeshModel")[0]
	mesh, _ := ev.last(tets)
	if len(mesh.Buffers) == 0 {
		t.Error("tetra mesh sent without buffers")
	}
	if len(mesh.BufferPaths) != len(mesh.Buffers) {
		t.Errorf("%d buffer paths for %d buffers", len(mesh.BufferPaths), len(mesh.Buffers))
	}
}

// TestE2EEmptySource ensures the pipeline handles empty input gracefully.
func TestE2EEmptySource(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})
	result := app.Evaluate("")

	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if result.Scene == "" {
		t.Error("an empty script still displays an empty scene")
	}
	if n := len(ev.opened("SceneModel")); n != 1 {
		t.Errorf("expected 1 scene, got %d", n)
	}
}

// TestE2ESyntaxError ensures eval errors are reported and nothing is sent.
func TestE2ESyntaxError(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})
	result := app.Evaluate(`(polymesh :vertices [0 0 0`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if result.Scene != "" {
		t.Errorf("expected no scene on error, got %q", result.Scene)
	}
	if len(ev.names) != 0 {
		t.Errorf("expected no events, got %v", ev.names)
	}
}

func TestE2ESingleMesh(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})
	result := app.Evaluate(`(polymesh :vertices [0 0 0 1 0 0 0 1 0] :color "red")`)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	meshes := ev.opened("PolyMeshModel")
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	msg, _ := ev.last(meshes[0])
	if msg.State["default_color"] != "red" {
		t.Errorf("default_color = %v, want red", msg.State["default_color"])
	}
}

func TestE2EValidationWarnings(t *testing.T) {
	app, _ := newTestApp(t, config.Config{})
	result := app.Evaluate(`
(polymesh :vertices [0 0 0 1 0 0 0 1 0]
  :data (list (data "t" (component "v" [1 2 3])) (data "t" (component "w" [1 2 3]))))`)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Model != "PolyMeshModel" {
		t.Errorf("expected one PolyMeshModel warning, got %v", result.Warnings)
	}
}

func TestE2EUpdateFromFrontend(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})
	result := app.Evaluate(`
(def mesh (polymesh :vertices [0 0 0 1 0 0 0 1 0]
  :data (list (data "temperature" (component "t" [0 1 2])))))
(iso-color mesh :input "temperature")`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	iso := ev.opened("IsoColorModel")[0]

	if err := app.Update(iso, map[string]any{"max": 3.0}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	msg, _ := ev.last(iso)
	if msg.Method != widget.MethodUpdate {
		t.Fatalf("expected an update echo, got %s", msg.Method)
	}
	if msg.State["max"] != 3.0 {
		t.Errorf("max = %v, want 3", msg.State["max"])
	}

	if err := app.Update(iso, map[string]any{"colormap": "Nope"}); err == nil {
		t.Error("expected an invalid colormap to be rejected")
	}
	if err := app.Update("missing", map[string]any{"max": 1.0}); err == nil {
		t.Error("expected an unknown model id to be rejected")
	}
}

func TestE2EUpdateBeforeEvaluate(t *testing.T) {
	app, _ := newTestApp(t, config.Config{})
	if err := app.Update("w0", map[string]any{}); err == nil {
		t.Error("expected an error without a scene")
	}
}

func TestNewKernel(t *testing.T) {
	k, err := newKernel(config.KernelConfig{Backend: config.BackendSDFX, MeshCells: 8})
	if err != nil {
		t.Fatalf("sdfx: %v", err)
	}
	if sk, ok := k.(*sdfx.Kernel); !ok || sk.MeshCells() != 8 {
		t.Errorf("expected an sdfx kernel with 8 cells, got %#v", k)
	}
	if _, err := newKernel(config.KernelConfig{Backend: "cgal"}); err == nil {
		t.Error("expected an unknown backend to fail")
	}
}
