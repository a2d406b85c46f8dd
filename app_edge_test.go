package main

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/chazu/gany/pkg/config"
	"github.com/chazu/gany/pkg/widget"
)

const plainMesh = `(polymesh :vertices [0 0 0 1 0 0 0 1 0])`

// ---------------------------------------------------------------------------
// Empty editor: slices are non-nil so JSON serializes them as [].
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app, _ := newTestApp(t, config.Config{})
	result := app.Evaluate("")

	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
	if result.ColorBars == nil {
		t.Error("ColorBars should be non-nil empty slice, got nil")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app, _ := newTestApp(t, config.Config{})
	result := app.Evaluate("; just a comment\n;; another\n")
	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for comment-only source, got %v", result.Errors)
	}
}

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app, _ := newTestApp(t, config.Config{})

	// Valid code on line 1, broken code on line 2 so line info is meaningful.
	result := app.Evaluate("(+ 1 2)\n(polymesh :vertices [0 0 0")
	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

func TestE2EOutOfRangeIndices(t *testing.T) {
	app, _ := newTestApp(t, config.Config{})
	result := app.Evaluate(`(polymesh :vertices [0 0 0 1 0 0 0 1 0] :triangles [0 1 5])`)
	if len(result.Errors) == 0 {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(result.Errors[0].Message, "vertex 5") {
		t.Errorf("unexpected message %q", result.Errors[0].Message)
	}
}

// ---------------------------------------------------------------------------
// Scene defaults from the config.
// ---------------------------------------------------------------------------

func TestE2ESceneDefaults(t *testing.T) {
	opacity := 0.25
	app, ev := newTestApp(t, config.Config{
		Scene: config.SceneConfig{Background: "navy", Opacity: &opacity},
	})
	result := app.Evaluate(plainMesh)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	scene, _ := ev.last(result.Scene)
	if scene.State["background_color"] != "navy" {
		t.Errorf("background_color = %v, want navy", scene.State["background_color"])
	}
	if scene.State["background_opacity"] != 0.25 {
		t.Errorf("background_opacity = %v, want 0.25", scene.State["background_opacity"])
	}
}

func TestE2EScriptBackgroundWins(t *testing.T) {
	app, ev := newTestApp(t, config.Config{Scene: config.SceneConfig{Background: "navy"}})
	result := app.Evaluate(`(scene ` + plainMesh + ` :background "red")`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	scene, _ := ev.last(result.Scene)
	if scene.State["background_color"] != "red" {
		t.Errorf("background_color = %v, want red", scene.State["background_color"])
	}
}

func TestE2EInvalidConfigBackground(t *testing.T) {
	app, _ := newTestApp(t, config.Config{Scene: config.SceneConfig{Background: "not a color"}})
	result := app.Evaluate(plainMesh)
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Message, "scene background") {
		t.Errorf("unexpected message %q", result.Errors[0].Message)
	}
}

// ---------------------------------------------------------------------------
// Re-evaluation resets the frontend and replaces the manager.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluation(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})

	sources := []string{
		plainMesh,
		`(+ 1 2)`,
		``,
		`(polymesh :vertices [0 0 0`,
		plainMesh,
	}
	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked: %v", i, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}

	resets := 0
	for _, name := range ev.names {
		if name == ResetEvent {
			resets++
		}
	}
	if resets != 4 {
		t.Errorf("expected 4 resets (one per successful evaluation), got %d", resets)
	}
}

func TestE2EUpdateTargetsLatestScene(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})
	first := app.Evaluate(plainMesh)
	second := app.Evaluate(plainMesh)

	if first.Scene == second.Scene {
		t.Fatal("expected fresh widget ids per evaluation")
	}
	if err := app.Update(first.Scene, map[string]any{"background_color": "red"}); err == nil {
		t.Error("expected the stale scene id to be rejected")
	}
	if err := app.Update(second.Scene, map[string]any{"background_color": "red"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	msg, _ := ev.last(second.Scene)
	if msg.State["background_color"] != "red" {
		t.Errorf("background_color = %v, want red", msg.State["background_color"])
	}
}

// ---------------------------------------------------------------------------
// Frontend patches.
// ---------------------------------------------------------------------------

func TestDecodePatch(t *testing.T) {
	raw := map[string]any{
		"model_id": "abc",
		"state": map[string]any{
			"array": map[string]any{"dtype": "float32", "shape": []any{1.0}},
		},
		"buffer_paths": []any{[]any{"array", "data"}},
		"buffers":      []any{base64.StdEncoding.EncodeToString([]byte{0, 0, 128, 63})},
	}
	id, state, err := decodePatch(raw)
	if err != nil {
		t.Fatalf("decodePatch: %v", err)
	}
	if id != "abc" {
		t.Errorf("id = %q", id)
	}
	arr := state["array"].(map[string]any)
	if b, ok := arr["data"].([]byte); !ok || len(b) != 4 {
		t.Errorf("buffer not restored: %#v", arr["data"])
	}
}

func TestDecodePatchErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"not an object", "x", "expected object"},
		{"no id", map[string]any{"state": map[string]any{}}, "missing model_id"},
		{"no state", map[string]any{"model_id": "a"}, "missing state"},
		{"counts", map[string]any{
			"model_id":     "a",
			"state":        map[string]any{},
			"buffer_paths": []any{[]any{"x"}},
		}, "1 buffer paths for 0 buffers"},
		{"base64", map[string]any{
			"model_id":     "a",
			"state":        map[string]any{},
			"buffer_paths": []any{[]any{"x"}},
			"buffers":      []any{"%%%"},
		}, "buffer 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodePatch(tt.raw)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestOnPatchReportsRejectedUpdates(t *testing.T) {
	app, ev := newTestApp(t, config.Config{})
	result := app.Evaluate(plainMesh)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	app.onPatch(
		map[string]any{"model_id": result.Scene, "state": map[string]any{"background_opacity": 2.0}},
		"garbage",
		map[string]any{"model_id": result.Scene, "state": map[string]any{"background_opacity": 0.5}},
	)

	if len(ev.errors) != 1 {
		t.Fatalf("expected 1 error event, got %v", ev.errors)
	}
	msg, _ := ev.last(result.Scene)
	if msg.Method != widget.MethodUpdate || msg.State["background_opacity"] != 0.5 {
		t.Errorf("expected the valid patch to be echoed, got %+v", msg)
	}
}
