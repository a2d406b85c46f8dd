// Package engine evaluates gany scene scripts. A script is a zygomys Lisp
// program whose builtins construct data, meshes, effect chains and the
// scene; evaluation yields a validated *model.Scene ready to be displayed
// through a widget.Manager.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"

	"github.com/chazu/gany/pkg/kernel"
	"github.com/chazu/gany/pkg/kernel/sdfx"
	"github.com/chazu/gany/pkg/model"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a scene that
// fails validation.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a validation warning on an otherwise usable scene.
type EvalWarning struct {
	Model   string // model name of the offending widget, empty for the scene
	Message string
}

// Result bundles the output of a successful evaluation.
type Result struct {
	Scene     *model.Scene
	ColorBars []*model.ColorBar
	Warnings  []EvalWarning
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64

	kernel  kernel.Kernel
	baseDir string
	timeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel sets the solid modeling backend used by the solid builtins.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithBaseDir sets the directory relative file paths in scripts are
// resolved against. Scripts cannot read files outside of it.
func WithBaseDir(dir string) Option {
	return func(e *Engine) { e.baseDir = dir }
}

// WithTimeout sets the evaluation time limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, opt := range opts {
		opt(e)
	}
	if e.kernel == nil {
		e.kernel = sdfx.New()
	}
	if e.baseDir == "" {
		e.baseDir = "."
	}
	return e
}

// Evaluate runs a scene script.
//
// Return semantics:
//   - On success: returns result + nil errors + nil error
//   - On parse/eval/validation failure: returns nil result + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*Result, []EvalError, error) {
	return e.run(source, e.baseDir)
}

// EvaluateFile runs the script at path. Files referenced by the script
// are resolved against the script's directory.
func (e *Engine) EvaluateFile(path string) (*Result, []EvalError, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: read script: %w", err)
	}
	return e.run(string(b), filepath.Dir(path))
}

func (e *Engine) run(source, baseDir string) (*Result, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		res, evalErrs, err := e.evaluate(source, baseDir)
		ch <- evalResult{result: res, errors: evalErrs, err: err}
	}()

	res, evalErrs, err := waitWithTimeout(ch, gen, &e.mu, &e.generation, e.timeout)
	log := Logger()
	switch {
	case err != nil:
		log.Warn("script evaluation failed", zap.Uint64("generation", gen), zap.Error(err))
	case len(evalErrs) > 0:
		log.Debug("script has errors", zap.Uint64("generation", gen), zap.Int("errors", len(evalErrs)))
	default:
		log.Debug("script evaluated",
			zap.Uint64("generation", gen),
			zap.Int("children", len(res.Scene.Children())),
			zap.Int("warnings", len(res.Warnings)),
		)
	}
	return res, evalErrs, err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source, baseDir string) (*Result, []EvalError, error) {
	b := newBuilder(e.kernel, baseDir)

	// Empty source is a valid program that produces an empty scene.
	if strings.TrimSpace(source) != "" {
		// Sandbox mode prevents user code from accessing the filesystem or
		// syscalls; file access goes through the builtins only.
		env := zygo.NewZlispSandbox()
		defer env.Stop()
		registerBuiltins(env, b)

		if err := env.LoadString(preprocessSource(source)); err != nil {
			return nil, parseZygomysError(err), nil
		}
		if _, err := env.Run(); err != nil {
			return nil, parseZygomysError(err), nil
		}
	}

	scene := b.finish()
	vr := model.Validate(scene, b.bars...)
	if !vr.OK() {
		errs := make([]EvalError, len(vr.Errors))
		for i, f := range vr.Errors {
			errs[i] = EvalError{Message: f.Error()}
		}
		return nil, errs, nil
	}
	res := &Result{Scene: scene, ColorBars: b.bars}
	for _, f := range vr.Warnings {
		w := EvalWarning{Message: f.Message}
		if f.Widget != nil {
			w.Model = f.Widget.Spec().ModelName
		}
		res.Warnings = append(res.Warnings, w)
	}
	return res, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
