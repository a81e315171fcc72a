// Package engine evaluates core description scripts. It wraps zygomys in a
// sandboxed environment and produces a config.Config from user source code.
//
// A script starts from config.Default and adjusts it:
//
//	(core "msbr-wide" :preset :faceted)
//	(lattice :rows 13 :cols 13 :origin (vec2 -26 -26))
//	(plus "zoneIIA")
//	(boundary :style :circular :radius 60)
package engine

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/msbr/pkg/config"
	"github.com/chazu/msbr/pkg/errors"
)

// EvalError is a mistake in the script: a parse error or a failed builtin.
// Line is zero when the interpreter gave no position.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scripts. Each call to Evaluate runs in a fresh sandbox,
// so an Engine may be shared.
type Engine struct {
	Timeout time.Duration // zero means DefaultTimeout
}

// NewEngine creates an Engine with the default timeout.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs source and returns the config it describes. The result is
// not validated; geometry.Build does that.
//
// Script mistakes (parse errors, bad builtin arguments) come back as
// EvalErrors with a nil config and nil error. The error result is reserved
// for timeouts, cancellation and interpreter panics.
func (e *Engine) Evaluate(ctx context.Context, source string) (*config.Config, []EvalError, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: errors.New(errors.ErrCodeInternal, "panic during evaluation: %v", r)}
			}
		}()

		cfg, evalErrs := evaluate(source)
		ch <- evalResult{config: cfg, errors: evalErrs}
	}()

	return wait(ctx, ch, timeout)
}

// evaluate runs source in a sandbox with no filesystem or system access.
func evaluate(source string) (*config.Config, []EvalError) {
	sc := newScript()
	if strings.TrimSpace(source) == "" {
		return &sc.cfg, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, sc)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return &sc.cfg, nil
}

// EvaluateFile reads and evaluates the script at path.
func (e *Engine) EvaluateFile(ctx context.Context, path string) (*config.Config, []EvalError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read script %s", path)
	}
	return e.Evaluate(ctx, string(data))
}

// zygomys reports positions as "Error on line N: ..." or "line N: ...".
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`),
	regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`),
}

// parseZygomysError converts a zygomys error into EvalErrors, keeping the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range linePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
