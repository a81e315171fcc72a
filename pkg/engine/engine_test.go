package engine

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/chazu/msbr/pkg/config"
	"github.com/chazu/msbr/pkg/errors"
)

func TestEvaluateProducesDefault(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  \n  "},
		{"comment only", ";; nothing to change\n"},
		{"plain arithmetic", "(+ 1 2)"},
		{"definitions", "(def x 10)\n(def y 20)\n(+ x y)"},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, evalErrs, err := eng.Evaluate(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("unexpected fatal error: %v", err)
			}
			if len(evalErrs) > 0 {
				t.Fatalf("unexpected eval errors: %v", evalErrs)
			}
			if cfg == nil {
				t.Fatal("expected non-nil config")
			}
			if !reflect.DeepEqual(*cfg, config.Default()) {
				t.Errorf("expected the default config, got %+v", *cfg)
			}
		})
	}
}

func TestEvaluateScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unmatched paren", "(+ 1 2"},
		{"undefined symbol", "(+ 1 undefined-symbol)"},
		{"error on second line", "(core \"a\")\n(+ 3"},
	}
	eng := NewEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, evalErrs, err := eng.Evaluate(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if cfg != nil {
				t.Fatal("expected nil config on a script error")
			}
			if len(evalErrs) == 0 || evalErrs[0].Message == "" {
				t.Fatalf("expected a populated eval error, got %v", evalErrs)
			}
		})
	}
}

func TestEvalErrorString(t *testing.T) {
	e := EvalError{Line: 5, Message: "something went wrong"}
	if got := e.Error(); got != "line 5: something went wrong" {
		t.Errorf("Error() = %q", got)
	}

	e = EvalError{Message: "no location"}
	if got := e.Error(); got != "no location" {
		t.Errorf("Error() without a line = %q", got)
	}
}

func TestEvaluateIsIsolated(t *testing.T) {
	eng := NewEngine()
	ctx := context.Background()

	first, _, err := eng.Evaluate(ctx, `(core "first") (lattice :rows 3 :cols 3)`)
	if err != nil || first == nil {
		t.Fatalf("first evaluation: %v", err)
	}
	second, _, err := eng.Evaluate(ctx, `(+ 1 2)`)
	if err != nil || second == nil {
		t.Fatalf("second evaluation: %v", err)
	}
	if !reflect.DeepEqual(*second, config.Default()) {
		t.Error("state leaked from one evaluation into the next")
	}
	if first.Lattice.Rows != 3 {
		t.Error("second evaluation changed the first result")
	}
}

func TestWaitTimesOut(t *testing.T) {
	ch := make(chan evalResult) // never sends

	start := time.Now()
	_, _, err := wait(context.Background(), ch, 20*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "timed out after 20ms") {
		t.Fatalf("expected a timeout error, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took far longer than requested")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := wait(ctx, make(chan evalResult), time.Minute)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitReturnsResult(t *testing.T) {
	cfg := config.Faceted()
	ch := make(chan evalResult, 1)
	ch <- evalResult{config: &cfg}

	got, evalErrs, err := wait(context.Background(), ch, time.Second)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("unexpected errors: %v %v", evalErrs, err)
	}
	if got.Name != "msbr-faceted" {
		t.Errorf("name = %q, want msbr-faceted", got.Name)
	}
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := &Engine{Timeout: time.Minute}

	// The result may win the race with cancellation; either outcome is valid
	// as long as a cancelled error is the only kind of error.
	_, _, err := eng.Evaluate(ctx, `(core "late")`)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected nil or context.Canceled, got %v", err)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"error on line format", "Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"no line info", "some generic error", 0, "some generic error"},
		{"line format lowercase", "error on line 12: missing paren", 12, "missing paren"},
		{"short line format", "line 3: bad keyword", 3, "bad keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(stderrors.New(tt.msg))
			if len(errs) != 1 {
				t.Fatalf("expected one error, got %d", len(errs))
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

func TestEvaluateFile(t *testing.T) {
	eng := NewEngine()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "core.zy")
	if err := os.WriteFile(path, []byte(`(core "from-file")`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, evalErrs, err := eng.EvaluateFile(ctx, path)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("EvaluateFile: %v %v", evalErrs, err)
	}
	if cfg.Name != "from-file" {
		t.Errorf("name = %q, want from-file", cfg.Name)
	}

	_, _, err = eng.EvaluateFile(ctx, filepath.Join(t.TempDir(), "missing.zy"))
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("missing script error = %v, want Configuration", err)
	}
}
