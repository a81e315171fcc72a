package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/msbr/pkg/config"
	"github.com/chazu/msbr/pkg/lattice"
	"github.com/chazu/msbr/pkg/material"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms core script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: dot-radius -> dot_radius
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpMaterial wraps a material.Material so it can be passed between builtins.
type sexpMaterial struct {
	m material.Material
}

func (m *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material %q)", m.m.Name)
}
func (m *sexpMaterial) Type() *zygo.RegisteredType { return nil }

// sexpVec wraps a fixed-size coordinate tuple built by vec2 or vec3.
type sexpVec struct {
	v []float64
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	parts := make([]string, len(v.v))
	for i, f := range v.v {
		parts[i] = fmt.Sprintf("%g", f)
	}
	return fmt.Sprintf("(vec%d %s)", len(v.v), strings.Join(parts, " "))
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value; treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// only rejects keywords outside allowed, naming them in sorted order.
func (pa kwArgs) only(builtin string, allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		ok[a] = true
	}
	var unknown []string
	for k := range pa.kw {
		if !ok[k] {
			unknown = append(unknown, ":"+k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%s: unknown keyword %s", builtin, strings.Join(unknown, ", "))
}

type floatField struct {
	key string
	dst *float64
}

type stringField struct {
	key string
	dst *string
}

// floatKW sets *dst from keyword key when present.
func (pa kwArgs) floatKW(builtin, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	*dst = f
	return nil
}

// intKW sets *dst from keyword key when present.
func (pa kwArgs) intKW(builtin, key string, dst *int) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	n, err := toInt(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	*dst = n
	return nil
}

// stringKW sets *dst from keyword key when present. Keyword values are
// accepted, so :style :faceted and :style "faceted" are the same.
func (pa kwArgs) stringKW(builtin, key string, dst *string) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	*dst = s
	return nil
}

// vecKW sets dst from a vecN keyword value when present.
func (pa kwArgs) vecKW(builtin, key string, dst []float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	vals, err := toVec(v, len(dst))
	if err != nil {
		return fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	copy(dst, vals)
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer. Floats with no fractional part are accepted.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == math.Trunc(v.Val) {
			return int(v.Val), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", v.Val)
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_cell) and plain strings ("cell").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec extracts an n-component tuple from a sexpVec.
func toVec(s zygo.Sexp, n int) ([]float64, error) {
	v, ok := s.(*sexpVec)
	if !ok {
		return nil, fmt.Errorf("expected vec%d, got %T (%s)", n, s, s.SexpString(nil))
	}
	if len(v.v) != n {
		return nil, fmt.Errorf("expected vec%d, got vec%d", n, len(v.v))
	}
	return v.v, nil
}

// toMaterial extracts a Material from a sexpMaterial.
func toMaterial(s zygo.Sexp) (material.Material, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.m, nil
	}
	return material.Material{}, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// script is the configuration a core script builds up, starting from the
// default core.
type script struct {
	cfg config.Config

	// replaced is set once the script places its own overrides, which
	// replace the default plus pattern rather than adding to it.
	replaced bool
}

func newScript() *script {
	return &script{cfg: config.Default()}
}

func (s *script) override(o config.Override) {
	if !s.replaced {
		s.cfg.Lattice.Overrides = nil
		s.replaced = true
	}
	s.cfg.Lattice.Overrides = append(s.cfg.Lattice.Overrides, o)
}

// registerBuiltins installs the core description builtins into a zygomys
// environment. The builtins write into s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *script) {

	// -----------------------------------------------------------------------
	// (vec2 -22 -22) and (vec3 0 0 10)
	// -----------------------------------------------------------------------
	for _, n := range []int{2, 3} {
		fn := fmt.Sprintf("vec%d", n)
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != n {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly %d arguments, got %d", fn, n, len(args))
			}
			v := make([]float64, n)
			for i, a := range args {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: component %d: %w", fn, i, err)
				}
				v[i] = f
			}
			return &sexpVec{v: v}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (core "msbr" :preset :faceted :scale 2.54)
	// -----------------------------------------------------------------------
	env.AddFunction("core", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("core", "preset", "scale"); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["preset"]; ok {
			p, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("core: preset: %w", err)
			}
			cfg, err := config.Preset(p)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("core: %w", err)
			}
			s.cfg = cfg
			s.replaced = false
		}
		if len(pa.positional) > 0 {
			n, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("core: name: %w", err)
			}
			s.cfg.Name = n
		}
		if err := pa.floatKW("core", "scale", &s.cfg.Scale); err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (stringer :length 171 :side 3.9 :dot-radius 0.1)
	// -----------------------------------------------------------------------
	env.AddFunction("stringer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("stringer", "length", "side", "dot-radius"); err != nil {
			return zygo.SexpNull, err
		}
		st := &s.cfg.Stringer
		for _, f := range []floatField{{"length", &st.Length}, {"side", &st.Side}, {"dot-radius", &st.DotRadius}} {
			if err := pa.floatKW("stringer", f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (lattice :origin (vec2 -22 -22) :pitch (vec2 4 4) :rows 11 :cols 11
	//          :default "zoneIA" :outer "zoneIIA")
	// -----------------------------------------------------------------------
	env.AddFunction("lattice", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("lattice", "origin", "pitch", "rows", "cols", "default", "outer"); err != nil {
			return zygo.SexpNull, err
		}
		l := &s.cfg.Lattice
		if err := pa.vecKW("lattice", "origin", l.Origin[:]); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.vecKW("lattice", "pitch", l.Pitch[:]); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.intKW("lattice", "rows", &l.Rows); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.intKW("lattice", "cols", &l.Cols); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.stringKW("lattice", "default", &l.Default); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.stringKW("lattice", "outer", &l.Outer); err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (override 5 5 "zoneIIA")
	// -----------------------------------------------------------------------
	env.AddFunction("override", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("override requires a row, a column and a universe, got %d arguments", len(args))
		}
		row, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("override: row: %w", err)
		}
		col, err := toInt(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("override: col: %w", err)
		}
		u, err := toKeywordString(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("override: universe: %w", err)
		}
		s.override(config.Override{Row: row, Col: col, Universe: u})
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (plus "zoneIIA") overrides the centre slot and its four neighbours.
	// -----------------------------------------------------------------------
	env.AddFunction("plus", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("plus requires a universe argument")
		}
		u, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("plus: universe: %w", err)
		}
		for _, idx := range lattice.Plus(s.cfg.Lattice.Rows, s.cfg.Lattice.Cols) {
			s.override(config.Override{Row: idx.Row, Col: idx.Col, Universe: u})
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (boundary :style :faceted :radius 50 :diagonal 28 :straight 22)
	// -----------------------------------------------------------------------
	env.AddFunction("boundary", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("boundary", "style", "top", "bottom", "radius", "diagonal", "straight"); err != nil {
			return zygo.SexpNull, err
		}
		// A boundary form describes the whole outline.
		b := config.Boundary{}
		if err := pa.stringKW("boundary", "style", &b.Style); err != nil {
			return zygo.SexpNull, err
		}
		for _, f := range []floatField{
			{"top", &b.Top}, {"bottom", &b.Bottom}, {"radius", &b.Radius},
			{"diagonal", &b.Diagonal}, {"straight", &b.Straight},
		} {
			if err := pa.floatKW("boundary", f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		s.cfg.Boundary = b
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (zones "zoneIIB")
	// -----------------------------------------------------------------------
	env.AddFunction("zones", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		zones := make([]string, 0, len(args))
		for i, a := range args {
			z, err := toKeywordString(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("zones: entry %d: %w", i, err)
			}
			zones = append(zones, z)
		}
		s.cfg.Zones = zones
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (material "salt" :density 3.3 :color "#E67E22")
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("material", "density", "color"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("material requires a name argument")
		}
		var m material.Material
		n, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
		}
		m.Name = n
		if err := pa.floatKW("material", "density", &m.Density); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.stringKW("material", "color", &m.Color); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpMaterial{m: m}, nil
	})

	// -----------------------------------------------------------------------
	// (materials (material "graphite") (material "salt"))
	// -----------------------------------------------------------------------
	env.AddFunction("materials", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		mats := make([]material.Material, 0, len(args))
		for i, a := range args {
			m, err := toMaterial(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("materials: entry %d: %w", i, err)
			}
			mats = append(mats, m)
		}
		s.cfg.Materials = mats
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (plot :width (vec2 100 100) :pixels (vec2 512 512) :origin (vec3 0 0 0)
	//       :color-by :cell)
	// -----------------------------------------------------------------------
	env.AddFunction("plot", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("plot", "width", "pixels", "origin", "color-by"); err != nil {
			return zygo.SexpNull, err
		}
		p := &s.cfg.Plot
		if err := pa.vecKW("plot", "width", p.Width[:]); err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["pixels"]; ok {
			px, err := toVec(v, 2)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("plot: pixels: %w", err)
			}
			for i, f := range px {
				if f != math.Trunc(f) {
					return zygo.SexpNull, fmt.Errorf("plot: pixels: expected integers, got %g", f)
				}
				p.Pixels[i] = int(f)
			}
		}
		if err := pa.vecKW("plot", "origin", p.Origin[:]); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.stringKW("plot", "color-by", &p.ColorBy); err != nil {
			return zygo.SexpNull, err
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (output :dir "out" :geometry "geometry.xml" :plot "plot.png")
	// -----------------------------------------------------------------------
	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("output", "dir", "geometry", "plot"); err != nil {
			return zygo.SexpNull, err
		}
		o := &s.cfg.Output
		for _, f := range []stringField{{"dir", &o.Dir}, {"geometry", &o.Geometry}, {"plot", &o.Plot}} {
			if err := pa.stringKW("output", f.key, f.dst); err != nil {
				return zygo.SexpNull, err
			}
		}
		return zygo.SexpNull, nil
	})
}
