// Package manifest describes every transformed declaration for a downstream
// binding generator. The manifest is stable across runs: entries are sorted
// and carry no spans.
package manifest

import (
	"fmt"
	"sort"

	"plbind/internal/abi"
	"plbind/internal/decl"
	"plbind/internal/directive"
	"plbind/internal/shape"
)

// Version is bumped whenever the encoded layout changes.
const Version = 1

// Param roles.
const (
	RoleScalar  = "scalar"
	RolePointer = "pointer"
	RoleArray   = "array"
	RoleLength  = "length"
	RoleOpaque  = "opaque"
)

type Param struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Type string `json:"type" yaml:"type" msgpack:"type"`
	Role string `json:"role" yaml:"role" msgpack:"role"`
	// Of names the array parameter a length belongs to.
	Of string `json:"of,omitempty" yaml:"of,omitempty" msgpack:"of,omitempty"`
}

type Field struct {
	Name string `json:"name" yaml:"name" msgpack:"name"`
	Type string `json:"type" yaml:"type" msgpack:"type"`
}

// Entry is one exported declaration.
type Entry struct {
	Name    string  `json:"name" yaml:"name" msgpack:"name"`
	Intent  string  `json:"intent" yaml:"intent" msgpack:"intent"`
	Kind    string  `json:"kind" yaml:"kind" msgpack:"kind"`
	Package string  `json:"package" yaml:"package" msgpack:"package"`
	File    string  `json:"file" yaml:"file" msgpack:"file"`
	Symbol  string  `json:"symbol,omitempty" yaml:"symbol,omitempty" msgpack:"symbol,omitempty"`
	Unsafe  bool    `json:"unsafe,omitempty" yaml:"unsafe,omitempty" msgpack:"unsafe,omitempty"`
	Layout  string  `json:"layout,omitempty" yaml:"layout,omitempty" msgpack:"layout,omitempty"`
	Params  []Param `json:"params,omitempty" yaml:"params,omitempty" msgpack:"params,omitempty"`
	Results string  `json:"results,omitempty" yaml:"results,omitempty" msgpack:"results,omitempty"`
	Fields  []Field `json:"fields,omitempty" yaml:"fields,omitempty" msgpack:"fields,omitempty"`
	// Underlying is the aliased or defined type of a non-struct handle.
	Underlying string `json:"underlying,omitempty" yaml:"underlying,omitempty" msgpack:"underlying,omitempty"`
}

// Manifest is the full export set of a run.
type Manifest struct {
	Version    int     `json:"version" yaml:"version" msgpack:"version"`
	AliasIdent string  `json:"alias_ident" yaml:"alias_ident" msgpack:"alias_ident"`
	LengthType string  `json:"length_type" yaml:"length_type" msgpack:"length_type"`
	Entries    []Entry `json:"entries" yaml:"entries" msgpack:"entries"`
}

// New returns an empty manifest for cfg.
func New(cfg abi.Config) *Manifest {
	cfg = cfg.Normalize()
	return &Manifest{Version: Version, AliasIdent: cfg.AliasIdent, LengthType: cfg.LengthType}
}

// Add appends the entry describing a transformed declaration.
func (m *Manifest) Add(pkg, file string, intent directive.Intent, d *decl.Declaration, cfg abi.Config) {
	m.Entries = append(m.Entries, FromDecl(pkg, file, intent, d, cfg))
}

// Sort orders entries by package, file and name.
func (m *Manifest) Sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		a, b := m.Entries[i], m.Entries[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Name < b.Name
	})
}

// FromDecl describes d, which must be the output of transform.Apply.
func FromDecl(pkg, file string, intent directive.Intent, d *decl.Declaration, cfg abi.Config) Entry {
	cfg = cfg.Normalize()
	e := Entry{
		Name:    d.Name,
		Intent:  intent.String(),
		Kind:    d.Kind.String(),
		Package: pkg,
		File:    file,
		Unsafe:  d.Attrs.Unsafe,
	}
	if d.Attrs.Export {
		e.Symbol = d.Name
	}
	switch {
	case d.Func != nil:
		e.Params = params(d.Func.Params, cfg)
		e.Results = d.Func.Results
	case d.Struct != nil:
		if d.Attrs.Layout == decl.LayoutC {
			e.Layout = "c"
		}
		if !d.Attrs.Handle {
			e.Fields = fields(d.Struct)
		}
	case d.Alias != nil:
		e.Underlying = d.Alias.TypeText
	}
	return e
}

func params(ps []decl.Param, cfg abi.Config) []Param {
	out := make([]Param, 0, len(ps))
	for i, p := range ps {
		mp := Param{Name: p.Name, Type: p.TypeText}
		switch sh := shape.Classify(p.Type, cfg); {
		case i > 0 && p.Name == abi.LengthName(ps[i-1].Name) && shape.IsLengthType(p.Type, cfg):
			mp.Role = RoleLength
			mp.Of = ps[i-1].Name
		case sh.Kind == shape.ArrayAlias:
			mp.Role = RoleArray
		case sh.Kind == shape.RawPointer:
			mp.Role = RolePointer
		case sh.Kind == shape.Scalar:
			mp.Role = RoleScalar
		default:
			mp.Role = RoleOpaque
		}
		out = append(out, mp)
	}
	return out
}

func fields(s *decl.StructDecl) []Field {
	out := make([]Field, 0, len(s.Fields)+1)
	for _, f := range s.Fields {
		for _, n := range f.Names {
			out = append(out, Field{Name: n, Type: f.TypeText})
		}
	}
	return out
}

// Lookup returns the entry named name in pkg.
func (m *Manifest) Lookup(pkg, name string) (Entry, error) {
	for _, e := range m.Entries {
		if e.Package == pkg && e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("manifest: no entry %s.%s", pkg, name)
}
