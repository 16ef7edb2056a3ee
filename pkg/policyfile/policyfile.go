// Package policyfile loads custom classification policies written in YAML or
// TOML. A file names its policy, optionally extends a registered one, and
// lists rules either as phrases ("property made required") or as explicit
// filters.
//
//	name: lenient
//	extends: default
//	rules:
//	  - when: parameter added as required
//	    release: minor
//	  - name: docs
//	    aspects: [deprecation]
//	    release: none
package policyfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/policy"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported policy file format")

// Format names a policy file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// File is the on-disk shape of a policy.
type File struct {
	Name        string                 `yaml:"name" toml:"name"`
	Description string                 `yaml:"description" toml:"description"`
	Extends     string                 `yaml:"extends" toml:"extends"`
	Default     changespec.ReleaseType `yaml:"default" toml:"default"`
	Rules       []RuleSpec             `yaml:"rules" toml:"rules"`
}

// RuleSpec is a rule given either as a phrase in When or as explicit filters.
// With a phrase, only Description, Scope and the release type are read from
// the other fields.
type RuleSpec struct {
	When        string `yaml:"when" toml:"when"`
	policy.Rule `yaml:",inline"`
}

// FormatOf infers the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Load reads and builds the policy at path. Bases named by extends are
// looked up in reg.
func Load(path string, reg *policy.Registry) (*policy.Policy, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	p, err := Parse(data, format, reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes data in the given format and builds the policy. Unknown keys
// are rejected.
func Parse(data []byte, format Format, reg *policy.Registry) (*policy.Policy, error) {
	f, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return f.Build(reg)
}

func decode(data []byte, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decoding yaml policy: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("decoding toml policy: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decoding toml policy: unknown keys %v", undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return &f, nil
}

// Build turns the file into a policy through policy.Builder.
func (f *File) Build(reg *policy.Registry) (*policy.Policy, error) {
	b := policy.NewBuilder(f.Name).Describe(f.Description)

	if f.Extends != "" {
		if reg == nil {
			reg = policy.Builtins()
		}
		base, err := reg.Lookup(f.Extends)
		if err != nil {
			return nil, fmt.Errorf("policy %q extends: %w", f.Name, err)
		}
		b.Extends(base)
	}

	for _, spec := range f.Rules {
		if spec.When == "" {
			b.Add(spec.Rule)
			continue
		}
		b.When(policy.Pattern(spec.When))
		if spec.Description != "" {
			b.Describing(spec.Description)
		}
		if spec.Scope != policy.ScopeAny {
			b.InScope(spec.Scope)
		}
		b.Release(spec.ReleaseType)
	}

	if f.Default != "" {
		b.Default(f.Default)
	}
	return b.Build()
}
