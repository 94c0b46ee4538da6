// Package canon maps the field names produced by the semantic extractor onto
// the canonical keys of each record family.
package canon

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jorgelunams/contratospoc/internal/shape"
)

// Family selects a canonicalization table.
type Family string

const (
	Fine           Family = "multa"
	Representative Family = "representante"
	Company        Family = "compania"
	Entity         Family = "entidad"

	// Contract has no table; its keys only get the fallback rule.
	Contract Family = "contrato"
)

//go:embed tables.yaml
var defaultTables []byte

// Canonicalizer is safe for concurrent use once built.
type Canonicalizer struct {
	tables map[Family]map[string]string
}

// New checks that every canonical key maps onto itself, which is what makes
// Key idempotent.
func New(tables map[Family]map[string]string) (*Canonicalizer, error) {
	for fam, tbl := range tables {
		for variant, key := range tbl {
			if key == "" {
				return nil, fmt.Errorf("canon: %s: empty canonical key for %q", fam, variant)
			}
			if got, ok := tbl[key]; ok && got != key {
				return nil, fmt.Errorf("canon: %s: canonical key %q maps to %q", fam, key, got)
			}
			if Fallback(key) != key {
				return nil, fmt.Errorf("canon: %s: canonical key %q is not in normal form", fam, key)
			}
		}
	}
	return &Canonicalizer{tables: tables}, nil
}

// Parse reads tables from YAML keyed by family name.
func Parse(data []byte) (*Canonicalizer, error) {
	var raw map[Family]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("canon: parse tables: %w", err)
	}
	return New(raw)
}

var loadDefault = sync.OnceValue(func() *Canonicalizer {
	c, err := Parse(defaultTables)
	if err != nil {
		panic(err)
	}
	return c
})

// Default returns the embedded tables.
func Default() *Canonicalizer { return loadDefault() }

// Fallback lower-cases key and replaces spaces with underscores.
func Fallback(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), " ", "_")
}

// Key returns the canonical form of key within family f.
func (c *Canonicalizer) Key(f Family, key string) string {
	tbl := c.tables[f]
	if k, ok := tbl[key]; ok {
		return k
	}
	trimmed := strings.TrimSpace(key)
	if k, ok := tbl[strings.ToLower(trimmed)]; ok {
		return k
	}
	fb := Fallback(trimmed)
	if k, ok := tbl[fb]; ok {
		return k
	}
	return fb
}

// Object returns a copy of obj with canonical keys, keeping the order of
// first appearance. When two variants collide, a later non-empty value wins.
func (c *Canonicalizer) Object(f Family, obj *shape.Object) *shape.Object {
	out := shape.NewObject()
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		ck := c.Key(f, k)
		if prev, ok := out.Get(ck); ok && !prev.IsEmpty() && v.IsEmpty() {
			continue
		}
		out.Set(ck, v)
	}
	return out
}
