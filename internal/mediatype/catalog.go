package mediatype

import (
	"fmt"
	"maps"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Builder collects media type definitions during startup. A definition for a
// type/subtype that was already registered replaces the earlier one.
type Builder struct {
	defs []Definition
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Register(defs ...Definition) *Builder {
	b.defs = append(b.defs, defs...)
	return b
}

// Build compiles the registered definitions into an immutable Catalog.
func (b *Builder) Build() (*Catalog, error) {
	c := &Catalog{
		byFormat:  map[string]MediaType{},
		byKey:     map[string]MediaType{},
		params:    map[string]map[string]*regexp.Regexp{},
		rawParams: map[string]map[string]string{},
		body:      map[string]bool{},
	}
	for _, def := range b.defs {
		mt := MediaType{
			Type:    strings.ToLower(def.MediaType.Type),
			Subtype: strings.ToLower(def.MediaType.Subtype),
			Format:  strings.ToLower(def.MediaType.Format),
		}
		if !tokenRegexp.MatchString(mt.Type) || !tokenRegexp.MatchString(mt.Subtype) {
			return nil, fmt.Errorf("invalid media type %q", def.MediaType.Key())
		}
		key := mt.Key()

		compiled := make(map[string]*regexp.Regexp, len(def.Params))
		raw := make(map[string]string, len(def.Params))
		for name, pattern := range def.Params {
			re, err := regexp.Compile("(?i)^(?:" + pattern + ")$")
			if err != nil {
				return nil, fmt.Errorf("media type %s: parameter %s: %w", key, name, err)
			}
			compiled[strings.ToLower(name)] = re
			raw[strings.ToLower(name)] = pattern
		}

		if prev, ok := c.byKey[key]; ok && prev.Format != "" {
			if owner, ok := c.byFormat[prev.Format]; ok && owner.Equal(prev) {
				delete(c.byFormat, prev.Format)
			}
		}
		c.byKey[key] = mt
		if mt.Format != "" {
			c.byFormat[mt.Format] = mt
		}
		c.params[key] = compiled
		c.rawParams[key] = raw
		c.body[key] = def.Body
	}
	return c, nil
}

func (b *Builder) MustBuild() *Catalog {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// Catalog is the read-only registry of known media types. It is never
// mutated after Build and is safe for concurrent use.
type Catalog struct {
	byFormat  map[string]MediaType
	byKey     map[string]MediaType
	params    map[string]map[string]*regexp.Regexp
	rawParams map[string]map[string]string
	body      map[string]bool
}

func (c *Catalog) LookupByFormat(format string) (MediaType, bool) {
	mt, ok := c.byFormat[strings.ToLower(format)]
	return mt, ok
}

func (c *Catalog) LookupByTypeSubtype(key string) (MediaType, bool) {
	mt, ok := c.byKey[strings.ToLower(key)]
	return mt, ok
}

// ParametersFor returns the compiled parameter patterns of a type/subtype.
// The returned map is a copy.
func (c *Catalog) ParametersFor(key string) (map[string]*regexp.Regexp, bool) {
	params, ok := c.params[strings.ToLower(key)]
	if !ok {
		return nil, false
	}
	return maps.Clone(params), true
}

// ParameterPatterns returns the patterns a type/subtype was registered with.
func (c *Catalog) ParameterPatterns(key string) map[string]string {
	return maps.Clone(c.rawParams[strings.ToLower(key)])
}

func (c *Catalog) Contains(mt MediaType) bool {
	_, ok := c.byKey[mt.Key()]
	return ok
}

// MediaTypes lists every registered media type ordered by key.
func (c *Catalog) MediaTypes() []MediaType {
	types := lo.Values(c.byKey)
	sort.Slice(types, func(i, j int) bool { return types[i].Key() < types[j].Key() })
	return types
}

// BodyMediaTypes lists the media types a request body may be sent in.
func (c *Catalog) BodyMediaTypes() []MediaType {
	return lo.Filter(c.MediaTypes(), func(mt MediaType, _ int) bool {
		return c.body[mt.Key()]
	})
}
