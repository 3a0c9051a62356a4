package intake

import (
	_ "embed"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed flows.yaml
var defaultFlows []byte

// Step is one page of a flow.
type Step struct {
	Name        string   `yaml:"name" json:"name"`
	Sections    []string `yaml:"sections" json:"sections"`
	Attachments bool     `yaml:"attachments" json:"attachments"`
	Final       bool     `yaml:"final" json:"final"`
}

// Flow is the ordered step list of one (kind, variant) pair.
type Flow struct {
	Kind    Kind    `json:"kind"`
	Variant Variant `json:"variant"`
	Prefix  string  `json:"-"`
	Steps   []Step  `json:"steps"`
}

// ID names the flow in API paths: "t1", "staff-t1", ...
func (f Flow) ID() string {
	if f.Prefix == "" {
		return f.Kind.Slug()
	}
	return f.Prefix + "-" + f.Kind.Slug()
}

// Staff reports whether the flow is the staff-assisted variant.
func (f Flow) Staff() bool { return f.Variant == VariantInPerson }

// Path is the page route of a step, without query string.
func (f Flow) Path(step string) string {
	if f.Prefix == "" {
		return "/" + f.Kind.Slug() + "/" + step
	}
	return "/" + f.Prefix + "/" + f.Kind.Slug() + "/" + step
}

// URL is the page route of a step with fid and lang carried over.
func (f Flow) URL(step, fid, lang string) string {
	q := url.Values{}
	if fid != "" {
		q.Set("fid", fid)
	}
	if lang != "" {
		q.Set("lang", lang)
	}
	if len(q) == 0 {
		return f.Path(step)
	}
	return f.Path(step) + "?" + q.Encode()
}

// Step returns the named step and its position.
func (f Flow) Step(name string) (Step, int, bool) {
	for i, s := range f.Steps {
		if s.Name == name {
			return s, i, true
		}
	}
	return Step{}, -1, false
}

// First is the entry step.
func (f Flow) First() Step { return f.Steps[0] }

// Next returns the step after name.
func (f Flow) Next(name string) (Step, error) {
	_, i, ok := f.Step(name)
	if !ok {
		return Step{}, fmt.Errorf("%w: %s", ErrUnknownStep, name)
	}
	if i+1 >= len(f.Steps) {
		return Step{}, ErrFinalStep
	}
	return f.Steps[i+1], nil
}

// Sections lists every section validated by the flow, in step order.
func (f Flow) Sections() []string {
	var out []string
	for _, s := range f.Steps {
		out = append(out, s.Sections...)
	}
	return out
}

// Catalog holds every flow, addressable by id or by kind and variant.
type Catalog struct {
	flows []Flow
	byID  map[string]Flow
}

type catalogFile struct {
	Variants []struct {
		Name   string `yaml:"name"`
		Prefix string `yaml:"prefix"`
	} `yaml:"variants"`
	Kinds []struct {
		Kind  string `yaml:"kind"`
		Steps []Step `yaml:"steps"`
	} `yaml:"kinds"`
}

// LoadCatalog parses a flow definition document.
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse flows: %w", err)
	}
	c := &Catalog{byID: map[string]Flow{}}
	for _, k := range file.Kinds {
		kind, err := ParseKind(k.Kind)
		if err != nil {
			return nil, err
		}
		if len(k.Steps) == 0 {
			return nil, fmt.Errorf("flow %s has no steps", kind)
		}
		for i, s := range k.Steps {
			for _, sec := range s.Sections {
				if !KnownSection(sec) {
					return nil, fmt.Errorf("flow %s step %s: unknown section %q", kind, s.Name, sec)
				}
			}
			if s.Final != (i == len(k.Steps)-1) {
				return nil, fmt.Errorf("flow %s: only the last step may be final", kind)
			}
		}
		for _, v := range file.Variants {
			variant, err := ParseVariant(v.Name)
			if err != nil {
				return nil, err
			}
			f := Flow{Kind: kind, Variant: variant, Prefix: strings.Trim(v.Prefix, "/"), Steps: k.Steps}
			if _, dup := c.byID[f.ID()]; dup {
				return nil, fmt.Errorf("duplicate flow %s", f.ID())
			}
			c.flows = append(c.flows, f)
			c.byID[f.ID()] = f
		}
	}
	return c, nil
}

// DefaultCatalog returns the built-in flows.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(defaultFlows)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the flows in definition order.
func (c *Catalog) All() []Flow { return append([]Flow(nil), c.flows...) }

// ByID finds a flow by its API id.
func (c *Catalog) ByID(id string) (Flow, bool) {
	f, ok := c.byID[strings.ToLower(id)]
	return f, ok
}

// Lookup finds the flow of a kind and variant.
func (c *Catalog) Lookup(kind Kind, variant Variant) (Flow, bool) {
	for _, f := range c.flows {
		if f.Kind == kind && f.Variant == variant {
			return f, true
		}
	}
	return Flow{}, false
}
