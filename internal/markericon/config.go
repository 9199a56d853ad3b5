package markericon

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RendererKind discriminates the marker renderer variants.
type RendererKind string

const (
	KindThumbnail   RendererKind = "thumbnail"
	KindColor       RendererKind = "color"
	KindImage       RendererKind = "image"
	KindIcon        RendererKind = "icon"
	KindTraditional RendererKind = "traditional-icon"
	KindCategory    RendererKind = "category"
)

// Anchor is a relative anchor point inside an icon, 0..1 per axis.
type Anchor struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// WrapOptions parameterize the marker template an icon is embedded into.
// Nil pointer fields mean "inherit from the next precedence level".
type WrapOptions struct {
	Scale  *float64 `yaml:"scale" json:"scale,omitempty"`
	Fill   string   `yaml:"fill" json:"fill,omitempty"`
	Anchor *Anchor  `yaml:"anchor" json:"anchor,omitempty"`
}

// merge returns a copy of o with unset fields taken from fallback.
func (o WrapOptions) merge(fallback WrapOptions) WrapOptions {
	merged := o
	if merged.Scale == nil {
		merged.Scale = fallback.Scale
	}
	if merged.Fill == "" {
		merged.Fill = fallback.Fill
	}
	if merged.Anchor == nil {
		merged.Anchor = fallback.Anchor
	}
	return merged
}

// CategoryMatcher fires when a common carries every listed category id.
type CategoryMatcher struct {
	Categories []string    `yaml:"categories" json:"categories"`
	Renderers  []Renderer  `yaml:"renderers" json:"renderers"`
	Wrap       WrapOptions `yaml:"wrap" json:"wrap"`
}

// Renderer is one variant of the marker renderer union, discriminated by Kind.
type Renderer struct {
	Kind RendererKind

	// color
	Color string

	// image, icon
	URL string

	// icon
	Width  float64
	Height float64
	Anchor *Anchor

	// category
	Matchers []CategoryMatcher

	// per-renderer wrap overrides
	Wrap WrapOptions
}

// rendererYAML is the on-disk shape of a renderer entry.
type rendererYAML struct {
	Type     RendererKind      `yaml:"type"`
	Color    string            `yaml:"color"`
	URL      string            `yaml:"url"`
	Width    float64           `yaml:"width"`
	Height   float64           `yaml:"height"`
	Anchor   *Anchor           `yaml:"anchor"`
	Matchers []CategoryMatcher `yaml:"matchers"`
	Wrap     WrapOptions       `yaml:"wrap"`
}

func (r *Renderer) UnmarshalYAML(node *yaml.Node) error {
	var raw rendererYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	switch raw.Type {
	case KindThumbnail, KindColor, KindImage, KindIcon, KindTraditional, KindCategory:
	case "":
		return fmt.Errorf("marker renderer is missing a type")
	default:
		return fmt.Errorf("unknown marker renderer type %q", raw.Type)
	}

	*r = Renderer{
		Kind:     raw.Type,
		Color:    raw.Color,
		URL:      raw.URL,
		Width:    raw.Width,
		Height:   raw.Height,
		Anchor:   raw.Anchor,
		Matchers: raw.Matchers,
		Wrap:     raw.Wrap,
	}
	return nil
}

// Config is an ordered renderer chain with shared wrap defaults.
// Renderers are tried first to last; the first usable result wins.
type Config struct {
	Renderers    []Renderer  `yaml:"renderers" json:"renderers"`
	WrapDefaults WrapOptions `yaml:"wrapDefaults" json:"wrapDefaults"`
}

// DefaultCommonConfig is the renderer chain used when a widget configures
// nothing: item thumbnail first, then a flat color swatch.
func DefaultCommonConfig() Config {
	return Config{
		Renderers: []Renderer{
			{Kind: KindThumbnail},
			{Kind: KindColor, Color: "var(--commonsbooking-marker-fill, #2c628d)"},
		},
	}
}
