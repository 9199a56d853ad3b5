package markericon

import (
	"context"
	"strings"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

// maxVarDepth caps chained palette variable references.
const maxVarDepth = 8

// Resolver turns a renderer chain into a concrete marker icon for a common
// (or for the user position marker). Image URLs go through the shared cache.
type Resolver struct {
	cache   *ImageCache
	palette map[string]string
	log     logger.Logger
}

// NewResolver builds a resolver. palette maps CSS custom property names
// (including the leading dashes) to their values and may be nil.
func NewResolver(cache *ImageCache, palette map[string]string, log logger.Logger) *Resolver {
	return &Resolver{cache: cache, palette: palette, log: log}
}

// ResolveCommonIcon resolves the marker icon for a single common. Renderers
// are tried in configured order; the first one producing an icon wins. When
// none does, the traditional pin is returned.
func (r *Resolver) ResolveCommonIcon(ctx context.Context, cfg Config, c *domain.Common) domain.MarkerIcon {
	return r.resolve(ctx, cfg, c)
}

// ResolveUserIcon resolves the marker for the user's own position. It works
// like ResolveCommonIcon but has no common to draw thumbnails or category
// memberships from, so those renderer kinds never fire.
func (r *Resolver) ResolveUserIcon(ctx context.Context, cfg Config) domain.MarkerIcon {
	return r.resolve(ctx, cfg, nil)
}

func (r *Resolver) resolve(ctx context.Context, cfg Config, c *domain.Common) domain.MarkerIcon {
	if icon, ok := r.resolveChain(ctx, cfg.Renderers, cfg.WrapDefaults, c); ok {
		return icon
	}
	return TraditionalIcon()
}

// resolveChain walks the renderer list and returns the first usable icon.
// wrap carries the already-merged options from the enclosing levels.
func (r *Resolver) resolveChain(ctx context.Context, renderers []Renderer, wrap WrapOptions, c *domain.Common) (domain.MarkerIcon, bool) {
	for i := range renderers {
		if icon, ok := r.resolveRenderer(ctx, &renderers[i], wrap, c); ok {
			return icon, true
		}
	}
	return domain.MarkerIcon{}, false
}

func (r *Resolver) resolveRenderer(ctx context.Context, rd *Renderer, parentWrap WrapOptions, c *domain.Common) (domain.MarkerIcon, bool) {
	wrap := rd.Wrap.merge(parentWrap)

	switch rd.Kind {
	case KindThumbnail:
		if c == nil {
			return domain.MarkerIcon{}, false
		}
		img := pickThumbnail(c.Images)
		if img == nil {
			return domain.MarkerIcon{}, false
		}
		uri := r.cache.Resolve(ctx, img.URL)
		if uri == "" {
			return domain.MarkerIcon{}, false
		}
		return wrapIcon(wrapContent{imageURI: uri}, wrap), true

	case KindColor:
		color := r.resolveColor(rd.Color)
		if color == "" {
			return domain.MarkerIcon{}, false
		}
		return wrapIcon(wrapContent{color: color}, wrap), true

	case KindImage:
		uri := r.cache.Resolve(ctx, rd.URL)
		if uri == "" {
			return domain.MarkerIcon{}, false
		}
		return wrapIcon(wrapContent{imageURI: uri}, wrap), true

	case KindIcon:
		if rd.URL == "" {
			return domain.MarkerIcon{}, false
		}
		return plainIcon(rd), true

	case KindTraditional:
		return TraditionalIcon(), true

	case KindCategory:
		if c == nil {
			return domain.MarkerIcon{}, false
		}
		for i := range rd.Matchers {
			m := &rd.Matchers[i]
			if !matchesCategories(c, m.Categories) {
				continue
			}
			// Matcher options take precedence over the renderer's own,
			// which in turn override the config-level defaults.
			if icon, ok := r.resolveChain(ctx, m.Renderers, m.Wrap.merge(wrap), c); ok {
				return icon, true
			}
		}
		return domain.MarkerIcon{}, false
	}

	return domain.MarkerIcon{}, false
}

// plainIcon uses a ready-made icon image as-is, without the pin template.
func plainIcon(rd *Renderer) domain.MarkerIcon {
	w, h := rd.Width, rd.Height
	if w <= 0 {
		w = templateWidth
	}
	if h <= 0 {
		h = templateHeight
	}
	anchor := defaultAnchor
	if rd.Anchor != nil {
		anchor = *rd.Anchor
	}
	return domain.MarkerIcon{
		IconURL:    rd.URL,
		IconSize:   [2]float64{w, h},
		IconAnchor: [2]float64{w * anchor.X, h * anchor.Y},
		ClassName:  "cb-marker",
	}
}

// matchesCategories reports whether the common carries every listed category.
// An empty list matches everything.
func matchesCategories(c *domain.Common, ids []string) bool {
	for _, id := range ids {
		if !c.HasCategory(id) {
			return false
		}
	}
	return true
}

// pickThumbnail prefers the first roughly square image so the circular
// template cutout does not crop away most of the picture. Falls back to the
// first image with a URL.
func pickThumbnail(images []domain.Image) *domain.Image {
	for i := range images {
		img := &images[i]
		if img.URL == "" || img.Width <= 0 || img.Height <= 0 {
			continue
		}
		ratio := float64(img.Width) / float64(img.Height)
		if ratio >= 0.75 && ratio <= 1.34 {
			return img
		}
	}
	for i := range images {
		if images[i].URL != "" {
			return &images[i]
		}
	}
	return nil
}

// resolveColor resolves CSS variable references against the palette. A
// reference that cannot be resolved falls back to its embedded default;
// without one it logs a diagnostic and yields the built-in fill.
func (r *Resolver) resolveColor(raw string) string {
	value := strings.TrimSpace(raw)
	for depth := 0; depth < maxVarDepth; depth++ {
		name, fallback, isVar := parseCSSVar(value)
		if !isVar {
			return value
		}
		if v, ok := r.palette[name]; ok && strings.TrimSpace(v) != "" {
			value = strings.TrimSpace(v)
			continue
		}
		if fallback != "" {
			value = fallback
			continue
		}
		r.log.Warn("marker color variable is not defined in the palette",
			logger.String("variable", name))
		return defaultFill
	}
	r.log.Warn("marker color variable chain is too deep",
		logger.String("color", raw))
	return defaultFill
}

// parseCSSVar splits `var(--name)` / `var(--name, fallback)` into its parts.
func parseCSSVar(s string) (name, fallback string, ok bool) {
	if !strings.HasPrefix(s, "var(") || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	inner := s[len("var(") : len(s)-1]
	if i := strings.Index(inner, ","); i >= 0 {
		name = strings.TrimSpace(inner[:i])
		fallback = strings.TrimSpace(inner[i+1:])
	} else {
		name = strings.TrimSpace(inner)
	}
	if !strings.HasPrefix(name, "--") {
		return "", "", false
	}
	return name, fallback, true
}
