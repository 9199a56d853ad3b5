package settings

import (
	"strings"

	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/markericon"
)

// Legacy is the flat, snake_case settings layout of the first widget
// generation. Files without a version field decode as this and are
// upgraded on load.
type Legacy struct {
	LatStart  float64 `yaml:"lat_start"`
	LonStart  float64 `yaml:"lon_start"`
	ZoomStart int     `yaml:"zoom_start"`
	ZoomMin   int     `yaml:"zoom_min"`
	ZoomMax   int     `yaml:"zoom_max"`

	MaxClusterRadius float64 `yaml:"max_cluster_radius"`

	MarkerIconURL     string  `yaml:"marker_icon_url"`
	MarkerIconWidth   float64 `yaml:"marker_icon_width"`
	MarkerIconHeight  float64 `yaml:"marker_icon_height"`
	MarkerIconAnchorX float64 `yaml:"marker_icon_anchor_x"`
	MarkerIconAnchorY float64 `yaml:"marker_icon_anchor_y"`

	GeocodeEndpoint     string `yaml:"geocode_endpoint"`
	GeocodeCountryCodes string `yaml:"geocode_country_codes"`
	Locale              string `yaml:"locale"`

	FilterCategories []Category `yaml:"filter_categories"`
	FilterGroups     []Group    `yaml:"filter_groups"`
}

// Upgrade converts a legacy file to the current schema. It is pure: no
// defaults are applied here, normalization happens on load like for any
// other settings value.
func Upgrade(l Legacy) Settings {
	s := Settings{
		Version: CurrentVersion,
		Filter: Filter{
			Categories: l.FilterCategories,
			Groups:     l.FilterGroups,
		},
		Map: Map{
			Center:        geo.Coordinate{Lat: l.LatStart, Lng: l.LonStart},
			Zoom:          Zoom{Start: l.ZoomStart, Min: l.ZoomMin, Max: l.ZoomMax},
			ClusterRadius: l.MaxClusterRadius,
		},
		Geocode: Geocode{
			Endpoint: l.GeocodeEndpoint,
			Locale:   l.Locale,
		},
	}

	for _, cc := range strings.Split(l.GeocodeCountryCodes, ",") {
		if cc = strings.TrimSpace(cc); cc != "" {
			s.Geocode.CountryCodes = append(s.Geocode.CountryCodes, strings.ToLower(cc))
		}
	}

	// The old layout knew exactly one marker style: a fixed icon image.
	if l.MarkerIconURL != "" {
		icon := markericon.Renderer{
			Kind:   markericon.KindIcon,
			URL:    l.MarkerIconURL,
			Width:  l.MarkerIconWidth,
			Height: l.MarkerIconHeight,
		}
		if l.MarkerIconWidth > 0 && l.MarkerIconHeight > 0 {
			icon.Anchor = &markericon.Anchor{
				X: l.MarkerIconAnchorX / l.MarkerIconWidth,
				Y: l.MarkerIconAnchorY / l.MarkerIconHeight,
			}
		}
		s.Map.MarkerIcon = markericon.Config{Renderers: []markericon.Renderer{icon}}
	}

	return s
}
