package settings

import (
	"fmt"
	"strings"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/markericon"
)

// CurrentVersion is the settings schema this package writes and prefers.
const CurrentVersion = 2

// Settings is the per-widget configuration: what the map shows, which
// categories can be filtered on, and how address search behaves.
type Settings struct {
	Version int     `yaml:"version"`
	Filter  Filter  `yaml:"filter"`
	Map     Map     `yaml:"map"`
	Geocode Geocode `yaml:"geocode"`
}

// Filter configures the offered filter criteria.
type Filter struct {
	Categories []Category `yaml:"categories"`
	Groups     []Group    `yaml:"groups"`
}

type Category struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
}

type Group struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Map configures the initial viewport and marker rendering.
type Map struct {
	Center        geo.Coordinate    `yaml:"center"`
	Zoom          Zoom              `yaml:"zoom"`
	ClusterRadius float64           `yaml:"clusterRadius"`
	MarkerIcon    markericon.Config `yaml:"markerIcon"`
	UserMarker    markericon.Config `yaml:"userMarkerIcon"`

	// Palette maps CSS custom property names to values; marker color
	// renderers resolve their var() references against it.
	Palette map[string]string `yaml:"palette"`
}

type Zoom struct {
	Start int `yaml:"start"`
	Min   int `yaml:"min"`
	Max   int `yaml:"max"`
}

// Geocode configures the address search.
type Geocode struct {
	Endpoint string `yaml:"endpoint"`
	// Locale is a BCP 47 tag; its region supplies the country filter when
	// CountryCodes is empty.
	Locale             string   `yaml:"locale"`
	CountryCodes       []string `yaml:"countryCodes"`
	DedupeRadiusMeters float64  `yaml:"dedupeRadiusMeters"`
}

// Default returns the settings an unconfigured widget runs with.
func Default() Settings {
	s := Settings{
		Version: CurrentVersion,
		Map: Map{
			Center:        geo.Coordinate{Lat: 50.9375, Lng: 6.9603},
			Zoom:          Zoom{Start: 11, Min: 3, Max: 19},
			ClusterRadius: 80,
		},
		Geocode: Geocode{
			Endpoint:           "https://nominatim.openstreetmap.org/search",
			Locale:             "de-DE",
			DedupeRadiusMeters: 30,
		},
	}
	s.normalize()
	return s
}

// normalize fills derivable gaps so consumers never special-case empties.
func (s *Settings) normalize() {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.Map.Zoom.Start == 0 {
		s.Map.Zoom.Start = 11
	}
	if s.Map.Zoom.Min == 0 {
		s.Map.Zoom.Min = 3
	}
	if s.Map.Zoom.Max == 0 {
		s.Map.Zoom.Max = 19
	}
	if s.Map.ClusterRadius == 0 {
		s.Map.ClusterRadius = 80
	}
	if len(s.Map.MarkerIcon.Renderers) == 0 {
		s.Map.MarkerIcon = markericon.DefaultCommonConfig()
	}
	if s.Geocode.Endpoint == "" {
		s.Geocode.Endpoint = "https://nominatim.openstreetmap.org/search"
	}
	if s.Geocode.DedupeRadiusMeters == 0 {
		s.Geocode.DedupeRadiusMeters = 30
	}
	if len(s.Geocode.CountryCodes) == 0 {
		if cc := regionFromLocale(s.Geocode.Locale); cc != "" {
			s.Geocode.CountryCodes = []string{cc}
		}
	}
}

// validate rejects settings no widget could run with.
func (s *Settings) validate() error {
	var problems []string
	if s.Map.Zoom.Min > s.Map.Zoom.Max {
		problems = append(problems, fmt.Sprintf("zoom min %d exceeds max %d", s.Map.Zoom.Min, s.Map.Zoom.Max))
	}
	if s.Map.Zoom.Start < s.Map.Zoom.Min || s.Map.Zoom.Start > s.Map.Zoom.Max {
		problems = append(problems, fmt.Sprintf("zoom start %d outside [%d, %d]", s.Map.Zoom.Start, s.Map.Zoom.Min, s.Map.Zoom.Max))
	}
	if s.Map.Center.Lat < -90 || s.Map.Center.Lat > 90 || s.Map.Center.Lng < -180 || s.Map.Center.Lng > 180 {
		problems = append(problems, fmt.Sprintf("map center %v is not a coordinate", s.Map.Center))
	}
	seen := make(map[string]struct{}, len(s.Filter.Categories))
	for _, cat := range s.Filter.Categories {
		if cat.ID == "" {
			problems = append(problems, "filter category without id")
			continue
		}
		if _, dup := seen[cat.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate filter category %s", cat.ID))
		}
		seen[cat.ID] = struct{}{}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return nil
}

// CategoryIDs returns the ids of all configured filter categories.
func (s *Settings) CategoryIDs() []string {
	ids := make([]string, len(s.Filter.Categories))
	for i, cat := range s.Filter.Categories {
		ids[i] = cat.ID
	}
	return ids
}

// DomainCategories converts the configured categories to domain values.
func (s *Settings) DomainCategories() []domain.CommonCategory {
	categories := make([]domain.CommonCategory, len(s.Filter.Categories))
	for i, cat := range s.Filter.Categories {
		categories[i] = domain.CommonCategory{ID: cat.ID, Name: cat.Name, GroupID: cat.Group}
	}
	return categories
}

// DomainGroups converts the configured groups to domain values.
func (s *Settings) DomainGroups() []domain.CommonCategoryGroup {
	groups := make([]domain.CommonCategoryGroup, len(s.Filter.Groups))
	for i, g := range s.Filter.Groups {
		groups[i] = domain.CommonCategoryGroup{ID: g.ID, Name: g.Name}
	}
	return groups
}

// regionFromLocale extracts the lowercased region from tags like "de-DE"
// or "de_AT". A bare language tag yields the language itself, which for
// the common European cases matches the country code.
func regionFromLocale(locale string) string {
	if locale == "" {
		return ""
	}
	parts := strings.FieldsFunc(locale, func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(parts) >= 2 && len(parts[1]) == 2 {
		return strings.ToLower(parts[1])
	}
	if len(parts[0]) == 2 {
		return strings.ToLower(parts[0])
	}
	return ""
}
