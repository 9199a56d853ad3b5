package fixture

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/sources/adminajax"
)

// DefaultDays is how many days of demo availability each item gets.
const DefaultDays = 14

// Source serves a built-in Cologne demo dataset in the exact shape the
// admin-ajax endpoint would return, so the whole pipeline downstream runs
// unchanged without a WordPress backend.
type Source struct {
	days int

	mu   sync.Mutex
	rand *rand.Rand
	now  func() time.Time
}

// New creates a fixture source. days bounds the generated availability
// window; values below one fall back to the default.
func New(days int, seed int64) *Source {
	if days < 1 {
		days = DefaultDays
	}
	return &Source{
		days: days,
		rand: rand.New(rand.NewSource(seed)),
		now:  time.Now,
	}
}

func (s *Source) Type() string { return "fixture" }

// Fetch returns the demo payload with freshly generated availability.
func (s *Source) Fetch(_ context.Context) (adminajax.Payload, error) {
	payload := demoLocations()
	for i := range payload {
		for j := range payload[i].Items {
			payload[i].Items[j].Availability = s.generateAvailability()
		}
	}
	return payload, nil
}

func (s *Source) generateAvailability() []adminajax.RawAvailability {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	entries := make([]adminajax.RawAvailability, 0, s.days)
	for day := 0; day < s.days; day++ {
		entries = append(entries, adminajax.RawAvailability{
			Status: string(pickStatus(s.rand)),
			Date:   domain.DateString(start.AddDate(0, 0, day)),
		})
	}
	return entries
}

// statusWeights skew the demo data towards bookable days.
var statusWeights = []struct {
	status domain.AvailabilityStatus
	weight float64
}{
	{domain.StatusAvailable, 0.5},
	{domain.StatusBooked, 0.3},
	{domain.StatusPartiallyBooked, 0.15},
	{domain.StatusLocked, 0.1},
}

// pickStatus draws one uniform sample per status, scales it by the status
// weight, and keeps the highest. Heavier statuses win proportionally more
// often without ever shutting the others out.
func pickStatus(r *rand.Rand) domain.AvailabilityStatus {
	best := statusWeights[0].status
	bestDraw := -1.0
	for _, sw := range statusWeights {
		if draw := r.Float64() * sw.weight; draw > bestDraw {
			bestDraw = draw
			best = sw.status
		}
	}
	return best
}

// demoLocations returns a fresh copy of the demo dataset, a handful of
// cargo-bike sharing points around Cologne.
func demoLocations() adminajax.Payload {
	return adminajax.Payload{
		{
			Lat: 50.9619, Lon: 7.0034,
			Name: "Buchforst Mobil",
			Link: "https://demo.example.org/location/buchforst-mobil",
			Address: adminajax.RawAddress{
				Street: "Kalk-Mülheimer-Str. 218", Zip: "51065", City: "Köln",
			},
			Items: []adminajax.RawItem{
				{
					ID:               "26",
					Name:             "Bubi",
					ShortDescription: "Zweirädriges Lastenrad mit Regenverdeck",
					Link:             "https://demo.example.org/item/bubi",
					Terms:            []adminajax.FlexID{"28", "34", "30", "31"},
				},
				{
					ID:               "27",
					Name:             "Fuchur",
					ShortDescription: "Langes Lastenrad für zwei Kinder",
					Link:             "https://demo.example.org/item/fuchur",
					Terms:            []adminajax.FlexID{"28", "34", "30", "31"},
				},
			},
		},
		{
			Lat: 50.9427, Lon: 6.9599,
			Name: "Alnatura",
			Link: "https://demo.example.org/location/alnatura",
			Address: adminajax.RawAddress{
				Street: "Richard-Wagner-Str. 9", Zip: "50674", City: "Köln",
			},
			Items: []adminajax.RawItem{{
				ID:               "30",
				Name:             "Artikel mit zwei Slots",
				ShortDescription: "Vormittags und nachmittags getrennt buchbar",
				Link:             "https://demo.example.org/item/artikel-mit-zwei-slots",
			}},
		},
		{
			Lat: 50.9206, Lon: 6.9603,
			Name: "Tafel Köln",
			Link: "https://demo.example.org/location/tafel-koeln",
			Address: adminajax.RawAddress{
				Street: "Bonner Str. 271", Zip: "50968", City: "Köln",
			},
			Items: []adminajax.RawItem{{
				ID:               "32",
				Name:             "TAFELino",
				ShortDescription: "Transportrad für Lebensmittelspenden",
				Link:             "https://demo.example.org/item/tafelino",
				Terms:            []adminajax.FlexID{"28", "29"},
			}},
		},
		{
			Lat: 50.8964, Lon: 7.0183,
			Name: "Bürgerschaftshaus",
			Link: "https://demo.example.org/location/buergerschaftshaus",
			Address: adminajax.RawAddress{
				Street: "Kirchstr. 1b", Zip: "51143", City: "Köln",
			},
			// Closed on weekends; locked days there show up as closed.
			ClosedDays: adminajax.ClosedDays{6, 7},
			Items: []adminajax.RawItem{{
				ID:               "40",
				Name:             "Bockes Bike",
				ShortDescription: "Robustes Dreirad mit großer Ladefläche",
				Link:             "https://demo.example.org/item/bockes-bike",
				Terms:            []adminajax.FlexID{"27", "31", "29"},
			}},
		},
		{
			Lat: 50.9485, Lon: 6.9217,
			Name: "Bei Flo",
			Link: "https://demo.example.org/location/bei-flo",
			Address: adminajax.RawAddress{
				Street: "Stammstr. 32", Zip: "50823", City: "Köln",
			},
			Items: []adminajax.RawItem{{
				ID:               "44",
				Name:             "Ayline",
				ShortDescription: "Wendiges Lastenrad für den Alltag",
				Link:             "https://demo.example.org/item/ayline",
				Terms:            []adminajax.FlexID{"27", "34", "29"},
			}},
		},
		{
			Lat: 50.9795, Lon: 6.9113,
			Name: "bei Anna",
			Link: "https://demo.example.org/location/bei-anna",
			Address: adminajax.RawAddress{
				Street: "Mathildenstr. 7", Zip: "50668", City: "Köln",
			},
			Items: []adminajax.RawItem{{
				ID:               "47",
				Name:             "Madomobil",
				ShortDescription: "Elektrisches Lastenrad mit Kindersitzen",
				Link:             "https://demo.example.org/item/madomobil",
				Terms:            []adminajax.FlexID{"28", "34", "32", "30"},
			}},
		},
		{
			Lat: 50.9321, Lon: 6.9946,
			Name: "Stadtteilbüro Deutz",
			Link: "https://demo.example.org/location/stadtteilbuero-deutz",
			Address: adminajax.RawAddress{
				Street: "Deutzer Freiheit 72", Zip: "50679", City: "Köln",
			},
			// A pickup point that currently hosts no items.
		},
	}
}

// DemoCategories returns the filter categories the demo items reference.
func DemoCategories() []domain.CommonCategory {
	return []domain.CommonCategory{
		{ID: "27", Name: "Dreirädrig", GroupID: "typ"},
		{ID: "28", Name: "Zweirädrig", GroupID: "typ"},
		{ID: "29", Name: "Transport von Lasten", GroupID: "nutzung"},
		{ID: "30", Name: "Transport von Kindern", GroupID: "nutzung"},
		{ID: "31", Name: "Mit Regenschutz", GroupID: "ausstattung"},
		{ID: "32", Name: "Elektrisch unterstützt", GroupID: "ausstattung"},
		{ID: "34", Name: "Lange Ladefläche", GroupID: "ausstattung"},
	}
}

// DemoGroups returns the category groups of the demo dataset.
func DemoGroups() []domain.CommonCategoryGroup {
	return []domain.CommonCategoryGroup{
		{ID: "typ", Name: "Typ"},
		{ID: "nutzung", Name: "Nutzung"},
		{ID: "ausstattung", Name: "Ausstattung"},
	}
}
