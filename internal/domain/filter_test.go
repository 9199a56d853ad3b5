package domain

import (
	"testing"
	"time"

	"github.com/wielebenwir/commonsmap/internal/geo"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func availability(entries map[string]AvailabilityStatus) map[string]Availability {
	m := make(map[string]Availability, len(entries))
	for date, status := range entries {
		m[date] = Availability{Status: status, Date: day(date)}
	}
	return m
}

func testCommons() []Common {
	return []Common{
		{
			ID:          "1",
			LocationID:  "loc-a",
			Name:        "Cargo trike",
			CategoryIDs: []string{"27", "29"},
			Availabilities: availability(map[string]AvailabilityStatus{
				"2024-05-01": StatusAvailable,
				"2024-05-02": StatusAvailable,
			}),
		},
		{
			ID:          "2",
			LocationID:  "loc-b",
			Name:        "Trailer",
			CategoryIDs: []string{"27"},
			Availabilities: availability(map[string]AvailabilityStatus{
				"2024-05-01": StatusBooked,
				"2024-05-02": StatusAvailable,
			}),
		},
		{
			ID:          "3",
			LocationID:  "loc-c",
			Name:        "Handcart",
			CategoryIDs: []string{"27", "29", "31"},
			// No availability data at all.
		},
	}
}

func categories(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestFilterCommonsNoCriteria(t *testing.T) {
	commons := testCommons()
	filtered := FilterCommons(commons, NewFilterSet(), day("2024-05-01"))
	if len(filtered) != len(commons) {
		t.Errorf("empty filter kept %d of %d commons", len(filtered), len(commons))
	}
}

func TestFilterCommonsCategoriesAreConjunctive(t *testing.T) {
	commons := testCommons()

	f := NewFilterSet()
	f.Categories = categories("27", "29")
	filtered := FilterCommons(commons, f, day("2024-05-01"))

	// "2" has 27 but lacks 29, so it must be excluded. "3" has a strict
	// superset of the selection and must be included.
	if len(filtered) != 2 {
		t.Fatalf("got %d commons, want 2", len(filtered))
	}
	if filtered[0].ID != "1" || filtered[1].ID != "3" {
		t.Errorf("got ids %s, %s; want 1, 3", filtered[0].ID, filtered[1].ID)
	}
}

func TestFilterCommonsByLocation(t *testing.T) {
	f := NewFilterSet()
	f.Location = &CommonLocation{ID: "loc-b"}
	filtered := FilterCommons(testCommons(), f, day("2024-05-01"))
	if len(filtered) != 1 || filtered[0].ID != "2" {
		t.Errorf("location filter = %v, want just common 2", filtered)
	}
}

func TestFilterCommonsAvailableToday(t *testing.T) {
	f := NewFilterSet()
	f.AvailableToday = true

	filtered := FilterCommons(testCommons(), f, day("2024-05-01"))
	if len(filtered) != 1 || filtered[0].ID != "1" {
		t.Errorf("available-today = %v, want just common 1", filtered)
	}

	// Commons without an entry for the day never count as available.
	filtered = FilterCommons(testCommons(), f, day("2024-06-01"))
	if len(filtered) != 0 {
		t.Errorf("available-today without data = %d commons, want 0", len(filtered))
	}
}

func TestFilterCommonsSingleDay(t *testing.T) {
	start := day("2024-05-02")
	f := NewFilterSet()
	f.AvailableBetween = DateRange{Start: &start}

	filtered := FilterCommons(testCommons(), f, day("2024-01-01"))
	if len(filtered) != 2 {
		t.Fatalf("single-day filter = %d commons, want 2", len(filtered))
	}
}

func TestFilterCommonsRange(t *testing.T) {
	start, end := day("2024-05-01"), day("2024-05-02")
	f := NewFilterSet()
	f.AvailableBetween = DateRange{Start: &start, End: &end}

	filtered := FilterCommons(testCommons(), f, day("2024-01-01"))

	// "1" is available on both days. "2" is booked on the first day.
	// "3" has no entries in range and passes vacuously.
	if len(filtered) != 2 {
		t.Fatalf("range filter = %d commons, want 2", len(filtered))
	}
	if filtered[0].ID != "1" || filtered[1].ID != "3" {
		t.Errorf("got ids %s, %s; want 1, 3", filtered[0].ID, filtered[1].ID)
	}
}

func TestFilterCommonsRangeEndInclusive(t *testing.T) {
	commons := []Common{{
		ID: "1",
		Availabilities: availability(map[string]AvailabilityStatus{
			"2024-05-03": StatusBooked,
		}),
	}}

	start, end := day("2024-05-01"), day("2024-05-03")
	f := NewFilterSet()
	f.AvailableBetween = DateRange{Start: &start, End: &end}

	if filtered := FilterCommons(commons, f, day("2024-01-01")); len(filtered) != 0 {
		t.Error("a booked entry on the range's end day must exclude the common")
	}
}

func TestFilterCommonsEmptyInput(t *testing.T) {
	f := NewFilterSet()
	f.Categories = categories("27")
	f.AvailableToday = true
	if filtered := FilterCommons(nil, f, time.Now()); len(filtered) != 0 {
		t.Error("filtering an empty collection must yield an empty result")
	}
}

func TestSortByDistance(t *testing.T) {
	ref := geo.Coordinate{Lat: 50.93, Lng: 6.95}
	locations := map[string]CommonLocation{
		"near":    {ID: "near", Coordinates: geo.Coordinate{Lat: 50.931, Lng: 6.951}},
		"mid":     {ID: "mid", Coordinates: geo.Coordinate{Lat: 50.95, Lng: 6.97}},
		"far":     {ID: "far", Coordinates: geo.Coordinate{Lat: 51.2, Lng: 7.2}},
		"farther": {ID: "farther", Coordinates: geo.Coordinate{Lat: 52.5, Lng: 13.4}},
	}
	commons := []Common{
		{ID: "a", LocationID: "farther"},
		{ID: "b", LocationID: "near"},
		{ID: "c", LocationID: "far"},
		{ID: "d", LocationID: "mid"},
	}

	sorted := SortByDistance(commons, ref, locations)

	wantOrder := []string{"b", "d", "c", "a"}
	for i, want := range wantOrder {
		if sorted[i].ID != want {
			t.Errorf("sorted[%d].ID = %s, want %s", i, sorted[i].ID, want)
		}
	}

	// The input must be left untouched.
	if commons[0].ID != "a" {
		t.Error("SortByDistance must not mutate its input")
	}
}

func TestSortByDistanceUnknownLocationKeepsOrder(t *testing.T) {
	ref := geo.Coordinate{Lat: 50.93, Lng: 6.95}
	commons := []Common{
		{ID: "a", LocationID: "missing-1"},
		{ID: "b", LocationID: "missing-2"},
	}
	sorted := SortByDistance(commons, ref, map[string]CommonLocation{})
	if sorted[0].ID != "a" || sorted[1].ID != "b" {
		t.Error("commons without locations must keep their relative order")
	}
}

func TestFilterSetPristine(t *testing.T) {
	f := NewFilterSet()
	if !f.IsPristine() {
		t.Error("fresh filter should be pristine")
	}

	// Map center changes do not count as user-applied filtering.
	f.MapCenter = &geo.Coordinate{Lat: 1, Lng: 2}
	if !f.IsPristine() {
		t.Error("map center must not affect pristine state")
	}

	f.AvailableToday = true
	if f.IsPristine() {
		t.Error("filter with criteria should not be pristine")
	}
}
