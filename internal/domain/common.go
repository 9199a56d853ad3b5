package domain

import (
	"time"

	"github.com/wielebenwir/commonsmap/internal/geo"
)

// AvailabilityStatus is the per-date booking state of a common.
type AvailabilityStatus string

const (
	StatusAvailable       AvailabilityStatus = "available"
	StatusBooked          AvailabilityStatus = "booked"
	StatusPartiallyBooked AvailabilityStatus = "partially-booked"
	StatusLocked          AvailabilityStatus = "locked"
	StatusLocationClosed  AvailabilityStatus = "location-closed"
	StatusLocationHoliday AvailabilityStatus = "location-holiday"
	StatusUnknown         AvailabilityStatus = "unknown"
)

// Availability is the booking state of a common on a single calendar day.
type Availability struct {
	Status AvailabilityStatus `json:"status"`
	Date   time.Time          `json:"date"`
}

// Image is one size variant of an item photo.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Common is a bookable/shareable item tied to a pickup location.
//
// All identifiers are strings regardless of how the backend serializes them,
// so ids stay comparable across data sources.
type Common struct {
	ID          string   `json:"id"`
	LocationID  string   `json:"locationId"`
	CategoryIDs []string `json:"categoryIds"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Images      []Image  `json:"images"`

	// Availabilities is keyed by ISO calendar date (2006-01-02).
	Availabilities map[string]Availability `json:"availabilities"`
}

// HasCategory reports whether the common belongs to the given category.
func (c *Common) HasCategory(id string) bool {
	for _, cid := range c.CategoryIDs {
		if cid == id {
			return true
		}
	}
	return false
}

// Address is a postal address of a pickup location.
type Address struct {
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	City       string `json:"city"`
}

// CommonLocation is a physical pickup point hosting one or more commons.
// Its id is derived from coordinates and name, not assigned by the server.
type CommonLocation struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Coordinates geo.Coordinate `json:"coordinates"`
	Address     Address        `json:"address"`
}

// CommonCategory is a tag-like classification of commons.
type CommonCategory struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	GroupID string `json:"groupId"`
}

// CommonCategoryGroup bundles categories for UI filtering. A group with an
// empty name renders as "ungrouped".
type CommonCategoryGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MarkerIcon is a resolved, renderable map marker.
type MarkerIcon struct {
	IconURL    string     `json:"iconUrl"`
	IconSize   [2]float64 `json:"iconSize"`
	IconAnchor [2]float64 `json:"iconAnchor"`
	ClassName  string     `json:"className,omitempty"`
}

// DateString formats t as the ISO calendar date used as availability key.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
