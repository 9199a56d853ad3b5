package adminajax

import (
	"regexp"
	"strconv"
	"time"

	"github.com/wielebenwir/commonsmap/internal/domain"
	"github.com/wielebenwir/commonsmap/internal/geo"
	"github.com/wielebenwir/commonsmap/internal/logger"
)

// imageSizes is the rendition order images are kept in, smallest first.
var imageSizes = []string{"thumbnail", "medium", "large", "full"}

// filenameDims matches WordPress rendition suffixes like "-150x150.webp".
// Renditions report the box they were fitted into, not their real pixel
// size; the real size is recoverable from the file name.
var filenameDims = regexp.MustCompile(`(?i)-(\d+)x(\d+)\.(webp|avif|jpe?g|png|gif)$`)

// Mapper converts the raw admin-ajax payload into domain commons and
// locations.
type Mapper struct {
	// categories restricts item terms to the ids the widget actually
	// filters on. Terms outside the set are discarded.
	categories map[string]struct{}
	log        logger.Logger
}

// NewMapper creates a mapper that keeps only the given category ids.
func NewMapper(categoryIDs []string, log logger.Logger) *Mapper {
	set := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		set[id] = struct{}{}
	}
	return &Mapper{categories: set, log: log}
}

// Map normalizes the payload. Locations without a name or items are kept:
// an empty location is still a pin on the map.
func (m *Mapper) Map(payload Payload) ([]domain.Common, map[string]domain.CommonLocation) {
	var commons []domain.Common
	locations := make(map[string]domain.CommonLocation, len(payload))

	for i := range payload {
		raw := &payload[i]
		loc := mapLocation(raw)
		locations[loc.ID] = loc

		for j := range raw.Items {
			commons = append(commons, m.mapItem(&raw.Items[j], raw, loc.ID))
		}
	}
	return commons, locations
}

// mapLocation derives the location identity from its coordinates and name,
// so the same place is the same pin across reloads even though the
// endpoint assigns no ids.
func mapLocation(raw *RawLocation) domain.CommonLocation {
	lat := strconv.FormatFloat(float64(raw.Lat), 'f', -1, 64)
	lon := strconv.FormatFloat(float64(raw.Lon), 'f', -1, 64)

	return domain.CommonLocation{
		ID:   lat + "-" + lon + "-" + raw.Name,
		Name: raw.Name,
		Coordinates: geo.Coordinate{
			Lat: float64(raw.Lat),
			Lng: float64(raw.Lon),
		},
		Address: domain.Address{
			Street:     raw.Address.Street,
			PostalCode: raw.Address.Zip,
			City:       raw.Address.City,
		},
	}
}

func (m *Mapper) mapItem(item *RawItem, loc *RawLocation, locationID string) domain.Common {
	return domain.Common{
		ID:             string(item.ID),
		LocationID:     locationID,
		Name:           item.Name,
		Description:    item.ShortDescription,
		URL:            item.Link,
		CategoryIDs:    m.mapTerms(item.Terms),
		Images:         mapImages(item),
		Availabilities: m.mapAvailability(item, loc),
	}
}

// mapTerms keeps only terms that are configured filter categories.
func (m *Mapper) mapTerms(terms []FlexID) []string {
	kept := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := m.categories[string(term)]; ok {
			kept = append(kept, string(term))
		}
	}
	return kept
}

// mapImages orders renditions small to large. When a rendition's
// dimensions are box-fit maxima rather than exact, the real size is read
// from the file name suffix.
func mapImages(item *RawItem) []domain.Image {
	var images []domain.Image
	for _, size := range imageSizes {
		raw, ok := item.Images[size]
		if !ok || raw.URL == "" {
			continue
		}
		img := domain.Image{URL: raw.URL, Width: raw.Width, Height: raw.Height}
		if !raw.Exact {
			if w, h, ok := dimsFromFilename(raw.URL); ok {
				img.Width, img.Height = w, h
			}
		}
		images = append(images, img)
	}

	if len(images) == 0 && item.Thumbnail != "" {
		images = append(images, domain.Image{URL: item.Thumbnail})
	}
	return images
}

func dimsFromFilename(url string) (width, height int, ok bool) {
	match := filenameDims.FindStringSubmatch(url)
	if match == nil {
		return 0, 0, false
	}
	width, _ = strconv.Atoi(match[1])
	height, _ = strconv.Atoi(match[2])
	return width, height, true
}

// mapAvailability parses the per-day statuses. Days the location is closed
// anyway are reported by the endpoint as locked; those are reclassified so
// clients can distinguish "booked out" from "closed".
func (m *Mapper) mapAvailability(item *RawItem, loc *RawLocation) map[string]domain.Availability {
	if len(item.Availability) == 0 {
		return nil
	}

	availabilities := make(map[string]domain.Availability, len(item.Availability))
	for _, raw := range item.Availability {
		date, err := time.Parse("2006-01-02", raw.Date)
		if err != nil {
			m.log.Warn("skipping availability entry with invalid date",
				logger.String("item", string(item.ID)),
				logger.String("date", raw.Date))
			continue
		}

		status := parseStatus(raw.Status)
		if status == domain.StatusLocked && loc.ClosedDays.Contains(isoWeekday(date)) {
			status = domain.StatusLocationClosed
		}

		availabilities[domain.DateString(date)] = domain.Availability{
			Status: status,
			Date:   date,
		}
	}
	return availabilities
}

func parseStatus(s string) domain.AvailabilityStatus {
	switch domain.AvailabilityStatus(s) {
	case domain.StatusAvailable, domain.StatusBooked, domain.StatusPartiallyBooked,
		domain.StatusLocked, domain.StatusLocationClosed, domain.StatusLocationHoliday:
		return domain.AvailabilityStatus(s)
	}
	return domain.StatusUnknown
}

// isoWeekday maps time.Weekday to ISO-8601 numbering (Monday=1, Sunday=7).
func isoWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}
