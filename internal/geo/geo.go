package geo

import (
	"math"
	"strconv"
)

const earthRadiusMeters = 6371008.8

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GeoLocation is a named point, usually the result of a geocoding lookup.
type GeoLocation struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (g GeoLocation) Coordinate() Coordinate {
	return Coordinate{Lat: g.Lat, Lng: g.Lng}
}

// Distance returns the great-circle (haversine) distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// ValueWithUnit is a display-ready quantity.
type ValueWithUnit struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ApproximateDistance rounds the distance between a and b up to the next
// multiple of stepMeters and picks a human-friendly unit.
func ApproximateDistance(a, b Coordinate, stepMeters float64) ValueWithUnit {
	if stepMeters <= 0 {
		stepMeters = 50
	}
	distance := Distance(a, b)
	approx := math.Ceil(distance/stepMeters) * stepMeters
	if approx >= 1000 {
		return ValueWithUnit{Value: approx / 1000, Unit: "km"}
	}
	return ValueWithUnit{Value: approx, Unit: "m"}
}

// NominatimAddress is the subset of the address detail fields we use.
type NominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	County      string `json:"county"`
	City        string `json:"city"`
	State       string `json:"state"`
	Postcode    string `json:"postcode"`
}

// NominatimResult is a partial type for Nominatim search responses.
// Nominatim serializes coordinates as strings.
type NominatimResult struct {
	PlaceID     int64            `json:"place_id"`
	DisplayName string           `json:"display_name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Class       string           `json:"class"`
	Address     NominatimAddress `json:"address"`
}

func (r NominatimResult) Coordinate() Coordinate {
	lat, _ := strconv.ParseFloat(r.Lat, 64)
	lng, _ := strconv.ParseFloat(r.Lon, 64)
	return Coordinate{Lat: lat, Lng: lng}
}

// ScoreNominatimResult rates how useful a result is for address display.
// Results with a resolvable street address and a building classification win.
func ScoreNominatimResult(r NominatimResult) int {
	score := 0
	if r.Address.State != "" {
		score++
	}
	if r.Address.City != "" || r.Address.County != "" {
		score++
	}
	if r.Address.Postcode != "" {
		score++
	}
	if r.Address.Road != "" {
		score++
	}
	if r.Address.HouseNumber != "" {
		score++
	}
	switch r.Class {
	case "building":
		score += 2
	case "place":
		score++
	}
	return score
}

// FilterNeighboringResults collapses results that lie within maxDistanceMeters
// of each other to the single highest-scored representative per cluster.
// Relative order of the surviving results follows the seed order of the input.
func FilterNeighboringResults(results []NominatimResult, maxDistanceMeters float64) []NominatimResult {
	kept := make([]NominatimResult, 0, len(results))
	consumed := make(map[int64]bool, len(results))

	for _, seed := range results {
		if consumed[seed.PlaceID] {
			continue
		}

		best := seed
		bestScore := ScoreNominatimResult(seed)
		consumed[seed.PlaceID] = true

		for _, other := range results {
			if consumed[other.PlaceID] {
				continue
			}
			if Distance(seed.Coordinate(), other.Coordinate()) > maxDistanceMeters {
				continue
			}
			consumed[other.PlaceID] = true
			if score := ScoreNominatimResult(other); score > bestScore {
				best, bestScore = other, score
			}
		}

		kept = append(kept, best)
	}

	return kept
}

// FormatResults turns raw Nominatim results into display-ready locations.
// The name is assembled as "road house_number, postcode city, state" from the
// parts that are present, falling back to the raw display name.
func FormatResults(results []NominatimResult) []GeoLocation {
	locations := make([]GeoLocation, 0, len(results))
	for _, r := range results {
		street := prefix(r.Address.HouseNumber, r.Address.Road, " ")

		locality := r.Address.City
		if locality == "" {
			locality = r.Address.County
		}
		name := prefix(r.Address.State, locality, ", ")
		name = prefix(name, r.Address.Postcode, " ")
		name = prefix(name, street, ", ")
		if name == "" {
			name = r.DisplayName
		}

		c := r.Coordinate()
		locations = append(locations, GeoLocation{
			ID:   r.PlaceID,
			Name: name,
			Lat:  c.Lat,
			Lng:  c.Lng,
		})
	}
	return locations
}

// prefix prepends head (plus glue) to tail, tolerating either part being empty.
func prefix(tail, head, glue string) string {
	if head == "" {
		return tail
	}
	if tail == "" {
		return head
	}
	return head + glue + tail
}
