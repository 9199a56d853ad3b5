package adminajax

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wielebenwir/commonsmap/internal/phpserial"
)

// Payload is the top-level structure of the cb_map_locations response.
type Payload []RawLocation

// RawLocation is one location entry as the endpoint serializes it.
type RawLocation struct {
	Lat        FlexFloat  `json:"lat"`
	Lon        FlexFloat  `json:"lon"`
	Name       string     `json:"location_name"`
	Link       string     `json:"location_link"`
	Address    RawAddress `json:"address"`
	ClosedDays ClosedDays `json:"closed_days"`
	Items      []RawItem  `json:"items"`
}

type RawAddress struct {
	Street string `json:"street"`
	Zip    string `json:"zip"`
	City   string `json:"city"`
}

// RawItem is one bookable item at a location.
type RawItem struct {
	ID               FlexID            `json:"id"`
	Name             string            `json:"name"`
	ShortDescription string            `json:"short_desc"`
	Link             string            `json:"link"`
	Thumbnail        string            `json:"thumbnail"`
	Images           RawImages         `json:"images"`
	Terms            []FlexID          `json:"terms"`
	Availability     []RawAvailability `json:"availability"`
}

type RawAvailability struct {
	Status string `json:"status"`
	Date   string `json:"date"`
}

// FlexID is an identifier the endpoint emits sometimes as a number,
// sometimes as a string. It always normalizes to its string form.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

// FlexFloat tolerates coordinates quoted as strings.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", data, err)
	}
	*f = FlexFloat(v)
	return nil
}

// ClosedDays is the set of weekly closing days as ISO weekday numbers
// (Monday=1 .. Sunday=7). The endpoint emits either a JSON array or a
// PHP-serialized array of numeric strings.
type ClosedDays []int

func (c *ClosedDays) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "false" || trimmed == `""` {
		*c = nil
		return nil
	}

	if trimmed[0] == '[' {
		var raw []FlexID
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		return c.fromStrings(flexToStrings(raw))
	}

	// PHP-serialized form, e.g. a:2:{i:0;s:1:"6";i:1;s:1:"7";}.
	var serialized string
	if err := json.Unmarshal(data, &serialized); err != nil {
		return fmt.Errorf("closed_days is neither array nor string: %w", err)
	}
	decoded, err := phpserial.Decode(serialized)
	if err != nil {
		return fmt.Errorf("closed_days: %w", err)
	}
	values, ok := decoded.([]interface{})
	if !ok {
		return fmt.Errorf("closed_days: serialized value is not an array")
	}
	days := make([]string, 0, len(values))
	for _, v := range values {
		days = append(days, fmt.Sprint(v))
	}
	return c.fromStrings(days)
}

func (c *ClosedDays) fromStrings(days []string) error {
	parsed := make([]int, 0, len(days))
	for _, s := range days {
		day, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || day < 1 || day > 7 {
			return fmt.Errorf("closed_days: invalid weekday %q", s)
		}
		parsed = append(parsed, day)
	}
	*c = parsed
	return nil
}

// Contains reports whether the ISO weekday is a closing day.
func (c ClosedDays) Contains(isoWeekday int) bool {
	for _, day := range c {
		if day == isoWeekday {
			return true
		}
	}
	return false
}

// RawImage is one rendition of an item image: url, width, height, and
// whether the dimensions are exact (a hard crop) or box-fit maxima.
type RawImage struct {
	URL    string
	Width  int
	Height int
	Exact  bool
}

func (i *RawImage) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 3 {
		return fmt.Errorf("image tuple has %d elements, want at least 3", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &i.URL); err != nil {
		return fmt.Errorf("image url: %w", err)
	}
	if err := json.Unmarshal(tuple[1], &i.Width); err != nil {
		return fmt.Errorf("image width: %w", err)
	}
	if err := json.Unmarshal(tuple[2], &i.Height); err != nil {
		return fmt.Errorf("image height: %w", err)
	}
	if len(tuple) > 3 {
		if err := json.Unmarshal(tuple[3], &i.Exact); err != nil {
			return fmt.Errorf("image exact flag: %w", err)
		}
	}
	return nil
}

// MarshalJSON writes the wire tuple back out, so a snapshot of a payload
// decodes with the same UnmarshalJSON that read the original.
func (i RawImage) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{i.URL, i.Width, i.Height, i.Exact})
}

// RawImages maps a rendition size name to its image. A size without a
// rendition is serialized as the literal false and simply dropped here.
type RawImages map[string]RawImage

func (m *RawImages) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	images := make(RawImages, len(raw))
	for size, entry := range raw {
		if s := strings.TrimSpace(string(entry)); s == "false" || s == "null" {
			continue
		}
		var img RawImage
		if err := json.Unmarshal(entry, &img); err != nil {
			return fmt.Errorf("image %q: %w", size, err)
		}
		images[size] = img
	}
	*m = images
	return nil
}

func flexToStrings(ids []FlexID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
