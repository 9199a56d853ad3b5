package markericon

import (
	"encoding/base64"
	"fmt"

	"github.com/wielebenwir/commonsmap/internal/domain"
)

// The built-in marker template: a 60x70 pin whose tip sits at the
// bottom-center, which is also the default anchor point.
const (
	templateWidth  = 60.0
	templateHeight = 70.0

	defaultFill = "#2c628d"

	pinPath = "M30 0C13.43 0 0 13.43 0 30c0 10.85 7.52 21.93 14.83 30.36C22.3 68.97 30 70 30 70s7.7-1.03 15.17-9.64C52.48 51.93 60 40.85 60 30 60 13.43 46.57 0 30 0z"
)

var defaultAnchor = Anchor{X: 0.5, Y: 1}

// wrapContent is what gets embedded into the pin template: either an image
// (as data URI) or a flat color swatch.
type wrapContent struct {
	imageURI string
	color    string
}

// wrapIcon synthesizes an inline SVG marker from the pin template and the
// given content, honoring the merged wrap options.
func wrapIcon(content wrapContent, opts WrapOptions) domain.MarkerIcon {
	scale := 1.0
	if opts.Scale != nil && *opts.Scale > 0 {
		scale = *opts.Scale
	}
	fill := opts.Fill
	if fill == "" {
		fill = defaultFill
	}
	anchor := defaultAnchor
	if opts.Anchor != nil {
		anchor = *opts.Anchor
	}

	var embedded string
	switch {
	case content.imageURI != "":
		embedded = fmt.Sprintf(
			`<clipPath id="c"><circle cx="30" cy="27" r="21"/></clipPath>`+
				`<image href="%s" x="9" y="6" width="42" height="42" preserveAspectRatio="xMidYMid slice" clip-path="url(#c)"/>`,
			content.imageURI)
	case content.color != "":
		embedded = fmt.Sprintf(`<circle cx="30" cy="27" r="21" fill="%s"/>`, content.color)
	}

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 60 70">`+
			`<path d="%s" fill="%s"/>%s</svg>`,
		templateWidth*scale, templateHeight*scale, pinPath, fill, embedded)

	return domain.MarkerIcon{
		IconURL:    "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)),
		IconSize:   [2]float64{templateWidth * scale, templateHeight * scale},
		IconAnchor: [2]float64{templateWidth * scale * anchor.X, templateHeight * scale * anchor.Y},
		ClassName:  "cb-marker",
	}
}

// TraditionalIcon is the fixed fallback marker used when nothing else
// resolves. Dimensions match the classic Leaflet pin.
func TraditionalIcon() domain.MarkerIcon {
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="25" height="41" viewBox="0 0 60 70" preserveAspectRatio="none">`+
			`<path d="%s" fill="%s"/><circle cx="30" cy="27" r="12" fill="#ffffff"/></svg>`,
		pinPath, defaultFill)

	return domain.MarkerIcon{
		IconURL:    "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)),
		IconSize:   [2]float64{25, 41},
		IconAnchor: [2]float64{12.5, 41},
		ClassName:  "cb-marker cb-marker-traditional",
	}
}
