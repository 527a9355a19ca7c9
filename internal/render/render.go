// Package render turns oEmbed responses into page markup: either the
// provider's embed directly or a lazy-loading preload card.
package render

import (
	"bytes"
	"html"
	"html/template"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"embedrc/internal/oembed"
)

// DefaultAspectRatio is used when no ratio can be derived (16:9).
const DefaultAspectRatio = 0.5625

// ConnectionError is the warning recorded when no response is available.
const ConnectionError = "Error connecting to external provider, please try reloading the page."

const featureMarker = "?feature=oembed"

// The aspect ratio attribute is read by the client-side loader to size
// the placeholder before the embed is swapped in.
var cardTemplate = template.Must(template.New("card").Parse(
	`<div class="oembed-card-container">` +
		`<div class="oembed-card" style="{{if .Thumbnail}}background-image: url('{{.Thumbnail}}');{{end}}" data-embed="{{.Embed}}" data-aspect-ratio="{{.AspectRatio}}">` +
		`<div class="oembed-card-title">{{.Title}}</div>` +
		`{{if .ProviderName}}<div class="oembed-card-provider">{{.ProviderName}}</div>{{end}}` +
		`<button class="btn btn-link oembed-card-play" aria-label="{{.PlayLabel}}"></button>` +
		`</div></div>`))

type cardData struct {
	Embed        string
	AspectRatio  string
	Title        string
	Thumbnail    string
	ProviderName string
	PlayLabel    string
}

// Renderer produces embed markup. Warnings are reported through warn.
type Renderer struct {
	warn func(string)
}

// New returns a Renderer; warn may be nil.
func New(warn func(string)) *Renderer {
	if warn == nil {
		warn = func(string) {}
	}
	return &Renderer{warn: warn}
}

// DirectEmbed wraps the response html in the responsive container. params
// are extra player parameters appended to YouTube-style feature markers.
func (r *Renderer) DirectEmbed(resp oembed.Response, params string) string {
	if resp == nil {
		r.warn(ConnectionError)
		return ""
	}

	embed := resp.HTML()
	if params != "" {
		embed = strings.ReplaceAll(embed, featureMarker, featureMarker+html.EscapeString(params))
	}
	return `<div class="oembed-content">` + embed + `</div>`
}

// PreloadCard renders the click-to-play placeholder for resp.
func (r *Renderer) PreloadCard(resp oembed.Response, params string) string {
	if resp == nil {
		r.warn(ConnectionError)
		return ""
	}

	data := cardData{
		Embed:        r.DirectEmbed(resp, params),
		AspectRatio:  strconv.FormatFloat(CardAspectRatio(resp), 'f', -1, 64),
		Title:        resp.Title(),
		Thumbnail:    resp.ThumbnailURL(),
		ProviderName: resp.ProviderName(),
		PlayLabel:    "Play",
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, data); err != nil {
		r.warn(err.Error())
		return ""
	}
	return buf.String()
}

// CardAspectRatio derives height/width for the placeholder: first from the
// embed's iframe attributes, then from the response dimensions, then the
// 16:9 default.
func CardAspectRatio(resp oembed.Response) float64 {
	if w, h, ok := iframeSize(resp.HTML()); ok {
		if ratio := AspectRatio(w, h); ratio != 0 {
			return ratio
		}
	}

	w, wok := resp.Dimension("width")
	h, hok := resp.Dimension("height")
	if wok && hok {
		if ratio := AspectRatio(w, h); ratio != 0 {
			return ratio
		}
	}
	return DefaultAspectRatio
}

// iframeSize returns the width and height attributes of the first iframe
// in fragment.
func iframeSize(fragment string) (string, string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", "", false
	}
	iframe := doc.Find("iframe").First()
	if iframe.Length() == 0 {
		return "", "", false
	}
	return iframe.AttrOr("width", ""), iframe.AttrOr("height", ""), true
}

// AspectRatio computes height/width when both values are percentages or
// both are absolute. Mixed units, or a zero width, give 0.
func AspectRatio(width, height string) float64 {
	wPerc := strings.Contains(width, "%")
	hPerc := strings.Contains(height, "%")
	if wPerc != hPerc {
		return 0
	}

	w := leadingInt(width)
	if w == 0 {
		return 0
	}
	return float64(leadingInt(height)) / float64(w)
}

// leadingInt parses the integer prefix of s ("270px" -> 270, "abc" -> 0).
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
