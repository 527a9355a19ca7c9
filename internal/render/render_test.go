package render

import (
	"regexp"
	"strings"
	"testing"

	"embedrc/internal/oembed"
)

const youtubeHTML = `<iframe width="480" height="270" src="https://www.youtube.com/embed/Dsws8T9_cEE?feature=oembed" frameborder="0" allowfullscreen></iframe>`

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name   string
		width  string
		height string
		want   float64
	}{
		{"absolute", "480", "270", 0.5625},
		{"percentages", "50%", "50%", 1.0},
		{"mixed units", "480", "50%", 0},
		{"mixed units reversed", "100%", "270", 0},
		{"pixel suffix", "640px", "360px", 0.5625},
		{"zero width", "0", "270", 0},
		{"empty", "", "", 0},
		{"garbage", "wide", "tall", 0},
		{"square", "300", "300", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AspectRatio(tt.width, tt.height); got != tt.want {
				t.Errorf("AspectRatio(%q, %q) = %v, want %v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestCardAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		resp oembed.Response
		want float64
	}{
		{
			"from iframe",
			oembed.Response{"html": youtubeHTML},
			0.5625,
		},
		{
			"percent iframe",
			oembed.Response{"html": `<iframe width="50%" height="50%"></iframe>`},
			1.0,
		},
		{
			"mixed iframe falls back to response size",
			oembed.Response{"html": `<iframe width="480" height="50%"></iframe>`, "width": float64(400), "height": float64(300)},
			0.75,
		},
		{
			"mixed iframe and mixed response",
			oembed.Response{"html": `<iframe width="480" height="50%"></iframe>`, "width": "100%", "height": float64(300)},
			DefaultAspectRatio,
		},
		{
			"mixed iframe without response size",
			oembed.Response{"html": `<iframe width="480" height="50%"></iframe>`},
			DefaultAspectRatio,
		},
		{
			"no iframe uses response size",
			oembed.Response{"html": `<blockquote>tweet</blockquote>`, "width": float64(550), "height": float64(275)},
			0.5,
		},
		{
			"script embed without size",
			oembed.Response{"html": `<script src="//e.issuu.com/embed.js"></script>`},
			DefaultAspectRatio,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CardAspectRatio(tt.resp); got != tt.want {
				t.Errorf("CardAspectRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirectEmbed(t *testing.T) {
	r := New(nil)
	resp := oembed.Response{"html": youtubeHTML}

	got := r.DirectEmbed(resp, "")
	want := `<div class="oembed-content">` + youtubeHTML + `</div>`
	if got != want {
		t.Errorf("DirectEmbed() = %q, want %q", got, want)
	}

	got = r.DirectEmbed(resp, "&rel=0&autoplay=1")
	if !strings.Contains(got, `?feature=oembed&amp;rel=0&amp;autoplay=1"`) {
		t.Errorf("params not appended to feature marker: %q", got)
	}
}

func TestDirectEmbedNilResponse(t *testing.T) {
	var warnings []string
	r := New(func(w string) { warnings = append(warnings, w) })

	if got := r.DirectEmbed(nil, ""); got != "" {
		t.Errorf("DirectEmbed(nil) = %q, want empty", got)
	}
	if len(warnings) != 1 || warnings[0] != ConnectionError {
		t.Errorf("warnings = %v, want the connection error", warnings)
	}
}

func TestPreloadCard(t *testing.T) {
	r := New(nil)
	resp := oembed.Response{
		"html":          youtubeHTML,
		"title":         "Snow <Fun>",
		"thumbnail_url": "https://i.ytimg.com/vi/Dsws8T9_cEE/hqdefault.jpg",
		"provider_name": "YouTube",
	}

	got := r.PreloadCard(resp, "")

	if !strings.HasPrefix(got, `<div class="oembed-card-container">`) {
		t.Errorf("missing card container: %s", got)
	}
	card := regexp.MustCompile(`<div class="oembed-card" style="[^"]*hqdefault\.jpg[^"]*" data-embed="[^"]*" data-aspect-ratio="0\.5625">`)
	if !card.MatchString(got) {
		t.Errorf("card root does not match %s: %s", card, got)
	}
	if !strings.Contains(got, `<div class="oembed-card-title">Snow &lt;Fun&gt;</div>`) {
		t.Errorf("title missing or unescaped: %s", got)
	}
	if !strings.Contains(got, `<button class="btn btn-link oembed-card-play" aria-label="Play"></button>`) {
		t.Errorf("play button missing: %s", got)
	}
	if strings.Contains(got, "<iframe") {
		t.Errorf("card must not contain a live iframe: %s", got)
	}
	if !strings.Contains(got, "&lt;iframe") {
		t.Errorf("escaped embed should be carried in data-embed: %s", got)
	}
}

func TestPreloadCardWithoutThumbnail(t *testing.T) {
	got := New(nil).PreloadCard(oembed.Response{"html": `<iframe width="50%" height="50%"></iframe>`}, "")

	if !strings.Contains(got, `style=""`) {
		t.Errorf("expected empty style without thumbnail: %s", got)
	}
	if !strings.Contains(got, `data-aspect-ratio="1"`) {
		t.Errorf("expected ratio 1: %s", got)
	}
	if strings.Contains(got, "oembed-card-provider") {
		t.Errorf("provider row should be omitted: %s", got)
	}
}
