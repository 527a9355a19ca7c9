package oembed

import (
	"strconv"
)

// Response is a decoded oEmbed JSON object.
type Response map[string]any

func (r Response) str(key string) string {
	if s, ok := r[key].(string); ok {
		return s
	}
	return ""
}

// HTML is the embeddable markup.
func (r Response) HTML() string { return r.str("html") }

func (r Response) Title() string { return r.str("title") }

func (r Response) ThumbnailURL() string { return r.str("thumbnail_url") }

func (r Response) ProviderName() string { return r.str("provider_name") }

// Dimension returns a width/height style member as text, whether the
// provider sent it as a number or a string. ok is false when absent.
func (r Response) Dimension(key string) (string, bool) {
	switch v := r[key].(type) {
	case string:
		return v, v != ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}
