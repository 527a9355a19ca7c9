package provider

import (
	"regexp"
	"strings"
)

// schemePrefix matches the protocol part of a scheme.
var schemePrefix = regexp.MustCompile(`^https?://`)

// segmentEscaper escapes regex metacharacters in a scheme segment, leaving
// the * wildcard for wildcardToRegex.
var segmentEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`?`, `\?`,
	`+`, `\+`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`^`, `\^`,
	`$`, `\$`,
)

// SchemeToRegex converts a glob-like oEmbed scheme into a regular
// expression. Each path segment has its literal characters escaped and
// every * turned into a non-greedy wildcard; segments are joined with an
// escaped slash and the whole is prefixed with an http(s) capture group.
//
//	"https://*.youtube.com/*" -> `(https?:\/\/).*?\.youtube\.com\/.*?`
func SchemeToRegex(scheme string) string {
	rest := schemePrefix.ReplaceAllString(strings.TrimSpace(scheme), "")

	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		seg = segmentEscaper.Replace(seg)
		segments[i] = strings.ReplaceAll(seg, "*", ".*?")
	}
	return `(https?:\/\/)` + strings.Join(segments, `\/`)
}

// Compile turns schemes into matchable patterns, in order. Schemes that
// still fail to compile are skipped.
func Compile(schemes []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(schemes))
	for _, s := range schemes {
		if strings.TrimSpace(s) == "" {
			continue
		}
		re, err := regexp.Compile(SchemeToRegex(s))
		if err != nil {
			continue
		}
		patterns = append(patterns, re)
	}
	return patterns
}

// Matches reports whether any pattern is found anywhere in text.
// This is a substring search over the raw text, not URL extraction.
func Matches(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
