package policy

import (
	"regexp"
	"strconv"
)

// redactionRule rewrites every match of pattern. Rules run in order.
type redactionRule struct {
	name    string
	pattern *regexp.Regexp
	replace func(match string) string
}

var transcriptRules = []redactionRule{
	{
		name:    "email",
		pattern: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`),
		replace: fixed("[REDACTED_EMAIL]"),
	},
	// Before phone, or long card numbers would be masked as phone numbers.
	{
		name:    "card",
		pattern: regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`),
		replace: fixed("[REDACTED_CARD]"),
	},
	{
		name:    "phone",
		pattern: regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`),
		replace: fixed("[REDACTED_PHONE]"),
	},
	{
		name:    "coordinates",
		pattern: regexp.MustCompile(`-?\d{1,2}\.\d{3,}\s*,\s*-?\d{1,3}\.\d{3,}`),
		replace: coarsenLatLng,
	},
}

func fixed(marker string) func(string) string {
	return func(string) string { return marker }
}

// coarsenLatLng keeps two decimals (roughly 1 km) of a shared location.
var latLngPart = regexp.MustCompile(`-?\d+\.\d+`)

func coarsenLatLng(match string) string {
	parts := latLngPart.FindAllString(match, 2)
	if len(parts) != 2 {
		return match
	}
	out := make([]string, 2)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return match
		}
		out[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return out[0] + "," + out[1]
}

// RedactPII masks contact and payment details and coarsens precise
// coordinates in transcript text.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, rule := range transcriptRules {
		next := rule.pattern.ReplaceAllStringFunc(out, rule.replace)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
