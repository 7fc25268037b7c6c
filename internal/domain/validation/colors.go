package validation

import "regexp"

var hexColorRE = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether value is a 3- or 6-digit hex color like
// #fff or #551a8b. Anything else (missing '#', wrong length, non-hex
// digits, empty string) is rejected.
func IsHexColor(value string) bool {
	return hexColorRE.MatchString(value)
}

// ValidateSettingsColors checks every color carried by a settings update
// and returns one message per invalid value. An empty slice means the
// update is safe to persist.
func ValidateSettingsColors(global string, siteColors map[string]string) []string {
	var errs []string

	if global != "" && !IsHexColor(global) {
		errs = append(errs, "visitedColor must be a hex color like #RGB or #RRGGBB")
	}
	for site, color := range siteColors {
		if color != "" && !IsHexColor(color) {
			errs = append(errs, "siteSettings."+site+".visitedColor must be a hex color like #RGB or #RRGGBB")
		}
	}

	return errs
}
