// Package css builds the visited-link style sheets injected into pages.
package css

import (
	"fmt"
	"strings"
)

// PropertyName is the custom property carrying the visited-link color.
const PropertyName = "--visited-link-color"

// containerTags replicate each selector under common containers to win
// specificity fights against page-author rules.
var containerTags = []string{"body", "main", "article", "section", "nav", "div", "p", "li", "td", "span"}

// classMarkers are class names pages commonly put on link elements.
var classMarkers = []string{".link", ".url", ".external"}

// Generate returns a style sheet forcing the given color onto visited
// links. An empty color produces an unset property, which lets the page
// style through.
func Generate(color string) string {
	value := color
	if value == "" {
		value = "unset"
	}

	var b strings.Builder
	fmt.Fprintf(&b, ":root { %s: %s; }\n", PropertyName, value)
	b.WriteString(strings.Join(selectors(), ",\n"))
	fmt.Fprintf(&b, " {\n  color: var(%s) !important;\n}\n", PropertyName)
	return b.String()
}

// GenerateReset returns a style sheet that sets the property back to
// unset. Used to turn coloring off without uninstalling anything.
func GenerateReset() string {
	return Generate("")
}

func selectors() []string {
	base := []string{
		"a:visited",
		"a:visited *",
		`[role="link"].visited`,
		`[role="link"].visited *`,
	}
	for _, class := range classMarkers {
		base = append(base, "a:visited "+class, "a"+class+":visited")
	}

	out := make([]string, 0, len(base)*(len(containerTags)+1))
	out = append(out, base...)
	for _, tag := range containerTags {
		for _, sel := range base {
			out = append(out, tag+" "+sel)
		}
	}
	return out
}
