// Package rename holds the clip library maintenance tools: filename
// normalisation and collision-free bulk renames.
package rename

import (
	"regexp"
	"strings"
)

// duplicateMarker matches a ".1" or "_1" copy marker right before the extension.
var duplicateMarker = regexp.MustCompile(`(\.1|_1)(\.[^.]+)$`)

// Normalize replaces commas with semicolons and drops a ".1"/"_1" copy marker
// in front of the extension.
func Normalize(name string) string {
	name = strings.ReplaceAll(name, ",", ";")
	return duplicateMarker.ReplaceAllString(name, "$2")
}

// CleanFilename rebuilds a clip filename of the form "<id> <description>"
// around newID. The old id token is discarded; a name without a space has no
// description.
func CleanFilename(filename, newID string) string {
	var description string
	if _, rest, ok := strings.Cut(filename, " "); ok {
		description = Normalize(rest)
	}
	return strings.TrimSpace(newID + " " + description)
}
