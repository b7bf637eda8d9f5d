package sync

import (
	"mime"
	"path"
	"strings"
)

// derivePlacement computes the catalog's derived columns from a mirrored
// path. Segment 0 is the category, segment 1 the brand tag, and the title is
// the file name with its extension stripped. These are pure functions of the
// path and are recomputed on every sync so they track renames.
func derivePlacement(mirroredPath string) (category, brand, title string) {
	segs := strings.Split(mirroredPath, "/")
	name := segs[len(segs)-1]
	title = strings.TrimSuffix(name, path.Ext(name))

	category, brand = "Unknown", "Unknown"
	if len(segs) > 1 {
		category = segs[0]
	}
	if len(segs) > 2 {
		brand = segs[1]
	}
	return category, brand, title
}

// contentType picks the type to tag the stored object with: provider's
// report first, then a guess from the extension, then generic binary.
func contentType(reported, name string) string {
	if reported != "" {
		return reported
	}
	if byExt := mime.TypeByExtension(path.Ext(name)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}
