package drive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/docsyard/drive-mirror/pkg/models"
)

// Walk enumerates every downloadable file reachable from rootID and returns
// them with mirrored paths synthesized from ancestor folder names. The walk
// follows every page token before a folder's listing is considered complete.
// Any listing failure aborts the walk: a partial tree would silently drop
// catalog coverage of the missed files.
func Walk(ctx context.Context, src Source, rootID string) ([]models.RemoteFile, error) {
	type frame struct {
		id   string
		path string
	}
	stack := []frame{{id: rootID}}
	seen := make(map[string]struct{})
	var files []models.RemoteFile

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		pageToken := ""
		for {
			listing, err := src.ListChildren(ctx, cur.id, pageToken)
			if err != nil {
				return nil, fmt.Errorf("walk %q: %w", cur.path, err)
			}
			for _, e := range listing.Entries {
				childPath := joinPath(cur.path, e.Name)
				switch {
				case e.MimeType == FolderMimeType:
					stack = append(stack, frame{id: e.ID, path: childPath})
				case strings.HasPrefix(e.MimeType, nativePrefix):
					// provider-native document, no bytes to mirror
				default:
					files = append(files, models.RemoteFile{
						RemoteID:     e.ID,
						Name:         e.Name,
						MimeType:     e.MimeType,
						SizeBytes:    e.Size,
						MirroredPath: uniquePath(seen, childPath, e.ID),
					})
				}
			}
			pageToken = listing.NextPageToken
			if pageToken == "" {
				break
			}
		}
	}
	return files, nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// uniquePath resolves sibling name collisions deterministically by suffixing
// the base name with the file's remote id.
func uniquePath(seen map[string]struct{}, p, remoteID string) string {
	if _, ok := seen[p]; ok {
		ext := path.Ext(p)
		p = strings.TrimSuffix(p, ext) + "-" + remoteID + ext
	}
	seen[p] = struct{}{}
	return p
}
