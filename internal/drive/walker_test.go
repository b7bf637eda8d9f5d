package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned listings keyed by folder id and page token.
type fakeSource struct {
	pages map[string]map[string]*Listing
	fail  map[string]error
}

func (f *fakeSource) ListChildren(_ context.Context, folderID, pageToken string) (*Listing, error) {
	if err, ok := f.fail[folderID]; ok {
		return nil, err
	}
	folder, ok := f.pages[folderID]
	if !ok {
		return &Listing{}, nil
	}
	listing, ok := folder[pageToken]
	if !ok {
		return &Listing{}, nil
	}
	return listing, nil
}

func (f *fakeSource) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("not used")
}

func TestWalkNestedFolders(t *testing.T) {
	src := &fakeSource{pages: map[string]map[string]*Listing{
		"root": {"": &Listing{Entries: []Entry{
			{ID: "f1", Name: "Powersports", MimeType: FolderMimeType},
		}}},
		"f1": {"": &Listing{Entries: []Entry{
			{ID: "f2", Name: "Kawasaki", MimeType: FolderMimeType},
			{ID: "d1", Name: "overview.pdf", MimeType: "application/pdf", Size: 100},
		}}},
		"f2": {"": &Listing{Entries: []Entry{
			{ID: "d2", Name: "manual.pdf", MimeType: "application/pdf", Size: 200},
		}}},
	}}

	files, err := Walk(context.Background(), src, "root")
	require.NoError(t, err)
	require.Len(t, files, 2)

	byID := make(map[string]string)
	for _, f := range files {
		byID[f.RemoteID] = f.MirroredPath
	}
	assert.Equal(t, "Powersports/overview.pdf", byID["d1"])
	assert.Equal(t, "Powersports/Kawasaki/manual.pdf", byID["d2"])
}

func TestWalkFollowsAllPages(t *testing.T) {
	src := &fakeSource{pages: map[string]map[string]*Listing{
		"root": {
			"": &Listing{
				Entries:       []Entry{{ID: "d1", Name: "a.pdf", MimeType: "application/pdf"}},
				NextPageToken: "p2",
			},
			"p2": &Listing{
				Entries:       []Entry{{ID: "d2", Name: "b.pdf", MimeType: "application/pdf"}},
				NextPageToken: "p3",
			},
			"p3": &Listing{
				Entries: []Entry{{ID: "d3", Name: "c.pdf", MimeType: "application/pdf"}},
			},
		},
	}}

	files, err := Walk(context.Background(), src, "root")
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestWalkSkipsNativeDocuments(t *testing.T) {
	src := &fakeSource{pages: map[string]map[string]*Listing{
		"root": {"": &Listing{Entries: []Entry{
			{ID: "d1", Name: "notes", MimeType: "application/vnd.google-apps.document"},
			{ID: "d2", Name: "sheet", MimeType: "application/vnd.google-apps.spreadsheet"},
			{ID: "d3", Name: "real.pdf", MimeType: "application/pdf"},
		}}},
	}}

	files, err := Walk(context.Background(), src, "root")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "d3", files[0].RemoteID)
}

func TestWalkResolvesNameCollisions(t *testing.T) {
	src := &fakeSource{pages: map[string]map[string]*Listing{
		"root": {"": &Listing{Entries: []Entry{
			{ID: "d1", Name: "manual.pdf", MimeType: "application/pdf"},
			{ID: "d2", Name: "manual.pdf", MimeType: "application/pdf"},
		}}},
	}}

	files, err := Walk(context.Background(), src, "root")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "manual.pdf", files[0].MirroredPath)
	assert.Equal(t, "manual-d2.pdf", files[1].MirroredPath)
}

func TestWalkListingFailureIsFatal(t *testing.T) {
	src := &fakeSource{
		pages: map[string]map[string]*Listing{
			"root": {"": &Listing{Entries: []Entry{
				{ID: "f1", Name: "Sub", MimeType: FolderMimeType},
			}}},
		},
		fail: map[string]error{"f1": errors.New("backend unavailable")},
	}

	_, err := Walk(context.Background(), src, "root")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend unavailable")
}
