package drive

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// FolderMimeType marks folder entries in listings.
const FolderMimeType = "application/vnd.google-apps.folder"

// nativePrefix covers provider-native document types that have no binary
// content to download (docs, sheets, and so on).
const nativePrefix = "application/vnd.google-apps."

// Entry is one child returned by a listing call.
type Entry struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

// Listing is one page of a folder's children.
type Listing struct {
	Entries       []Entry
	NextPageToken string
}

// Source is the remote tree provider consumed by the walker and the syncer.
type Source interface {
	ListChildren(ctx context.Context, folderID, pageToken string) (*Listing, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// Client implements Source against the Google Drive v3 API with a read-only
// service-account credential.
type Client struct {
	svc *drive.Service
}

// NewClient builds a Drive client from a service-account JSON blob.
func NewClient(ctx context.Context, credentials []byte) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentials, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) ListChildren(ctx context.Context, folderID, pageToken string) (*Listing, error) {
	call := c.svc.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed = false", folderID)).
		Fields("nextPageToken, files(id, name, mimeType, size)").
		PageSize(1000).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", folderID, err)
	}
	listing := &Listing{NextPageToken: res.NextPageToken}
	for _, f := range res.Files {
		listing.Entries = append(listing.Entries, Entry{
			ID:       f.Id,
			Name:     f.Name,
			MimeType: f.MimeType,
			Size:     f.Size,
		})
	}
	return listing, nil
}

func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", fileID, err)
	}
	return data, nil
}
