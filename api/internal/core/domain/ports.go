package domain

import (
	"context"
	"io"
)

// TextGenerator is the external advice endpoint: one prompt in, prose out.
// An empty string with a nil error means the service produced no content.
type TextGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// RemoteFolder describes a folder created on the transfer service.
type RemoteFolder struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
}

// RemoteFile describes a file stored on the transfer service.
type RemoteFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType,omitempty"`
	WebViewLink string `json:"webViewLink,omitempty"`
}

// UploadFile is one local file queued for upload. Open is called once per
// upload attempt and the reader is closed by the transfer client.
type UploadFile struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// FileTransfer is the remote storage boundary. The bearer token is supplied
// per call; implementations hold no credentials.
type FileTransfer interface {
	CreateFolder(ctx context.Context, name, token, parentID string) (*RemoteFolder, error)
	UploadFile(ctx context.Context, file UploadFile, folderID, token string) (*RemoteFile, error)
	ListFiles(ctx context.Context, folderID, token string) ([]RemoteFile, error)
}
