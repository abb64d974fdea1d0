package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/reacthost/console/api/internal/core/domain"
)

const folderMimeType = "application/vnd.google-apps.folder"

var _ domain.FileTransfer = (*DriveClient)(nil)

// DriveClient talks to the Drive v3 REST API. Every call carries the
// caller's bearer token.
type DriveClient struct {
	httpClient
	baseURL   string
	uploadURL string
}

func NewDriveClient(baseURL, uploadURL string, opts ...Option) *DriveClient {
	return &DriveClient{
		httpClient: newHTTPClient(opts),
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadURL:  strings.TrimRight(uploadURL, "/"),
	}
}

func (c *DriveClient) CreateFolder(ctx context.Context, name, token, parentID string) (*domain.RemoteFolder, error) {
	metadata := domain.RemoteFolder{Name: name, MimeType: folderMimeType, Parents: []string{}}
	if parentID != "" {
		metadata.Parents = []string{parentID}
	}

	var folder domain.RemoteFolder
	endpoint := c.baseURL + "/files?fields=id,name,mimeType,parents"
	if err := c.doJSON(ctx, http.MethodPost, endpoint, bearer(token), metadata, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

type uploadMetadata struct {
	Name     string   `json:"name"`
	Parents  []string `json:"parents"`
	MimeType string   `json:"mimeType"`
}

// UploadFile sends a multipart/related body: JSON metadata first, then the
// file content. The body is streamed, so large files are never buffered.
func (c *DriveClient) UploadFile(ctx context.Context, file domain.UploadFile, folderID, token string) (*domain.RemoteFile, error) {
	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}
	meta, err := json.Marshal(uploadMetadata{Name: file.Name, Parents: []string{folderID}, MimeType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", file.Name, err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer src.Close()
		pw.CloseWithError(writeRelated(mw, meta, mimeType, src))
	}()

	endpoint := c.uploadURL + "/files?uploadType=multipart&fields=id,name,mimeType,webViewLink"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		pr.CloseWithError(err)
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vals := range bearer(token) {
		req.Header[k] = vals
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+mw.Boundary())

	var remote domain.RemoteFile
	if err := c.send(req, &remote); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &remote, nil
}

func writeRelated(mw *multipart.Writer, meta []byte, mimeType string, src io.Reader) error {
	metaPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return err
	}
	if _, err := metaPart.Write(meta); err != nil {
		return err
	}

	filePart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return err
	}
	if _, err := io.Copy(filePart, src); err != nil {
		return err
	}
	return mw.Close()
}

func (c *DriveClient) ListFiles(ctx context.Context, folderID, token string) ([]domain.RemoteFile, error) {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("'%s' in parents", strings.ReplaceAll(folderID, "'", `\'`)))
	q.Set("fields", "files(id,name,webViewLink)")

	var resp struct {
		Files []domain.RemoteFile `json:"files"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/files?"+q.Encode(), bearer(token), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}
