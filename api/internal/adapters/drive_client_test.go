package adapters

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reacthost/console/api/internal/core/domain"
)

func TestDriveClient_CreateFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var meta domain.RemoteFolder
		require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
		assert.Equal(t, "site", meta.Name)
		assert.Equal(t, folderMimeType, meta.MimeType)
		assert.Equal(t, []string{"root-1"}, meta.Parents)

		_, _ = w.Write([]byte(`{"id":"f1","name":"site","mimeType":"application/vnd.google-apps.folder","parents":["root-1"]}`))
	}))
	defer srv.Close()

	client := NewDriveClient(srv.URL, srv.URL)
	folder, err := client.CreateFolder(context.Background(), "site", "tok", "root-1")
	require.NoError(t, err)
	assert.Equal(t, "f1", folder.ID)
}

func TestDriveClient_UploadFileMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/related", mediaType)

		mr := multipart.NewReader(r.Body, params["boundary"])

		metaPart, err := mr.NextPart()
		require.NoError(t, err)
		var meta uploadMetadata
		require.NoError(t, json.NewDecoder(metaPart).Decode(&meta))
		assert.Equal(t, "index.html", meta.Name)
		assert.Equal(t, []string{"f1"}, meta.Parents)
		assert.Equal(t, "text/plain", meta.MimeType, "missing type defaults to text/plain")

		filePart, err := mr.NextPart()
		require.NoError(t, err)
		content, err := io.ReadAll(filePart)
		require.NoError(t, err)
		assert.Equal(t, "<h1>hi</h1>", string(content))

		_, _ = w.Write([]byte(`{"id":"file-9","name":"index.html","webViewLink":"https://drive.example/file-9"}`))
	}))
	defer srv.Close()

	client := NewDriveClient(srv.URL, srv.URL)
	file := domain.UploadFile{
		Name: "index.html",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("<h1>hi</h1>")), nil },
	}

	remote, err := client.UploadFile(context.Background(), file, "f1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "file-9", remote.ID)
	assert.Equal(t, "https://drive.example/file-9", remote.WebViewLink)
}

func TestDriveClient_ListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "'f1' in parents", r.URL.Query().Get("q"))
		assert.Equal(t, "files(id,name,webViewLink)", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"files":[{"id":"a","name":"index.html"},{"id":"b","name":"app.js"}]}`))
	}))
	defer srv.Close()

	files, err := NewDriveClient(srv.URL, srv.URL).ListFiles(context.Background(), "f1", "tok")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "app.js", files[1].Name)
}

func TestDriveClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
	}))
	defer srv.Close()

	client := NewDriveClient(srv.URL, srv.URL)
	_, err := client.UploadFile(context.Background(), domain.UploadFile{
		Name: "a.txt",
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil },
	}, "f1", "expired")

	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid Credentials", apiErr.Message)
}
