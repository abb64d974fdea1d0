package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reacthost/console/api/internal/core/domain"
)

type fakeTransfer struct {
	mu       sync.Mutex
	uploaded []string
	failOn   string
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeTransfer) CreateFolder(ctx context.Context, name, token, parentID string) (*domain.RemoteFolder, error) {
	return &domain.RemoteFolder{ID: "folder-" + name, Name: name}, nil
}

func (f *fakeTransfer) UploadFile(ctx context.Context, file domain.UploadFile, folderID, token string) (*domain.RemoteFile, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	// Later files finish first so completion order differs from input order.
	time.Sleep(time.Duration(10-int(file.Name[5]-'0')) * time.Millisecond)

	if file.Name == f.failOn {
		return nil, errors.New("quota exceeded")
	}
	f.mu.Lock()
	f.uploaded = append(f.uploaded, file.Name)
	f.mu.Unlock()
	return &domain.RemoteFile{ID: "id-" + file.Name, Name: file.Name}, nil
}

func (f *fakeTransfer) ListFiles(ctx context.Context, folderID, token string) ([]domain.RemoteFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.RemoteFile, len(f.uploaded))
	for i, name := range f.uploaded {
		out[i] = domain.RemoteFile{ID: "id-" + name, Name: name}
	}
	return out, nil
}

func makeFiles(n int) []domain.UploadFile {
	files := make([]domain.UploadFile, n)
	for i := range files {
		name := fmt.Sprintf("file-%d.js", i)
		files[i] = domain.UploadFile{
			Name: name,
			Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(name)), nil },
		}
	}
	return files
}

func TestDeployFiles_ProgressOncePerFile(t *testing.T) {
	client := &fakeTransfer{}
	svc := NewTransferService(client, 0, testLogger())
	files := makeFiles(8)

	var calls []int
	results, err := svc.DeployFiles(context.Background(), files, "folder", "token", func(completed int) {
		calls = append(calls, completed)
	})
	require.NoError(t, err)

	assert.Len(t, calls, len(files))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, calls)
	for i, r := range results {
		assert.Equal(t, "id-"+files[i].Name, r.ID, "results follow input order")
	}
}

func TestDeployFiles_FailFast(t *testing.T) {
	client := &fakeTransfer{failOn: "file-3.js"}
	svc := NewTransferService(client, 0, testLogger())

	var progress atomic.Int32
	_, err := svc.DeployFiles(context.Background(), makeFiles(6), "folder", "token", func(int) {
		progress.Add(1)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file-3.js")

	listed, err := svc.ListFiles(context.Background(), "folder", "token")
	require.NoError(t, err)
	assert.Equal(t, int(progress.Load()), len(listed), "landed uploads are not rolled back")
}

func TestDeployFiles_ConcurrencyLimit(t *testing.T) {
	client := &fakeTransfer{}
	svc := NewTransferService(client, 2, testLogger())

	_, err := svc.DeployFiles(context.Background(), makeFiles(6), "folder", "token", nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, client.peak.Load(), int32(2))
}

func TestCreateFolder(t *testing.T) {
	svc := NewTransferService(&fakeTransfer{}, 0, testLogger())
	folder, err := svc.CreateFolder(context.Background(), "site", "token", "")
	require.NoError(t, err)
	assert.Equal(t, "folder-site", folder.ID)
}
