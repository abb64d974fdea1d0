package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reacthost/console/api/internal/core/domain"
)

// TransferService drives the remote storage client. It is not part of the
// wizard flow; the drive-push command is its only caller.
type TransferService struct {
	client      domain.FileTransfer
	concurrency int
	logger      *slog.Logger
}

// NewTransferService limits parallel uploads to concurrency; zero or less
// issues every upload at once.
func NewTransferService(client domain.FileTransfer, concurrency int, logger *slog.Logger) *TransferService {
	return &TransferService{client: client, concurrency: concurrency, logger: logger}
}

func (s *TransferService) CreateFolder(ctx context.Context, name, token, parentID string) (*domain.RemoteFolder, error) {
	folder, err := s.client.CreateFolder(ctx, name, token, parentID)
	if err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	s.logger.Info("Remote folder created", slog.String("folder_id", folder.ID), slog.String("name", name))
	return folder, nil
}

func (s *TransferService) ListFiles(ctx context.Context, folderID, token string) ([]domain.RemoteFile, error) {
	return s.client.ListFiles(ctx, folderID, token)
}

// DeployFiles uploads every file into folderID concurrently. onProgress is
// called once per successful upload with the running completed count; calls
// are serialized but follow completion order, not input order.
//
// The batch fails fast: the first error cancels the remaining uploads and is
// returned. Files that already landed are not removed.
func (s *TransferService) DeployFiles(
	ctx context.Context,
	files []domain.UploadFile,
	folderID, token string,
	onProgress func(completed int),
) ([]domain.RemoteFile, error) {
	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	results := make([]domain.RemoteFile, len(files))
	var (
		mu        sync.Mutex
		completed int
	)

	for i, file := range files {
		g.Go(func() error {
			remote, err := s.client.UploadFile(gctx, file, folderID, token)
			if err != nil {
				return fmt.Errorf("upload %s: %w", file.Name, err)
			}
			results[i] = *remote

			mu.Lock()
			defer mu.Unlock()
			completed++
			if onProgress != nil {
				onProgress(completed)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		mu.Lock()
		landed := completed
		mu.Unlock()
		s.logger.Error("Batch upload failed", slog.Int("uploaded", landed), slog.Int("total", len(files)), slog.Any("error", err))
		return nil, err
	}
	return results, nil
}
