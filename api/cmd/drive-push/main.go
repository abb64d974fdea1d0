// Command drive-push uploads a local build directory into a new remote
// folder through the transfer service.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/reacthost/console/api/internal/adapters"
	"github.com/reacthost/console/api/internal/config"
	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/core/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadTransfer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ invalid transfer configuration: %v\n", err)
		os.Exit(2)
	}

	token := flag.String("token", cfg.Token, "OAuth bearer token for the remote storage API")
	dir := flag.String("dir", "dist", "directory to upload")
	folder := flag.String("folder", "", "name of the remote folder to create (defaults to the directory name)")
	parent := flag.String("parent", "", "optional parent folder id")
	concurrency := flag.Int("concurrency", cfg.Concurrency, "cap on parallel uploads; 0 uploads every file at once")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *token == "" {
		fmt.Fprintln(os.Stderr, "❌ a bearer token is required (-token or DRIVE_TOKEN)")
		os.Exit(2)
	}
	if *folder == "" {
		*folder = filepath.Base(filepath.Clean(*dir))
	}

	files, err := collectFiles(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ could not read %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "❌ %s contains no files\n", *dir)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := adapters.NewDriveClient(cfg.DriveBaseURL, cfg.DriveUploadURL)
	transfer := services.NewTransferService(client, *concurrency, logger)

	remote, err := transfer.CreateFolder(ctx, *folder, *token, *parent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	total := len(files)
	uploaded, err := transfer.DeployFiles(ctx, files, remote.ID, *token, func(completed int) {
		fmt.Printf("\r📦 %d/%d", completed, total)
	})
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Uploaded %d files to %s (%s)\n", len(uploaded), remote.Name, remote.ID)
}

// collectFiles lists the regular files under root in walk order. Names are
// flattened to slash-separated paths relative to root.
func collectFiles(root string) ([]domain.UploadFile, error) {
	var files []domain.UploadFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, domain.UploadFile{
			Name:     filepath.ToSlash(rel),
			MimeType: mime.TypeByExtension(filepath.Ext(path)),
			Size:     info.Size(),
			Open:     func() (io.ReadCloser, error) { return os.Open(path) },
		})
		return nil
	})
	return files, err
}
