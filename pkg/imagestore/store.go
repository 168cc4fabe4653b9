// Package imagestore downloads remote images into a content-addressed
// directory. The final file name is derived from a digest of the stored
// bytes, so byte-identical images from different URLs converge on one
// artifact and overwrites are always safe.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Doomwhite/obsidian-link-embed/models"
	"github.com/Doomwhite/obsidian-link-embed/pkg/hasher"
)

const defaultExtension = "jpg"

// Downloader is the slice of the fetcher the store needs.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (contentType string, err error)
}

type Store struct {
	downloader Downloader
}

func NewStore(d Downloader) *Store {
	return &Store{downloader: d}
}

// Store fetches sourceURL and commits it under destDir as
// "{sha256}.{ext}", returning the final file name. The bytes are fully
// staged in a private temp file before hashing so the digest covers exactly
// what lands on disk. On any failure the staging file is removed
// best-effort and the original error is returned.
func (s *Store) Store(ctx context.Context, sourceURL, destDir string) (*models.DownloadedImage, error) {
	staging, err := os.CreateTemp("", "link-embed-*.img")
	if err != nil {
		return nil, &StorageFailed{Path: os.TempDir(), Err: err}
	}
	stagingPath := staging.Name()

	img, err := s.stage(ctx, staging, stagingPath, sourceURL, destDir)
	if err != nil {
		// Cleanup is best-effort; the original error wins.
		_ = os.Remove(stagingPath)
		return nil, err
	}
	return img, nil
}

func (s *Store) stage(ctx context.Context, staging *os.File, stagingPath, sourceURL, destDir string) (*models.DownloadedImage, error) {
	contentType, err := s.downloader.Download(ctx, sourceURL, staging)
	if err != nil {
		staging.Close()
		return nil, &DownloadFailed{URL: sourceURL, Err: err}
	}
	if err := staging.Close(); err != nil {
		return nil, &StorageFailed{Path: stagingPath, Err: err}
	}

	staged, err := os.Open(stagingPath)
	if err != nil {
		return nil, &StorageFailed{Path: stagingPath, Err: err}
	}
	contentHash, err := hasher.SHA256Hex(staged)
	staged.Close()
	if err != nil {
		return nil, &StorageFailed{Path: stagingPath, Err: err}
	}

	extension := ExtensionFromContentType(contentType)
	finalName := fmt.Sprintf("%s.%s", contentHash, extension)
	finalPath := filepath.Join(destDir, finalName)

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, &StorageFailed{Path: destDir, Err: err}
	}
	if err := commit(stagingPath, finalPath); err != nil {
		return nil, &StorageFailed{Path: finalPath, Err: err}
	}

	return &models.DownloadedImage{
		ContentHash: contentHash,
		Extension:   extension,
		FinalName:   finalName,
		FinalPath:   finalPath,
	}, nil
}

// commit moves the staged file to its final path, overwriting any existing
// file. An existing file with the same name holds identical content under
// the hash scheme, so the overwrite is idempotent. Rename can cross a
// filesystem boundary between the temp dir and the vault, so fall back to a
// copy when it fails.
func commit(stagingPath, finalPath string) error {
	if err := os.Rename(stagingPath, finalPath); err == nil {
		return nil
	}

	src, err := os.Open(stagingPath)
	if err != nil {
		return fmt.Errorf("failed to reopen staging file: %w", err)
	}
	defer src.Close()
	defer os.Remove(stagingPath)

	dst, err := os.Create(finalPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy staged bytes: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to finalize destination file: %w", err)
	}
	return nil
}

// ExtensionFromContentType derives a file extension from a declared content
// type. Pure and total: missing or malformed values fall back to "jpg".
func ExtensionFromContentType(contentType string) string {
	mediaType := strings.TrimSpace(strings.Split(contentType, ";")[0])
	slash := strings.Index(mediaType, "/")
	if slash < 0 || slash == len(mediaType)-1 {
		return defaultExtension
	}

	subtype := strings.ToLower(mediaType[slash+1:])
	switch subtype {
	case "jpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	}
	return subtype
}
