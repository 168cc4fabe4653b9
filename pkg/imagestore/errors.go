package imagestore

import "fmt"

// DownloadFailed reports a network or HTTP failure while fetching the image.
type DownloadFailed struct {
	URL string
	Err error
}

func (e *DownloadFailed) Error() string {
	return fmt.Sprintf("image download failed for %s: %v", e.URL, e.Err)
}

func (e *DownloadFailed) Unwrap() error { return e.Err }

// StorageFailed reports a filesystem failure while staging or committing
// the artifact.
type StorageFailed struct {
	Path string
	Err  error
}

func (e *StorageFailed) Error() string {
	return fmt.Sprintf("image storage failed at %s: %v", e.Path, e.Err)
}

func (e *StorageFailed) Unwrap() error { return e.Err }
