package series

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store resolves a video id to its dataset.
type Store interface {
	// Load returns ErrNotFound when no dataset exists for videoID.
	Load(ctx context.Context, videoID string) (*TimeSeries, error)
}

// FileStore reads datasets from <dir>/<video_id>.csv.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logger.Named("file-store")}
}

// Path returns the dataset path for videoID.
func (s *FileStore) Path(videoID string) string {
	return filepath.Join(s.dir, videoID+".csv")
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, videoID string) (*TimeSeries, error) {
	if err := ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(videoID)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
		}
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	ts, err := ReadCSV(f, videoID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Dataset loaded",
		zap.String("video_id", videoID),
		zap.String("label", ts.Label),
		zap.Int("samples", ts.Len()),
		zap.Int("measures", len(ts.Measures())),
	)
	return ts, nil
}

// ValidateVideoID rejects ids that are empty or could escape a dataset root.
func ValidateVideoID(videoID string) error {
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVideoID)
	}
	if strings.ContainsAny(videoID, `/\`) || strings.Contains(videoID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}
	return nil
}
