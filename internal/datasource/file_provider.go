package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileSource = "file"

// FileProvider replays saved payloads from a directory laid out as
// <dir>/<yyyy-mm-dd>/<course_id>.json, falling back to <dir>/<yyyy-mm-dd>.json
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider reading payloads under dir
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Name returns the name of the provider
func (p *FileProvider) Name() string {
	return fileSource
}

// FetchResults reads the saved payload for date and courseID
func (p *FileProvider) FetchResults(ctx context.Context, date time.Time, courseID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewDataSourceError(fileSource, ErrCodeNetworkError, "context done", err)
	}

	for _, path := range p.candidates(date, courseID) {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, NewDataSourceError(fileSource, ErrCodeUnknown, "failed to read "+path, err)
		}
		if !json.Valid(data) {
			return nil, NewDataSourceError(fileSource, ErrCodeInvalidData, path+" is not valid JSON", nil)
		}
		return data, nil
	}

	return nil, NewDataSourceError(fileSource, ErrCodeNotFound,
		fmt.Sprintf("no payload for %s course %q", date.Format("2006-01-02"), courseID), os.ErrNotExist)
}

func (p *FileProvider) candidates(date time.Time, courseID string) []string {
	day := date.Format("2006-01-02")
	var paths []string
	if courseID != "" {
		paths = append(paths, filepath.Join(p.dir, day, filepath.Base(courseID)+".json"))
	}
	return append(paths, filepath.Join(p.dir, day+".json"))
}
