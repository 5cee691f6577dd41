package secretloader

import (
	"context"
	"os"
)

// A Loader that reads the secret from a local file.
type fileLoader struct {
	expiry

	// The source URL used to define the loader.
	sourceURL string

	// The file that will be loaded from disk.
	file string
}

// Fetch the raw data from the file.
func (f *fileLoader) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.file)
	if err != nil {
		return nil, err
	}
	f.touch()
	return data, nil
}

// Returns the URL used to generate this Loader.
func (f *fileLoader) URL(ctx context.Context) string {
	return f.sourceURL
}
