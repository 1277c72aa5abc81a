package cloudfiles

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/spf13/afero"
)

const defaultContentType = "application/octet-stream"

// PutFile uploads the file at localPath as object name. The content type is
// derived from the file extension.
func (c *Container) PutFile(ctx context.Context, fs afero.Fs, localPath, name string, progress ProgressFunc) (string, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if name == "" {
		name = filepath.Base(localPath)
	}
	f, err := fs.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("cloudfiles: open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("cloudfiles: stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return "", invalidArgument(opPutObject, localPath, "is a directory")
	}

	item, err := NewStorageItemWithStream(name, nil, contentTypeFor(localPath), f, info.Size())
	if err != nil {
		return "", err
	}
	return c.PutObject(ctx, item, progress)
}

// GetFile downloads object name into localPath, creating parent directories
// as needed. It returns the number of bytes written.
func (c *Container) GetFile(ctx context.Context, fs afero.Fs, name, localPath string) (int64, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	item, err := c.GetObject(ctx, name)
	if err != nil {
		return 0, err
	}
	defer item.Close()

	if dir := filepath.Dir(localPath); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("cloudfiles: create %s: %w", dir, err)
		}
	}
	f, err := fs.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("cloudfiles: create %s: %w", localPath, err)
	}
	n, err := io.Copy(f, item)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("cloudfiles: write %s: %w", localPath, err)
	}
	return n, nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return defaultContentType
}
