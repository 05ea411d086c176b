package filer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/airenas/go-app/pkg/goapp"
)

// LocalFiler keeps files in a local directory
type LocalFiler struct {
	dir string
}

// NewLocalFiler creates the dir if needed
func NewLocalFiler(dir string) (*LocalFiler, error) {
	if dir == "" {
		dir = "data"
	}
	for _, d := range []string{UploadDir, AudioDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return nil, fmt.Errorf("can't create dir: %w", err)
		}
	}
	goapp.Log.Info().Str("dir", dir).Msg("local filer")
	return &LocalFiler{dir: dir}, nil
}

// SaveFile writes the file, it becomes visible only when fully written
func (f *LocalFiler) SaveFile(ctx context.Context, name string, r io.Reader) error {
	fn, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
		return fmt.Errorf("can't create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(fn), ".save-*")
	if err != nil {
		return fmt.Errorf("can't create file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("can't write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("can't close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), fn); err != nil {
		return fmt.Errorf("can't rename %s: %w", name, err)
	}
	goapp.Log.Debug().Str("name", name).Msg("saved")
	return nil
}

// LoadFile opens the file, returns ErrNotFound if there is no such file
func (f *LocalFiler) LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	fn, err := f.path(name)
	if err != nil {
		return nil, err
	}
	res, err := os.Open(fn)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("can't open %s: %w", name, err)
	}
	if st, err := res.Stat(); err != nil || st.IsDir() {
		res.Close()
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return res, nil
}

// Delete removes the file, a missing file is not an error
func (f *LocalFiler) Delete(ctx context.Context, name string) error {
	fn, err := f.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fn); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("can't delete %s: %w", name, err)
	}
	return nil
}

func (f *LocalFiler) path(name string) (string, error) {
	n, err := checkName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.dir, filepath.FromSlash(n)), nil
}
