package filer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/spf13/viper"
)

const (
	// UploadDir keeps submitted documents
	UploadDir = "uploads"
	// AudioDir keeps produced audio
	AudioDir = "audio"
)

// ErrNotFound is returned when there is no file by the name
var ErrNotFound = errors.New("file not found")

// Filer saves, loads and deletes files by slash separated names
type Filer interface {
	SaveFile(ctx context.Context, name string, r io.Reader) error
	LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error)
	Delete(ctx context.Context, name string) error
}

// UploadName returns the storage name of the uploaded document
func UploadName(file string) string {
	return path.Join(UploadDir, file)
}

// AudioName returns the storage name of the audio file
func AudioName(file string) string {
	return path.Join(AudioDir, file)
}

// NewFromConfig creates filer by the filer.type setting
func NewFromConfig(ctx context.Context, c *viper.Viper) (Filer, error) {
	t := c.GetString("filer.type")
	goapp.Log.Info().Str("type", t).Msg("init filer")
	switch t {
	case "", "local":
		return NewLocalFiler(c.GetString("filer.dir"))
	case "minio":
		return NewMinioFiler(ctx, MinioOptions{Bucket: c.GetString("filer.bucket"), URL: c.GetString("filer.url"),
			User: c.GetString("filer.user"), Key: c.GetString("filer.key"), HTTPS: c.GetBool("filer.https")})
	}
	return nil, fmt.Errorf("unknown filer type '%s'", t)
}

func checkName(name string) (string, error) {
	res := path.Clean(strings.TrimSpace(name))
	if res == "." || res == "/" || path.IsAbs(res) || res == ".." || strings.HasPrefix(res, "../") {
		return "", fmt.Errorf("wrong file name '%s'", name)
	}
	return res, nil
}
