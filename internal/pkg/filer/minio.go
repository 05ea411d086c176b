package filer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioOptions keeps s3 connection settings
type MinioOptions struct {
	URL, User, Key, Bucket string
	HTTPS                  bool
}

// MinioFiler keeps files in a s3 bucket
type MinioFiler struct {
	client *minio.Client
	bucket string
}

// NewMinioFiler connects to the server and creates the bucket if needed
func NewMinioFiler(ctx context.Context, opt MinioOptions) (*MinioFiler, error) {
	if opt.URL == "" {
		return nil, fmt.Errorf("no filer.url")
	}
	if opt.Bucket == "" {
		return nil, fmt.Errorf("no filer.bucket")
	}
	goapp.Log.Info().Str("url", opt.URL).Str("user", opt.User).Str("bucket", opt.Bucket).Msg("minio filer")
	client, err := minio.New(opt.URL, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.User, opt.Key, ""),
		Secure: opt.HTTPS,
	})
	if err != nil {
		return nil, fmt.Errorf("can't init minio: %w", err)
	}
	ok, err := client.BucketExists(ctx, opt.Bucket)
	if err != nil {
		return nil, fmt.Errorf("can't check bucket: %w", err)
	}
	if !ok {
		goapp.Log.Info().Str("bucket", opt.Bucket).Msg("creating bucket")
		if err := client.MakeBucket(ctx, opt.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("can't create bucket: %w", err)
		}
	}
	return &MinioFiler{client: client, bucket: opt.Bucket}, nil
}

// SaveFile uploads the file
func (f *MinioFiler) SaveFile(ctx context.Context, name string, r io.Reader) error {
	n, err := checkName(name)
	if err != nil {
		return err
	}
	info, err := f.client.PutObject(ctx, f.bucket, n, r, -1, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("can't save %s: %w", name, err)
	}
	goapp.Log.Debug().Str("name", n).Int64("size", info.Size).Msg("saved")
	return nil
}

// LoadFile opens the object, returns ErrNotFound if there is no such object.
// The result also provides Stat() (fs.FileInfo, error)
func (f *MinioFiler) LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error) {
	n, err := checkName(name)
	if err != nil {
		return nil, err
	}
	obj, err := f.client.GetObject(ctx, f.bucket, n, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(name, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapErr(name, err)
	}
	return &minioFile{Object: obj, info: info}, nil
}

// Delete removes the object
func (f *MinioFiler) Delete(ctx context.Context, name string) error {
	n, err := checkName(name)
	if err != nil {
		return err
	}
	if err := f.client.RemoveObject(ctx, f.bucket, n, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("can't delete %s: %w", name, err)
	}
	return nil
}

func mapErr(name string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return fmt.Errorf("can't load %s: %w", name, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey"
}

type minioFile struct {
	*minio.Object
	info minio.ObjectInfo
}

// Stat returns object info as fs.FileInfo
func (f *minioFile) Stat() (fs.FileInfo, error) {
	return objectInfo{info: f.info}, nil
}

type objectInfo struct {
	info minio.ObjectInfo
}

func (o objectInfo) Name() string       { return path.Base(o.info.Key) }
func (o objectInfo) Size() int64        { return o.info.Size }
func (o objectInfo) Mode() fs.FileMode  { return 0o444 }
func (o objectInfo) ModTime() time.Time { return o.info.LastModified }
func (o objectInfo) IsDir() bool        { return false }
func (o objectInfo) Sys() interface{}   { return nil }
