// Package source opens line-delimited JSON inputs for import: local files,
// standard input and objects in S3-compatible storage, transparently
// decompressing .gz, .zst and .lz4 content.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pierrec/lz4/v4"
)

// Stdin is the name that selects standard input.
const Stdin = "-"

const s3Scheme = "s3://"

var ErrNoS3Endpoint = errors.New("source: s3 endpoint not configured")

// S3Options configures access to S3-compatible object storage.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

type Options struct {
	S3 S3Options
	// Stdin replaces os.Stdin for the "-" input.
	Stdin io.Reader
}

// Open returns a reader over the decompressed content named by uri.
func Open(ctx context.Context, uri string, opts Options) (io.ReadCloser, error) {
	var (
		rc  io.ReadCloser
		err error
	)
	switch {
	case uri == Stdin:
		in := opts.Stdin
		if in == nil {
			in = os.Stdin
		}
		rc = io.NopCloser(in)
	case strings.HasPrefix(uri, s3Scheme):
		rc, err = openS3(ctx, uri, opts.S3)
	default:
		rc, err = os.Open(uri)
	}
	if err != nil {
		return nil, err
	}

	out, err := Decompress(rc, uri)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return out, nil
}

// Decompress wraps rc in a decompressor chosen by the extension of name.
// Closing the result closes rc.
func Decompress(rc io.ReadCloser, name string) (io.ReadCloser, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("source: gzip %s: %w", name, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr, rc}}, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("source: zstd %s: %w", name, err)
		}
		return &readCloser{Reader: zr, closers: []io.Closer{zr.IOReadCloser(), rc}}, nil
	case ".lz4":
		return &readCloser{Reader: lz4.NewReader(rc), closers: []io.Closer{rc}}, nil
	default:
		return rc, nil
	}
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("source: not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("source: s3 uri needs a bucket and a key: %q", uri)
	}
	return bucket, key, nil
}

func openS3(ctx context.Context, uri string, opts S3Options) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if opts.Endpoint == "" {
		return nil, ErrNoS3Endpoint
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("source: s3 client: %w", err)
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("source: get %s: %w", uri, err)
	}
	// GetObject is lazy; Stat surfaces a missing object before reading starts.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("source: stat %s: %w", uri, err)
	}
	return obj, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
