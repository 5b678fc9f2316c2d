package recio

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
)

var registerS3Once sync.Once

// EnableS3 registers the s3:// scheme with grailbio/base/file, so every
// path-taking function in this package (and the CLI built on top of it)
// transparently accepts s3:// URIs alongside local paths. Safe to call
// more than once.
func EnableS3() {
	registerS3Once.Do(func() {
		file.RegisterImplementation("s3", func() file.Implementation {
			return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
		})
	})
}

// OpenReader opens path (local or s3://) for reading.
func OpenReader(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return readCloser{f: f, ctx: ctx, r: f.Reader(ctx)}, nil
}

// OpenWriter creates path (local or s3://) for writing, truncating any
// existing object.
func OpenWriter(ctx context.Context, path string) (io.WriteCloser, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	return writeCloser{f: f, ctx: ctx, w: f.Writer(ctx)}, nil
}

type readCloser struct {
	f   file.File
	ctx context.Context
	r   io.Reader
}

func (rc readCloser) Read(p []byte) (int, error) { return rc.r.Read(p) }
func (rc readCloser) Close() error { return rc.f.Close(rc.ctx) }

type writeCloser struct {
	f   file.File
	ctx context.Context
	w   io.Writer
}

func (wc writeCloser) Write(p []byte) (int, error) { return wc.w.Write(p) }
func (wc writeCloser) Close() error { return wc.f.Close(wc.ctx) }
