// Package s3 implements transport.Transport over an S3-like object store
// using the AWS SDK for Go v2. The client's network round-trips are
// internally asynchronous; this package exposes the same blocking facade as
// the local transport.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
	"github.com/yonasBSD/conserve/pkg/transport"
)

// Client is the subset of *s3.Client this package depends on, so tests can
// substitute a fake.
type Client interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 is a transport.Transport rooted at a bucket + key prefix.
type S3 struct {
	client Client
	bucket string
	prefix string // no leading slash, may be empty; always without trailing slash
}

var _ transport.Transport = (*S3)(nil)

// Config configures an S3 transport.
type Config struct {
	Bucket string
	Prefix string
}

// New returns an S3 transport using client, scoped to cfg.Bucket/cfg.Prefix.
func New(client Client, cfg Config) *S3 {
	return &S3{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
}

func (s *S3) key(path string) string {
	p := strings.TrimPrefix(path, "/")
	if s.prefix == "" {
		return p
	}
	if p == "" {
		return s.prefix
	}
	return s.prefix + "/" + p
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &notFound)
}

// ListDir implements transport.Transport using a delimited ListObjectsV2
// call so that only the immediate children of path are returned.
func (s *S3) ListDir(ctx context.Context, path string) (files, dirs []string, err error) {
	prefix := s.key(path)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, nil, archiveerror.IO("ListDir", path, err)
		}
		for _, obj := range out.Contents {
			files = append(files, strings.TrimPrefix(aws.ToString(obj.Key), prefix))
		}
		for _, p := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), prefix), "/")
			dirs = append(dirs, name)
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	if len(files) == 0 && len(dirs) == 0 {
		return nil, nil, archiveerror.NotFound("ListDir", path)
	}
	return files, dirs, nil
}

// Read implements transport.Transport.
func (s *S3) Read(ctx context.Context, path string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, archiveerror.NotFound("Read", path)
		}
		return nil, archiveerror.IO("Read", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, archiveerror.IO("Read", path, err)
	}
	return data, nil
}

// ReadRange implements transport.Transport using an HTTP Range header.
func (s *S3) ReadRange(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, archiveerror.NotFound("ReadRange", path)
		}
		return nil, archiveerror.IO("ReadRange", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, archiveerror.IO("ReadRange", path, err)
	}
	return data, nil
}

// Write implements transport.Transport using a single PutObject call, which
// S3 guarantees is atomic: readers never observe a partial object.
func (s *S3) Write(ctx context.Context, path string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return archiveerror.IO("Write", path, err)
	}
	return nil
}

// CreateDir is a no-op: S3 has no directory concept, keys are flat.
func (s *S3) CreateDir(ctx context.Context, path string) error {
	return nil
}

// RemoveFile implements transport.Transport.
func (s *S3) RemoveFile(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err != nil {
		return archiveerror.IO("RemoveFile", path, err)
	}
	return nil
}

// RemoveDirAll implements transport.Transport by listing and deleting every
// key under path.
func (s *S3) RemoveDirAll(ctx context.Context, path string) error {
	prefix := s.key(path)
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return archiveerror.IO("RemoveDirAll", path, err)
		}
		for _, obj := range out.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return archiveerror.IO("RemoveDirAll", path, err)
			}
		}
		if !aws.ToBool(out.IsTruncated) {
			return nil
		}
		token = out.NextContinuationToken
	}
}

// Exists implements transport.Transport.
func (s *S3) Exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(path)),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, archiveerror.IO("Exists", path, err)
}

// SubTransport implements transport.Transport.
func (s *S3) SubTransport(path string) transport.Transport {
	return &S3{client: s.client, bucket: s.bucket, prefix: s.key(path)}
}
