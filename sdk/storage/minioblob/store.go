// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package minioblob

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
)

const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Store is the BLOB backend for S3-compatible servers through minio-go.
type Store struct {
	client  *minio.Client
	region  string
	threads uint
}

var _ storage.Backend = (*Store)(nil)

func New(acc config.StorageAccount, tc config.TransferConfig) (*Store, error) {
	tc = tc.WithDefaults()
	endpoint := strings.TrimSpace(acc.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(acc.Name)
	secret := strings.TrimSpace(acc.Key)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(acc.Region)
	if region == "" {
		region = "us-east-1"
	}

	host, secure, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, acc.Token),
		Secure: secure,
		Region: region,
	}
	if acc.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	client, err := minio.New(host, opts)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &Store{client: client, region: region, threads: uint(tc.ConcurrentRequests)}, nil
}

// splitEndpoint accepts "host:port" or a full URL; minio wants the bare host.
func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	return u.Host, u.Scheme != "http", nil
}

func (s *Store) Kind() artifact.StorageKind { return artifact.KindBlob }

func (s *Store) Validate(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}
	return nil
}

func (s *Store) CreateContainerIfAbsent(ctx context.Context, name string, publicAccess *bool) error {
	exists, err := s.client.BucketExists(ctx, name)
	if err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, name, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", name, err)
		}
	}
	if publicAccess != nil && *publicAccess {
		if err := s.client.SetBucketPolicy(ctx, name, fmt.Sprintf(publicReadPolicy, name)); err != nil {
			return fmt.Errorf("failed to set bucket policy: %w", err)
		}
	}
	return nil
}

func (s *Store) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			if minio.ToErrorResponse(obj.Err).Code == "NoSuchBucket" {
				return nil, fmt.Errorf("%w: %s", storage.ErrContainerNotFound, bucket)
			}
			return nil, obj.Err
		}
		if obj.Key == "" || obj.Key == prefix {
			continue
		}
		if strings.HasSuffix(obj.Key, "/") {
			out = append(out, storage.ObjectInfo{Name: obj.Key, IsDir: true})
			continue
		}
		out = append(out, storage.ObjectInfo{Name: obj.Key, Size: obj.Size})
	}
	return out, nil
}

func (s *Store) DeleteAll(ctx context.Context, bucket, prefix string) error {
	objects := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	go func() {
		defer close(objects)
		for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
			if obj.Err != nil {
				if minio.ToErrorResponse(obj.Err).Code != "NoSuchBucket" {
					listErr <- obj.Err
				}
				return
			}
			select {
			case objects <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	var firstErr error
	for rerr := range s.client.RemoveObjects(ctx, bucket, objects, minio.RemoveObjectsOptions{}) {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to delete %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	select {
	case err := <-listErr:
		return fmt.Errorf("list error: %w", err)
	default:
	}
	return firstErr
}

func (s *Store) Object(bucket, key string) storage.Object {
	return &object{s: s, bucket: bucket, key: key}
}

type object struct {
	s      *Store
	bucket string
	key    string
}

func (o *object) Container() string { return o.bucket }
func (o *object) Name() string      { return o.key }

func (o *object) URL() string {
	return storage.ObjectURL(o.s.client.EndpointURL().String(), o.bucket, o.key)
}

func (o *object) Exists(ctx context.Context) (bool, error) {
	_, err := o.s.client.StatObject(ctx, o.bucket, o.key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

func (o *object) Upload(ctx context.Context, r io.Reader, size int64, props storage.Properties, metadata map[string]string) error {
	_, err := o.s.client.PutObject(ctx, o.bucket, o.key, r, size, minio.PutObjectOptions{
		ContentType:     props.ContentType,
		ContentEncoding: props.ContentEncoding,
		ContentLanguage: props.ContentLanguage,
		CacheControl:    props.CacheControl,
		UserMetadata:    metadata,
		NumThreads:      o.s.threads,
	})
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}
	return nil
}

func (o *object) Download(ctx context.Context, w io.Writer) (int64, error) {
	obj, err := o.s.client.GetObject(ctx, o.bucket, o.key, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	n, err := io.Copy(w, obj)
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NoSuchBucket":
			return n, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, o.bucket, o.key)
		}
		return n, fmt.Errorf("failed to read object: %w", err)
	}
	return n, nil
}

func (o *object) Delete(ctx context.Context) error {
	if err := o.s.client.RemoveObject(ctx, o.bucket, o.key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
