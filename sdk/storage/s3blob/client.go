// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

package s3blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/scc-digitalhub/artifactsync-sdk/sdk/artifact"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/config"
	"github.com/scc-digitalhub/artifactsync-sdk/sdk/storage"
)

const (
	defaultRegion = "us-east-1"
	pageSize      = 1000
)

// Client is the BLOB backend over the S3 API.
type Client struct {
	s3       *s3.Client
	uploader *manager.Uploader
	endpoint string
	region   string
}

var _ storage.Backend = (*Client)(nil)

func New(ctx context.Context, acc config.StorageAccount, tc config.TransferConfig) (*Client, error) {
	tc = tc.WithDefaults()
	region := acc.Region
	if region == "" {
		region = defaultRegion
	}

	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		acc.Name,
		acc.Key,
		acc.Token,
	))

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(region),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewStandard(), tc.MaxRetries)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Options := func(o *s3.Options) {
		if acc.Endpoint != "" {
			o.BaseEndpoint = aws.String(acc.Endpoint)
			o.UsePathStyle = true // needed by most S3-compatible services
		}
		if acc.PathStyle {
			o.UsePathStyle = true
		}
	}
	client := s3.NewFromConfig(cfg, s3Options)

	return &Client{
		s3: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = tc.ConcurrentRequests
		}),
		endpoint: acc.Endpoint,
		region:   region,
	}, nil
}

func (c *Client) Kind() artifact.StorageKind { return artifact.KindBlob }

func (c *Client) Validate(ctx context.Context) error {
	if _, err := c.s3.ListBuckets(ctx, &s3.ListBucketsInput{MaxBuckets: aws.Int32(1)}); err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}
	return nil
}

func (c *Client) CreateContainerIfAbsent(ctx context.Context, name string, publicAccess *bool) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket %s: %w", name, err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(name)}
	if c.region != defaultRegion && c.endpoint == "" {
		in.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.region),
		}
	}
	if publicAccess != nil {
		if *publicAccess {
			in.ACL = s3types.BucketCannedACLPublicRead
		} else {
			in.ACL = s3types.BucketCannedACLPrivate
		}
	}
	if _, err := c.s3.CreateBucket(ctx, in); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return nil
}

/* -------------------- LIST (paginated) -------------------- */

func (c *Client) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	p := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
		MaxKeys:   aws.Int32(pageSize),
	})

	var out []storage.ObjectInfo
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			if isNoSuchBucket(err) {
				return nil, fmt.Errorf("%w: %s", storage.ErrContainerNotFound, bucket)
			}
			return nil, fmt.Errorf("failed to list objects in S3: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			out = append(out, storage.ObjectInfo{Name: aws.ToString(cp.Prefix), IsDir: true})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			// skip "folder" placeholders
			if key == prefix || (strings.HasSuffix(key, "/") && aws.ToInt64(obj.Size) == 0) {
				continue
			}
			out = append(out, storage.ObjectInfo{Name: key, Size: aws.ToInt64(obj.Size)})
		}
	}
	return out, nil
}

// DeleteAll walks the prefix without delimiter and deletes in batches.
func (c *Client) DeleteAll(ctx context.Context, bucket, prefix string) error {
	p := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(pageSize),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			if isNoSuchBucket(err) {
				return nil
			}
			return fmt.Errorf("list error: %w", err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		ids := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, s3types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("failed to delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}

func (c *Client) Object(bucket, key string) storage.Object {
	return &object{c: c, bucket: bucket, key: key}
}

func (c *Client) objectURL(bucket, key string) string {
	if c.endpoint != "" {
		return storage.ObjectURL(c.endpoint, bucket, key)
	}
	return storage.ObjectURL(fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, c.region), "", key)
}

type object struct {
	c      *Client
	bucket string
	key    string
}

func (o *object) Container() string { return o.bucket }
func (o *object) Name() string      { return o.key }
func (o *object) URL() string       { return o.c.objectURL(o.bucket, o.key) }

func (o *object) Exists(ctx context.Context) (bool, error) {
	_, err := o.c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to head object: %w", err)
}

// Upload goes through the transfer manager, which handles unseekable streams
// and switches to multipart for large bodies.
func (o *object) Upload(ctx context.Context, r io.Reader, _ int64, props storage.Properties, metadata map[string]string) error {
	_, err := o.c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(o.bucket),
		Key:             aws.String(o.key),
		Body:            r,
		ContentType:     optional(props.ContentType),
		ContentEncoding: optional(props.ContentEncoding),
		ContentLanguage: optional(props.ContentLanguage),
		CacheControl:    optional(props.CacheControl),
		Metadata:        metadata,
	})
	if err != nil {
		return fmt.Errorf("upload error: %w", err)
	}
	return nil
}

func (o *object) Download(ctx context.Context, w io.Writer) (int64, error) {
	out, err := o.c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, o.bucket, o.key)
		}
		return 0, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer out.Body.Close()

	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write to local file: %w", err)
	}
	return n, nil
}

func (o *object) Delete(ctx context.Context) error {
	if _, err := o.c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
	}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return aws.String(s)
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	var nk *s3types.NoSuchKey
	var nb *s3types.NoSuchBucket
	return errors.As(err, &nf) || errors.As(err, &nk) || errors.As(err, &nb)
}

func isNoSuchBucket(err error) bool {
	var nb *s3types.NoSuchBucket
	return errors.As(err, &nb)
}
