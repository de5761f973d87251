// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage provides the S3-compatible object store adapter for the
Yomira media service.

It is a thin, typed wrapper over the AWS SDK: every operation the pipeline
needs (put, drained listings, server-side copy, batched version deletes) is
exposed as a validated method, and SDK response shapes never leak past this
boundary.

Architecture:

  - Client: the adapter, constructed once from configuration.
  - Layout: the canonical key scheme (see keys.go).
  - S3API: the narrow SDK surface, substitutable in tests.

Backends without object versioning (some R2/MinIO configurations) are a
supported environment variance: version-aware listings transparently degrade
to plain listings instead of failing.
*/
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/taibuivan/yomira-media/internal/platform/config"
)

// deleteBatchSize is the S3 DeleteObjects limit per request.
const deleteBatchSize = 1000

// # Typed Results

// ObjectInfo describes one object returned by a plain listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectVersion identifies one deletable object version. VersionID is empty
// on unversioned backends and for plain-listing fallbacks.
type ObjectVersion struct {
	Key       string
	VersionID string
}

// # SDK Surface

// S3API is the narrow slice of the AWS SDK the adapter depends on.
// Tests substitute a fake; production uses *s3.Client.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, optFns ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// # Client

// Client is the object store adapter. All methods are safe for concurrent use.
type Client struct {
	api    S3API
	bucket string
	logger *slog.Logger
}

// NewClient builds the SDK client from configuration and wraps it.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	options := s3.Options{
		Region: cfg.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		),
		UsePathStyle: cfg.S3UsePathStyle,
	}

	if cfg.S3Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.S3Endpoint)
	}

	logger.Info("storage client configured",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("region", cfg.S3Region),
		slog.Bool("path_style", cfg.S3UsePathStyle),
	)

	return &Client{
		api:    s3.New(options),
		bucket: cfg.S3Bucket,
		logger: logger,
	}
}

// NewFromAPI wraps an existing SDK surface. Used by tests.
func NewFromAPI(api S3API, bucket string, logger *slog.Logger) *Client {
	return &Client{api: api, bucket: bucket, logger: logger}
}

// # Operations

// Put uploads an object under the given key.
func (client *Client) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := client.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(client.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("storage: put %q: %w", key, err)
	}
	return nil
}

// ListByPrefix returns every object under the prefix, draining all
// continuation pages before returning.
func (client *Client) ListByPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	prefix = dirPrefix(prefix)

	var objects []ObjectInfo
	var continuation *string

	for {
		page, err := client.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(client.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
		}

		for _, object := range page.Contents {
			// An entry without a key is a malformed backend response.
			if object.Key == nil {
				return nil, fmt.Errorf("storage: list %q: entry with missing key", prefix)
			}
			info := ObjectInfo{Key: aws.ToString(object.Key)}
			if object.Size != nil {
				info.Size = *object.Size
			}
			if object.LastModified != nil {
				info.LastModified = *object.LastModified
			}
			objects = append(objects, info)
		}

		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			return objects, nil
		}
		continuation = page.NextContinuationToken
	}
}

// ListVersionsByPrefix returns every object version (and delete marker)
// under the prefix, draining key/version-id marker pagination.
//
// Backends that do not implement ListObjectVersions degrade to a plain
// listing with empty version ids.
func (client *Client) ListVersionsByPrefix(ctx context.Context, prefix string) ([]ObjectVersion, error) {
	prefix = dirPrefix(prefix)

	var versions []ObjectVersion
	var keyMarker, versionMarker *string

	for {
		page, err := client.api.ListObjectVersions(ctx, &s3.ListObjectVersionsInput{
			Bucket:          aws.String(client.bucket),
			Prefix:          aws.String(prefix),
			KeyMarker:       keyMarker,
			VersionIdMarker: versionMarker,
		})
		if err != nil {
			if isVersioningUnsupported(err) {
				client.logger.Debug("version_listing_unsupported_falling_back",
					slog.String("prefix", prefix),
				)
				return client.plainVersions(ctx, prefix)
			}
			return nil, fmt.Errorf("storage: list versions %q: %w", prefix, err)
		}

		for _, version := range page.Versions {
			if version.Key == nil {
				return nil, fmt.Errorf("storage: list versions %q: entry with missing key", prefix)
			}
			versions = append(versions, ObjectVersion{
				Key:       aws.ToString(version.Key),
				VersionID: aws.ToString(version.VersionId),
			})
		}

		// Delete markers must be removed too, or a purged prefix would
		// keep resurrecting in version-aware listings.
		for _, marker := range page.DeleteMarkers {
			if marker.Key == nil {
				continue
			}
			versions = append(versions, ObjectVersion{
				Key:       aws.ToString(marker.Key),
				VersionID: aws.ToString(marker.VersionId),
			})
		}

		if !aws.ToBool(page.IsTruncated) {
			return versions, nil
		}
		keyMarker = page.NextKeyMarker
		versionMarker = page.NextVersionIdMarker
	}
}

// plainVersions is the unversioned fallback for ListVersionsByPrefix.
func (client *Client) plainVersions(ctx context.Context, prefix string) ([]ObjectVersion, error) {
	objects, err := client.ListByPrefix(ctx, prefix)
	if err != nil {
		return nil, err
	}

	versions := make([]ObjectVersion, 0, len(objects))
	for _, object := range objects {
		versions = append(versions, ObjectVersion{Key: object.Key})
	}
	return versions, nil
}

// Copy performs a same-bucket server-side copy from srcKey to dstKey.
func (client *Client) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := client.api.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(client.bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(encodeCopySource(client.bucket, srcKey)),
	})
	if err != nil {
		return fmt.Errorf("storage: copy %q -> %q: %w", srcKey, dstKey, err)
	}
	return nil
}

// DeleteVersions removes the given object versions in batches of at most
// 1000 (the DeleteObjects request limit). A nil or empty slice is a no-op.
func (client *Client) DeleteVersions(ctx context.Context, versions []ObjectVersion) error {
	for start := 0; start < len(versions); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(versions) {
			end = len(versions)
		}

		identifiers := make([]types.ObjectIdentifier, 0, end-start)
		for _, version := range versions[start:end] {
			identifier := types.ObjectIdentifier{Key: aws.String(version.Key)}
			if version.VersionID != "" {
				identifier.VersionId = aws.String(version.VersionID)
			}
			identifiers = append(identifiers, identifier)
		}

		output, err := client.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(client.bucket),
			Delete: &types.Delete{
				Objects: identifiers,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("storage: delete batch: %w", err)
		}

		// Quiet mode only reports per-key failures.
		if len(output.Errors) > 0 {
			first := output.Errors[0]
			return fmt.Errorf("storage: delete batch: %d keys failed (first: %s %s)",
				len(output.Errors), aws.ToString(first.Key), aws.ToString(first.Code))
		}
	}
	return nil
}

// PurgePrefix deletes every object version under the prefix.
func (client *Client) PurgePrefix(ctx context.Context, prefix string) error {
	versions, err := client.ListVersionsByPrefix(ctx, prefix)
	if err != nil {
		return err
	}
	return client.DeleteVersions(ctx, versions)
}

// HealthCheck verifies the bucket is reachable with a bounded listing.
func (client *Client) HealthCheck(ctx context.Context) error {
	_, err := client.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(client.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return fmt.Errorf("storage: health check failed: %w", err)
	}
	return nil
}

// # Helpers

// dirPrefix terminates a prefix with "/". S3 prefix matching is a raw string
// prefix with no segment boundary, so listing "manga-7" would also return
// "manga-70/..." and "ch-1" would return "ch-1.5/...". Every listing and
// purge goes through here; keys themselves are built as prefix + "/" + name.
func dirPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// encodeCopySource builds the URL-encoded x-amz-copy-source value.
func encodeCopySource(bucket, key string) string {
	// Encode each path segment but keep the separators readable.
	return bucket + "/" + url.PathEscape(key)
}

// isVersioningUnsupported classifies "backend has no ListObjectVersions"
// responses: NotImplemented/MethodNotAllowed API codes or bare 405/501.
func isVersioningUnsupported(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotImplemented", "MethodNotAllowed":
			return true
		}
	}

	var responseErr *awshttp.ResponseError
	if errors.As(err, &responseErr) {
		status := responseErr.HTTPStatusCode()
		return status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented
	}

	return false
}
