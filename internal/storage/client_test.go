// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-media/internal/storage"
)

// fakeS3 is a scriptable S3API double that records requests.
type fakeS3 struct {
	listPages         []*s3.ListObjectsV2Output
	listCalls         int
	listPrefixes      []string
	versionPages      []*s3.ListObjectVersionsOutput
	versionCalls      int
	versionsErr       error
	copySources       []string
	putKeys           []string
	deletedBatches    [][]types.ObjectIdentifier
	deleteObjectsErrs []types.Error

	// bucketObjects, when set, makes ListObjectsV2 behave like a real
	// backend: raw string prefix matching with no segment boundary.
	bucketObjects []types.Object
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putKeys = append(f.putKeys, aws.ToString(params.Key))
	if params.Body != nil {
		_, _ = io.ReadAll(params.Body)
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listPrefixes = append(f.listPrefixes, aws.ToString(params.Prefix))

	if f.bucketObjects != nil {
		page := &s3.ListObjectsV2Output{}
		for _, object := range f.bucketObjects {
			if strings.HasPrefix(aws.ToString(object.Key), aws.ToString(params.Prefix)) {
				page.Contents = append(page.Contents, object)
			}
		}
		return page, nil
	}

	if f.listCalls >= len(f.listPages) {
		return &s3.ListObjectsV2Output{}, nil
	}
	page := f.listPages[f.listCalls]
	f.listCalls++
	return page, nil
}

func (f *fakeS3) ListObjectVersions(ctx context.Context, params *s3.ListObjectVersionsInput, _ ...func(*s3.Options)) (*s3.ListObjectVersionsOutput, error) {
	if f.versionsErr != nil {
		return nil, f.versionsErr
	}
	if f.versionCalls >= len(f.versionPages) {
		return &s3.ListObjectVersionsOutput{}, nil
	}
	page := f.versionPages[f.versionCalls]
	f.versionCalls++
	return page, nil
}

func (f *fakeS3) CopyObject(ctx context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.copySources = append(f.copySources, aws.ToString(params.CopySource))
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deletedBatches = append(f.deletedBatches, params.Delete.Objects)
	return &s3.DeleteObjectsOutput{Errors: f.deleteObjectsErrs}, nil
}

func newTestClient(api storage.S3API) *storage.Client {
	return storage.NewFromAPI(api, "test-bucket", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

/*
TestClient_ListByPrefix_DrainsPagination verifies all continuation pages are
consumed before returning.
*/
func TestClient_ListByPrefix_DrainsPagination(t *testing.T) {
	fake := &fakeS3{
		listPages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					{Key: aws.String("p/a.webp"), Size: aws.Int64(10)},
					{Key: aws.String("p/b.webp"), Size: aws.Int64(20)},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("next"),
			},
			{
				Contents: []types.Object{
					{Key: aws.String("p/c.webp"), Size: aws.Int64(30)},
				},
				IsTruncated: aws.Bool(false),
			},
		},
	}

	objects, err := newTestClient(fake).ListByPrefix(context.Background(), "p/")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, 2, fake.listCalls)
	assert.Equal(t, "p/c.webp", objects[2].Key)
	assert.Equal(t, int64(30), objects[2].Size)
}

/*
TestClient_ListByPrefix_TerminatesPrefix verifies prefixes are sent to the
backend with a trailing "/", so raw string matching cannot cross a path
segment boundary ("manga-7" vs "manga-70", "ch-1" vs "ch-1.5").
*/
func TestClient_ListByPrefix_TerminatesPrefix(t *testing.T) {
	fake := &fakeS3{
		bucketObjects: []types.Object{
			{Key: aws.String("chapters/manga-7/ch-1/001.webp")},
			{Key: aws.String("chapters/manga-70/ch-1/001.webp")},
		},
	}

	objects, err := newTestClient(fake).ListByPrefix(context.Background(), "chapters/manga-7")
	require.NoError(t, err)

	require.Len(t, fake.listPrefixes, 1)
	assert.Equal(t, "chapters/manga-7/", fake.listPrefixes[0])
	require.Len(t, objects, 1)
	assert.Equal(t, "chapters/manga-7/ch-1/001.webp", objects[0].Key)
}

/*
TestClient_PurgePrefix_RespectsSegmentBoundary verifies a purge of one
chapter's prefix never deletes sibling chapters whose names extend it as a
raw string.
*/
func TestClient_PurgePrefix_RespectsSegmentBoundary(t *testing.T) {
	fake := &fakeS3{
		// Unversioned backend: the purge lists via the plain fallback.
		versionsErr: &smithy.GenericAPIError{Code: "NotImplemented"},
		bucketObjects: []types.Object{
			{Key: aws.String("chapters/manga-7/ch-1/001.webp")},
			{Key: aws.String("chapters/manga-7/ch-1.5/001.webp")},
			{Key: aws.String("chapters/manga-7/ch-12/001.webp")},
			{Key: aws.String("chapters/manga-70/ch-1/001.webp")},
		},
	}

	err := newTestClient(fake).PurgePrefix(context.Background(), "chapters/manga-7/ch-1")
	require.NoError(t, err)

	require.Len(t, fake.deletedBatches, 1)
	require.Len(t, fake.deletedBatches[0], 1)
	assert.Equal(t, "chapters/manga-7/ch-1/001.webp", aws.ToString(fake.deletedBatches[0][0].Key))
}

/*
TestClient_ListVersionsByPrefix collects versions and delete markers across
marker pagination.
*/
func TestClient_ListVersionsByPrefix(t *testing.T) {
	fake := &fakeS3{
		versionPages: []*s3.ListObjectVersionsOutput{
			{
				Versions: []types.ObjectVersion{
					{Key: aws.String("p/a.webp"), VersionId: aws.String("v1")},
				},
				DeleteMarkers: []types.DeleteMarkerEntry{
					{Key: aws.String("p/a.webp"), VersionId: aws.String("dm1")},
				},
				IsTruncated:         aws.Bool(true),
				NextKeyMarker:       aws.String("p/a.webp"),
				NextVersionIdMarker: aws.String("dm1"),
			},
			{
				Versions: []types.ObjectVersion{
					{Key: aws.String("p/b.webp"), VersionId: aws.String("v2")},
				},
				IsTruncated: aws.Bool(false),
			},
		},
	}

	versions, err := newTestClient(fake).ListVersionsByPrefix(context.Background(), "p/")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, "dm1", versions[1].VersionID)
	assert.Equal(t, 2, fake.versionCalls)
}

/*
TestClient_ListVersionsByPrefix_FallsBack degrades to a plain listing when
the backend does not implement version listing.
*/
func TestClient_ListVersionsByPrefix_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not_implemented_code", &smithy.GenericAPIError{Code: "NotImplemented"}},
		{"method_not_allowed_code", &smithy.GenericAPIError{Code: "MethodNotAllowed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeS3{
				versionsErr: tt.err,
				listPages: []*s3.ListObjectsV2Output{
					{Contents: []types.Object{{Key: aws.String("p/a.webp")}}},
				},
			}

			versions, err := newTestClient(fake).ListVersionsByPrefix(context.Background(), "p/")
			require.NoError(t, err)
			require.Len(t, versions, 1)
			assert.Equal(t, "p/a.webp", versions[0].Key)
			assert.Empty(t, versions[0].VersionID, "fallback entries carry no version id")
		})
	}
}

/*
TestClient_ListVersionsByPrefix_RealErrorSurfaces ensures genuine failures are
not swallowed by the fallback path.
*/
func TestClient_ListVersionsByPrefix_RealErrorSurfaces(t *testing.T) {
	fake := &fakeS3{versionsErr: fmt.Errorf("connection reset")}

	_, err := newTestClient(fake).ListVersionsByPrefix(context.Background(), "p/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

/*
TestClient_Copy verifies the encoded same-bucket copy source.
*/
func TestClient_Copy(t *testing.T) {
	fake := &fakeS3{}

	err := newTestClient(fake).Copy(context.Background(),
		"chapters/tmp/manga-5/draft-x/abc.webp",
		"chapters/manga-5/ch-12/001.webp",
	)
	require.NoError(t, err)
	require.Len(t, fake.copySources, 1)

	// Bucket stays readable; key is URL-encoded.
	assert.Contains(t, fake.copySources[0], "test-bucket/")
	assert.NotContains(t, fake.copySources[0], " ")
}

/*
TestClient_DeleteVersions_Batches splits deletes into requests of at most 1000.
*/
func TestClient_DeleteVersions_Batches(t *testing.T) {
	versions := make([]storage.ObjectVersion, 1500)
	for i := range versions {
		versions[i] = storage.ObjectVersion{Key: fmt.Sprintf("p/%04d.webp", i)}
	}

	fake := &fakeS3{}
	err := newTestClient(fake).DeleteVersions(context.Background(), versions)
	require.NoError(t, err)

	require.Len(t, fake.deletedBatches, 2)
	assert.Len(t, fake.deletedBatches[0], 1000)
	assert.Len(t, fake.deletedBatches[1], 500)
}

/*
TestClient_DeleteVersions_Empty is a no-op without any API calls.
*/
func TestClient_DeleteVersions_Empty(t *testing.T) {
	fake := &fakeS3{}
	err := newTestClient(fake).DeleteVersions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, fake.deletedBatches)
}

/*
TestClient_DeleteVersions_PartialFailure surfaces per-key errors from quiet
mode responses.
*/
func TestClient_DeleteVersions_PartialFailure(t *testing.T) {
	fake := &fakeS3{
		deleteObjectsErrs: []types.Error{
			{Key: aws.String("p/bad.webp"), Code: aws.String("AccessDenied")},
		},
	}

	err := newTestClient(fake).DeleteVersions(context.Background(),
		[]storage.ObjectVersion{{Key: "p/bad.webp"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}
