package storage

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	puts    map[string][]byte
	acl     string
	pages   [][]*s3.Object
	delErr  error
	deleted []string
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[aws.StringValue(in.Key)] = data
	f.acl = aws.StringValue(in.ACL)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	if f.delErr != nil {
		return nil, f.delErr
	}
	f.deleted = append(f.deleted, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, _ *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	for i, page := range f.pages {
		if !fn(&s3.ListObjectsV2Output{Contents: page}, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func TestMaterialKey(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		fileName string
		want     string
	}{
		{"plain", 7, "notes.pdf", "academic_materials/7/notes.pdf"},
		{"strips directories", 7, "../../etc/passwd", "academic_materials/7/passwd"},
		{"windows path", 3, `C:\Users\me\unit 1.pdf`, "academic_materials/3/unit 1.pdf"},
		{"empty", 1, "", "academic_materials/1/file"},
		{"query chars", 2, "a?b#c.pdf", "academic_materials/2/abc.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaterialKey(tt.userID, tt.fileName))
		})
	}
}

func TestS3Store_PutAndURL(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3StoreWithClient(fake, S3Config{Bucket: "campus", Region: "blr1", Endpoint: "blr1.digitaloceanspaces.com"})

	url, err := store.Put(context.Background(), "academic_materials/1/a.pdf", bytes.NewReader([]byte("%PDF")), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://campus.blr1.digitaloceanspaces.com/academic_materials/1/a.pdf", url)
	assert.Equal(t, []byte("%PDF"), fake.puts["academic_materials/1/a.pdf"])
	assert.Equal(t, s3.ObjectCannedACLPublicRead, fake.acl)
}

func TestS3Store_URLVariants(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/k",
		NewS3StoreWithClient(nil, S3Config{Bucket: "b", CDNURL: "https://cdn.example.com/"}).URL("k"))
	assert.Equal(t, "https://b.s3.ap-south-1.amazonaws.com/k",
		NewS3StoreWithClient(nil, S3Config{Bucket: "b", Region: "ap-south-1"}).URL("k"))
	assert.Equal(t, "http://localhost:9000/b/k",
		NewS3StoreWithClient(nil, S3Config{Bucket: "b", Endpoint: "http://localhost:9000", PathStyle: true}).URL("k"))
}

func TestS3Store_URLEscapesKey(t *testing.T) {
	store := NewS3StoreWithClient(nil, S3Config{Bucket: "campus", Endpoint: "blr1.digitaloceanspaces.com"})
	assert.Equal(t, "https://campus.blr1.digitaloceanspaces.com/academic_materials/7/c%2B%2B%20notes.pdf",
		store.URL(MaterialKey(7, "c++ notes.pdf")))
	assert.Equal(t, "https://campus.blr1.digitaloceanspaces.com/academic_materials/7/r%C3%A9sum%C3%A9.pdf",
		store.URL(MaterialKey(7, "résumé.pdf")))
}

func TestUniqueMaterialKey(t *testing.T) {
	a := UniqueMaterialKey(7, "notes.txt")
	b := UniqueMaterialKey(7, "notes.txt")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^academic_materials/7/notes-[0-9a-f]{12}\.txt$`, a)
	assert.Regexp(t, `^academic_materials/7/README-[0-9a-f]{12}$`, UniqueMaterialKey(7, "README"))
}

func TestS3Store_ListFollowsPages(t *testing.T) {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakeS3{pages: [][]*s3.Object{
		{{Key: aws.String("academic_materials/1/a.pdf"), Size: aws.Int64(10), LastModified: aws.Time(ts)}},
		{{Key: aws.String("academic_materials/2/b.pdf"), Size: aws.Int64(20), LastModified: aws.Time(ts)}},
	}}
	store := NewS3StoreWithClient(fake, S3Config{Bucket: "campus"})

	objects, err := store.List(context.Background(), MaterialsPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "academic_materials/2/b.pdf", objects[1].Key)
	assert.Equal(t, int64(20), objects[1].Size)
	assert.Equal(t, ts, objects[0].LastModified)
}

func TestS3Store_DeleteMissing(t *testing.T) {
	fake := &fakeS3{delErr: awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)}
	store := NewS3StoreWithClient(fake, S3Config{Bucket: "campus"})

	err := store.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://localhost:8080/blobs/")

	url, err := store.Put(ctx, "academic_materials/1/x.txt", bytes.NewReader([]byte("hi")), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blobs/academic_materials/1/x.txt", url)
	assert.Equal(t, "http://localhost:8080/blobs/academic_materials/1/c%2B%2B%20notes.pdf", store.URL("academic_materials/1/c++ notes.pdf"))

	_, err = store.Put(ctx, "other/y.txt", bytes.NewReader([]byte("yo")), "text/plain")
	require.NoError(t, err)

	objects, err := store.List(ctx, MaterialsPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, int64(2), objects[0].Size)

	require.NoError(t, store.Delete(ctx, "academic_materials/1/x.txt"))
	assert.ErrorIs(t, store.Delete(ctx, "academic_materials/1/x.txt"), ErrObjectNotFound)
}
