package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBucketRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBucket("http://cdn.test")

	url, err := Upload(ctx, b, "videos/a.mp4", "video/mp4", strings.NewReader("frames"))
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/videos/a.mp4", url)

	name, err := b.ObjectName(url)
	require.NoError(t, err)
	assert.Equal(t, "videos/a.mp4", name)

	r, err := b.NewReader(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))
	assert.Equal(t, "video/mp4", b.ContentType(name))

	require.NoError(t, DeleteURLs(ctx, b, []string{url, "https://elsewhere.test/x"}))
	_, err = b.NewReader(ctx, name)
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestMemoryWriterAbortsOnCancel(t *testing.T) {
	b := NewMemoryBucket("http://cdn.test")
	ctx, cancel := context.WithCancel(context.Background())
	w, err := b.NewWriter(ctx, "partial.mp4", "video/mp4")
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)

	cancel()
	assert.Error(t, w.Close())
	_, ok := b.Bytes("partial.mp4")
	assert.False(t, ok)
}

func TestUploadFile(t *testing.T) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", "Brief.PDF")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	fh := req.MultipartForm.File["file"][0]

	b := NewMemoryBucket("http://cdn.test")
	obj, err := UploadFile(context.Background(), b, "/projects/abc/", fh, "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.ObjectName, "projects/abc/"))
	assert.True(t, strings.HasSuffix(obj.ObjectName, ".pdf"))
	assert.Equal(t, "Brief.PDF", obj.FileName)
	assert.Equal(t, int64(8), obj.SizeBytes)
}

func TestGCSObjectName(t *testing.T) {
	name, err := gcsObjectName("media", "https://storage.googleapis.com/media/blogs/x.png")
	require.NoError(t, err)
	assert.Equal(t, "blogs/x.png", name)

	name, err = gcsObjectName("media", "https://media.storage.googleapis.com/blogs/x.png")
	require.NoError(t, err)
	assert.Equal(t, "blogs/x.png", name)

	_, err = gcsObjectName("media", "https://storage.googleapis.com/other/x.png")
	assert.Error(t, err)
	_, err = gcsObjectName("media", "https://example.com/x.png")
	assert.Error(t, err)
}

func TestR2URLs(t *testing.T) {
	url := r2PublicURL("https://files.test", "media", "avatars/1.png")
	assert.Equal(t, "https://files.test/media/avatars/1.png", url)

	name, err := r2ObjectName("https://files.test", "media", url)
	require.NoError(t, err)
	assert.Equal(t, "avatars/1.png", name)

	_, err = r2ObjectName("https://files.test", "media", "https://other.test/media/x")
	assert.Error(t, err)
}

type recordedPut struct {
	method, path, contentType, encoding string
	length                              int64
	body                                []byte
}

func TestR2WriterSendsSizedPut(t *testing.T) {
	puts := make(chan recordedPut, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		puts <- recordedPut{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			encoding:    r.Header.Get("Content-Encoding"),
			length:      r.ContentLength,
			body:        body,
		}
		w.Header().Set("ETag", `"etag"`)
	}))
	defer srv.Close()

	b := newR2Bucket(aws.Config{
		Region:      "auto",
		Credentials: credentials.NewStaticCredentialsProvider("key", "secret", ""),
	}, R2Options{Bucket: "media", Endpoint: srv.URL, PublicDomain: "https://files.test"})

	payload := bytes.Repeat([]byte("frame"), 4096)
	url, err := Upload(context.Background(), b, "videos/a.mp4", "video/mp4", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "https://files.test/media/videos/a.mp4", url)

	require.Len(t, puts, 1)
	got := <-puts
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/media/videos/a.mp4", got.path)
	assert.Equal(t, "video/mp4", got.contentType)
	assert.Equal(t, int64(len(payload)), got.length)
	assert.NotContains(t, got.encoding, "aws-chunked")
	assert.Equal(t, payload, got.body)

	ctx, cancel := context.WithCancel(context.Background())
	w, err := b.NewWriter(ctx, "videos/b.mp4", "video/mp4")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	cancel()
	assert.ErrorIs(t, w.Close(), context.Canceled)
	assert.Empty(t, puts, "a cancelled upload sends nothing")
}
