package services

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpupo63/foodgram-backend/errs"
)

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))

	img, err := DecodeDataURI("data:image/jpg;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), img.Data)
	assert.Equal(t, "jpg", img.Ext)
	assert.Equal(t, "image/jpeg", img.ContentType)

	img, err = DecodeDataURI("data:IMAGE/WEBP;base64," + payload)
	require.NoError(t, err)
	assert.Equal(t, "webp", img.Ext)

	bad := map[string]string{
		"no scheme":      "image/png;base64," + payload,
		"no payload":     "data:image/png;base64",
		"not base64":     "data:image/png," + payload,
		"unsupported":    "data:text/plain;base64," + payload,
		"corrupt base64": "data:image/png;base64,@@@",
		"empty":          "data:image/png;base64,",
	}
	for name, uri := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDataURI(uri)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidImageError(err))
		})
	}
}

func TestLocalImageStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewLocalImageStore(root, "/media/")

	img := Image{Data: []byte("pixels"), Ext: "png", ContentType: "image/png"}
	url, err := store.Save(context.Background(), img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/recipes/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	stored, err := os.ReadFile(filepath.Join(root, strings.TrimPrefix(url, "/media/")))
	require.NoError(t, err)
	assert.Equal(t, img.Data, stored)

	again, err := store.Save(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, url, again)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func TestS3ImageStore_Save(t *testing.T) {
	client := &fakeS3{}
	store := NewS3ImageStore(client, "foodgram-media", "eu-west-1", "")

	img := Image{Data: []byte("pixels"), Ext: "gif", ContentType: "image/gif"}
	url, err := store.Save(context.Background(), img)
	require.NoError(t, err)

	key := imageKey(img)
	assert.Equal(t, "https://foodgram-media.s3.eu-west-1.amazonaws.com/"+key, url)
	assert.Equal(t, "foodgram-media", aws.ToString(client.input.Bucket))
	assert.Equal(t, key, aws.ToString(client.input.Key))
	assert.Equal(t, "image/gif", aws.ToString(client.input.ContentType))
	assert.Equal(t, img.Data, client.body)

	cdn := NewS3ImageStore(client, "foodgram-media", "eu-west-1", "https://cdn.example.com/")
	url, err = cdn.Save(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+key, url)

	failing := NewS3ImageStore(&fakeS3{err: errors.New("access denied")}, "b", "r", "")
	_, err = failing.Save(context.Background(), img)
	assert.Equal(t, 502, errs.StatusOf(err))
}

func TestNewImageStore(t *testing.T) {
	store, err := NewImageStore(context.Background(), map[string]string{"MEDIA_ROOT": t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalImageStore{}, store)

	_, err = NewImageStore(context.Background(), map[string]string{"MEDIA_BACKEND": "s3"})
	assert.Equal(t, 500, errs.StatusOf(err))

	_, err = NewImageStore(context.Background(), map[string]string{"MEDIA_BACKEND": "ftp"})
	assert.Equal(t, 500, errs.StatusOf(err))
}
