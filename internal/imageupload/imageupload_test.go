package imageupload

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/logging"
	"github.com/dharsanguruparan/Previo/internal/model"
)

type fakeBlobs struct {
	objects map[string][]byte
	puts    int
	removes []string
	putErr  error
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{objects: map[string][]byte{}} }

func (f *fakeBlobs) PutPhoto(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobs) RemovePhoto(_ context.Context, key string) error {
	f.removes = append(f.removes, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) PhotoURL(key string) string { return "https://cdn.test/fotos.mercancias/" + key }

func (f *fakeBlobs) ListPhotos(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type fakeMeta struct {
	rows      map[string]model.OperationImage
	createErr error
	findErr   error
}

func newFakeMeta() *fakeMeta { return &fakeMeta{rows: map[string]model.OperationImage{}} }

func (f *fakeMeta) CreateImage(_ context.Context, img *model.OperationImage) error {
	if f.createErr != nil {
		return f.createErr
	}
	img.ID = "img-1"
	f.rows[img.URL] = *img
	return nil
}

func (f *fakeMeta) FindImageByURL(_ context.Context, url string) (*model.OperationImage, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	img, ok := f.rows[url]
	if !ok {
		return nil, apperr.NotFound("imagen no encontrada")
	}
	return &img, nil
}

func (f *fakeMeta) DeleteImageByURL(_ context.Context, url string) error {
	delete(f.rows, url)
	return nil
}

func (f *fakeMeta) ListImages(_ context.Context, op model.OperationType, operationID string, productID *string) ([]model.OperationImage, error) {
	var out []model.OperationImage
	for _, img := range f.rows {
		if img.OperationType != op || img.OperationID != operationID {
			continue
		}
		if productID != nil && (img.ProductID == nil || *img.ProductID != *productID) {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}

func newUploader(blobs *fakeBlobs, meta *fakeMeta) *Uploader {
	return New(blobs, meta, WithLogger(logging.Discard()), WithNameGenerator(func() string { return "fixed" }))
}

func jpeg(size int) File {
	return File{Name: "foto.JPG", ContentType: "image/jpeg", Data: make([]byte, size)}
}

func TestRejectsBeforeAnyStorageCall(t *testing.T) {
	cases := map[string]File{
		"gif":        {Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")},
		"six mib":    jpeg(6 * 1024 * 1024),
		"no type":    {Name: "a", Data: []byte{1}},
		"pdf as jpg": {Name: "a.jpg", ContentType: "application/pdf", Data: []byte{1}},
	}
	for name, file := range cases {
		t.Run(name, func(t *testing.T) {
			blobs, meta := newFakeBlobs(), newFakeMeta()
			_, err := newUploader(blobs, meta).Upload(context.Background(), Request{
				OperationType: model.OperationPrevio, OperationID: "op", File: file,
			})
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindUpload))
			assert.Zero(t, blobs.puts)
			assert.Empty(t, meta.rows)
		})
	}
}

func TestValidateOrderAndLimit(t *testing.T) {
	p := DefaultPolicy()
	assert.NoError(t, p.Validate("image/png", DefaultMaxBytes))
	assert.Equal(t, MsgTooLarge, apperr.As(p.Validate("image/webp", DefaultMaxBytes+1)).Message)
	assert.Equal(t, MsgInvalidType, apperr.As(p.Validate("image/gif", DefaultMaxBytes+1)).Message)
	assert.ErrorIs(t, p.Validate("image/gif", 1), ErrRejected)
	assert.ErrorIs(t, p.Validate("image/png", DefaultMaxBytes+1), ErrRejected)
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	blobs, meta := newFakeBlobs(), newFakeMeta()
	product := "prod-7"
	img, err := newUploader(blobs, meta).Upload(context.Background(), Request{
		OperationType: model.OperationPrevio,
		OperationID:   "previo-42",
		ProductID:     &product,
		File:          jpeg(10),
	})
	require.NoError(t, err)

	opID := EnsureUUID("previo-42")
	prodID := EnsureUUID("prod-7")
	wantKey := "previo/" + opID + "/productos/" + prodID + "/fixed.jpg"
	assert.Equal(t, wantKey, img.FilePath)
	assert.Equal(t, blobs.PhotoURL(wantKey), img.URL)
	assert.Equal(t, opID, img.OperationID)
	require.NotNil(t, img.ProductID)
	assert.Equal(t, prodID, *img.ProductID)
	assert.Contains(t, blobs.objects, wantKey)
	assert.Contains(t, meta.rows, img.URL)

	list, err := newUploader(blobs, meta).List(context.Background(), model.OperationPrevio, "previo-42", &product)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	keys, err := newUploader(blobs, meta).ListObjects(context.Background(), model.OperationPrevio, "previo-42", &product)
	require.NoError(t, err)
	assert.Equal(t, []string{wantKey}, keys)
}

func TestMetadataFailureRemovesBlob(t *testing.T) {
	blobs, meta := newFakeBlobs(), newFakeMeta()
	meta.createErr = errors.New("insert failed")

	_, err := newUploader(blobs, meta).Upload(context.Background(), Request{
		OperationType: model.OperationEmbalaje, OperationID: "op", File: jpeg(10),
	})
	require.Error(t, err)
	assert.Equal(t, 1, blobs.puts)
	require.Len(t, blobs.removes, 1)
	assert.Empty(t, blobs.objects)
}

func TestStorageFailureSkipsMetadata(t *testing.T) {
	blobs, meta := newFakeBlobs(), newFakeMeta()
	blobs.putErr = errors.New("bucket unavailable")
	_, err := newUploader(blobs, meta).Upload(context.Background(), Request{
		OperationType: model.OperationPrevio, OperationID: "op", File: jpeg(10),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindUpload))
	assert.NotErrorIs(t, err, ErrRejected)
	assert.Empty(t, meta.rows)
}

func TestUploadRejectsUnknownOperationType(t *testing.T) {
	blobs, meta := newFakeBlobs(), newFakeMeta()
	_, err := newUploader(blobs, meta).Upload(context.Background(), Request{
		OperationType: "bodega", OperationID: "op", File: jpeg(10),
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Zero(t, blobs.puts)
}

func TestDelete(t *testing.T) {
	blobs, meta := newFakeBlobs(), newFakeMeta()
	u := newUploader(blobs, meta)
	img, err := u.Upload(context.Background(), Request{OperationType: model.OperationPrevio, OperationID: "op", File: jpeg(4)})
	require.NoError(t, err)

	require.NoError(t, u.Delete(context.Background(), img.URL))
	assert.Empty(t, blobs.objects)
	assert.Empty(t, meta.rows)
}

func TestDeleteLookupMissDeletesNothing(t *testing.T) {
	blobs, meta := newFakeBlobs(), newFakeMeta()
	u := newUploader(blobs, meta)
	img, err := u.Upload(context.Background(), Request{OperationType: model.OperationPrevio, OperationID: "op", File: jpeg(4)})
	require.NoError(t, err)

	meta.findErr = errors.New("lookup failed")
	require.Error(t, u.Delete(context.Background(), img.URL))
	assert.Empty(t, blobs.removes)
	assert.Len(t, blobs.objects, 1)

	meta.findErr = nil
	err = u.Delete(context.Background(), "https://cdn.test/unknown.jpg")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Empty(t, blobs.removes)
}

func TestEnsureUUID(t *testing.T) {
	id := "3f2b8c1e-9a4d-4e5f-8b6a-1c2d3e4f5a6b"
	assert.Equal(t, id, EnsureUUID(id))
	assert.Equal(t, EnsureUUID("previo-1"), EnsureUUID("previo-1"))
	assert.NotEqual(t, EnsureUUID("previo-1"), EnsureUUID("previo-2"))
	assert.Regexp(t, uuidPattern, EnsureUUID("previo-1"))
}

func TestObjectPathAndPreview(t *testing.T) {
	assert.Equal(t, "embalaje/op/a.png", ObjectPath(model.OperationEmbalaje, "op", nil, "a.png"))
	assert.Equal(t, "png", Extension(File{ContentType: "image/png"}))
	assert.Equal(t, "data:image/png;base64,AQI=", Preview(File{ContentType: "image/png", Data: []byte{1, 2}}))
}
