// Package imageupload validates, stores and indexes operation photos.
//
// An upload checks type and size first, then writes the blob to object
// storage and finally inserts the metadata row. When the row cannot be
// written the blob is removed again.
package imageupload

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/metrics"
	"github.com/dharsanguruparan/Previo/internal/model"
)

// Namespace maps non-UUID identifiers onto stable UUIDs.
var Namespace = uuid.MustParse("1b671a64-40d5-491e-99b0-da01ff1f3341")

// DefaultMaxBytes is 5 MiB.
const DefaultMaxBytes int64 = 5 * 1024 * 1024

// DefaultAllowedTypes are the accepted photo MIME types.
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/jpg", "image/webp"}

// ErrRejected marks files refused by the pre-flight policy. Nothing was
// stored when an error wraps it.
var ErrRejected = errors.New("photo rejected")

// Rejection messages.
const (
	MsgInvalidType = "Tipo de archivo no válido. Use JPG, PNG o WEBP"
	MsgTooLarge    = "El archivo es demasiado grande. Máximo 5MB"
)

// File is a photo read fully into memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size is the byte length of the file.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Policy holds the pre-flight limits.
type Policy struct {
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultPolicy returns the 5 MiB JPEG/PNG/WEBP policy.
func DefaultPolicy() Policy {
	return Policy{MaxBytes: DefaultMaxBytes, AllowedTypes: DefaultAllowedTypes}
}

// Validate checks the MIME type, then the size.
func (p Policy) Validate(contentType string, size int64) error {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	allowed := false
	for _, t := range p.AllowedTypes {
		if ct == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperr.Upload(MsgInvalidType, fmt.Errorf("%w: content type %q", ErrRejected, contentType))
	}
	if size > p.MaxBytes {
		return apperr.Upload(MsgTooLarge, fmt.Errorf("%w: %d bytes exceeds %d", ErrRejected, size, p.MaxBytes))
	}
	return nil
}

// Preview renders f as a data URI without touching the network.
func Preview(f File) string {
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

var uuidPattern = regexp.MustCompile(`^(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// EnsureUUID returns id when it already is a UUID and its name-based UUID
// otherwise. The mapping is deterministic.
func EnsureUUID(id string) string {
	if uuidPattern.MatchString(id) {
		return id
	}
	return uuid.NewSHA1(Namespace, []byte(id)).String()
}

// Extension picks the file extension from the name, falling back to the
// MIME type.
func Extension(f File) string {
	if ext := strings.TrimPrefix(path.Ext(f.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	switch strings.ToLower(f.ContentType) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

// ObjectPath builds {type}/{operation}[/productos/{product}]/{file}.
func ObjectPath(op model.OperationType, operationID string, productID *string, fileName string) string {
	base := string(op) + "/" + operationID
	if productID != nil && *productID != "" {
		return base + "/productos/" + *productID + "/" + fileName
	}
	return base + "/" + fileName
}

// BlobStore is the object storage side of an upload.
type BlobStore interface {
	PutPhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	RemovePhoto(ctx context.Context, key string) error
	PhotoURL(key string) string
	ListPhotos(ctx context.Context, prefix string) ([]string, error)
}

// MetadataStore is the operation_images table.
type MetadataStore interface {
	CreateImage(ctx context.Context, img *model.OperationImage) error
	FindImageByURL(ctx context.Context, url string) (*model.OperationImage, error)
	DeleteImageByURL(ctx context.Context, url string) error
	ListImages(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]model.OperationImage, error)
}

// Request describes one photo upload.
type Request struct {
	OperationType model.OperationType
	OperationID   string
	ProductID     *string
	Description   *string
	File          File
}

// Uploader runs the upload and delete flows.
type Uploader struct {
	blobs   BlobStore
	meta    MetadataStore
	policy  Policy
	metrics *metrics.Metrics
	log     *logrus.Entry
	newName func() string
	now     func() time.Time
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithPolicy replaces the default 5 MiB JPEG/PNG/WEBP policy.
func WithPolicy(p Policy) Option { return func(u *Uploader) { u.policy = p } }

// WithMetrics records uploads and rejections on m.
func WithMetrics(m *metrics.Metrics) Option { return func(u *Uploader) { u.metrics = m } }

// WithLogger sets the parent logger.
func WithLogger(l *logrus.Entry) Option { return func(u *Uploader) { u.log = l } }

// WithNameGenerator sets how blob file names are generated. Defaults to a
// random UUID.
func WithNameGenerator(fn func() string) Option { return func(u *Uploader) { u.newName = fn } }

// New constructs an Uploader.
func New(blobs BlobStore, meta MetadataStore, opts ...Option) *Uploader {
	u := &Uploader{
		blobs:   blobs,
		meta:    meta,
		policy:  DefaultPolicy(),
		log:     logrus.NewEntry(logrus.StandardLogger()),
		newName: uuid.NewString,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(u)
	}
	u.log = u.log.WithField("component", "imageupload")
	return u
}

// Policy returns the pre-flight limits in use.
func (u *Uploader) Policy() Policy { return u.policy }

func rejectionReason(err error) string {
	if e := apperr.As(err); e.Message == MsgTooLarge {
		return "too_large"
	}
	return "invalid_type"
}

// Upload validates the file, stores the blob and records its metadata.
// The returned image carries the public URL.
func (u *Uploader) Upload(ctx context.Context, req Request) (*model.OperationImage, error) {
	if err := u.policy.Validate(req.File.ContentType, req.File.Size()); err != nil {
		u.metrics.RecordRejection(rejectionReason(err))
		return nil, err
	}
	if !req.OperationType.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("operation_type debe ser uno de: %s", joinTypes()))
	}
	if strings.TrimSpace(req.OperationID) == "" {
		return nil, apperr.Validation("operation_id es requerido")
	}

	operationID := EnsureUUID(req.OperationID)
	var productID *string
	if req.ProductID != nil && *req.ProductID != "" {
		id := EnsureUUID(*req.ProductID)
		productID = &id
	}
	key := ObjectPath(req.OperationType, operationID, productID, u.newName()+"."+Extension(req.File))
	log := u.log.WithFields(logrus.Fields{"operation_type": req.OperationType, "operation_id": operationID, "key": key})

	if err := u.blobs.PutPhoto(ctx, key, bytes.NewReader(req.File.Data), req.File.Size(), req.File.ContentType); err != nil {
		u.metrics.RecordUpload(string(req.OperationType), false)
		log.WithError(err).Error("photo upload failed")
		return nil, apperr.Upload("No se pudo subir la imagen", err)
	}

	img := &model.OperationImage{
		URL:           u.blobs.PhotoURL(key),
		OperationType: req.OperationType,
		OperationID:   operationID,
		ProductID:     productID,
		Description:   req.Description,
		FilePath:      key,
		CreatedAt:     u.now(),
	}
	if err := u.meta.CreateImage(ctx, img); err != nil {
		u.metrics.RecordUpload(string(req.OperationType), false)
		log.WithError(err).Error("photo metadata insert failed, removing blob")
		if rmErr := u.blobs.RemovePhoto(ctx, key); rmErr != nil {
			log.WithError(rmErr).Warn("orphaned photo blob")
		}
		return nil, apperr.Upload("No se pudo guardar la información de la imagen", err)
	}
	u.metrics.RecordUpload(string(req.OperationType), true)
	log.Info("photo uploaded")
	return img, nil
}

// Delete removes the blob and then the metadata row of the photo at url.
// Nothing is deleted when the lookup fails.
func (u *Uploader) Delete(ctx context.Context, url string) error {
	img, err := u.meta.FindImageByURL(ctx, url)
	if err != nil {
		return fmt.Errorf("find image %s: %w", url, err)
	}
	if err := u.blobs.RemovePhoto(ctx, img.FilePath); err != nil {
		return apperr.Upload("No se pudo eliminar la imagen", err)
	}
	if err := u.meta.DeleteImageByURL(ctx, url); err != nil {
		return fmt.Errorf("delete image metadata: %w", err)
	}
	u.log.WithField("key", img.FilePath).Info("photo deleted")
	return nil
}

// List returns metadata rows for an operation, optionally scoped to a product.
func (u *Uploader) List(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]model.OperationImage, error) {
	if !op.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("operation_type debe ser uno de: %s", joinTypes()))
	}
	var pid *string
	if productID != nil && *productID != "" {
		id := EnsureUUID(*productID)
		pid = &id
	}
	return u.meta.ListImages(ctx, op, EnsureUUID(operationID), pid)
}

// ListObjects lists blob keys under the operation directory.
func (u *Uploader) ListObjects(ctx context.Context, op model.OperationType, operationID string, productID *string) ([]string, error) {
	var pid *string
	if productID != nil && *productID != "" {
		id := EnsureUUID(*productID)
		pid = &id
	}
	prefix := ObjectPath(op, EnsureUUID(operationID), pid, "")
	return u.blobs.ListPhotos(ctx, prefix)
}

func joinTypes() string {
	names := make([]string, len(model.OperationTypes))
	for i, t := range model.OperationTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
