package previo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/imageupload"
	"github.com/dharsanguruparan/Previo/internal/logging"
	"github.com/dharsanguruparan/Previo/internal/model"
	"github.com/dharsanguruparan/Previo/internal/report"
	"github.com/dharsanguruparan/Previo/internal/repository"
	"github.com/dharsanguruparan/Previo/internal/session"
	"github.com/dharsanguruparan/Previo/internal/signing"
	"github.com/dharsanguruparan/Previo/internal/wizard"
)

type fakePrevios struct {
	mu      sync.Mutex
	rows    map[string]*repository.Previo
	created int
}

func (f *fakePrevios) Create(_ context.Context, h *model.ShipmentHeader, orgID, createdBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	id := fmt.Sprintf("00000000-0000-4000-8000-%012d", f.created)
	h.ID = &id
	h.Status = model.StatusInProgress
	f.rows[id] = &repository.Previo{Header: *h, OrganizationID: orgID, CreatedBy: createdBy}
	return nil
}

func (f *fakePrevios) UpdatePackaging(_ context.Context, h model.ShipmentHeader) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[h.PrevioID()]
	if !ok {
		return apperr.NotFound("Previo no encontrado")
	}
	status := p.Header.Status
	p.Header = h
	p.Header.Status = status
	return nil
}

func (f *fakePrevios) SetStatus(_ context.Context, id string, status model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return apperr.NotFound("Previo no encontrado")
	}
	p.Header.Status = status
	return nil
}

func (f *fakePrevios) Get(_ context.Context, id string) (*repository.Previo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("Previo no encontrado")
	}
	c := *p
	return &c, nil
}

func (f *fakePrevios) List(_ context.Context, filter repository.ListFilter) ([]repository.PrevioSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.PrevioSummary
	for id, p := range f.rows {
		if filter.Status != "" && p.Header.Status != filter.Status {
			continue
		}
		out = append(out, repository.PrevioSummary{ID: id, Client: p.Header.Client, Status: p.Header.Status})
	}
	return out, nil
}

type fakeProducts struct {
	rows map[string][]repository.ProductRow
	err  error
}

func (f *fakeProducts) CreateAll(_ context.Context, previoID string, products []model.Product) error {
	if f.err != nil {
		return f.err
	}
	for i, p := range products {
		p := p
		f.rows[previoID] = append(f.rows[previoID], repository.ProductRow{
			ID: repository.RowID(p), PrevioID: previoID, Position: i, Description: p.Descripcion, Details: &p,
		})
	}
	return nil
}

func (f *fakeProducts) ListByPrevio(_ context.Context, previoID string) ([]repository.ProductRow, error) {
	return f.rows[previoID], nil
}

func (f *fakeProducts) Get(_ context.Context, id string) (*repository.ProductRow, error) {
	for _, rows := range f.rows {
		for i := range rows {
			if rows[i].ID == id {
				return &rows[i], nil
			}
		}
	}
	return nil, apperr.NotFound("Producto no encontrado")
}

type fakeOrgs struct{}

func (fakeOrgs) OrganizationForUser(_ context.Context, userID string) (string, error) {
	if userID == "orphan" {
		return "", apperr.NotFound("No se encontró la organización para este usuario")
	}
	return "org-1", nil
}

type fakeBlobs struct {
	keys    []string
	removed []string
	putErr  error
}

func (f *fakeBlobs) PutPhoto(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	_, _ = io.Copy(io.Discard, r)
	if f.putErr != nil {
		return f.putErr
	}
	f.keys = append(f.keys, key)
	return nil
}
func (f *fakeBlobs) RemovePhoto(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}
func (f *fakeBlobs) PhotoURL(key string) string { return "https://cdn.test/" + key }
func (f *fakeBlobs) ListPhotos(context.Context, string) ([]string, error) {
	return f.keys, nil
}

type fakeMeta struct {
	images    []model.OperationImage
	createErr error
}

func (f *fakeMeta) CreateImage(_ context.Context, img *model.OperationImage) error {
	if f.createErr != nil {
		return f.createErr
	}
	img.ID = fmt.Sprintf("img-%d", len(f.images)+1)
	f.images = append(f.images, *img)
	return nil
}
func (f *fakeMeta) FindImageByURL(_ context.Context, url string) (*model.OperationImage, error) {
	for i := range f.images {
		if f.images[i].URL == url {
			img := f.images[i]
			return &img, nil
		}
	}
	return nil, apperr.NotFound("Imagen no encontrada")
}
func (f *fakeMeta) DeleteImageByURL(_ context.Context, url string) error {
	for i := range f.images {
		if f.images[i].URL == url {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("Imagen no encontrada")
}
func (f *fakeMeta) ListImages(_ context.Context, op model.OperationType, operationID string, _ *string) ([]model.OperationImage, error) {
	var out []model.OperationImage
	for _, img := range f.images {
		if img.OperationType == op && img.OperationID == operationID {
			out = append(out, img)
		}
	}
	return out, nil
}

type fakeArchiver struct {
	calls []string
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, previoID string) (string, error) {
	f.calls = append(f.calls, previoID)
	if f.err != nil {
		return "", f.err
	}
	return "report-1", nil
}

type fakeReports struct{ rows map[string]*repository.Report }

func (f *fakeReports) Get(_ context.Context, id string) (*repository.Report, error) {
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, apperr.NotFound("Reporte no encontrado")
}

func (f *fakeReports) LatestCompleted(_ context.Context, previoID string) (*repository.Report, error) {
	if r, ok := f.rows[previoID]; ok {
		return r, nil
	}
	return nil, apperr.NotFound("Reporte no encontrado")
}

type fakeArchive struct{ blobs map[string][]byte }

func (f *fakeArchive) GetReport(_ context.Context, key string) ([]byte, error) {
	if b, ok := f.blobs[key]; ok {
		return b, nil
	}
	return nil, errors.New("no such key")
}

func (f *fakeArchive) PresignReport(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key + "?X-Amz-Signature=abc", nil
}

type fixture struct {
	svc      *Service
	sessions *session.MemoryStore
	previos  *fakePrevios
	products *fakeProducts
	meta     *fakeMeta
	blobs    *fakeBlobs
	archiver *fakeArchiver
	reports  *fakeReports
	archive  *fakeArchive
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sessions: session.NewMemoryStore(time.Hour),
		previos:  &fakePrevios{rows: map[string]*repository.Previo{}},
		products: &fakeProducts{rows: map[string][]repository.ProductRow{}},
		meta:     &fakeMeta{},
		blobs:    &fakeBlobs{},
		archiver: &fakeArchiver{},
		reports:  &fakeReports{rows: map[string]*repository.Report{}},
		archive:  &fakeArchive{blobs: map[string][]byte{}},
		now:      time.Date(2024, 5, 17, 10, 0, 0, 0, time.UTC),
	}
	n := 0
	clock := func() time.Time { return f.now }
	signer := signing.NewSigner([]byte("test-secret"))
	f.svc = New(Deps{
		Sessions:      f.sessions,
		Previos:       f.previos,
		Products:      f.products,
		Organizations: fakeOrgs{},
		Photos:        imageupload.New(f.blobs, f.meta, imageupload.WithLogger(logging.Discard())),
		Archiver:      f.archiver,
		Reports:       f.reports,
		Archive:       f.archive,
		Generator:     report.New(report.WithClock(clock)),
		Signer:        signer,
		Log:           logging.Discard(),
		PublicURL:     "https://previo.test/",
		Now:           clock,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	return f
}

func png() imageupload.File {
	return imageupload.File{Name: "photo.png", ContentType: "image/png", Data: []byte("\x89PNG fake")}
}

func validPackaging() PackagingInput {
	return PackagingInput{Packages: 3, PackageType: "cajas", Carrier: "DHL", TotalWeight: 42.5}
}

func (f *fixture) started(t *testing.T) *session.Session {
	t.Helper()
	sess, notice, err := f.svc.Start(context.Background(), "user-1", StartInput{Client: "ACME", Entry: "240001", Supplier: "Foo"})
	require.NoError(t, err)
	require.Nil(t, notice)
	return sess
}

func (f *fixture) onProducts(t *testing.T) *session.Session {
	t.Helper()
	sess := f.started(t)
	sess, notice, err := f.svc.SubmitPackaging(context.Background(), sess.ID, validPackaging())
	require.NoError(t, err)
	require.Nil(t, notice)
	return sess
}

func (f *fixture) fillCurrent(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	fields := map[string]any{
		wizard.FieldDescripcion:      "Tornillo",
		wizard.FieldCantidad:         3,
		wizard.FieldUnidadMedida:     "piezas",
		wizard.FieldPaisOrigen:       "MX",
		wizard.FieldPesoNetoUnitario: 0.1,
	}
	for field, v := range fields {
		_, err := f.svc.UpdateProductField(ctx, id, field, v)
		require.NoError(t, err, field)
	}
	_, _, err := f.svc.AttachPhoto(ctx, id, SlotProduct, png())
	require.NoError(t, err)
}

func TestStartReportsMissingHeaderFields(t *testing.T) {
	f := newFixture(t)
	sess, notice, err := f.svc.Start(context.Background(), "user-1", StartInput{Entry: "240001"})
	require.NoError(t, err)
	assert.Nil(t, sess)
	require.NotNil(t, notice)
	assert.Equal(t, "Por favor complete los siguientes campos: Cliente, Proveedor", notice.Message)
	assert.Zero(t, f.previos.created)
}

func TestStartCreatesPrevioAndSession(t *testing.T) {
	f := newFixture(t)
	sess := f.started(t)

	assert.Equal(t, session.StepPackaging, sess.Step)
	assert.Equal(t, "2024-05-17", sess.Header.Date.String())
	require.NotEmpty(t, sess.Header.PrevioID())
	require.Len(t, sess.Products, 1)

	stored, err := f.svc.Session(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Header.PrevioID(), stored.Header.PrevioID())
	assert.Equal(t, "org-1", f.previos.rows[sess.Header.PrevioID()].OrganizationID)
}

func TestStartRejectsBadDateAndUnknownOrganization(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.Start(context.Background(), "user-1", StartInput{Client: "A", Entry: "1", Supplier: "B", Date: "17/05/2024"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, _, err = f.svc.Start(context.Background(), "orphan", StartInput{Client: "A", Entry: "1", Supplier: "B"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSubmitPackagingGateNeedsPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.started(t)

	in := validPackaging()
	in.GoodCondition = true
	_, notice, err := f.svc.SubmitPackaging(ctx, sess.ID, in)
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, "good_condition", notice.Field)

	_, img, err := f.svc.AttachPhoto(ctx, sess.ID, SlotGoodCondition, png())
	require.NoError(t, err)
	assert.Equal(t, model.OperationEmbalaje, img.OperationType)

	got, notice, err := f.svc.SubmitPackaging(ctx, sess.ID, in)
	require.NoError(t, err)
	require.Nil(t, notice)
	assert.Equal(t, session.StepProducts, got.Step)
	assert.Equal(t, model.PhotoRef(img.URL), got.Header.Packaging.GoodCondition.Value())
	assert.Equal(t, 3, f.previos.rows[got.Header.PrevioID()].Header.Packages)
}

func TestSubmitPackagingResolvesOtherType(t *testing.T) {
	f := newFixture(t)
	sess := f.started(t)
	in := validPackaging()
	in.PackageType = model.OtherOption

	got, notice, err := f.svc.SubmitPackaging(context.Background(), sess.ID, in)
	require.NoError(t, err)
	require.Nil(t, notice)
	assert.Equal(t, model.DefaultOtherPackageType, got.Header.PackageType)
}

func TestProductOperationsNeedPackagingStep(t *testing.T) {
	f := newFixture(t)
	sess := f.started(t)
	_, err := f.svc.AddProduct(context.Background(), sess.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRemoveLastProductIsRefused(t *testing.T) {
	f := newFixture(t)
	sess := f.onProducts(t)
	got, notice, err := f.svc.RemoveProduct(context.Background(), sess.ID, 0)
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, "Debe existir al menos un producto", notice.Message)
	assert.Len(t, got.Products, 1)
}

func TestRejectedPhotoKeepsAcceptedOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)

	got, _, err := f.svc.AttachPhoto(ctx, sess.ID, SlotProduct, png())
	require.NoError(t, err)
	accepted := got.Products[0].ProductPhoto
	require.True(t, accepted.Present())

	rejected := map[string]imageupload.File{
		imageupload.MsgInvalidType: {Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")},
		imageupload.MsgTooLarge:    {Name: "big.png", ContentType: "image/png", Data: make([]byte, 6<<20)},
	}
	for msg, file := range rejected {
		_, _, err = f.svc.AttachPhoto(ctx, sess.ID, SlotProduct, file)
		require.Error(t, err)
		assert.Equal(t, msg, apperr.As(err).Message)

		stored, err := f.svc.Session(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, accepted, stored.Products[0].ProductPhoto, msg)
	}
	assert.Len(t, f.blobs.keys, 1)
}

func TestFailedUploadClearsSlot(t *testing.T) {
	cases := map[string]func(f *fixture){
		"storage":  func(f *fixture) { f.blobs.putErr = errors.New("bucket unavailable") },
		"metadata": func(f *fixture) { f.meta.createErr = errors.New("insert failed") },
	}
	for name, fail := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			sess := f.onProducts(t)
			got, _, err := f.svc.AttachPhoto(ctx, sess.ID, SlotProduct, png())
			require.NoError(t, err)
			require.True(t, got.Products[0].ProductPhoto.Present())

			fail(f)
			got, _, err = f.svc.AttachPhoto(ctx, sess.ID, SlotProduct, png())
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindUpload))
			assert.False(t, got.Products[0].ProductPhoto.Present())

			stored, err := f.svc.Session(ctx, sess.ID)
			require.NoError(t, err)
			assert.False(t, stored.Products[0].ProductPhoto.Present())
		})
	}
}

func TestRetakeDeletesReplacedPhoto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)

	_, first, err := f.svc.AttachPhoto(ctx, sess.ID, SlotProduct, png())
	require.NoError(t, err)
	got, second, err := f.svc.AttachPhoto(ctx, sess.ID, SlotProduct, png())
	require.NoError(t, err)

	assert.Equal(t, model.PhotoRef(second.URL), got.Products[0].ProductPhoto)
	assert.Equal(t, []string{first.FilePath}, f.blobs.removed)
	require.Len(t, f.meta.images, 1)
	assert.Equal(t, second.URL, f.meta.images[0].URL)

	_, label, err := f.svc.AttachPhoto(ctx, sess.ID, SlotLabel, png())
	require.NoError(t, err)
	assert.Len(t, f.blobs.removed, 1)
	assert.Len(t, f.meta.images, 2)
	assert.NotEqual(t, label.URL, second.URL)
}

func TestCompleteStopsAtFirstIncompleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	f.fillCurrent(t, sess.ID)
	_, err := f.svc.AddProduct(ctx, sess.ID)
	require.NoError(t, err)
	_, err = f.svc.SetCurrentProductIndex(ctx, sess.ID, 0)
	require.NoError(t, err)

	out, got, notice, err := f.svc.Complete(ctx, sess.ID)
	require.NoError(t, err)
	assert.Nil(t, out)
	require.NotNil(t, notice)
	assert.Equal(t, "Producto 2: falta la descripción", notice.Message)
	assert.Equal(t, 1, got.ActiveIndex)
	assert.Empty(t, f.products.rows)
	assert.Empty(t, f.archiver.calls)
}

func TestCompletePersistsAndTearsDown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	f.fillCurrent(t, sess.ID)
	previoID := sess.Header.PrevioID()

	out, _, notice, err := f.svc.Complete(ctx, sess.ID)
	require.NoError(t, err)
	require.Nil(t, notice)
	assert.Equal(t, &Completion{PrevioID: previoID, ReportID: "report-1", Products: 1}, out)

	rows := f.products.rows[previoID]
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.3, rows[0].Details.PesoNetoTotal, 1e-9)
	assert.Equal(t, model.StatusCompleted, f.previos.rows[previoID].Header.Status)
	assert.Equal(t, []string{previoID}, f.archiver.calls)

	_, err = f.svc.Session(ctx, sess.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCompleteKeepsSessionWhenPersistenceFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	f.fillCurrent(t, sess.ID)
	f.products.err = apperr.Persistence("Error al guardar los productos", errors.New("connection reset"))

	_, _, _, err := f.svc.Complete(ctx, sess.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))
	assert.Equal(t, model.StatusInProgress, f.previos.rows[sess.Header.PrevioID()].Header.Status)

	_, err = f.svc.Session(ctx, sess.ID)
	assert.NoError(t, err)
}

func TestCompleteSurvivesArchiveFailure(t *testing.T) {
	f := newFixture(t)
	sess := f.onProducts(t)
	f.fillCurrent(t, sess.ID)
	f.archiver.err = errors.New("redis down")

	out, _, _, err := f.svc.Complete(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Empty(t, out.ReportID)
}

func TestSaveForLaterAndResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	_, err := f.svc.UpdateProductField(ctx, sess.ID, wizard.FieldDescripcion, "Tuerca")
	require.NoError(t, err)
	_, err = f.svc.SaveForLater(ctx, sess.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateProductField(ctx, sess.ID, wizard.FieldDescripcion, "Otra")
	require.NoError(t, err)
	got, err := f.svc.ResumeSaved(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tuerca", got.Products[0].Descripcion)
}

func TestSessionReportAndPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)

	r, err := f.svc.SessionReport(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "previo_240001.pdf", r.Filename)
	assert.True(t, strings.HasPrefix(string(r.Data), "%PDF"))

	uri, err := f.svc.SessionPreview(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:application/pdf;base64,"))
}

func TestDetailsAndShare(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	previoID := sess.Header.PrevioID()

	_, err := f.svc.Share(ctx, previoID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	f.fillCurrent(t, sess.ID)
	_, _, _, err = f.svc.Complete(ctx, sess.ID)
	require.NoError(t, err)

	d, err := f.svc.Details(ctx, previoID)
	require.NoError(t, err)
	assert.Len(t, d.Products, 1)
	assert.Len(t, d.Images, 1)

	link, err := f.svc.Share(ctx, previoID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "https://previo.test/shared/report?"))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), link.ExpiresAt, time.Minute)

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	r, err := f.svc.SharedReport(ctx, u.Query())
	require.NoError(t, err)
	assert.NotEmpty(t, r.Data)

	q := u.Query()
	q.Set("previo", "00000000-0000-4000-8000-000000000999")
	_, err = f.svc.SharedReport(ctx, q)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = f.svc.Details(ctx, "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestStoredReportPrefersArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	previoID := sess.Header.PrevioID()
	f.fillCurrent(t, sess.ID)
	_, _, _, err := f.svc.Complete(ctx, sess.ID)
	require.NoError(t, err)

	r, err := f.svc.PrevioReport(ctx, previoID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(r.Data), "%PDF"))

	f.reports.rows[previoID] = &repository.Report{ID: "report-1", PrevioID: previoID, ObjectKey: "previos/x.pdf", Status: repository.ReportCompleted}
	f.archive.blobs["previos/x.pdf"] = []byte("archived")

	r, err = f.svc.PrevioReport(ctx, previoID)
	require.NoError(t, err)
	assert.Equal(t, []byte("archived"), r.Data)
	assert.Equal(t, "previo_240001.pdf", r.Filename)

	d, err := f.svc.Details(ctx, previoID)
	require.NoError(t, err)
	require.NotNil(t, d.Report)
	assert.Equal(t, "https://s3.test/previos/x.pdf?X-Amz-Signature=abc", d.ReportURL)

	rep, err := f.svc.Report(ctx, "report-1")
	require.NoError(t, err)
	assert.Equal(t, repository.ReportCompleted, rep.Status)

	delete(f.archive.blobs, "previos/x.pdf")
	r, err = f.svc.PrevioReport(ctx, previoID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(r.Data), "%PDF"))
}

func TestProductDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.onProducts(t)
	previoID := sess.Header.PrevioID()
	f.fillCurrent(t, sess.ID)
	_, _, _, err := f.svc.Complete(ctx, sess.ID)
	require.NoError(t, err)

	rows := f.products.rows[previoID]
	require.Len(t, rows, 1)
	d, err := f.svc.ProductDetails(ctx, previoID, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Tornillo", d.Product.Description)
	assert.Len(t, d.Images, 1)

	_, err = f.svc.ProductDetails(ctx, "00000000-0000-4000-8000-000000000999", rows[0].ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListValidatesStatus(t *testing.T) {
	f := newFixture(t)
	f.started(t)

	list, err := f.svc.List(context.Background(), "user-1", ListInput{Status: "in-progress"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.List(context.Background(), "user-1", ListInput{Status: "archived"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AddProduct(context.Background(), "nope")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
