package report

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/Previo/internal/model"
)

var frozen = time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)

func newGenerator() *Generator {
	return New(WithClock(func() time.Time { return frozen }))
}

func header() model.ShipmentHeader {
	d, _ := model.ParseDate("2024-03-05")
	return model.ShipmentHeader{
		Client: "ACME Logistics", Date: d, Entry: "24-3001-4000123", Supplier: "Foo Supplies",
		Packages: 3, PackageType: "Cajas", Carrier: "DHL", TotalWeight: 12.5, Reviewer: "Ana",
	}
}

func product(i int) model.Product {
	p := model.NewProduct(fmt.Sprintf("p-%d", i))
	p.NumeroParte = fmt.Sprintf("PN-%03d", i)
	p.Descripcion = "Tornillo hexagonal"
	p.Cantidad = 4
	p.UnidadMedida = "PZA"
	p.PaisOrigen = "MX"
	p.PesoNetoUnitario = 2
	p.RecomputeNetTotal()
	return p
}

func readBack(t *testing.T, data []byte) string {
	t.Helper()
	pages, err := Pages(data)
	require.NoError(t, err)
	return ArchiveContent(pages)
}

func TestDownloadAndPreviewAreIdentical(t *testing.T) {
	g := newGenerator()
	products := []model.Product{product(1), product(2)}

	first, err := g.Render(header(), products)
	require.NoError(t, err)
	second, err := g.Render(header(), products)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	url, err := g.DataURL(header(), products)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:application/pdf;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:application/pdf;base64,"))
	require.NoError(t, err)
	assert.Equal(t, first, decoded)
}

func TestRenderedContent(t *testing.T) {
	data, err := newGenerator().Render(header(), []model.Product{product(1)})
	require.NoError(t, err)

	text := readBack(t, data)
	for _, want := range []string{"Reporte de Previo", "ACME Logistics", "Foo Supplies", "PN-001", "Revisor: Ana", "12.5 lbs", "Página 1 de 1"} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, EmptyPlaceholder)
}

func TestEmptyProductsRenderPlaceholder(t *testing.T) {
	data, err := newGenerator().Render(model.ShipmentHeader{}, nil)
	require.NoError(t, err)
	text := readBack(t, data)
	assert.Contains(t, text, EmptyPlaceholder)
	assert.Contains(t, text, "N/A")
}

func TestLongListPaginates(t *testing.T) {
	products := make([]model.Product, 60)
	for i := range products {
		products[i] = product(i + 1)
	}
	data, err := newGenerator().Render(header(), products)
	require.NoError(t, err)

	pages, err := Pages(data)
	require.NoError(t, err)
	n := len(pages)
	require.Greater(t, n, 1)

	assert.NotContains(t, pages[0], "continuación")
	assert.Contains(t, pages[1], "continuación")
	assert.Contains(t, pages[n-1], fmt.Sprintf("Página %d de %d", n, n))
	assert.Contains(t, pages[n-1], "PN-060")
	assert.Contains(t, ArchiveContent(pages), fmt.Sprintf("[página %d]\n", n))
}

func TestRenderRecordsConvertsLegacy(t *testing.T) {
	legacy := model.LegacyRecord(model.LegacyProduct{Code: "OLD-1", Quantity: 10, Weight: 5, UnitOfMeasure: "KILO"})
	data, err := newGenerator().RenderRecords(header(), []model.ProductRecord{legacy})
	require.NoError(t, err)
	text := readBack(t, data)
	assert.Contains(t, text, "OLD-1")
	assert.Contains(t, text, "50")
}

func TestArchiveContentMarksPages(t *testing.T) {
	assert.Equal(t, "[página 1]\nuno\n\n[página 2]\n", ArchiveContent([]string{"uno", ""}))
	assert.Empty(t, ArchiveContent(nil))
}

func TestPagesRejectsNonPDF(t *testing.T) {
	_, err := Pages([]byte("not a pdf"))
	assert.ErrorContains(t, err, "open report pdf")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "previo_nuevo.pdf", Filename(model.ShipmentHeader{}))
	assert.Equal(t, "previo_24-3001.pdf", Filename(model.ShipmentHeader{Entry: "24/3001"}))
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, "Sí ? ok", latin1("Sí € ok"))
	assert.Equal(t, "a b", latin1("a\tb"))
}
