package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateSatisfied(t *testing.T) {
	var off Gate[PhotoRef]
	assert.True(t, off.Satisfied(), "disabled gate never blocks")

	on := Toggle[PhotoRef](true)
	assert.False(t, on.Satisfied())

	on.Set("")
	assert.False(t, on.Satisfied(), "blank payload is not present")

	on.Set("https://cdn/x.jpg")
	assert.True(t, on.Satisfied())

	on.Clear()
	assert.False(t, on.Satisfied())

	serial := Enabled(SerialEvidence{Number: "SN-1"})
	assert.False(t, serial.Satisfied(), "a serial needs its photo too")
	serial.Set(SerialEvidence{Number: "SN-1", Photo: "p.jpg"})
	assert.True(t, serial.Satisfied())
}

func TestNetTotalIsStableAcrossRecomputation(t *testing.T) {
	pairs := []struct {
		qty  int
		unit float64
		want float64
	}{
		{4, 2, 8},
		{3, 0.1, 0.3},
		{0, 12.5, 0},
		{7, 0, 0},
		{10, 1.15, 11.5},
	}
	for _, tc := range pairs {
		p := Product{Cantidad: tc.qty, PesoNetoUnitario: tc.unit}
		p.RecomputeNetTotal()
		first := p.PesoNetoTotal
		p.RecomputeNetTotal()
		p.RecomputeNetTotal()
		assert.Equal(t, first, p.PesoNetoTotal)
		assert.Equal(t, tc.want, p.PesoNetoTotal)
	}
}

func TestFromLegacyConvertsWeights(t *testing.T) {
	l := LegacyProduct{
		ID:                  "p1",
		Code:                "PROD-001",
		DetailedDescription: "Tornillos",
		Quantity:            10,
		UnitOfMeasure:       "pieza",
		Weight:              5,
		Origin:              "China",
		HasSerialNumber:     true,
		SerialNumber:        "SN-001",
		HasModel:            true,
		ModelNumber:         "MOD-001",
	}

	p := FromLegacy(l)

	assert.Equal(t, 5.0, p.PesoNetoUnitario)
	assert.Equal(t, 50.0, p.PesoNetoTotal)
	assert.Equal(t, 5.0, p.PesoBruto)
	assert.Equal(t, "PROD-001", p.NumeroParte)
	assert.Equal(t, "Tornillos", p.Descripcion)
	assert.Equal(t, "SN-001", p.Serie)
	assert.Equal(t, "MOD-001", p.ModeloLote)
	assert.True(t, p.Serial.Enabled)
	assert.Equal(t, "SN-001", p.Serial.Value().Number)
	assert.True(t, p.Model.Satisfied())
	assert.True(t, p.MatchesInvoice)
}

func TestLegacyMatchesInvoiceDefaultsToTrue(t *testing.T) {
	var omitted, mismatch ProductRecord
	require.NoError(t, json.Unmarshal([]byte(`{"schema":"legacy","product":{"id":"p1","quantity":1}}`), &omitted))
	require.NoError(t, json.Unmarshal([]byte(`{"schema":"legacy","product":{"id":"p2","matchesInvoice":false,"discrepancy":"faltan 2"}}`), &mismatch))

	assert.True(t, omitted.Canonical().MatchesInvoice)
	got := mismatch.Canonical()
	assert.False(t, got.MatchesInvoice)
	assert.Equal(t, "faltan 2", got.Discrepancy)
}

func TestCanonicalIsTotal(t *testing.T) {
	assert.Equal(t, Product{}, ProductRecord{}.Canonical())
	assert.Equal(t, Product{}, ProductRecord{Schema: SchemaLegacy}.Canonical())

	cur := NewProduct("a")
	assert.Equal(t, cur, CurrentRecord(cur).Canonical())
}

func TestProductRecordJSONEnvelope(t *testing.T) {
	raw := `[{"schema":"legacy","product":{"code":"A","quantity":2,"weight":1.5}},
	         {"schema":"current","product":{"id":"b","descripcion":"Widget","cantidad":4}}]`
	var records []ProductRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 2)

	assert.Equal(t, SchemaLegacy, records[0].Schema)
	assert.Equal(t, 3.0, records[0].Canonical().PesoNetoTotal)
	assert.Equal(t, "Widget", records[1].Canonical().Descripcion)

	out, err := json.Marshal(records[1])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"schema":"current"`)

	var bad ProductRecord
	assert.Error(t, json.Unmarshal([]byte(`{"schema":"v9","product":{}}`), &bad))
}

func TestDateJSON(t *testing.T) {
	d := Today(time.Date(2024, 4, 4, 18, 30, 0, 0, time.UTC))
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-04-04"`, string(out))

	var back Date
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, d, back)

	var empty Date
	require.NoError(t, json.Unmarshal([]byte(`""`), &empty))
	assert.True(t, empty.IsZero())
	assert.Error(t, json.Unmarshal([]byte(`"04/04/2024"`), &empty))
}

func TestResolveChoice(t *testing.T) {
	assert.Equal(t, "cajas", ResolveChoice("cajas", "ignored", DefaultOtherPackageType))
	assert.Equal(t, "Jaulas", ResolveChoice(OtherOption, " Jaulas ", DefaultOtherPackageType))
	assert.Equal(t, "Otro tipo", ResolveChoice(OtherOption, "", DefaultOtherPackageType))
	assert.True(t, HasOption(UnitOptions, "kilo"))
	assert.False(t, HasOption(UnitOptions, "furlong"))
}

func TestOperationTypeValid(t *testing.T) {
	assert.True(t, OperationInspeccion.Valid())
	assert.False(t, OperationType("bodega").Valid())
}
