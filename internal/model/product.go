package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the canonical product record verified by the wizard.
// PesoNetoTotal is derived from Cantidad and PesoNetoUnitario.
type Product struct {
	ID               string               `json:"id"`
	NumeroParte      string               `json:"numero_parte"`
	Descripcion      string               `json:"descripcion"`
	Cantidad         int                  `json:"cantidad"`
	UnidadMedida     string               `json:"unidad_medida"`
	PaisOrigen       string               `json:"pais_origen"`
	PesoNetoUnitario float64              `json:"peso_neto_unitario"`
	PesoNetoTotal    float64              `json:"peso_neto_total"`
	PesoBruto        float64              `json:"peso_bruto"`
	Marca            string               `json:"marca"`
	ModeloLote       string               `json:"modelo_lote"`
	Serie            string               `json:"serie"`
	Accesorios       string               `json:"accesorios"`
	MatchesInvoice   bool                 `json:"matches_invoice"`
	Discrepancy      string               `json:"discrepancy"`
	ProductPhoto     PhotoRef             `json:"product_photo"`
	Label            Gate[PhotoRef]       `json:"label"`
	Serial           Gate[SerialEvidence] `json:"serial"`
	Model            Gate[Text]           `json:"model"`
}

// NewProduct returns an empty product that matches the invoice by default.
func NewProduct(id string) Product {
	return Product{ID: id, MatchesInvoice: true}
}

// NetTotal multiplies quantity by unit weight in decimal arithmetic so that
// 3 × 0.1 prints as 0.3.
func NetTotal(quantity int, unitWeight float64) float64 {
	total, _ := decimal.NewFromFloat(unitWeight).Mul(decimal.NewFromInt(int64(quantity))).Float64()
	return total
}

// RecomputeNetTotal writes the derived net weight back onto the product.
func (p *Product) RecomputeNetTotal() {
	p.PesoNetoTotal = NetTotal(p.Cantidad, p.PesoNetoUnitario)
}

// SerialText is the serial shown on the report: the free-text field, or the
// number captured in the serial gate.
func (p Product) SerialText() string {
	if strings.TrimSpace(p.Serie) != "" {
		return p.Serie
	}
	if p.Serial.Enabled {
		return p.Serial.Value().Number
	}
	return ""
}

// ModelText is the model/lot shown on the report.
func (p Product) ModelText() string {
	if strings.TrimSpace(p.ModeloLote) != "" {
		return p.ModeloLote
	}
	if p.Model.Enabled {
		return string(p.Model.Value())
	}
	return ""
}

// Name is the value stored in products.name: part number, else description.
func (p Product) Name() string {
	if strings.TrimSpace(p.NumeroParte) != "" {
		return p.NumeroParte
	}
	return p.Descripcion
}

// LegacyProduct is the first product schema, still produced by older
// clients and by previos saved before the part-number columns existed.
type LegacyProduct struct {
	ID                  string   `json:"id"`
	Code                string   `json:"code"`
	DetailedDescription string   `json:"detailedDescription"`
	Quantity            int      `json:"quantity"`
	UnitOfMeasure       string   `json:"unitOfMeasure"`
	Weight              float64  `json:"weight"`
	Origin              string   `json:"origin"`
	MatchesInvoice      *bool    `json:"matchesInvoice,omitempty"`
	Discrepancy         string   `json:"discrepancy"`
	ProductPhoto        PhotoRef `json:"productPhoto"`
	HasLabel            bool     `json:"hasLabel"`
	LabelPhoto          PhotoRef `json:"labelPhoto"`
	HasSerialNumber     bool     `json:"hasSerialNumber"`
	SerialNumber        string   `json:"serialNumber"`
	SerialPhoto         PhotoRef `json:"serialPhoto"`
	HasModel            bool     `json:"hasModel"`
	ModelNumber         string   `json:"modelNumber"`
}

// FromLegacy converts field by field. The weight is both the unit and the
// gross weight; the net total is recomputed, never copied. A missing
// matchesInvoice means the product matches.
func FromLegacy(l LegacyProduct) Product {
	p := Product{
		ID:               l.ID,
		NumeroParte:      l.Code,
		Descripcion:      l.DetailedDescription,
		Cantidad:         l.Quantity,
		UnidadMedida:     l.UnitOfMeasure,
		PaisOrigen:       l.Origin,
		PesoNetoUnitario: l.Weight,
		PesoBruto:        l.Weight,
		Serie:            l.SerialNumber,
		ModeloLote:       l.ModelNumber,
		MatchesInvoice:   l.MatchesInvoice == nil || *l.MatchesInvoice,
		Discrepancy:      l.Discrepancy,
		ProductPhoto:     l.ProductPhoto,
		Label:            Toggle[PhotoRef](l.HasLabel),
		Serial:           Toggle[SerialEvidence](l.HasSerialNumber),
		Model:            Toggle[Text](l.HasModel),
	}
	if l.LabelPhoto.Present() {
		p.Label.Set(l.LabelPhoto)
	}
	if l.SerialNumber != "" || l.SerialPhoto.Present() {
		p.Serial.Set(SerialEvidence{Number: l.SerialNumber, Photo: l.SerialPhoto})
	}
	if l.ModelNumber != "" {
		p.Model.Set(Text(l.ModelNumber))
	}
	p.RecomputeNetTotal()
	return p
}

// Schema tags which product shape a record carries.
type Schema string

const (
	SchemaLegacy  Schema = "legacy"
	SchemaCurrent Schema = "current"
)

// ProductRecord is a product in either schema.
type ProductRecord struct {
	Schema  Schema
	Legacy  *LegacyProduct
	Current *Product
}

// CurrentRecord wraps a canonical product.
func CurrentRecord(p Product) ProductRecord {
	return ProductRecord{Schema: SchemaCurrent, Current: &p}
}

// LegacyRecord wraps a legacy product.
func LegacyRecord(p LegacyProduct) ProductRecord {
	return ProductRecord{Schema: SchemaLegacy, Legacy: &p}
}

// CurrentRecords wraps every product of a wizard.
func CurrentRecords(products []Product) []ProductRecord {
	out := make([]ProductRecord, len(products))
	for i, p := range products {
		out[i] = CurrentRecord(p)
	}
	return out
}

// Canonical returns the record in the current schema. An empty record gives
// the zero product.
func (r ProductRecord) Canonical() Product {
	switch {
	case r.Schema == SchemaLegacy && r.Legacy != nil:
		return FromLegacy(*r.Legacy)
	case r.Schema == SchemaCurrent && r.Current != nil:
		return *r.Current
	default:
		return Product{}
	}
}

type productEnvelope struct {
	Schema  Schema          `json:"schema"`
	Product json.RawMessage `json:"product"`
}

func (r ProductRecord) MarshalJSON() ([]byte, error) {
	var body any
	switch r.Schema {
	case SchemaLegacy:
		body = r.Legacy
	case SchemaCurrent:
		body = r.Current
	default:
		return nil, fmt.Errorf("unknown product schema %q", r.Schema)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(productEnvelope{Schema: r.Schema, Product: raw})
}

func (r *ProductRecord) UnmarshalJSON(data []byte) error {
	var env productEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Schema {
	case SchemaLegacy:
		var l LegacyProduct
		if err := json.Unmarshal(env.Product, &l); err != nil {
			return fmt.Errorf("decode legacy product: %w", err)
		}
		*r = LegacyRecord(l)
	case SchemaCurrent:
		var p Product
		if err := json.Unmarshal(env.Product, &p); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
		*r = CurrentRecord(p)
	default:
		return fmt.Errorf("unknown product schema %q", env.Schema)
	}
	return nil
}
