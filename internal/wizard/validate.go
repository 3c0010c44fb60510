package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dharsanguruparan/Previo/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validator returns the shared validator, with JSON field names in errors.
func Validator() *validator.Validate { return validate }

var headerLabels = map[string]string{
	"client":   "Cliente",
	"supplier": "Proveedor",
	"entry":    "Pedimento/Entrada",
}

var headerOrder = map[string]int{"client": 0, "supplier": 1, "entry": 2}

// ValidateHeader checks the header step. All missing required fields are
// listed in one notice.
func ValidateHeader(h model.ShipmentHeader) *Notice {
	h.Client = strings.TrimSpace(h.Client)
	h.Entry = strings.TrimSpace(h.Entry)
	h.Supplier = strings.TrimSpace(h.Supplier)

	err := validate.Struct(h)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Notice{Message: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	sort.SliceStable(fields, func(i, j int) bool { return headerOrder[fields[i]] < headerOrder[fields[j]] })
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = headerLabels[f]
	}
	return &Notice{
		Message: "Por favor complete los siguientes campos: " + strings.Join(labels, ", "),
		Field:   fields[0],
	}
}

// ValidatePackaging checks the packaging step, stopping at the first failure.
func ValidatePackaging(p model.Packaging) *Notice {
	switch {
	case p.Packages <= 0:
		return &Notice{Message: "Por favor ingrese la cantidad de bultos", Field: "packages"}
	case strings.TrimSpace(p.PackageType) == "":
		return &Notice{Message: "Por favor seleccione el tipo de bulto", Field: "package_type"}
	case strings.TrimSpace(p.Carrier) == "":
		return &Notice{Message: "Por favor ingrese la línea transportista", Field: "carrier"}
	case p.TotalWeight <= 0:
		return &Notice{Message: "Por favor ingrese el peso total", Field: "total_weight"}
	case !p.Condition.GoodCondition.Satisfied():
		return &Notice{Message: "Captura la evidencia del embalaje antes de continuar", Field: "good_condition"}
	case !p.Condition.HasSeals.Satisfied():
		return &Notice{Message: "Captura la evidencia de los sellos antes de continuar", Field: "has_seals"}
	case !p.Condition.CertifiedPallet.Satisfied():
		return &Notice{Message: "Captura la foto de la tarima antes de continuar", Field: "certified_pallet"}
	}
	return nil
}

type productRule struct {
	field string
	label string
	ok    func(model.Product) bool
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

var productRules = []productRule{
	{FieldDescripcion, "la descripción", func(p model.Product) bool { return filled(p.Descripcion) }},
	{FieldCantidad, "la cantidad", func(p model.Product) bool { return p.Cantidad > 0 }},
	{FieldUnidadMedida, "la unidad de medida", func(p model.Product) bool { return filled(p.UnidadMedida) }},
	{FieldPaisOrigen, "el país de origen", func(p model.Product) bool { return filled(p.PaisOrigen) }},
	{FieldPesoNetoUnitario, "el peso neto unitario", func(p model.Product) bool { return p.PesoNetoUnitario > 0 }},
	{FieldProductPhoto, "la foto del producto", func(p model.Product) bool { return p.ProductPhoto.Present() }},
	{FieldLabelPhoto, "la foto del etiquetado", func(p model.Product) bool { return p.Label.Satisfied() }},
	{FieldSerialNumber, "el número de serie", func(p model.Product) bool {
		return !p.Serial.Enabled || filled(p.Serial.Value().Number)
	}},
	{FieldSerialPhoto, "la foto del número de serie", func(p model.Product) bool { return p.Serial.Satisfied() }},
	{FieldModelNumber, "el número de modelo", func(p model.Product) bool { return p.Model.Satisfied() }},
	{FieldDiscrepancy, "la descripción de la discrepancia", func(p model.Product) bool {
		return p.MatchesInvoice || filled(p.Discrepancy)
	}},
}

// firstFailure returns the first rule p breaks, or nil.
func firstFailure(p model.Product) *productRule {
	for i := range productRules {
		if !productRules[i].ok(p) {
			return &productRules[i]
		}
	}
	return nil
}

// ValidateProducts scans products in order and reports the first failure.
// On failure the active index moves to the offending product.
func (w *Wizard) ValidateProducts() *Notice {
	for k, p := range w.products {
		rule := firstFailure(p)
		if rule == nil {
			continue
		}
		w.active = k
		idx := k
		return &Notice{
			Message:      fmt.Sprintf("Producto %d: falta %s", k+1, rule.label),
			Field:        rule.field,
			ProductIndex: &idx,
		}
	}
	return nil
}

// ProductComplete reports whether p passes every product rule.
func ProductComplete(p model.Product) bool { return firstFailure(p) == nil }
