package wizard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dharsanguruparan/Previo/internal/apperr"
	"github.com/dharsanguruparan/Previo/internal/model"
)

// Product field names accepted by UpdateProductField.
const (
	FieldNumeroParte      = "numero_parte"
	FieldDescripcion      = "descripcion"
	FieldCantidad         = "cantidad"
	FieldUnidadMedida     = "unidad_medida"
	FieldPaisOrigen       = "pais_origen"
	FieldPesoNetoUnitario = "peso_neto_unitario"
	FieldPesoNetoTotal    = "peso_neto_total"
	FieldPesoBruto        = "peso_bruto"
	FieldMarca            = "marca"
	FieldModeloLote       = "modelo_lote"
	FieldSerie            = "serie"
	FieldAccesorios       = "accesorios"
	FieldMatchesInvoice   = "matches_invoice"
	FieldDiscrepancy      = "discrepancy"
	FieldProductPhoto     = "product_photo"
	FieldHasLabel         = "has_label"
	FieldLabelPhoto       = "label_photo"
	FieldHasSerialNumber  = "has_serial_number"
	FieldSerialNumber     = "serial_number"
	FieldSerialPhoto      = "serial_photo"
	FieldHasModel         = "has_model"
	FieldModelNumber      = "model_number"
)

// UpdateProductField sets one field of the active product. It is the only
// way products change; other products are never touched.
func (w *Wizard) UpdateProductField(field string, value any) error {
	p := &w.products[w.active]
	switch field {
	case FieldNumeroParte, FieldDescripcion, FieldUnidadMedida, FieldPaisOrigen,
		FieldMarca, FieldModeloLote, FieldSerie, FieldAccesorios, FieldDiscrepancy:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		*stringField(p, field) = s
	case FieldCantidad:
		n, err := asInt(field, value)
		if err != nil {
			return err
		}
		p.Cantidad = n
		p.RecomputeNetTotal()
	case FieldPesoNetoUnitario:
		f, err := asWeight(field, value)
		if err != nil {
			return err
		}
		p.PesoNetoUnitario = f
		p.RecomputeNetTotal()
	case FieldPesoBruto:
		f, err := asWeight(field, value)
		if err != nil {
			return err
		}
		p.PesoBruto = f
	case FieldPesoNetoTotal:
		return apperr.Validation("peso_neto_total se calcula a partir de cantidad y peso_neto_unitario")
	case FieldMatchesInvoice:
		b, err := asBool(field, value)
		if err != nil {
			return err
		}
		p.MatchesInvoice = b
	case FieldProductPhoto:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		p.ProductPhoto = model.PhotoRef(s)
	case FieldHasLabel:
		b, err := asBool(field, value)
		if err != nil {
			return err
		}
		p.Label.Enabled = b
	case FieldLabelPhoto:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		setOrClear(&p.Label, model.PhotoRef(s))
	case FieldHasSerialNumber:
		b, err := asBool(field, value)
		if err != nil {
			return err
		}
		p.Serial.Enabled = b
	case FieldSerialNumber, FieldSerialPhoto:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		ev := p.Serial.Value()
		if field == FieldSerialNumber {
			ev.Number = s
		} else {
			ev.Photo = model.PhotoRef(s)
		}
		if ev.Number == "" && ev.Photo == "" {
			p.Serial.Clear()
		} else {
			p.Serial.Set(ev)
		}
	case FieldHasModel:
		b, err := asBool(field, value)
		if err != nil {
			return err
		}
		p.Model.Enabled = b
	case FieldModelNumber:
		s, err := asString(field, value)
		if err != nil {
			return err
		}
		setOrClear(&p.Model, model.Text(s))
	default:
		return apperr.Validation(fmt.Sprintf("campo desconocido: %s", field))
	}
	return nil
}

func stringField(p *model.Product, field string) *string {
	switch field {
	case FieldNumeroParte:
		return &p.NumeroParte
	case FieldDescripcion:
		return &p.Descripcion
	case FieldUnidadMedida:
		return &p.UnidadMedida
	case FieldPaisOrigen:
		return &p.PaisOrigen
	case FieldMarca:
		return &p.Marca
	case FieldModeloLote:
		return &p.ModeloLote
	case FieldSerie:
		return &p.Serie
	case FieldAccesorios:
		return &p.Accesorios
	default:
		return &p.Discrepancy
	}
}

func setOrClear[T model.Evidence](g *model.Gate[T], v T) {
	if v.Present() {
		g.Set(v)
		return
	}
	g.Clear()
}

func typeError(field, want string, value any) error {
	return apperr.Validation(fmt.Sprintf("%s debe ser %s, se recibió %T", field, want, value))
}

func asString(field string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case nil:
		return "", nil
	default:
		return "", typeError(field, "texto", value)
	}
}

func asBool(field string, value any) (bool, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	return false, typeError(field, "booleano", value)
}

func asInt(field string, value any) (int, error) {
	var n float64
	switch v := value.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, typeError(field, "entero", value)
		}
		n = f
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, typeError(field, "entero", value)
		}
		n = float64(parsed)
	case nil:
		return 0, nil
	default:
		return 0, typeError(field, "entero", value)
	}
	if n != math.Trunc(n) || n < 0 {
		return 0, apperr.Validation(fmt.Sprintf("%s debe ser un entero mayor o igual a 0", field))
	}
	return int(n), nil
}

func asWeight(field string, value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, typeError(field, "número", value)
		}
		f = parsed
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, typeError(field, "número", value)
		}
		f = parsed
	case nil:
		return 0, nil
	default:
		return 0, typeError(field, "número", value)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.Validation(fmt.Sprintf("%s debe ser mayor o igual a 0", field))
	}
	return f, nil
}
