package model

import "strings"

// Option is one entry of a select list shown by the mobile form.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OtherOption is the select value that switches a field to free text.
const OtherOption = "otros"

// UnitOptions are the units of measure accepted for products.
var UnitOptions = []Option{
	{"kilo", "KILO"}, {"gramo", "GRAMO"}, {"metro_lineal", "METRO LINEAL"},
	{"metro_cuadrado", "METRO CUADRADO"}, {"metro_cubico", "METRO CUBICO"},
	{"pieza", "PIEZA"}, {"cabeza", "CABEZA"}, {"litro", "LITRO"}, {"par", "PAR"},
	{"kilowatt", "KILOWATT"}, {"millar", "MILLAR"}, {"juego", "JUEGO"},
	{"kilowatt_hora", "KILOWATT/HORA"}, {"tonelada", "TONELADA"},
	{"barril", "BARRIL"}, {"gramo_neto", "GRAMO NETO"}, {"decenas", "DECENAS"},
	{"cientos", "CIENTOS"}, {"docenas", "DOCENAS"}, {"caja", "CAJA"},
	{"botella", "BOTELLA"}, {OtherOption, "OTROS"},
}

// PackageTypes are the package kinds of the packaging step.
var PackageTypes = []Option{
	{"cajas", "Cajas"}, {"pallets", "Pallets"}, {"bultos", "Bultos"},
	{"contenedor", "Contenedor"}, {"sacos", "Sacos"}, {"rollos", "Rollos"},
	{"tambores", "Tambores"}, {"bidones", "Bidones"},
	{"piezas_sueltas", "Piezas Sueltas"}, {"atados", "Atados"},
	{"bobinas", "Bobinas"}, {OtherOption, "Otros"},
}

// OriginOptions are the top-level countries of origin. "EU" expands into
// EUCountries.
var OriginOptions = []Option{
	{"USA", "Estados Unidos"}, {"China", "China"}, {"EU", "Unión Europea"}, {OtherOption, "Otros"},
}

// EUCountries is the sub-list shown when the origin is the European Union.
var EUCountries = []Option{
	{"alemania", "Alemania"}, {"austria", "Austria"}, {"belgica", "Bélgica"},
	{"bulgaria", "Bulgaria"}, {"chipre", "Chipre"}, {"croacia", "Croacia"},
	{"dinamarca", "Dinamarca"}, {"eslovaquia", "Eslovaquia"},
	{"eslovenia", "Eslovenia"}, {"espana", "España"}, {"estonia", "Estonia"},
	{"finlandia", "Finlandia"}, {"francia", "Francia"}, {"grecia", "Grecia"},
	{"hungria", "Hungría"}, {"irlanda", "Irlanda"}, {"italia", "Italia"},
	{"letonia", "Letonia"}, {"lituania", "Lituania"},
	{"luxemburgo", "Luxemburgo"}, {"malta", "Malta"},
	{"paises_bajos", "Países Bajos"}, {"polonia", "Polonia"},
	{"portugal", "Portugal"}, {"republica_checa", "República Checa"},
	{"rumania", "Rumanía"}, {"suecia", "Suecia"},
}

// DefaultOtherPackageType is stored when "otros" is picked without text.
const DefaultOtherPackageType = "Otro tipo"

// HasOption reports whether value is one of options.
func HasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// ResolveChoice returns the value to store for a select field. Picking
// OtherOption stores the custom text, or fallback when it is blank.
func ResolveChoice(selected, custom, fallback string) string {
	if selected != OtherOption {
		return selected
	}
	if c := strings.TrimSpace(custom); c != "" {
		return c
	}
	return fallback
}
