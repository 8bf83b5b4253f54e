package taxation

import "strings"

var euCountries = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "FR": {}, "GR": {}, "HR": {}, "HU": {},
	"IE": {}, "IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {},
	"PL": {}, "PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// NormalizeCountry upper-cases an ISO code and maps the VAT prefix EL to GR.
func NormalizeCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "EL" {
		return "GR"
	}
	return code
}

// IsEU reports whether the ISO country code belongs to an EU member state.
func IsEU(code string) bool {
	_, ok := euCountries[NormalizeCountry(code)]
	return ok
}
