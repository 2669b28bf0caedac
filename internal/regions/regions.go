package regions

import (
	"strings"

	"gatewatch/internal/domain/anpr"
)

// canonical is the closed set of issuing-region codes and their names.
var canonical = map[string]string{
	"LAG": "LAGOS", "ABJ": "ABUJA", "KAN": "KANO",
	"RIV": "RIVERS", "KAD": "KADUNA", "OYO": "OYO",
	"OGU": "OGUN", "IMO": "IMO", "DLT": "DELTA",
	"BEN": "BENUE", "KAT": "KATSINA", "ANA": "ANAMBRA",
	"BOR": "BORNO", "AKW": "AKWA IBOM", "BAU": "BAUCHI",
	"JIG": "JIGAWA", "ENU": "ENUGU", "ZAM": "ZAMFARA",
	"SOK": "SOKOTO", "KEB": "KEBBI", "OND": "ONDO",
	"ADA": "ADAMAWA", "CRS": "CROSS RIVER", "ABI": "ABIA",
	"EDO": "EDO", "KWA": "KWARA", "NIG": "NIGER",
	"GMB": "GOMBE", "OSU": "OSUN", "TAR": "TARABA",
	"YOB": "YOBE", "EKI": "EKITI", "KOG": "KOGI",
	"PLT": "PLATEAU", "BYS": "BAYELSA", "EBO": "EBONYI",
	"NAS": "NASSARAWA",
}

// codeOrder fixes the iteration order for the canonical-name fallback so
// resolution does not depend on map order.
var codeOrder = []string{
	"LAG", "ABJ", "RIV", "KAD", "KAT", "KAN", "ANA", "BOR", "AKW", "BAU",
	"JIG", "ENU", "ZAM", "SOK", "KEB", "OND", "ADA", "CRS", "ABI", "EDO",
	"KWA", "NIG", "GMB", "OSU", "TAR", "YOB", "EKI", "KOG", "PLT", "BYS",
	"EBO", "NAS", "OGU", "OYO", "IMO", "DLT", "BEN",
}

type alias struct {
	text string
	code string
}

// aliases maps OCR-noisy fragments of region names to codes. The slice order
// is the match precedence: more specific aliases come before broader ones
// (LAGOS before LAGO, AKWAIBOM before AKWA, NASSARAWA before NASARAWA), so a
// text matching several aliases resolves to the most specific match rather
// than whichever a map happened to yield first.
var aliases = []alias{
	{"EXCELLENCE", "LAG"}, {"CENTRE", "LAG"},
	{"LACOS", "LAG"}, {"LAGOS", "LAG"}, {"LACO", "LAG"}, {"LAGO", "LAG"},
	{"ULIE", "LAG"},
	{"ABUJA", "ABJ"}, {"FCT", "ABJ"},
	{"GATEWAY", "OGU"}, {"OGUN", "OGU"},
	{"RIVERS", "RIV"}, {"RIVER", "RIV"},
	{"KADUNA", "KAD"}, {"KATSINA", "KAT"}, {"KANO", "KAN"},
	{"ANAMBRA", "ANA"},
	{"BORNO", "BOR"}, {"BORNU", "BOR"},
	{"AKWAIBOM", "AKW"}, {"AKWA", "AKW"},
	{"BAUCHI", "BAU"}, {"JIGAWA", "JIG"},
	{"ENUGU", "ENU"}, {"ZAMFARA", "ZAM"},
	{"SOKOTO", "SOK"}, {"KEBBI", "KEB"},
	{"ADAMAWA", "ADA"}, {"CROSS", "CRS"},
	{"PLATEAU", "PLT"}, {"BAYELSA", "BYS"},
	{"EBONYI", "EBO"},
	{"NASSARAWA", "NAS"}, {"NASARAWA", "NAS"},
	{"TARABA", "TAR"}, {"KWARA", "KWA"},
	{"NIGER", "NIG"}, {"GOMBE", "GMB"},
	{"OSUN", "OSU"}, {"YOBE", "YOB"},
	{"EKITI", "EKI"}, {"KOGI", "KOG"},
	{"DELTA", "DLT"}, {"BENUE", "BEN"},
	{"OYO", "OYO"}, {"IMO", "IMO"}, {"ABIA", "ABI"}, {"EDO", "EDO"},
}

// Lookup returns the region for a known 3-letter code.
func Lookup(code string) (anpr.Region, bool) {
	name, ok := canonical[code]
	if !ok {
		return anpr.Region{}, false
	}
	return anpr.Region{Code: code, Name: name}, true
}

// digit confusions reversed before matching region names: region text is
// alphabetic, so any digits in it are OCR misreads of letters.
var digitReversal = strings.NewReplacer(
	"0", "O", "1", "I", "5", "S", "8", "B", "6", "G",
)

// Extract resolves OCR text to an issuing region. The text is uppercased,
// digit-lookalikes are reversed, and everything but letters is dropped before
// matching the alias list in priority order. When no alias matches, the first
// four letters of each canonical name are tried as a substring fallback.
func Extract(text string) (anpr.Region, bool) {
	if text == "" {
		return anpr.Region{}, false
	}
	t := digitReversal.Replace(strings.ToUpper(text))
	var b strings.Builder
	for _, r := range t {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return anpr.Region{}, false
	}

	for _, a := range aliases {
		if strings.Contains(cleaned, a.text) {
			return anpr.Region{Code: a.code, Name: canonical[a.code]}, true
		}
	}

	for _, code := range codeOrder {
		name := strings.ReplaceAll(canonical[code], " ", "")
		if len(name) >= 4 && strings.Contains(cleaned, name[:4]) {
			return anpr.Region{Code: code, Name: canonical[code]}, true
		}
	}

	return anpr.Region{}, false
}
