package fx

import "strings"

// minorUnits lists quote currencies that providers report in a subunit of the
// ISO currency. Codes are case sensitive: GBp is pence, GBP is pounds.
var minorUnits = map[string]struct {
	major   string
	divisor float64
}{
	"GBp": {"GBP", 100},
	"GBX": {"GBP", 100},
	"ZAc": {"ZAR", 100},
	"ZAC": {"ZAR", 100},
	"ILA": {"ILS", 100},
}

// Canonical trims code and uppercases it unless it is a known minor-unit code,
// whose case is kept.
func Canonical(code string) string {
	code = strings.TrimSpace(code)
	if _, ok := minorUnits[code]; ok {
		return code
	}
	return strings.ToUpper(code)
}

// MajorUnit returns the ISO currency a code is quoted in and how many units of
// code make one unit of it. Codes that are not minor units map to themselves.
func MajorUnit(code string) (string, float64) {
	if m, ok := minorUnits[code]; ok {
		return m.major, m.divisor
	}
	return code, 1
}
