// Package units translates unit symbols between the CAD application's
// vocabulary and the optimization framework's vocabulary.
package units

import "regexp"

// The two vocabularies mostly agree; the exception is exponents, which
// the CAD side writes as m2/m3 and the framework side as m**2/m**3.
// Symbols neither the table nor the exponent pattern covers pass
// through unchanged.
var unitPairs = [][2]string{
	// (CAD symbol, framework symbol)
	{"m2", "m**2"},
	{"m3", "m**3"},
	{"mm", "mm"},
	{"m", "m"},
	{"cm", "cm"},
	{"km", "km"},
	{"deg", "deg"},
	{"rad", "rad"},
	{"s", "s"},
	{"kg", "kg"},
	{"N", "N"},
	{"Pa", "Pa"},
}

var (
	cadToFramework = make(map[string]string, len(unitPairs))
	frameworkToCAD = make(map[string]string, len(unitPairs))
)

func init() {
	for _, pair := range unitPairs {
		cadToFramework[pair[0]] = pair[1]
		frameworkToCAD[pair[1]] = pair[0]
	}
}

var (
	cadExponent       = regexp.MustCompile(`^([A-Za-z]+)([2-9])$`)
	frameworkExponent = regexp.MustCompile(`^([A-Za-z]+)\*\*([2-9])$`)
)

// ToFramework translates a CAD unit symbol to the framework vocabulary.
func ToFramework(cadUnit string) string {
	if fw, ok := cadToFramework[cadUnit]; ok {
		return fw
	}
	if m := cadExponent.FindStringSubmatch(cadUnit); m != nil {
		return m[1] + "**" + m[2]
	}
	return cadUnit
}

// ToCAD translates a framework unit symbol to the CAD vocabulary.
func ToCAD(frameworkUnit string) string {
	if cad, ok := frameworkToCAD[frameworkUnit]; ok {
		return cad
	}
	if m := frameworkExponent.FindStringSubmatch(frameworkUnit); m != nil {
		return m[1] + m[2]
	}
	return frameworkUnit
}
