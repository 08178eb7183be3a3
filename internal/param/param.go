// Package param marshals scalar values between the framework's typed
// form and knowledge parameters on the automation tree. Everything here
// is stateless plumbing over catia.Object handles.
package param

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/models"
	"github.com/GoSim-25-26J-441/catia-bridge/pkg/units"
)

// discreteClasses maps the discrete automation parameter classes to
// framework parameter types. Dimension classes never appear here; they
// are recognized by their Unit property instead, because the dimension
// family has too many subclasses to enumerate.
var discreteClasses = map[string]models.ParamType{
	"IntParam":  models.ParamInteger,
	"BoolParam": models.ParamBoolean,
	"StrParam":  models.ParamString,
}

// UnrecognizedTypeError reports a parameter class the bridge cannot marshal
type UnrecognizedTypeError struct {
	Class string
}

func (e *UnrecognizedTypeError) Error() string {
	return fmt.Sprintf("unrecognized parameter type: %s", e.Class)
}

// TypeValueUnit classifies a parameter and reads its current value and
// unit symbol. Dimension parameters report their value in the display
// unit the symbol names: ValueAsString with the unit suffix stripped.
func TypeValueUnit(p catia.Object) (models.ParamType, models.Value, string, error) {
	hasUnit, err := catia.HasMember(p, "Unit")
	if err != nil {
		return "", models.Value{}, "", fmt.Errorf("probe unit: %w", err)
	}
	if hasUnit {
		symbol, err := dimensionUnit(p)
		if err != nil {
			return "", models.Value{}, "", err
		}
		raw, err := catia.CallString(p, "ValueAsString")
		if err != nil {
			return "", models.Value{}, "", fmt.Errorf("read value: %w", err)
		}
		f, err := parseMagnitude(raw, symbol)
		if err != nil {
			return "", models.Value{}, "", err
		}
		return models.ParamDimension, models.RealValue(f), symbol, nil
	}

	class, err := p.TypeName()
	if err != nil {
		return "", models.Value{}, "", fmt.Errorf("parameter type: %w", err)
	}
	if class == "RealParam" {
		raw, err := catia.CallString(p, "ValueAsString")
		if err != nil {
			return "", models.Value{}, "", fmt.Errorf("read value: %w", err)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return "", models.Value{}, "", fmt.Errorf("parse real value %q: %w", raw, err)
		}
		return models.ParamReal, models.RealValue(f), "", nil
	}
	pt, ok := discreteClasses[class]
	if !ok {
		return "", models.Value{}, "", &UnrecognizedTypeError{Class: class}
	}

	switch pt {
	case models.ParamInteger:
		n, err := catia.GetInt(p, "Value")
		if err != nil {
			return "", models.Value{}, "", fmt.Errorf("read value: %w", err)
		}
		return pt, models.IntValue(n), "", nil
	case models.ParamBoolean:
		b, err := catia.GetBool(p, "Value")
		if err != nil {
			return "", models.Value{}, "", fmt.Errorf("read value: %w", err)
		}
		return pt, models.BoolValue(b), "", nil
	default:
		s, err := catia.GetString(p, "Value")
		if err != nil {
			return "", models.Value{}, "", fmt.Errorf("read value: %w", err)
		}
		return pt, models.StrValue(s), "", nil
	}
}

// SetValue writes a framework value into a parameter. Dimension values
// valuate as "<number><unit>" with the unit translated back to the
// application's vocabulary, reals valuate from the bare number, and the
// discrete classes take the value coerced to their kind.
func SetValue(p catia.Object, val models.Value, frameworkUnits string) error {
	hasUnit, err := catia.HasMember(p, "Unit")
	if err != nil {
		return fmt.Errorf("probe unit: %w", err)
	}
	if hasUnit {
		f, ok := val.Float()
		if !ok {
			return fmt.Errorf("dimension parameter needs a numeric value, got %s", val.Kind)
		}
		body := strconv.FormatFloat(f, 'g', -1, 64) + units.ToCAD(frameworkUnits)
		if _, err := p.Call("ValuateFromString", body); err != nil {
			return fmt.Errorf("valuate from %q: %w", body, err)
		}
		return nil
	}

	class, err := p.TypeName()
	if err != nil {
		return fmt.Errorf("parameter type: %w", err)
	}
	if class == "RealParam" {
		f, ok := val.Float()
		if !ok {
			return fmt.Errorf("real parameter needs a numeric value, got %s", val.Kind)
		}
		body := strconv.FormatFloat(f, 'g', -1, 64)
		if _, err := p.Call("ValuateFromString", body); err != nil {
			return fmt.Errorf("valuate from %q: %w", body, err)
		}
		return nil
	}
	pt, ok := discreteClasses[class]
	if !ok {
		return &UnrecognizedTypeError{Class: class}
	}
	coerced, err := val.Coerce(pt)
	if err != nil {
		return err
	}
	if err := p.Put("Value", coerced.Any()); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return nil
}

// Unit reads a parameter's display unit symbol, empty for parameters
// without one
func Unit(p catia.Object) (string, error) {
	hasUnit, err := catia.HasMember(p, "Unit")
	if err != nil || !hasUnit {
		return "", err
	}
	return dimensionUnit(p)
}

func dimensionUnit(p catia.Object) (string, error) {
	unit, err := catia.GetObject(p, "Unit")
	if err != nil {
		return "", fmt.Errorf("read unit: %w", err)
	}
	defer unit.Release()
	symbol, err := catia.GetString(unit, "Symbol")
	if err != nil {
		return "", fmt.Errorf("unit symbol: %w", err)
	}
	return symbol, nil
}

// parseMagnitude strips the display unit suffix from a string like
// "50mm" and parses the remainder
func parseMagnitude(raw, symbol string) (float64, error) {
	s := strings.TrimSpace(raw)
	if symbol != "" {
		s = strings.TrimSpace(strings.TrimSuffix(s, symbol))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse dimension value %q: %w", raw, err)
	}
	return f, nil
}
