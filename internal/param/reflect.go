package param

import (
	"fmt"

	"github.com/GoSim-25-26J-441/catia-bridge/internal/catia"
)

// Reflect copies a parameter into the destination collection under a
// new name. Dimensions are recreated with the source's magnitude and
// valuated from its display string so the unit carries over; reals are
// recreated from the source value. Returns the new parameter and its
// unit symbol, empty for reals. The caller owns the handle.
func Reflect(src, dst catia.Object, name string) (catia.Object, string, error) {
	class, err := src.TypeName()
	if err != nil {
		return nil, "", fmt.Errorf("source type: %w", err)
	}
	switch class {
	case "Dimension", "Length", "Angle":
		return reflectDimension(src, dst, name)
	case "RealParam":
		return reflectReal(src, dst, name)
	}
	return nil, "", &UnrecognizedTypeError{Class: class}
}

func reflectDimension(src, dst catia.Object, name string) (catia.Object, string, error) {
	unit, err := catia.GetObject(src, "Unit")
	if err != nil {
		return nil, "", fmt.Errorf("source unit: %w", err)
	}
	magnitude, err := unit.Get("Magnitude")
	unit.Release()
	if err != nil {
		return nil, "", fmt.Errorf("source magnitude: %w", err)
	}

	created, err := catia.CallObject(dst, "CreateDimension", name, magnitude.Value(), 0)
	if err != nil {
		return nil, "", fmt.Errorf("create dimension %s: %w", name, err)
	}
	display, err := catia.CallString(src, "ValueAsString")
	if err != nil {
		created.Release()
		return nil, "", fmt.Errorf("source value: %w", err)
	}
	if _, err := created.Call("ValuateFromString", display); err != nil {
		created.Release()
		return nil, "", fmt.Errorf("valuate %s from %q: %w", name, display, err)
	}
	symbol, err := dimensionUnit(created)
	if err != nil {
		created.Release()
		return nil, "", err
	}
	return created, symbol, nil
}

func reflectReal(src, dst catia.Object, name string) (catia.Object, string, error) {
	val, err := catia.GetFloat(src, "Value")
	if err != nil {
		return nil, "", fmt.Errorf("source value: %w", err)
	}
	created, err := catia.CallObject(dst, "CreateReal", name, val)
	if err != nil {
		return nil, "", fmt.Errorf("create real %s: %w", name, err)
	}
	return created, "", nil
}
