package catia

import (
	"errors"
	"fmt"
)

// SensorType is an XMLName value the application accepts for analysis
// local sensors.
//
// Source: https://www.eng-tips.com/viewthread.cfm?qid=370727
type SensorType string

const (
	// GPS workbench
	SensorDisplacementMagnitude      SensorType = "Sensor_Disp_Iso"
	SensorDisplacementVector         SensorType = "Sensor_Disp"
	SensorRelativeDisplacementVector SensorType = "Relative_Sensor_Disp"
	SensorRotationVector             SensorType = "Sensor_Rotation"
	SensorVonMisesStress             SensorType = "Sensor_Stress_VonMises"
	SensorEstimatedError             SensorType = "Sensor_EstimatedError"

	// EST workbench
	SensorStressTensor          SensorType = "Sensor_Stress_SymTensor"
	SensorPrincipalShearing     SensorType = "Sensor_Stress_PpalShearing"
	SensorPrincipalStressTensor SensorType = "Sensor_Stress_PpalTensor"
	SensorPrincipalStrainTensor SensorType = "Sensor_Strain_PpalTensor"
	SensorStrainTensor          SensorType = "Sensor_Strain_SymTensor"
	SensorForce                 SensorType = "Sensor_Force"
	SensorMoment                SensorType = "Sensor_Moment"
	SensorElasticEnergy         SensorType = "Sensor_ElasticEnergy"
	SensorClearance             SensorType = "Sensor_Display_clearance"
	SensorAccelerationVector    SensorType = "Sensor_Acceleration"
	// The application's own vocabulary truncates this one; it is not a
	// typo here
	SensorRelativeAccelerationVector SensorType = "Relative_Sensor_Acceleratio"
	SensorVelocityVector             SensorType = "Sensor_Velocity"
	SensorRelativeVelocityVector     SensorType = "Relative_Sensor_Velocity"

	SensorSurfaceStressTensor          SensorType = "Surface_Sensor_Stress_SymTensor"
	SensorSurfacePrincipalStressTensor SensorType = "Surface_Sensor_Stress_PpalTensor"
)

var sensorCatalog = []SensorType{
	SensorDisplacementMagnitude,
	SensorDisplacementVector,
	SensorRelativeDisplacementVector,
	SensorRotationVector,
	SensorVonMisesStress,
	SensorEstimatedError,
	SensorStressTensor,
	SensorPrincipalShearing,
	SensorPrincipalStressTensor,
	SensorPrincipalStrainTensor,
	SensorStrainTensor,
	SensorForce,
	SensorMoment,
	SensorElasticEnergy,
	SensorClearance,
	SensorAccelerationVector,
	SensorRelativeAccelerationVector,
	SensorVelocityVector,
	SensorRelativeVelocityVector,
	SensorSurfaceStressTensor,
	SensorSurfacePrincipalStressTensor,
}

// KnownSensorTypes returns the sensor vocabulary in catalog order
func KnownSensorTypes() []SensorType {
	out := make([]SensorType, len(sensorCatalog))
	copy(out, sensorCatalog)
	return out
}

// SensorTypeFromXMLName resolves an XMLName to its catalog entry
func SensorTypeFromXMLName(name string) (SensorType, bool) {
	for _, st := range sensorCatalog {
		if string(st) == name {
			return st, true
		}
	}
	return "", false
}

// Sensor describes one local sensor attached to an analysis root
type Sensor struct {
	Name    string `json:"name"`
	XMLName string `json:"xml_name"`
	Known   bool   `json:"known"`
}

// ListSensors reads the local sensors under an analysis root. Roots
// without a sensor collection yield an empty list.
func ListSensors(root Object) ([]Sensor, error) {
	res, err := root.Get("Sensors")
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("sensor collection: %w", err)
	}
	coll, ok := res.Object()
	if !ok {
		return nil, fmt.Errorf("sensor collection: expected object, got %T", res.Value())
	}
	defer coll.Release()

	var sensors []Sensor
	err = ForEach(coll, func(item Object) (bool, error) {
		defer item.Release()
		name, err := GetString(item, "Name")
		if err != nil {
			return false, fmt.Errorf("sensor name: %w", err)
		}
		xmlName, err := GetString(item, "XMLName")
		if err != nil {
			return false, fmt.Errorf("sensor %s xml name: %w", name, err)
		}
		_, known := SensorTypeFromXMLName(xmlName)
		sensors = append(sensors, Sensor{Name: name, XMLName: xmlName, Known: known})
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return sensors, nil
}
