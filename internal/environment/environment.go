// Package environment captures the loading, temperature and installation
// state a junction is analyzed under.
package environment

import (
	"fmt"
	"math"

	"Clevis/internal/units"
)

// ValidationError reports an invalid environment parameter.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Axis selects the fastener axis for 6-DOF load reduction.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Environment is the validated loading/temperature/torque state. Immutable
// once constructed.
type Environment struct {
	Tension       units.Quantity
	Shear         units.Quantity
	Bending       units.Quantity
	MinTemp       units.Quantity
	NomTemp       units.Quantity
	MaxTemp       units.Quantity
	PreloadTorque units.Quantity
}

// New validates and returns an Environment.
func New(tension, shear, bending, minTemp, nomTemp, maxTemp, preloadTorque units.Quantity) (*Environment, error) {
	env := &Environment{
		Tension:       tension,
		Shear:         shear,
		Bending:       bending,
		MinTemp:       minTemp,
		NomTemp:       nomTemp,
		MaxTemp:       maxTemp,
		PreloadTorque: preloadTorque,
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

// Validate checks dimensions, that every temperature is above absolute zero
// and that the preload torque is non-negative.
func (e *Environment) Validate() error {
	for name, c := range map[string]struct {
		q   units.Quantity
		dim units.Dim
	}{
		"tension":        {e.Tension, units.Force},
		"shear":          {e.Shear, units.Force},
		"bending":        {e.Bending, units.Moment},
		"min temp":       {e.MinTemp, units.Temperature},
		"nom temp":       {e.NomTemp, units.Temperature},
		"max temp":       {e.MaxTemp, units.Temperature},
		"preload torque": {e.PreloadTorque, units.Moment},
	} {
		if err := units.CheckDim(c.q, c.dim, name); err != nil {
			return err
		}
	}
	for name, t := range map[string]units.Quantity{
		"min temp": e.MinTemp,
		"nom temp": e.NomTemp,
		"max temp": e.MaxTemp,
	} {
		if t.SI() <= 0 {
			return &ValidationError{fmt.Sprintf("%s must be above absolute zero", name)}
		}
	}
	if e.PreloadTorque.SI() < 0 {
		return &ValidationError{"preload torque must be non-negative"}
	}
	return nil
}

// FromSixDOF reduces six-degree-of-freedom forces and moments about the
// chosen fastener axis: the axial force component becomes tension, the
// perpendicular force components combine root-sum-square into shear, and
// the perpendicular moment components combine into net bending.
func FromSixDOF(forces, moments [3]units.Quantity, axis Axis,
	minTemp, nomTemp, maxTemp, preloadTorque units.Quantity) (*Environment, error) {

	var idx int
	switch axis {
	case AxisX:
		idx = 0
	case AxisY:
		idx = 1
	case AxisZ:
		idx = 2
	default:
		return nil, &ValidationError{fmt.Sprintf("fastener axis must be x, y or z, got %q", axis)}
	}

	for i := range forces {
		if err := units.CheckDim(forces[i], units.Force, "force component"); err != nil {
			return nil, err
		}
		if err := units.CheckDim(moments[i], units.Moment, "moment component"); err != nil {
			return nil, err
		}
	}

	reg := forces[idx].Registry()
	tension := forces[idx]

	var shearSq, bendSq float64
	for i := 0; i < 3; i++ {
		if i == idx {
			continue
		}
		shearSq += forces[i].SI() * forces[i].SI()
		bendSq += moments[i].SI() * moments[i].SI()
	}
	shear := reg.FromSI(math.Sqrt(shearSq), units.Force)
	bending := reg.FromSI(math.Sqrt(bendSq), units.Moment)

	return New(tension, shear, bending, minTemp, nomTemp, maxTemp, preloadTorque)
}
