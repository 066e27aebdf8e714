// Package material defines material property sets shared by assembly
// components.
package material

import (
	"fmt"

	"Clevis/internal/units"
)

// ValidationError reports a violated material property invariant.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Properties is the full property set required for joint analysis.
type Properties struct {
	YieldStrength    units.Quantity
	UltimateStrength units.Quantity
	Density          units.Quantity
	PoissonRatio     float64
	ElasticModulus   units.Quantity
	ThermalExpansion units.Quantity
}

// Material is an immutable, validated material shared by reference across
// components.
type Material struct {
	name  string
	props Properties
}

// New validates the property set and returns a Material.
//
// Invariants: yield < ultimate; strengths, density and modulus positive;
// 0 < Poisson ratio < 0.5; thermal expansion positive with 1/temperature
// dimension.
func New(name string, p Properties) (*Material, error) {
	if name == "" {
		return nil, &ValidationError{"material name must be non-empty"}
	}
	for _, c := range []struct {
		q    units.Quantity
		dim  units.Dim
		what string
	}{
		{p.YieldStrength, units.Stress, "yield strength"},
		{p.UltimateStrength, units.Stress, "ultimate strength"},
		{p.Density, units.Density, "density"},
		{p.ElasticModulus, units.Stress, "elastic modulus"},
		{p.ThermalExpansion, units.Expansion, "thermal expansion"},
	} {
		if err := units.CheckDim(c.q, c.dim, c.what); err != nil {
			return nil, err
		}
		if c.q.SI() <= 0 {
			return nil, &ValidationError{fmt.Sprintf("%s must be positive", c.what)}
		}
	}
	if p.YieldStrength.SI() >= p.UltimateStrength.SI() {
		return nil, &ValidationError{"yield strength must be less than ultimate strength"}
	}
	if p.PoissonRatio <= 0 || p.PoissonRatio >= 0.5 {
		return nil, &ValidationError{"Poisson ratio must be between 0 and 0.5"}
	}
	return &Material{name: name, props: p}, nil
}

func (m *Material) Name() string { return m.name }
func (m *Material) YieldStrength() units.Quantity { return m.props.YieldStrength }
func (m *Material) UltimateStrength() units.Quantity { return m.props.UltimateStrength }
func (m *Material) Density() units.Quantity { return m.props.Density }
func (m *Material) PoissonRatio() float64 { return m.props.PoissonRatio }
func (m *Material) ElasticModulus() units.Quantity { return m.props.ElasticModulus }
func (m *Material) ThermalExpansion() units.Quantity { return m.props.ThermalExpansion }

// GenericSteel returns a generic structural steel (ASTM A36-like).
func GenericSteel(reg *units.Registry) *Material {
	m, err := New("Generic Structural Steel", Properties{
		YieldStrength:    reg.MustNew(250, "MPa"),
		UltimateStrength: reg.MustNew(400, "MPa"),
		Density:          reg.MustNew(7850, "kg/m^3"),
		PoissonRatio:     0.29,
		ElasticModulus:   reg.MustNew(200, "GPa"),
		ThermalExpansion: reg.MustNew(1.17e-5, "1/K"),
	})
	if err != nil {
		panic(err)
	}
	return m
}

// GenericAluminum returns a generic aluminum (6061-T6-like).
func GenericAluminum(reg *units.Registry) *Material {
	m, err := New("Generic Aluminum (6061-T6)", Properties{
		YieldStrength:    reg.MustNew(276, "MPa"),
		UltimateStrength: reg.MustNew(310, "MPa"),
		Density:          reg.MustNew(2700, "kg/m^3"),
		PoissonRatio:     0.33,
		ElasticModulus:   reg.MustNew(69, "GPa"),
		ThermalExpansion: reg.MustNew(2.31e-5, "1/K"),
	})
	if err != nil {
		panic(err)
	}
	return m
}
