// Package units provides dimensioned quantities for fastener analysis.
//
// All quantities are stored internally in SI base units (meter, kilogram,
// second, kelvin). A Registry maps unit strings to dimensions and scale
// factors; it is built once at startup and is safe for concurrent reads.
// Differences of affine temperature units (degC, degF) are expressed in
// kelvin.
package units

import (
	"fmt"
	"math"
)

// Dim is a physical dimension as exponents of the SI base dimensions.
type Dim struct {
	Length      int
	Mass        int
	Time        int
	Temperature int
}

// Dimensions used throughout the joint analysis.
var (
	Dimensionless = Dim{}
	Length        = Dim{Length: 1}
	Area          = Dim{Length: 2}
	Force         = Dim{Length: 1, Mass: 1, Time: -2}
	Stress        = Dim{Length: -1, Mass: 1, Time: -2}
	Moment        = Dim{Length: 2, Mass: 1, Time: -2}
	Density       = Dim{Length: -3, Mass: 1}
	Temperature   = Dim{Temperature: 1}
	Expansion     = Dim{Temperature: -1} // coefficient of thermal expansion
	Stiffness     = Dim{Mass: 1, Time: -2}
)

func (d Dim) String() string {
	if d == Dimensionless {
		return "dimensionless"
	}
	return fmt.Sprintf("[L]^%d[M]^%d[T]^%d[Th]^%d", d.Length, d.Mass, d.Time, d.Temperature)
}

// Mul returns the dimension of a product.
func (d Dim) Mul(o Dim) Dim {
	return Dim{d.Length + o.Length, d.Mass + o.Mass, d.Time + o.Time, d.Temperature + o.Temperature}
}

// Div returns the dimension of a quotient.
func (d Dim) Div(o Dim) Dim {
	return Dim{d.Length - o.Length, d.Mass - o.Mass, d.Time - o.Time, d.Temperature - o.Temperature}
}

const (
	// ErrDimensionality marks a UnitError caused by incompatible dimensions.
	ErrDimensionality = "dimensionality"
	// ErrUndefinedUnit marks a UnitError caused by an unknown unit string.
	ErrUndefinedUnit = "undefined unit"
	// ErrArithmetic marks a UnitError caused by invalid quantity arithmetic.
	ErrArithmetic = "arithmetic"
)

// UnitError reports a unit or dimension problem at a quantity boundary.
type UnitError struct {
	Kind string
	Msg  string
}

func (e *UnitError) Error() string { return e.Kind + ": " + e.Msg }

func dimError(format string, args ...any) *UnitError {
	return &UnitError{Kind: ErrDimensionality, Msg: fmt.Sprintf(format, args...)}
}

func undefinedError(unit string) *UnitError {
	return &UnitError{Kind: ErrUndefinedUnit, Msg: fmt.Sprintf("unit %q is not defined", unit)}
}

// unitDef converts between a named unit and SI base units:
// si = value*scale + offset. Offset is nonzero only for affine
// temperature units.
type unitDef struct {
	dim    Dim
	scale  float64
	offset float64
}

// Registry is an immutable catalog of unit definitions. Build one with
// NewRegistry and share it by reference; it must not be mutated afterwards.
type Registry struct {
	defs map[string]unitDef
}

// NewRegistry builds the standard registry covering the length, force,
// stress, density, temperature, moment and expansion units used by
// NASA-STD-5020 joint analysis in both metric and imperial systems.
func NewRegistry() *Registry {
	const (
		inch  = 0.0254
		foot  = 0.3048
		lbf   = 4.4482216152605
		psi   = 6894.757293168
		lbin3 = 27679.904710203125 // lb/in^3 in kg/m^3
		lbft3 = 16.018463373960142
	)
	defs := map[string]unitDef{
		"":  {Dimensionless, 1, 0},
		"1": {Dimensionless, 1, 0},

		"m":    {Length, 1, 0},
		"cm":   {Length, 0.01, 0},
		"mm":   {Length, 0.001, 0},
		"in":   {Length, inch, 0},
		"inch": {Length, inch, 0},
		"ft":   {Length, foot, 0},

		"m^2":  {Area, 1, 0},
		"mm^2": {Area, 1e-6, 0},
		"in^2": {Area, inch * inch, 0},

		"N":   {Force, 1, 0},
		"kN":  {Force, 1e3, 0},
		"lbf": {Force, lbf, 0},
		"kip": {Force, 1e3 * lbf, 0},

		"Pa":  {Stress, 1, 0},
		"kPa": {Stress, 1e3, 0},
		"MPa": {Stress, 1e6, 0},
		"GPa": {Stress, 1e9, 0},
		"psi": {Stress, psi, 0},
		"ksi": {Stress, 1e3 * psi, 0},

		"N*m":    {Moment, 1, 0},
		"kN*m":   {Moment, 1e3, 0},
		"N*mm":   {Moment, 1e-3, 0},
		"ft*lbf": {Moment, foot * lbf, 0},
		"in*lbf": {Moment, inch * lbf, 0},

		"kg/m^3":  {Density, 1, 0},
		"g/cm^3":  {Density, 1e3, 0},
		"lb/in^3": {Density, lbin3, 0},
		"lb/ft^3": {Density, lbft3, 0},

		"K":    {Temperature, 1, 0},
		"degC": {Temperature, 1, 273.15},
		"degF": {Temperature, 5.0 / 9.0, 255.37222222222223},
		"R":    {Temperature, 5.0 / 9.0, 0},

		"1/K":    {Expansion, 1, 0},
		"1/degC": {Expansion, 1, 0},
		"1/degF": {Expansion, 1.8, 0},
		"1/R":    {Expansion, 1.8, 0},

		"N/m":    {Stiffness, 1, 0},
		"N/mm":   {Stiffness, 1e3, 0},
		"lbf/in": {Stiffness, lbf / inch, 0},
	}
	return &Registry{defs: defs}
}

// ConvertValue converts a bare magnitude between two compatible units.
func (r *Registry) ConvertValue(value float64, from, to string) (float64, error) {
	q, err := r.New(value, from)
	if err != nil {
		return 0, err
	}
	return q.Value(to)
}

// Measure is the JSON wire form of a dimensioned value: a magnitude plus a
// unit string, e.g. {"value": 30, "unit": "ft*lbf"}.
type Measure struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Quantity resolves the measure against a registry.
func (m Measure) Quantity(r *Registry) (Quantity, error) {
	return r.New(m.Value, m.Unit)
}

// NewMeasure re-expresses a quantity as a Measure in the named unit.
func NewMeasure(q Quantity, unit string) (Measure, error) {
	v, err := q.Value(unit)
	if err != nil {
		return Measure{}, err
	}
	return Measure{Value: v, Unit: unit}, nil
}

// Quantity is an immutable dimensioned value. Arithmetic yields new
// Quantities; incompatible dimensions fail with a UnitError.
type Quantity struct {
	si  float64
	dim Dim
	reg *Registry
}

// New builds a Quantity from a value expressed in the named unit.
func (r *Registry) New(value float64, unit string) (Quantity, error) {
	def, ok := r.defs[unit]
	if !ok {
		return Quantity{}, undefinedError(unit)
	}
	return Quantity{si: value*def.scale + def.offset, dim: def.dim, reg: r}, nil
}

// MustNew is New for statically known units; it panics on undefined units.
func (r *Registry) MustNew(value float64, unit string) Quantity {
	q, err := r.New(value, unit)
	if err != nil {
		panic(err)
	}
	return q
}

// FromSI wraps an SI base-unit magnitude in a Quantity of the given dimension.
func (r *Registry) FromSI(value float64, dim Dim) Quantity {
	return Quantity{si: value, dim: dim, reg: r}
}

// Convert re-expresses a quantity in the named unit.
func (r *Registry) Convert(q Quantity, unit string) (Quantity, error) {
	def, ok := r.defs[unit]
	if !ok {
		return Quantity{}, undefinedError(unit)
	}
	if def.dim != q.dim {
		return Quantity{}, dimError("cannot convert %s to %q (%s)", q.dim, unit, def.dim)
	}
	return Quantity{si: q.si, dim: q.dim, reg: r}, nil
}

// SI returns the magnitude in SI base units.
func (q Quantity) SI() float64 { return q.si }

// Dim returns the physical dimension.
func (q Quantity) Dim() Dim { return q.dim }

// Registry returns the unit context the quantity was built against.
func (q Quantity) Registry() *Registry { return q.reg }

// IsZero reports whether the quantity is the zero value (no registry).
func (q Quantity) IsZero() bool { return q.reg == nil }

// IsDimensionless reports whether the quantity carries no dimension.
func (q Quantity) IsDimensionless() bool { return q.dim == Dimensionless }

// Value returns the magnitude expressed in the named unit.
func (q Quantity) Value(unit string) (float64, error) {
	if q.reg == nil {
		return 0, dimError("uninitialized quantity")
	}
	def, ok := q.reg.defs[unit]
	if !ok {
		return 0, undefinedError(unit)
	}
	if def.dim != q.dim {
		return 0, dimError("quantity is %s, unit %q is %s", q.dim, unit, def.dim)
	}
	return (q.si - def.offset) / def.scale, nil
}

// MustValue is Value for statically known units; it panics on errors.
func (q Quantity) MustValue(unit string) float64 {
	v, err := q.Value(unit)
	if err != nil {
		panic(err)
	}
	return v
}

// Add returns q + o. The dimensions must match.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	if q.dim != o.dim {
		return Quantity{}, dimError("cannot add %s and %s", q.dim, o.dim)
	}
	return Quantity{si: q.si + o.si, dim: q.dim, reg: q.reg}, nil
}

// Sub returns q - o. The dimensions must match. Differences of affine
// temperatures come back in kelvin.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	if q.dim != o.dim {
		return Quantity{}, dimError("cannot subtract %s from %s", o.dim, q.dim)
	}
	return Quantity{si: q.si - o.si, dim: q.dim, reg: q.reg}, nil
}

// Mul returns the product q*o with combined dimensions.
func (q Quantity) Mul(o Quantity) Quantity {
	return Quantity{si: q.si * o.si, dim: q.dim.Mul(o.dim), reg: q.reg}
}

// Div returns the quotient q/o with combined dimensions.
func (q Quantity) Div(o Quantity) (Quantity, error) {
	if o.si == 0 {
		return Quantity{}, &UnitError{Kind: ErrArithmetic, Msg: "division by zero"}
	}
	return Quantity{si: q.si / o.si, dim: q.dim.Div(o.dim), reg: q.reg}, nil
}

// Scale returns the quantity multiplied by a dimensionless factor.
func (q Quantity) Scale(f float64) Quantity {
	return Quantity{si: q.si * f, dim: q.dim, reg: q.reg}
}

// Compatible reports whether two quantities share a dimension.
func (q Quantity) Compatible(o Quantity) bool { return q.dim == o.dim }

// EqualWithin reports whether two compatible quantities agree within a
// relative tolerance.
func (q Quantity) EqualWithin(o Quantity, tol float64) (bool, error) {
	if q.dim != o.dim {
		return false, dimError("cannot compare %s and %s", q.dim, o.dim)
	}
	if q.si == 0 {
		return math.Abs(o.si) <= tol, nil
	}
	return math.Abs((q.si-o.si)/q.si) <= tol, nil
}

// CheckDim fails with a UnitError unless the quantity has the expected
// dimension. Zero-valued (uninitialized) quantities always fail.
func CheckDim(q Quantity, want Dim, name string) error {
	if q.reg == nil {
		return dimError("%s is not set", name)
	}
	if q.dim != want {
		return dimError("%s must be %s, got %s", name, want, q.dim)
	}
	return nil
}

// standard units per NASA-STD-5020: SI/metric is the default system,
// imperial the alternate.
var standardUnits = map[string]map[Dim]string{
	"metric": {
		Length:      "mm",
		Area:        "mm^2",
		Force:       "N",
		Stress:      "MPa",
		Moment:      "N*m",
		Density:     "kg/m^3",
		Temperature: "degC",
		Expansion:   "1/K",
		Stiffness:   "N/mm",
	},
	"imperial": {
		Length:      "in",
		Area:        "in^2",
		Force:       "lbf",
		Stress:      "psi",
		Moment:      "ft*lbf",
		Density:     "lb/in^3",
		Temperature: "degF",
		Expansion:   "1/degF",
		Stiffness:   "lbf/in",
	},
}

// Standardize converts a quantity to the standard unit of its dimension in
// the given system ("metric" or "imperial"). Dimensionless quantities pass
// through unchanged.
func (r *Registry) Standardize(q Quantity, system string) (Quantity, string, error) {
	if q.IsDimensionless() {
		return q, "", nil
	}
	table, ok := standardUnits[system]
	if !ok {
		return Quantity{}, "", dimError("unknown unit system %q", system)
	}
	unit, ok := table[q.dim]
	if !ok {
		return Quantity{}, "", dimError("no standard unit for dimension %s", q.dim)
	}
	out, err := r.Convert(q, unit)
	return out, unit, err
}
