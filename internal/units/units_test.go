package units

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionRoundTrip(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		value float64
		unit  string
	}{
		{1000, "lbf"},
		{36.5, "ksi"},
		{12.7, "mm"},
		{30, "ft*lbf"},
		{7850, "kg/m^3"},
	}
	for _, c := range cases {
		q, err := reg.New(c.value, c.unit)
		require.NoError(t, err)
		back, err := q.Value(c.unit)
		require.NoError(t, err)
		assert.InDelta(t, c.value, back, 1e-9*c.value, "round trip through %s", c.unit)
	}
}

func TestKnownConversions(t *testing.T) {
	reg := NewRegistry()

	q := reg.MustNew(1, "in")
	assert.InDelta(t, 25.4, q.MustValue("mm"), 1e-12)

	q = reg.MustNew(1, "ksi")
	assert.InDelta(t, 6.894757293168, q.MustValue("MPa"), 1e-9)

	q = reg.MustNew(1, "ft*lbf")
	assert.InDelta(t, 1.3558179483314004, q.MustValue("N*m"), 1e-12)
}

func TestAffineTemperatures(t *testing.T) {
	reg := NewRegistry()

	freeze := reg.MustNew(0, "degC")
	assert.InDelta(t, 273.15, freeze.SI(), 1e-9)
	assert.InDelta(t, 32, freeze.MustValue("degF"), 1e-9)

	boil := reg.MustNew(212, "degF")
	assert.InDelta(t, 100, boil.MustValue("degC"), 1e-9)

	// Differences of affine temperatures come back in kelvin.
	diff, err := boil.Sub(freeze)
	require.NoError(t, err)
	assert.InDelta(t, 100, diff.SI(), 1e-9)
}

func TestUndefinedUnit(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.New(1, "furlong")
	require.Error(t, err)
	var ue *UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ErrUndefinedUnit, ue.Kind)
}

func TestDimensionMismatch(t *testing.T) {
	reg := NewRegistry()

	force := reg.MustNew(10, "N")
	length := reg.MustNew(1, "m")

	_, err := force.Add(length)
	require.Error(t, err)
	var ue *UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ErrDimensionality, ue.Kind)

	_, err = force.Value("m")
	require.Error(t, err)
}

func TestArithmeticDimensions(t *testing.T) {
	reg := NewRegistry()

	force := reg.MustNew(100, "N")
	length := reg.MustNew(2, "m")

	moment := force.Mul(length)
	assert.Equal(t, Moment, moment.Dim())
	assert.InDelta(t, 200, moment.MustValue("N*m"), 1e-9)

	stress, err := force.Div(length.Mul(length))
	require.NoError(t, err)
	assert.Equal(t, Stress, stress.Dim())

	_, err = force.Div(reg.MustNew(0, "m"))
	require.Error(t, err)
}

func TestStandardize(t *testing.T) {
	reg := NewRegistry()

	force := reg.MustNew(1000, "lbf")
	std, unit, err := reg.Standardize(force, "metric")
	require.NoError(t, err)
	assert.Equal(t, "N", unit)
	assert.InDelta(t, 4448.2216152605, std.MustValue("N"), 1e-6)

	_, unit, err = reg.Standardize(force, "imperial")
	require.NoError(t, err)
	assert.Equal(t, "lbf", unit)

	_, _, err = reg.Standardize(force, "nautical")
	require.Error(t, err)
}

func TestMeasureJSON(t *testing.T) {
	reg := NewRegistry()

	var m Measure
	require.NoError(t, json.Unmarshal([]byte(`{"value": 30, "unit": "ft*lbf"}`), &m))
	q, err := m.Quantity(reg)
	require.NoError(t, err)
	assert.Equal(t, Moment, q.Dim())

	out, err := NewMeasure(q, "in*lbf")
	require.NoError(t, err)
	assert.InDelta(t, 360, out.Value, 1e-9)
}

func TestCheckDim(t *testing.T) {
	reg := NewRegistry()

	assert.NoError(t, CheckDim(reg.MustNew(1, "N"), Force, "load"))
	assert.Error(t, CheckDim(reg.MustNew(1, "m"), Force, "load"))
	assert.Error(t, CheckDim(Quantity{}, Force, "load"), "uninitialized quantity must fail")
}
