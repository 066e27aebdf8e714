package junction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Clevis/internal/component"
	"Clevis/internal/material"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

type fixture struct {
	reg      *units.Registry
	resolver *thread.Resolver
	steel    *material.Material
	alu      *material.Material
}

func newFixture() *fixture {
	reg := units.NewRegistry()
	return &fixture{
		reg:      reg,
		resolver: thread.NewResolver(reg),
		steel:    material.GenericSteel(reg),
		alu:      material.GenericAluminum(reg),
	}
}

func (f *fixture) spec(t *testing.T, designation string) *thread.Spec {
	t.Helper()
	s, err := f.resolver.Parse(designation)
	require.NoError(t, err)
	return s
}

func (f *fixture) fastener(t *testing.T, flatHead bool) *component.Fastener {
	t.Helper()
	fs, err := component.NewFastener(f.spec(t, "1/2-13 UNC"),
		f.reg.MustNew(1.5, "in"), f.reg.MustNew(1.0, "in"),
		f.reg.MustNew(0.75, "in"), f.reg.MustNew(0.3125, "in"),
		flatHead, "", f.steel)
	require.NoError(t, err)
	return fs
}

func (f *fixture) plate(t *testing.T, thicknessIn float64, mat *material.Material) *component.Plate {
	t.Helper()
	p, err := component.NewPlate(f.reg.MustNew(thicknessIn, "in"), mat)
	require.NoError(t, err)
	return p
}

func (f *fixture) nut(t *testing.T) *component.Nut {
	t.Helper()
	n, err := component.NewNut(f.spec(t, "1/2-13 UNC"),
		f.reg.MustNew(0.75, "in"), f.reg.MustNew(0.4375, "in"), f.steel)
	require.NoError(t, err)
	return n
}

func (f *fixture) tappedPlate(t *testing.T) *component.ThreadedPlate {
	t.Helper()
	p, err := component.NewThreadedPlate(f.reg.MustNew(1.0, "in"), f.spec(t, "1/2-13 UNC"),
		f.reg.MustNew(0.75, "in"), f.reg.MustNew(0.53, "in"), f.alu)
	require.NoError(t, err)
	return p
}

func TestClassification(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name     string
		flatHead bool
		tapped   bool
		want     Configuration
	}{
		{"through-bolt", false, false, ConfigThroughBolt},
		{"through-bolt flat head", true, false, ConfigThroughBoltFlatHead},
		{"tapped", false, true, ConfigTapped},
		{"tapped flat head", true, true, ConfigTappedFlatHead},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var member component.Threaded = f.nut(t)
			clamped := []component.Clamped{f.plate(t, 0.5, f.steel), f.plate(t, 0.5, f.steel)}
			if c.tapped {
				member = f.tappedPlate(t)
				clamped = clamped[:1]
			}
			j, err := New(f.fastener(t, c.flatHead), clamped, member)
			require.NoError(t, err)
			geom, err := j.Geometry()
			require.NoError(t, err)
			assert.Equal(t, c.want, geom.Configuration)
		})
	}
}

func TestThroughBoltGeometry(t *testing.T) {
	f := newFixture()
	j, err := New(f.fastener(t, false),
		[]component.Clamped{f.plate(t, 0.5, f.steel), f.plate(t, 0.5, f.steel)}, f.nut(t))
	require.NoError(t, err)

	geom, err := j.Geometry()
	require.NoError(t, err)

	assert.InDelta(t, 1.0, geom.GripLength.MustValue("in"), 1e-9)
	assert.InDelta(t, 1.4375, geom.StackUpThickness.MustValue("in"), 1e-9, "grip plus nut height")
	assert.InDelta(t, 0.5, geom.LoadingPlaneFactor, 1e-9, "two equal plates load at their midplanes")

	assert.Greater(t, geom.BoltStiffness.SI(), 0.0)
	assert.Greater(t, geom.JointStiffness.SI(), 0.0)
	assert.Greater(t, geom.StiffnessFactor, 0.0)
	assert.Less(t, geom.StiffnessFactor, 1.0)

	// All steel: the effective modulus is the steel modulus.
	assert.InDelta(t, f.steel.ElasticModulus().SI(), geom.EffectiveModulus.SI(), 1)
}

func TestTappedGeometry(t *testing.T) {
	f := newFixture()
	j, err := New(f.fastener(t, false),
		[]component.Clamped{f.plate(t, 0.5, f.steel)}, f.tappedPlate(t))
	require.NoError(t, err)

	geom, err := j.Geometry()
	require.NoError(t, err)
	assert.Equal(t, ConfigTapped, geom.Configuration)

	// Grip runs to the midpoint of the thread engagement:
	// 0.5 + (1.0 - 0.75/2) = 1.125 in.
	assert.InDelta(t, 1.125, geom.GripLength.MustValue("in"), 1e-9)
	assert.InDelta(t, 1.5, geom.StackUpThickness.MustValue("in"), 1e-9)

	// Steel plate plus aluminum tapped remainder: effective modulus lands
	// between the two.
	assert.Greater(t, geom.EffectiveModulus.SI(), f.alu.ElasticModulus().SI())
	assert.Less(t, geom.EffectiveModulus.SI(), f.steel.ElasticModulus().SI())
}

func TestFlatHeadShortensGrip(t *testing.T) {
	f := newFixture()
	clamped := func() []component.Clamped {
		return []component.Clamped{f.plate(t, 0.5, f.steel), f.plate(t, 0.5, f.steel)}
	}

	protruding, err := New(f.fastener(t, false), clamped(), f.nut(t))
	require.NoError(t, err)
	flat, err := New(f.fastener(t, true), clamped(), f.nut(t))
	require.NoError(t, err)

	gp, err := protruding.GripLength()
	require.NoError(t, err)
	gf, err := flat.GripLength()
	require.NoError(t, err)

	// Flat head: grip shrinks by half the head height.
	assert.InDelta(t, gp.MustValue("in")-0.3125/2, gf.MustValue("in"), 1e-9)
}

func TestValidationFailures(t *testing.T) {
	f := newFixture()

	t.Run("incompatible threads", func(t *testing.T) {
		metricNut, err := component.NewNut(f.spec(t, "M12x1.75"),
			f.reg.MustNew(19, "mm"), f.reg.MustNew(10, "mm"), f.steel)
		require.NoError(t, err)
		_, err = New(f.fastener(t, false),
			[]component.Clamped{f.plate(t, 0.5, f.steel)}, metricNut)
		assert.Error(t, err)
	})

	t.Run("duplicate clamped component", func(t *testing.T) {
		p := f.plate(t, 0.25, f.steel)
		_, err := New(f.fastener(t, false), []component.Clamped{p, p}, f.nut(t))
		assert.Error(t, err)
	})

	t.Run("fastener too short", func(t *testing.T) {
		_, err := New(f.fastener(t, false),
			[]component.Clamped{f.plate(t, 1.5, f.steel)}, f.nut(t))
		assert.Error(t, err)
	})

	t.Run("empty stack", func(t *testing.T) {
		_, err := New(f.fastener(t, false), nil, f.nut(t))
		assert.Error(t, err)
	})
}

func TestMutatorsRecomputeGeometry(t *testing.T) {
	f := newFixture()
	j, err := New(f.fastener(t, false),
		[]component.Clamped{f.plate(t, 0.5, f.steel)}, f.nut(t))
	require.NoError(t, err)

	require.NoError(t, j.AddClamped(f.plate(t, 0.5, f.steel)))
	grip, err := j.GripLength()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, grip.MustValue("in"), 1e-9)

	// Adding past the fastener length fails and leaves geometry intact.
	err = j.AddClamped(f.plate(t, 1.0, f.steel))
	require.Error(t, err)
	assert.Equal(t, 2, j.ClampedCount())
	grip, err = j.GripLength()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, grip.MustValue("in"), 1e-9)
}

func TestRemoveLastClamped(t *testing.T) {
	f := newFixture()
	p := f.plate(t, 0.5, f.steel)
	j, err := New(f.fastener(t, false), []component.Clamped{p}, f.nut(t))
	require.NoError(t, err)

	removed, err := j.RemoveClamped(0)
	require.NoError(t, err)
	assert.Equal(t, p, removed)
	assert.Zero(t, j.ClampedCount())

	// Empty stack is a defined state: geometry is queryable-but-failing.
	_, err = j.Geometry()
	require.Error(t, err)
	var ce *ConfigurationError
	assert.ErrorAs(t, err, &ce)

	// Adding a component back restores a working junction.
	require.NoError(t, j.AddClamped(f.plate(t, 0.5, f.steel)))
	_, err = j.Geometry()
	assert.NoError(t, err)

	_, err = j.RemoveClamped(5)
	assert.Error(t, err, "out of range index")
}

func TestSetFastenerRollsBackOnFailure(t *testing.T) {
	f := newFixture()
	original := f.fastener(t, false)
	j, err := New(original, []component.Clamped{f.plate(t, 0.5, f.steel)}, f.nut(t))
	require.NoError(t, err)

	short, err := component.NewFastener(f.spec(t, "1/2-13 UNC"),
		f.reg.MustNew(0.5, "in"), f.reg.MustNew(0.4, "in"),
		f.reg.MustNew(0.75, "in"), f.reg.MustNew(0.3125, "in"),
		false, "", f.steel)
	require.NoError(t, err)

	require.Error(t, j.SetFastener(short))
	assert.Same(t, original, j.Fastener())
}

func TestRecomputeIsDeterministic(t *testing.T) {
	f := newFixture()
	build := func() Geometry {
		j, err := New(f.fastener(t, false),
			[]component.Clamped{f.plate(t, 0.5, f.steel), f.plate(t, 0.5, f.alu)}, f.nut(t))
		require.NoError(t, err)
		geom, err := j.Geometry()
		require.NoError(t, err)
		return geom
	}
	a, b := build(), build()
	assert.Equal(t, a.StiffnessFactor, b.StiffnessFactor)
	assert.Equal(t, a.BoltStiffness.SI(), b.BoltStiffness.SI())
	assert.Equal(t, a.JointStiffness.SI(), b.JointStiffness.SI())
}
