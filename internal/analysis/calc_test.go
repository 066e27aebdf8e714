package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Clevis/internal/component"
	"Clevis/internal/environment"
	"Clevis/internal/junction"
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

// throughBolt builds the reference joint: 1/2-13 UNC steel bolt through two
// 0.5 in plates into a steel nut.
func (f *fixture) throughBolt(t *testing.T, plateMat *material.Material) *junction.Junction {
	t.Helper()
	spec, err := f.resolver.Parse("1/2-13 UNC")
	require.NoError(t, err)
	fastener, err := component.NewFastener(spec,
		f.reg.MustNew(1.5, "in"), f.reg.MustNew(1.0, "in"),
		f.reg.MustNew(0.75, "in"), f.reg.MustNew(0.3125, "in"),
		false, "", f.steel)
	require.NoError(t, err)
	nut, err := component.NewNut(spec, f.reg.MustNew(0.75, "in"), f.reg.MustNew(0.4375, "in"), f.steel)
	require.NoError(t, err)
	p1, err := component.NewPlate(f.reg.MustNew(0.5, "in"), plateMat)
	require.NoError(t, err)
	p2, err := component.NewPlate(f.reg.MustNew(0.5, "in"), plateMat)
	require.NoError(t, err)
	j, err := junction.New(fastener, []component.Clamped{p1, p2}, nut)
	require.NoError(t, err)
	return j
}

// roomTemp builds the reference environment: 1000 lbf tension, 500 lbf
// shear, 30 ft*lbf installation torque, no thermal excursion.
func (f *fixture) roomTemp(t *testing.T) *environment.Environment {
	t.Helper()
	temp := f.reg.MustNew(70, "degF")
	env, err := environment.New(
		f.reg.MustNew(1000, "lbf"), f.reg.MustNew(500, "lbf"), f.reg.MustNew(0, "ft*lbf"),
		temp, temp, temp, f.reg.MustNew(30, "ft*lbf"))
	require.NoError(t, err)
	return env
}

func baseConfig() Config {
	return Config{
		UnitSystem:          "imperial",
		FrictionCoefficient: 0.15,
	}
}

func TestConfigDefaults(t *testing.T) {
	f := newFixture()
	a, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), baseConfig())
	require.NoError(t, err)

	cfg := a.Config()
	assert.Equal(t, DefaultSafetyFactors, cfg.SafetyFactors)
	assert.Equal(t, 1.0, cfg.FittingFactor)
	assert.Equal(t, 0.2, cfg.NutFactor)
	assert.Equal(t, 0.25, cfg.PreloadUncertainty)
	assert.Equal(t, 1, cfg.FastenerCount)
}

func TestConfigValidation(t *testing.T) {
	f := newFixture()
	j := f.throughBolt(t, f.steel)
	env := f.roomTemp(t)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero friction", func(c *Config) { c.FrictionCoefficient = 0 }},
		{"friction above one", func(c *Config) { c.FrictionCoefficient = 1.5 }},
		{"ultimate SF at one", func(c *Config) { c.SafetyFactors = SafetyFactors{1.0, 1.2, 1.2} }},
		{"separation SF below one", func(c *Config) { c.SafetyFactors = SafetyFactors{1.4, 1.2, 0.9} }},
		{"fitting factor below one", func(c *Config) { c.FittingFactor = 0.8 }},
		{"negative nut factor", func(c *Config) { c.NutFactor = -0.2 }},
		{"uncertainty at one", func(c *Config) { c.PreloadUncertainty = 1.0 }},
		{"negative fastener count", func(c *Config) { c.FastenerCount = -2 }},
		{"bad unit system", func(c *Config) { c.UnitSystem = "astronomical" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := baseConfig()
			c.mutate(&cfg)
			_, err := New(j, env, cfg)
			require.Error(t, err)
			var ce *ConfigurationError
			assert.ErrorAs(t, err, &ce)
		})
	}

	_, err := New(nil, env, baseConfig())
	assert.Error(t, err)
	_, err = New(j, nil, baseConfig())
	assert.Error(t, err)
}

func TestPreloads(t *testing.T) {
	f := newFixture()
	a, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), baseConfig())
	require.NoError(t, err)

	pre, err := a.Preloads()
	require.NoError(t, err)

	// P = T/(K*D) = 30 ft*lbf / (0.2 * 0.5 in) = 3600 lbf, no thermal term.
	assert.InDelta(t, 3600, pre.Nominal.MustValue("lbf"), 0.01)
	assert.InDelta(t, 4500, pre.Max.MustValue("lbf"), 0.01)
	assert.InDelta(t, 2700, pre.MinStrength.MustValue("lbf"), 0.01)
	assert.InDelta(t, 2700, pre.MinSlip.MustValue("lbf"), 0.01)
}

func TestPreloadOrdering(t *testing.T) {
	f := newFixture()
	for _, mat := range []*material.Material{f.steel, f.alu} {
		a, err := New(f.throughBolt(t, mat), f.roomTemp(t), baseConfig())
		require.NoError(t, err)
		pre, err := a.Preloads()
		require.NoError(t, err)

		assert.LessOrEqual(t, pre.MinStrength.SI(), pre.Nominal.SI())
		assert.LessOrEqual(t, pre.MinStrength.SI(), pre.MinSlip.SI())
		assert.LessOrEqual(t, pre.Nominal.SI(), pre.Max.SI())
	}
}

func TestThermalExcursionWidensPreloadBand(t *testing.T) {
	f := newFixture()
	temp := func(v float64) units.Quantity { return f.reg.MustNew(v, "degF") }
	hot, err := environment.New(
		f.reg.MustNew(1000, "lbf"), f.reg.MustNew(500, "lbf"), f.reg.MustNew(0, "ft*lbf"),
		temp(70), temp(70), temp(250), f.reg.MustNew(30, "ft*lbf"))
	require.NoError(t, err)

	// Steel bolt through aluminum plates: CTE mismatch drives a thermal
	// preload change over the hot excursion.
	uniform, err := New(f.throughBolt(t, f.alu), f.roomTemp(t), baseConfig())
	require.NoError(t, err)
	excursion, err := New(f.throughBolt(t, f.alu), hot, baseConfig())
	require.NoError(t, err)

	preU, err := uniform.Preloads()
	require.NoError(t, err)
	preH, err := excursion.Preloads()
	require.NoError(t, err)

	assert.Greater(t, preH.Max.SI(), preU.Max.SI())
	assert.InDelta(t, preU.MinStrength.SI(), preH.MinStrength.SI(), 1e-6,
		"no cold excursion, so the minimum is unchanged")
}

func TestUltimateMargins(t *testing.T) {
	f := newFixture()
	a, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), baseConfig())
	require.NoError(t, err)

	ult, err := a.UltimateMargins()
	require.NoError(t, err)

	// Separation precedes rupture at this preload, so the bolt sees the
	// full external load: MS = Ftu*At/(1.4*1000 lbf) - 1.
	assert.Equal(t, GovernsSeparation, ult.TensionGoverns)
	assert.InDelta(t, 4.88, ult.Tension, 0.02)

	// Shear over the full body area: 0.577*Ftu*(pi/4)D^2/(1.4*500) - 1.
	assert.InDelta(t, 8.39, ult.Shear, 0.02)

	// No bending transfer: pure tension/shear ellipse.
	assert.InDelta(t, 3.98, ult.Combined, 0.02)
}

func TestThreadsInShearPlaneReduceCapacity(t *testing.T) {
	f := newFixture()
	cfg := baseConfig()
	full, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), cfg)
	require.NoError(t, err)

	cfg.ThreadsInShearPlane = true
	minor, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), cfg)
	require.NoError(t, err)

	ultFull, err := full.UltimateMargins()
	require.NoError(t, err)
	ultMinor, err := minor.UltimateMargins()
	require.NoError(t, err)

	assert.Less(t, ultMinor.Shear, ultFull.Shear)
}

func TestTensionMarginBranch(t *testing.T) {
	// At the boundary P_sep == P_rup the tie goes to separation:
	// piMax = 1, n*phi = 0.5 gives P_sep = 2 and, with pAllow = 2, P_rup = 2.
	ms, governs := tensionMargin(2, 1, 1, 0.5, 1, 1, 1)
	assert.Equal(t, GovernsSeparation, governs)
	assert.InDelta(t, 1.0, ms, 1e-12, "MS = pAllow/limit - 1")

	// High preload relative to the allowable: rupture comes first and the
	// superposition form governs.
	ms, governs = tensionMargin(2, 1.5, 1, 0.5, 1, 1, 1)
	assert.Equal(t, GovernsRupture, governs)
	assert.InDelta(t, 0.0, ms, 1e-12, "P_rup = (2-1.5)/0.5 = 1")
}

func TestYieldMargins(t *testing.T) {
	f := newFixture()

	a, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), baseConfig())
	require.NoError(t, err)
	yld, err := a.YieldMargins()
	require.NoError(t, err)
	assert.False(t, yld.Applicable, "yield check is opt-in")

	cfg := baseConfig()
	cfg.YieldingDetrimental = true
	a, err = New(f.throughBolt(t, f.steel), f.roomTemp(t), cfg)
	require.NoError(t, err)
	yld, err = a.YieldMargins()
	require.NoError(t, err)
	require.True(t, yld.Applicable)
	assert.Equal(t, GovernsSeparation, yld.TensionGoverns)
	// MS = Fty*At/(1.2*1000 lbf) - 1.
	assert.InDelta(t, 3.29, yld.Tension, 0.02)
}

func TestSlipMargin(t *testing.T) {
	f := newFixture()
	a, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), baseConfig())
	require.NoError(t, err)

	ms, err := a.SlipMargin()
	require.NoError(t, err)
	// 0.15 * 2700 / 500 - 1: negative margins are answers, not errors.
	assert.InDelta(t, -0.19, ms, 0.001)
}

func TestSeparationMargin(t *testing.T) {
	f := newFixture()
	a, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), baseConfig())
	require.NoError(t, err)

	ms, err := a.SeparationMargin()
	require.NoError(t, err)
	// 2700 / (1.2 * 1000) - 1.
	assert.InDelta(t, 1.25, ms, 0.001)
}

func TestSeparationCriticalDropsUncertaintyRelief(t *testing.T) {
	f := newFixture()
	cfg := baseConfig()
	cfg.FastenerCount = 4

	relaxed, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), cfg)
	require.NoError(t, err)

	cfg.SeparationCritical = true
	critical, err := New(f.throughBolt(t, f.steel), f.roomTemp(t), cfg)
	require.NoError(t, err)

	msRelaxed, err := relaxed.SeparationMargin()
	require.NoError(t, err)
	msCritical, err := critical.SeparationMargin()
	require.NoError(t, err)

	// With several fasteners the sqrt(n) relief raises the minimum preload;
	// a separation-critical joint must not take that credit.
	assert.Less(t, msCritical, msRelaxed)
}

func TestZeroLoadMarginsAreInfinite(t *testing.T) {
	f := newFixture()
	temp := f.reg.MustNew(70, "degF")
	env, err := environment.New(
		f.reg.MustNew(0, "lbf"), f.reg.MustNew(0, "lbf"), f.reg.MustNew(0, "ft*lbf"),
		temp, temp, temp, f.reg.MustNew(30, "ft*lbf"))
	require.NoError(t, err)

	a, err := New(f.throughBolt(t, f.steel), env, baseConfig())
	require.NoError(t, err)

	ms, err := a.SlipMargin()
	require.NoError(t, err)
	assert.True(t, math.IsInf(ms, 1))

	ult, err := a.UltimateMargins()
	require.NoError(t, err)
	assert.True(t, math.IsInf(ult.Tension, 1))
	assert.True(t, math.IsInf(ult.Combined, 1))
}

func TestBendingTermOnlyWithGapTransfer(t *testing.T) {
	f := newFixture()
	temp := f.reg.MustNew(70, "degF")
	env, err := environment.New(
		f.reg.MustNew(1000, "lbf"), f.reg.MustNew(500, "lbf"), f.reg.MustNew(20, "ft*lbf"),
		temp, temp, temp, f.reg.MustNew(30, "ft*lbf"))
	require.NoError(t, err)

	noGaps, err := New(f.throughBolt(t, f.steel), env, baseConfig())
	require.NoError(t, err)

	cfg := baseConfig()
	cfg.LoadTransferAcrossGaps = true
	gaps, err := New(f.throughBolt(t, f.steel), env, cfg)
	require.NoError(t, err)

	ultNoGaps, err := noGaps.UltimateMargins()
	require.NoError(t, err)
	ultGaps, err := gaps.UltimateMargins()
	require.NoError(t, err)

	assert.Less(t, ultGaps.Combined, ultNoGaps.Combined,
		"crediting bending across gaps consumes interaction capacity")

	// Plastic bending raises the exponent credit and the margin with it.
	cfg.PlasticBending = true
	plastic, err := New(f.throughBolt(t, f.steel), env, cfg)
	require.NoError(t, err)
	ultPlastic, err := plastic.UltimateMargins()
	require.NoError(t, err)
	assert.Greater(t, ultPlastic.Combined, ultGaps.Combined)
}
