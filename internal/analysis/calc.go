// Package analysis evaluates a bolted junction against NASA-STD-5020 using
// the NASA-TM-106943 stiffness model: preload bounds and margins of safety
// for ultimate strength, yield, slip and separation.
//
// The engine is a pure, synchronous computation: identical inputs produce
// bit-identical results. Negative margins are valid outputs, never errors.
package analysis

import (
	"math"

	"Clevis/internal/environment"
	"Clevis/internal/junction"
	"Clevis/internal/units"
)

// ConfigurationError reports missing or out-of-range analysis inputs.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// SafetyFactors are the factors of safety applied per failure mode.
type SafetyFactors struct {
	Ultimate   float64 `json:"ultimate"`
	Yield      float64 `json:"yield"`
	Separation float64 `json:"separation"`
}

// Config collects the analysis knobs. Zero values for the numeric fields
// take NASA-STD-5020 defaults in New.
type Config struct {
	UnitSystem          string        `json:"unit_system"`          // "metric" or "imperial"
	FrictionCoefficient float64       `json:"friction_coefficient"` // 0 < mu <= 1
	SafetyFactors       SafetyFactors `json:"safety_factors"`
	FittingFactor       float64       `json:"fitting_factor"`

	// Installation-torque preload model.
	NutFactor          float64 `json:"nut_factor"`          // K, default 0.2
	PreloadUncertainty float64 `json:"preload_uncertainty"` // Gamma, default 0.25
	MaxPreloadFactor   float64 `json:"max_preload_factor"`  // c_max, default 1.0
	MinPreloadFactor   float64 `json:"min_preload_factor"`  // c_min, default 1.0
	FastenerCount      int     `json:"fastener_count"`      // default 1

	// Joint-specific judgments supplied by the analyst.
	ThreadsInShearPlane    bool `json:"threads_in_shear_plane"`
	YieldingDetrimental    bool `json:"yielding_detrimental"`
	SeparationCritical     bool `json:"separation_critical"`
	LoadTransferAcrossGaps bool `json:"load_transfer_across_gaps"`
	PlasticBending         bool `json:"plastic_bending"`
}

// DefaultSafetyFactors are the NASA-STD-5020 baseline factors.
var DefaultSafetyFactors = SafetyFactors{Ultimate: 1.4, Yield: 1.2, Separation: 1.2}

// Analysis binds a junction and environment to a configuration.
type Analysis struct {
	junction *junction.Junction
	env      *environment.Environment
	cfg      Config
	reg      *units.Registry
}

// New validates the configuration and returns an Analysis.
func New(j *junction.Junction, env *environment.Environment, cfg Config) (*Analysis, error) {
	if j == nil {
		return nil, &ConfigurationError{"junction is required"}
	}
	if env == nil {
		return nil, &ConfigurationError{"environment is required"}
	}
	if err := env.Validate(); err != nil {
		return nil, &ConfigurationError{"environment invalid: " + err.Error()}
	}

	if cfg.UnitSystem == "" {
		cfg.UnitSystem = "metric"
	}
	if cfg.UnitSystem != "metric" && cfg.UnitSystem != "imperial" {
		return nil, &ConfigurationError{"unit system must be metric or imperial"}
	}
	if cfg.FrictionCoefficient <= 0 || cfg.FrictionCoefficient > 1 {
		return nil, &ConfigurationError{"friction coefficient must be in (0, 1]"}
	}
	if cfg.SafetyFactors == (SafetyFactors{}) {
		cfg.SafetyFactors = DefaultSafetyFactors
	}
	if cfg.SafetyFactors.Ultimate <= 1 || cfg.SafetyFactors.Yield <= 1 || cfg.SafetyFactors.Separation <= 1 {
		return nil, &ConfigurationError{"safety factors must be greater than 1.0"}
	}
	if cfg.FittingFactor == 0 {
		cfg.FittingFactor = 1.0
	}
	if cfg.FittingFactor < 1 {
		return nil, &ConfigurationError{"fitting factor must be at least 1.0"}
	}
	if cfg.NutFactor == 0 {
		cfg.NutFactor = 0.2
	}
	if cfg.NutFactor < 0 {
		return nil, &ConfigurationError{"nut factor must be positive"}
	}
	if cfg.PreloadUncertainty == 0 {
		cfg.PreloadUncertainty = 0.25
	}
	if cfg.PreloadUncertainty < 0 || cfg.PreloadUncertainty >= 1 {
		return nil, &ConfigurationError{"preload uncertainty must be in [0, 1)"}
	}
	if cfg.MaxPreloadFactor == 0 {
		cfg.MaxPreloadFactor = 1.0
	}
	if cfg.MinPreloadFactor == 0 {
		cfg.MinPreloadFactor = 1.0
	}
	if cfg.FastenerCount == 0 {
		cfg.FastenerCount = 1
	}
	if cfg.FastenerCount < 1 {
		return nil, &ConfigurationError{"fastener count must be at least 1"}
	}

	return &Analysis{
		junction: j,
		env:      env,
		cfg:      cfg,
		reg:      j.Fastener().Length().Registry(),
	}, nil
}

// Config returns the effective configuration after defaulting.
func (a *Analysis) Config() Config { return a.cfg }

// Preloads are the installation preload bounds. MinStrength feeds the
// strength and separation-critical checks; MinSlip carries the sqrt(n)
// uncertainty relief used for slip and non-critical separation.
type Preloads struct {
	Nominal     units.Quantity
	Max         units.Quantity
	MinStrength units.Quantity
	MinSlip     units.Quantity
}

// Preloads computes the nominal, maximum and minimum preloads for
// torque-controlled installation, including thermal deltas from
// differential expansion between the fastener and the clamped stack.
func (a *Analysis) Preloads() (Preloads, error) {
	if _, err := a.junction.Geometry(); err != nil {
		return Preloads{}, &ConfigurationError{err.Error()}
	}

	f := a.junction.Fastener()
	d := f.Thread().MajorDiameter.SI()
	nominal := a.env.PreloadTorque.SI() / (a.cfg.NutFactor * d)

	dHot, dCold := a.thermalDeltas()
	dMax := math.Max(math.Abs(dHot), math.Abs(dCold))
	dMin := math.Min(math.Abs(dHot), math.Abs(dCold))

	gamma := a.cfg.PreloadUncertainty
	max := a.cfg.MaxPreloadFactor*(1+gamma)*nominal + dMax
	minStrength := a.cfg.MinPreloadFactor*(1-gamma)*nominal - dMin
	minSlip := a.cfg.MinPreloadFactor*(1-gamma/math.Sqrt(float64(a.cfg.FastenerCount)))*nominal - dMin

	return Preloads{
		Nominal:     a.reg.FromSI(nominal, units.Force),
		Max:         a.reg.FromSI(max, units.Force),
		MinStrength: a.reg.FromSI(minStrength, units.Force),
		MinSlip:     a.reg.FromSI(minSlip, units.Force),
	}, nil
}

// thermalDeltas returns the preload changes over [nom, max] and [nom, min]
// temperature excursions from differential thermal expansion between the
// fastener and the mean of the clamped parts.
func (a *Analysis) thermalDeltas() (hot, cold float64) {
	f := a.junction.Fastener()
	alphaBolt := f.Material().ThermalExpansion().SI()

	clamped := a.junction.ClampedComponents()
	var alphaJoint float64
	for _, c := range clamped {
		alphaJoint += c.Material().ThermalExpansion().SI()
	}
	alphaJoint /= float64(len(clamped))

	d := f.Thread().MajorDiameter.SI()
	area := math.Pi / 4 * d * d
	eb := f.Material().ElasticModulus().SI()

	deltaAlpha := alphaBolt - alphaJoint
	dtHot := a.env.MaxTemp.SI() - a.env.NomTemp.SI()
	dtCold := a.env.NomTemp.SI() - a.env.MinTemp.SI()

	return deltaAlpha * dtHot * eb * area, deltaAlpha * dtCold * eb * area
}

// Stiffness reports the joint stiffness terms alongside the configuration.
type Stiffness struct {
	Configuration      string
	BoltStiffness      units.Quantity
	JointStiffness     units.Quantity
	EffectiveModulus   units.Quantity
	StiffnessFactor    float64
	LoadingPlaneFactor float64
	GripLength         units.Quantity
}

// JointStiffness returns the derived stiffness snapshot.
func (a *Analysis) JointStiffness() (Stiffness, error) {
	geom, err := a.junction.Geometry()
	if err != nil {
		return Stiffness{}, &ConfigurationError{err.Error()}
	}
	return Stiffness{
		Configuration:      geom.Configuration.String(),
		BoltStiffness:      geom.BoltStiffness,
		JointStiffness:     geom.JointStiffness,
		EffectiveModulus:   geom.EffectiveModulus,
		StiffnessFactor:    geom.StiffnessFactor,
		LoadingPlaneFactor: geom.LoadingPlaneFactor,
		GripLength:         geom.GripLength,
	}, nil
}

// GoverningMode names which failure mechanism controls a tension margin.
type GoverningMode string

const (
	GovernsSeparation GoverningMode = "separation"
	GovernsRupture    GoverningMode = "rupture"
)

// UltimateMargins are the ultimate-strength margins of safety.
type UltimateMargins struct {
	Tension        float64
	TensionGoverns GoverningMode
	Shear          float64
	Combined       float64
}

// UltimateMargins computes the ultimate tension, shear and combined-loading
// margins.
//
// Tension: the joint either separates before the bolt ruptures (external
// load P_sep = P_i_max/(1-n*phi)) or ruptures first
// (P_rup = (P_allow - P_i_max)/(n*phi)). When separation comes first the
// bolt ultimately carries the full external load, so the margin uses the
// allowable directly; otherwise the preload participates through linear
// superposition. A tie is treated as separation-governs.
//
// Shear: the allowable is the shear strength over the full-body area, or
// over the minor-diameter area when threads lie in the shear plane.
// Friction is never credited toward ultimate shear capacity.
func (a *Analysis) UltimateMargins() (UltimateMargins, error) {
	geom, err := a.junction.Geometry()
	if err != nil {
		return UltimateMargins{}, &ConfigurationError{err.Error()}
	}
	pre, err := a.Preloads()
	if err != nil {
		return UltimateMargins{}, err
	}

	f := a.junction.Fastener()
	ftu := f.Material().UltimateStrength().SI()
	at := f.Thread().StressArea().SI()
	pAllow := ftu * at

	ff := a.cfg.FittingFactor
	fs := a.cfg.SafetyFactors.Ultimate
	tension := a.env.Tension.SI()

	tensionMS, governs := tensionMargin(pAllow, pre.Max.SI(), geom.LoadingPlaneFactor, geom.StiffnessFactor, ff, fs, tension)

	shearAllow := a.ultimateShearAllowable()
	shearMS := margin(shearAllow, ff, fs, a.env.Shear.SI())

	combined := a.combinedMargin(pAllow, shearAllow, ff, fs)

	return UltimateMargins{
		Tension:        tensionMS,
		TensionGoverns: governs,
		Shear:          shearMS,
		Combined:       combined,
	}, nil
}

// tensionMargin applies the separation-vs-rupture branch shared by the
// ultimate and yield checks.
func tensionMargin(pAllow, piMax, n, phi, ff, fs, limit float64) (float64, GoverningMode) {
	nphi := n * phi
	pSep := piMax / (1 - nphi)
	pRup := (pAllow - piMax) / nphi

	if pSep <= pRup {
		return margin(pAllow, ff, fs, limit), GovernsSeparation
	}
	return margin(pRup, ff, fs, limit), GovernsRupture
}

// margin is the canonical form MS = allowable/(FF*FS*limit) - 1. A zero
// limit load yields +Inf.
func margin(allowable, ff, fs, limit float64) float64 {
	if limit == 0 {
		return math.Inf(1)
	}
	return allowable/(ff*fs*limit) - 1
}

// ultimateShearAllowable uses 0.577*Ftu (von Mises) over the governing
// shear area.
func (a *Analysis) ultimateShearAllowable() float64 {
	f := a.junction.Fastener()
	fsu := 0.577 * f.Material().UltimateStrength().SI()
	area := f.Thread().NominalArea().SI()
	if a.cfg.ThreadsInShearPlane {
		area = f.Thread().MinorArea().SI()
	}
	return fsu * area
}

// combinedMargin evaluates the tension/shear/bending interaction. The
// tension-plus-bending term carries exponent 1.7 when plastic bending
// capacity is credited, 2 otherwise; the shear term is elliptical. The
// bending term enters only when load transfers across gaps or shims. The
// margin is the load scale factor bringing the interaction to 1.0, minus 1.
func (a *Analysis) combinedMargin(pAllow, shearAllow float64, ff, fs float64) float64 {
	rt := ff * fs * a.env.Tension.SI() / pAllow
	rs := ff * fs * a.env.Shear.SI() / shearAllow

	var rb float64
	if a.cfg.LoadTransferAcrossGaps {
		rb = ff * fs * a.env.Bending.SI() / a.bendingAllowable()
	}

	et := 2.0
	if a.cfg.PlasticBending {
		et = 1.7
	}
	interaction := func(scale float64) float64 {
		return math.Pow(scale*(rt+rb), et) + math.Pow(scale*rs, 2)
	}
	if rt+rb == 0 && rs == 0 {
		return math.Inf(1)
	}

	// The interaction is strictly increasing in the scale factor; solve
	// interaction(scale) = 1 by bisection.
	lo, hi := 0.0, 1.0
	for interaction(hi) < 1 {
		hi *= 2
	}
	for i := 0; i < 80; i++ {
		mid := (lo + hi) / 2
		if interaction(mid) < 1 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo+hi)/2 - 1
}

// bendingAllowable is the bending moment capacity at the threaded section:
// plastic modulus d^3/6 when plastic bending is credited, elastic
// pi*d^3/32 otherwise, on the minor diameter.
func (a *Analysis) bendingAllowable() float64 {
	f := a.junction.Fastener()
	ftu := f.Material().UltimateStrength().SI()
	d := f.Thread().MinorDiameter.SI()
	z := math.Pi * d * d * d / 32
	if a.cfg.PlasticBending {
		z = d * d * d / 6
	}
	return ftu * z
}

// YieldMargins are the yield-strength margins. Applicable is false when the
// analyst has not flagged yielding as detrimental for this joint.
type YieldMargins struct {
	Applicable     bool
	Tension        float64
	TensionGoverns GoverningMode
}

// YieldMargins mirrors the ultimate-tension branch logic with the yield
// allowable. The check runs only when yielding is flagged detrimental; this
// is a joint-specific judgment supplied through the configuration, not
// derived from geometry.
func (a *Analysis) YieldMargins() (YieldMargins, error) {
	if !a.cfg.YieldingDetrimental {
		return YieldMargins{Applicable: false}, nil
	}
	geom, err := a.junction.Geometry()
	if err != nil {
		return YieldMargins{}, &ConfigurationError{err.Error()}
	}
	pre, err := a.Preloads()
	if err != nil {
		return YieldMargins{}, err
	}

	f := a.junction.Fastener()
	pAllow := f.Material().YieldStrength().SI() * f.Thread().StressArea().SI()
	ms, governs := tensionMargin(pAllow, pre.Max.SI(), geom.LoadingPlaneFactor, geom.StiffnessFactor,
		a.cfg.FittingFactor, a.cfg.SafetyFactors.Yield, a.env.Tension.SI())

	return YieldMargins{Applicable: true, Tension: ms, TensionGoverns: governs}, nil
}

// SlipMargin compares the friction capacity at minimum preload against the
// applied shear. Slip is a limit-load check: only the fitting factor
// applies. A negative margin means friction may not be credited as a shear
// path.
func (a *Analysis) SlipMargin() (float64, error) {
	pre, err := a.Preloads()
	if err != nil {
		return 0, err
	}
	capacity := a.cfg.FrictionCoefficient * pre.MinSlip.SI() * float64(a.cfg.FastenerCount)
	return margin(capacity, a.cfg.FittingFactor, 1.0, a.env.Shear.SI()), nil
}

// SeparationMargin compares the minimum preload against the applied tension
// at the separation factor of safety. Separation-critical joints use the
// strength minimum preload; others take the sqrt(n) uncertainty relief.
func (a *Analysis) SeparationMargin() (float64, error) {
	pre, err := a.Preloads()
	if err != nil {
		return 0, err
	}
	pMin := pre.MinSlip.SI()
	if a.cfg.SeparationCritical {
		pMin = pre.MinStrength.SI()
	}
	return margin(pMin, a.cfg.FittingFactor, a.cfg.SafetyFactors.Separation, a.env.Tension.SI()), nil
}
