package analysis

import (
	"encoding/json"
	"math"
	"net/http"

	"Clevis/internal/component"
	"Clevis/internal/environment"
	"Clevis/internal/junction"
	"Clevis/internal/material"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

// MaterialInput selects a preset material by name or supplies a full
// property set.
type MaterialInput struct {
	Preset           string        `json:"preset,omitempty"` // "steel" or "aluminum"
	Name             string        `json:"name,omitempty"`
	YieldStrength    units.Measure `json:"yield_strength,omitempty"`
	UltimateStrength units.Measure `json:"ultimate_strength,omitempty"`
	Density          units.Measure `json:"density,omitempty"`
	PoissonRatio     float64       `json:"poisson_ratio,omitempty"`
	ElasticModulus   units.Measure `json:"elastic_modulus,omitempty"`
	ThermalExpansion units.Measure `json:"thermal_expansion,omitempty"`
}

type FastenerInput struct {
	Thread         string        `json:"thread"`
	Length         units.Measure `json:"length"`
	ThreadedLength units.Measure `json:"threaded_length"`
	HeadDiameter   units.Measure `json:"head_diameter"`
	HeadHeight     units.Measure `json:"head_height"`
	FlatHead       bool          `json:"flat_head"`
	ToolSize       string        `json:"tool_size,omitempty"`
	Material       MaterialInput `json:"material"`
}

type ClampedInput struct {
	Kind          string        `json:"kind"` // "plate" or "washer"
	Thickness     units.Measure `json:"thickness"`
	InnerDiameter units.Measure `json:"inner_diameter,omitempty"`
	OuterDiameter units.Measure `json:"outer_diameter,omitempty"`
	Material      MaterialInput `json:"material"`
}

type MemberInput struct {
	Kind             string        `json:"kind"` // "nut" or "threaded_plate"
	Thread           string        `json:"thread"`
	WidthAcrossFlats units.Measure `json:"width_across_flats,omitempty"`
	Height           units.Measure `json:"height,omitempty"`
	Thickness        units.Measure `json:"thickness,omitempty"`
	ThreadedLength   units.Measure `json:"threaded_length,omitempty"`
	ClearanceHole    units.Measure `json:"clearance_hole,omitempty"`
	Material         MaterialInput `json:"material"`
}

// EnvironmentInput accepts either reduced loads (tension/shear/bending) or
// full 6-DOF forces and moments with a fastener axis. A non-empty axis
// selects the 6-DOF form.
type EnvironmentInput struct {
	Tension units.Measure `json:"tension,omitempty"`
	Shear   units.Measure `json:"shear,omitempty"`
	Bending units.Measure `json:"bending,omitempty"`

	Axis    string           `json:"axis,omitempty"`
	Forces  [3]units.Measure `json:"forces,omitempty"`
	Moments [3]units.Measure `json:"moments,omitempty"`

	MinTemp       units.Measure `json:"min_temp"`
	NomTemp       units.Measure `json:"nom_temp"`
	MaxTemp       units.Measure `json:"max_temp"`
	PreloadTorque units.Measure `json:"preload_torque"`
}

type Input struct {
	Fastener    FastenerInput    `json:"fastener"`
	Clamped     []ClampedInput   `json:"clamped"`
	Member      MemberInput      `json:"member"`
	Environment EnvironmentInput `json:"environment"`
	Config      Config           `json:"config"`
}

// PreloadsResult carries the preload bounds in the standard units of the
// requested system.
type PreloadsResult struct {
	Nominal     units.Measure `json:"nominal"`
	Max         units.Measure `json:"max"`
	MinStrength units.Measure `json:"min_strength"`
	MinSlip     units.Measure `json:"min_slip"`
}

type StiffnessResult struct {
	Configuration      string        `json:"configuration"`
	GripLength         units.Measure `json:"grip_length"`
	BoltStiffness      units.Measure `json:"bolt_stiffness"`
	JointStiffness     units.Measure `json:"joint_stiffness"`
	EffectiveModulus   units.Measure `json:"effective_modulus"`
	StiffnessFactor    float64       `json:"stiffness_factor"`
	LoadingPlaneFactor float64       `json:"loading_plane_factor"`
}

// MarginsResult reports margins of safety. Non-finite margins (no applied
// load) serialize as null. YieldTension is null when yielding was not
// flagged detrimental.
type MarginsResult struct {
	UltimateTension        *float64 `json:"ultimate_tension"`
	UltimateTensionGoverns string   `json:"ultimate_tension_governs"`
	UltimateShear          *float64 `json:"ultimate_shear"`
	Combined               *float64 `json:"combined"`
	YieldTension           *float64 `json:"yield_tension"`
	YieldTensionGoverns    string   `json:"yield_tension_governs,omitempty"`
	Slip                   *float64 `json:"slip"`
	Separation             *float64 `json:"separation"`
}

type Result struct {
	Preloads  PreloadsResult  `json:"preloads"`
	Stiffness StiffnessResult `json:"stiffness"`
	Margins   MarginsResult   `json:"margins"`
	Pass      bool            `json:"pass"`
}

// Calculate assembles the junction from the request, runs the full margin
// set and standardizes outputs to the configured unit system.
func Calculate(resolver *thread.Resolver, reg *units.Registry, in Input) (Result, error) {
	a, err := buildAnalysis(resolver, reg, in)
	if err != nil {
		return Result{}, err
	}

	pre, err := a.Preloads()
	if err != nil {
		return Result{}, err
	}
	stiff, err := a.JointStiffness()
	if err != nil {
		return Result{}, err
	}
	ult, err := a.UltimateMargins()
	if err != nil {
		return Result{}, err
	}
	yld, err := a.YieldMargins()
	if err != nil {
		return Result{}, err
	}
	slip, err := a.SlipMargin()
	if err != nil {
		return Result{}, err
	}
	sep, err := a.SeparationMargin()
	if err != nil {
		return Result{}, err
	}

	sys := a.Config().UnitSystem
	res := Result{
		Preloads: PreloadsResult{
			Nominal:     standardMeasure(reg, pre.Nominal, sys),
			Max:         standardMeasure(reg, pre.Max, sys),
			MinStrength: standardMeasure(reg, pre.MinStrength, sys),
			MinSlip:     standardMeasure(reg, pre.MinSlip, sys),
		},
		Stiffness: StiffnessResult{
			Configuration:      stiff.Configuration,
			GripLength:         standardMeasure(reg, stiff.GripLength, sys),
			BoltStiffness:      standardMeasure(reg, stiff.BoltStiffness, sys),
			JointStiffness:     standardMeasure(reg, stiff.JointStiffness, sys),
			EffectiveModulus:   standardMeasure(reg, stiff.EffectiveModulus, sys),
			StiffnessFactor:    stiff.StiffnessFactor,
			LoadingPlaneFactor: stiff.LoadingPlaneFactor,
		},
		Margins: MarginsResult{
			UltimateTension:        finite(ult.Tension),
			UltimateTensionGoverns: string(ult.TensionGoverns),
			UltimateShear:          finite(ult.Shear),
			Combined:               finite(ult.Combined),
			Slip:                   finite(slip),
			Separation:             finite(sep),
		},
	}
	if yld.Applicable {
		res.Margins.YieldTension = finite(yld.Tension)
		res.Margins.YieldTensionGoverns = string(yld.TensionGoverns)
	}
	res.Pass = allNonNegative(ult.Tension, ult.Shear, ult.Combined, slip, sep) &&
		(!yld.Applicable || yld.Tension >= 0)
	return res, nil
}

// finite maps non-finite margins (no applied load in that mode) to nil so
// they serialize as JSON null instead of breaking the encoder.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func allNonNegative(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || v < 0 {
			return false
		}
	}
	return true
}

func standardMeasure(reg *units.Registry, q units.Quantity, system string) units.Measure {
	std, unit, err := reg.Standardize(q, system)
	if err != nil {
		return units.Measure{Value: q.SI(), Unit: "SI"}
	}
	return units.Measure{Value: std.MustValue(unit), Unit: unit}
}

func buildMaterial(reg *units.Registry, in MaterialInput) (*material.Material, error) {
	switch in.Preset {
	case "steel":
		return material.GenericSteel(reg), nil
	case "aluminum":
		return material.GenericAluminum(reg), nil
	case "":
	default:
		return nil, &ConfigurationError{"unknown material preset " + in.Preset}
	}
	q := func(m units.Measure) units.Quantity {
		v, err := m.Quantity(reg)
		if err != nil {
			return units.Quantity{}
		}
		return v
	}
	return material.New(in.Name, material.Properties{
		YieldStrength:    q(in.YieldStrength),
		UltimateStrength: q(in.UltimateStrength),
		Density:          q(in.Density),
		PoissonRatio:     in.PoissonRatio,
		ElasticModulus:   q(in.ElasticModulus),
		ThermalExpansion: q(in.ThermalExpansion),
	})
}

func buildAnalysis(resolver *thread.Resolver, reg *units.Registry, in Input) (*Analysis, error) {
	q := func(m units.Measure) (units.Quantity, error) { return m.Quantity(reg) }

	fmat, err := buildMaterial(reg, in.Fastener.Material)
	if err != nil {
		return nil, err
	}
	fspec, err := resolver.Parse(in.Fastener.Thread)
	if err != nil {
		return nil, err
	}
	length, err := q(in.Fastener.Length)
	if err != nil {
		return nil, err
	}
	tlen, err := q(in.Fastener.ThreadedLength)
	if err != nil {
		return nil, err
	}
	hd, err := q(in.Fastener.HeadDiameter)
	if err != nil {
		return nil, err
	}
	hh, err := q(in.Fastener.HeadHeight)
	if err != nil {
		return nil, err
	}
	fastener, err := component.NewFastener(fspec, length, tlen, hd, hh,
		in.Fastener.FlatHead, in.Fastener.ToolSize, fmat)
	if err != nil {
		return nil, err
	}

	clamped := make([]component.Clamped, 0, len(in.Clamped))
	for _, c := range in.Clamped {
		mat, err := buildMaterial(reg, c.Material)
		if err != nil {
			return nil, err
		}
		t, err := q(c.Thickness)
		if err != nil {
			return nil, err
		}
		switch c.Kind {
		case "plate", "":
			p, err := component.NewPlate(t, mat)
			if err != nil {
				return nil, err
			}
			clamped = append(clamped, p)
		case "washer":
			inner, err := q(c.InnerDiameter)
			if err != nil {
				return nil, err
			}
			outer, err := q(c.OuterDiameter)
			if err != nil {
				return nil, err
			}
			w, err := component.NewWasher(inner, outer, t, mat)
			if err != nil {
				return nil, err
			}
			clamped = append(clamped, w)
		default:
			return nil, &ConfigurationError{"unknown clamped component kind " + c.Kind}
		}
	}

	mmat, err := buildMaterial(reg, in.Member.Material)
	if err != nil {
		return nil, err
	}
	mspec, err := resolver.Parse(in.Member.Thread)
	if err != nil {
		return nil, err
	}
	var member component.Threaded
	switch in.Member.Kind {
	case "nut", "":
		waf, err := q(in.Member.WidthAcrossFlats)
		if err != nil {
			return nil, err
		}
		height, err := q(in.Member.Height)
		if err != nil {
			return nil, err
		}
		member, err = component.NewNut(mspec, waf, height, mmat)
		if err != nil {
			return nil, err
		}
	case "threaded_plate":
		t, err := q(in.Member.Thickness)
		if err != nil {
			return nil, err
		}
		tl, err := q(in.Member.ThreadedLength)
		if err != nil {
			return nil, err
		}
		hole, err := q(in.Member.ClearanceHole)
		if err != nil {
			return nil, err
		}
		member, err = component.NewThreadedPlate(t, mspec, tl, hole, mmat)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &ConfigurationError{"unknown member kind " + in.Member.Kind}
	}

	j, err := junction.New(fastener, clamped, member)
	if err != nil {
		return nil, err
	}

	env, err := buildEnvironment(reg, in.Environment)
	if err != nil {
		return nil, err
	}
	return New(j, env, in.Config)
}

func buildEnvironment(reg *units.Registry, in EnvironmentInput) (*environment.Environment, error) {
	minT, err := in.MinTemp.Quantity(reg)
	if err != nil {
		return nil, err
	}
	nomT, err := in.NomTemp.Quantity(reg)
	if err != nil {
		return nil, err
	}
	maxT, err := in.MaxTemp.Quantity(reg)
	if err != nil {
		return nil, err
	}
	torque, err := in.PreloadTorque.Quantity(reg)
	if err != nil {
		return nil, err
	}

	if in.Axis != "" {
		var forces, moments [3]units.Quantity
		for i := 0; i < 3; i++ {
			if forces[i], err = in.Forces[i].Quantity(reg); err != nil {
				return nil, err
			}
			if moments[i], err = in.Moments[i].Quantity(reg); err != nil {
				return nil, err
			}
		}
		return environment.FromSixDOF(forces, moments, environment.Axis(in.Axis),
			minT, nomT, maxT, torque)
	}

	tension, err := in.Tension.Quantity(reg)
	if err != nil {
		return nil, err
	}
	shear, err := in.Shear.Quantity(reg)
	if err != nil {
		return nil, err
	}
	bending, err := in.Bending.Quantity(reg)
	if err != nil {
		return nil, err
	}
	return environment.New(tension, shear, bending, minT, nomT, maxT, torque)
}

// Handler serves the joint analysis endpoint.
type Handler struct {
	Resolver *thread.Resolver
	Registry *units.Registry
}

type BatchInput struct {
	Items []Input `json:"items"`
}

type BatchResult struct {
	Results []Result `json:"results"`
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := Calculate(h.Resolver, h.Registry, input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Preloads returns only the installation preload bounds for a joint.
func (h *Handler) Preloads(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	a, err := buildAnalysis(h.Resolver, h.Registry, input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pre, err := a.Preloads()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sys := a.Config().UnitSystem
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PreloadsResult{
		Nominal:     standardMeasure(h.Registry, pre.Nominal, sys),
		Max:         standardMeasure(h.Registry, pre.Max, sys),
		MinStrength: standardMeasure(h.Registry, pre.MinStrength, sys),
		MinSlip:     standardMeasure(h.Registry, pre.MinSlip, sys),
	})
}

// Stiffness returns only the derived joint stiffness terms.
func (h *Handler) Stiffness(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	a, err := buildAnalysis(h.Resolver, h.Registry, input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stiff, err := a.JointStiffness()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sys := a.Config().UnitSystem
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StiffnessResult{
		Configuration:      stiff.Configuration,
		GripLength:         standardMeasure(h.Registry, stiff.GripLength, sys),
		BoltStiffness:      standardMeasure(h.Registry, stiff.BoltStiffness, sys),
		JointStiffness:     standardMeasure(h.Registry, stiff.JointStiffness, sys),
		EffectiveModulus:   standardMeasure(h.Registry, stiff.EffectiveModulus, sys),
		StiffnessFactor:    stiff.StiffnessFactor,
		LoadingPlaneFactor: stiff.LoadingPlaneFactor,
	})
}

// Batch runs several complete analyses in one request. The whole batch
// fails on the first invalid item.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	var input BatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if len(input.Items) == 0 {
		http.Error(w, "No items", http.StatusBadRequest)
		return
	}
	out := BatchResult{Results: make([]Result, 0, len(input.Items))}
	for _, item := range input.Items {
		res, err := Calculate(h.Resolver, h.Registry, item)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		out.Results = append(out.Results, res)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
