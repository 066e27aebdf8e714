// Package junction assembles one fastener, a clamped stack and a threaded
// member, and derives the joint geometry and stiffness terms of
// NASA-TM-106943.
package junction

import (
	"fmt"
	"math"

	"Clevis/internal/component"
	"Clevis/internal/units"
)

// ValidationError reports an invalid assembly.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigurationError reports a junction state that cannot be analyzed, such
// as an empty clamped stack.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// Configuration is the NASA-TM-106943 joint configuration, selected by
// threaded-member kind and fastener head shape.
type Configuration int

const (
	// ConfigThroughBolt is a through-bolt with nut and protruding head (1).
	ConfigThroughBolt Configuration = iota + 1
	// ConfigThroughBoltFlatHead is a through-bolt with nut and flat
	// (countersunk) head (2).
	ConfigThroughBoltFlatHead
	// ConfigTapped threads into a tapped plate, protruding head (3).
	ConfigTapped
	// ConfigTappedFlatHead threads into a tapped plate, flat head (4).
	ConfigTappedFlatHead
)

func (c Configuration) String() string {
	switch c {
	case ConfigThroughBolt:
		return "through-bolt"
	case ConfigThroughBoltFlatHead:
		return "through-bolt flat-head"
	case ConfigTapped:
		return "tapped"
	case ConfigTappedFlatHead:
		return "tapped flat-head"
	}
	return fmt.Sprintf("configuration(%d)", int(c))
}

func (c Configuration) flatHead() bool {
	return c == ConfigThroughBoltFlatHead || c == ConfigTappedFlatHead
}

func (c Configuration) tapped() bool {
	return c == ConfigTapped || c == ConfigTappedFlatHead
}

// Geometry is an immutable snapshot of the derived joint attributes.
// Callers analyzing the same junction concurrently should take a snapshot
// and work from it.
type Geometry struct {
	Configuration      Configuration
	GripLength         units.Quantity
	StackUpThickness   units.Quantity
	LoadingPlaneFactor float64
	BoltStiffness      units.Quantity
	JointStiffness     units.Quantity
	EffectiveModulus   units.Quantity
	StiffnessFactor    float64 // phi = Kb/(Kb+Kj)
}

// Junction is a mutable assembly of one fastener, one or more clamped
// components and one threaded member (nut or threaded plate). Mutating the
// assembly re-derives all geometry; stale values are never observable.
// Mutation is not safe for concurrent callers against the same instance.
type Junction struct {
	fastener *component.Fastener
	clamped  []component.Clamped
	member   component.Threaded

	geom  Geometry
	valid bool
}

// New validates the assembly and derives its geometry.
func New(fastener *component.Fastener, clamped []component.Clamped, member component.Threaded) (*Junction, error) {
	j := &Junction{
		fastener: fastener,
		clamped:  append([]component.Clamped(nil), clamped...),
		member:   member,
	}
	if err := j.validate(); err != nil {
		return nil, err
	}
	j.recompute()
	return j, nil
}

func (j *Junction) validate() error {
	if j.fastener == nil {
		return &ValidationError{"assembly requires a fastener"}
	}
	if j.member == nil {
		return &ValidationError{"assembly requires a threaded member"}
	}
	if len(j.clamped) == 0 {
		return &ValidationError{"assembly requires at least one clamped component"}
	}
	ft := j.fastener.Thread()
	mt := j.member.Thread()
	if ft.MajorDiameter.SI() != mt.MajorDiameter.SI() || ft.Pitch.SI() != mt.Pitch.SI() {
		return &ValidationError{fmt.Sprintf("fastener thread %q is not compatible with member thread %q",
			ft.Designation, mt.Designation)}
	}
	seen := make(map[component.Clamped]bool, len(j.clamped))
	for _, c := range j.clamped {
		if seen[c] {
			return &ValidationError{"duplicate clamped component in assembly"}
		}
		seen[c] = true
	}
	// The fastener must span the clamped stack and fully develop the
	// member's thread engagement.
	required := j.clampedThickness() + j.member.ThreadedLength().SI()
	if j.fastener.Length().SI() < required {
		return &ValidationError{"fastener length insufficient for stack-up and thread engagement"}
	}
	return nil
}

func (j *Junction) clampedThickness() float64 {
	var total float64
	for _, c := range j.clamped {
		total += c.Thickness().SI()
	}
	return total
}

// classify picks the NASA-TM-106943 configuration from capability presence:
// a threaded member that is also clamped is a tapped plate.
func (j *Junction) classify() Configuration {
	_, tapped := j.member.(component.Clamped)
	flat := j.fastener.FlatHead()
	switch {
	case !tapped && !flat:
		return ConfigThroughBolt
	case !tapped && flat:
		return ConfigThroughBoltFlatHead
	case tapped && !flat:
		return ConfigTapped
	default:
		return ConfigTappedFlatHead
	}
}

// recompute derives grip, stack-up, configuration and stiffness terms.
// All intermediate math is done in SI base units.
func (j *Junction) recompute() {
	cfg := j.classify()
	reg := j.fastener.Length().Registry()

	stack := j.clampedThickness()
	if tp, ok := j.member.(component.Clamped); ok {
		stack += tp.Thickness().SI()
	} else if nut, ok := j.member.(*component.Nut); ok {
		stack += nut.Height().SI()
	}

	// Effective grip length per configuration: the tapped plate carries
	// the grip to the midpoint of its thread engagement; a countersunk
	// head moves the start of the grip to mid-head.
	grip := j.clampedThickness()
	if cfg.tapped() {
		tp := j.member.(component.Clamped)
		grip += tp.Thickness().SI() - j.member.ThreadedLength().SI()/2
	}
	if cfg.flatHead() {
		grip -= j.fastener.HeadHeight().SI() / 2
	}

	d := j.fastener.Thread().MajorDiameter.SI()
	eb := j.fastener.Material().ElasticModulus().SI()

	// Bolt stiffness, Kb = A*Eb/L with the nominal shank area.
	area := math.Pi / 4 * d * d
	kb := area * eb / grip

	ej := j.effectiveModulus(cfg, grip)

	// Washer-face diameter. Protruding-head configurations use the basic
	// dw = 1.5D form; flat heads average the head and nominal diameters.
	dw := 1.5 * d
	if cfg.flatHead() {
		dw = (j.fastener.HeadDiameter().SI() + d) / 2
	}
	kj := coneStiffness(ej, d, dw, grip)

	n := j.loadingPlaneFactor(grip)

	j.geom = Geometry{
		Configuration:      cfg,
		GripLength:         reg.FromSI(grip, units.Length),
		StackUpThickness:   reg.FromSI(stack, units.Length),
		LoadingPlaneFactor: n,
		BoltStiffness:      reg.FromSI(kb, units.Stiffness),
		JointStiffness:     reg.FromSI(kj, units.Stiffness),
		EffectiveModulus:   reg.FromSI(ej, units.Stress),
		StiffnessFactor:    kb / (kb + kj),
	}
	j.valid = true
}

// coneStiffness is the 30-degree pressure-cone joint stiffness of
// NASA-TM-106943. With dw = 1.5D the expression reduces to the basic
// through-bolt form.
func coneStiffness(e, d, dw, l float64) float64 {
	t := 2*l*math.Tan(math.Pi/6) // 2*L*tan(30)
	num := (t + dw - d) * (dw + d)
	den := (t + dw + d) * (dw - d)
	return math.Pi * e * d * math.Tan(math.Pi/6) / math.Log(num/den)
}

// effectiveModulus combines the clamped parts' moduli over the grip:
// length-weighted arithmetic mean for the protruding-head configurations,
// length-weighted harmonic mean (springs in series) for flat heads.
func (j *Junction) effectiveModulus(cfg Configuration, grip float64) float64 {
	parts := j.clampedParts(cfg)
	var total float64
	for _, p := range parts {
		total += p.t
	}
	if total <= 0 {
		return 0
	}
	if cfg.flatHead() {
		var inv float64
		for _, p := range parts {
			inv += p.t / p.e
		}
		return total / inv
	}
	var sum float64
	for _, p := range parts {
		sum += p.e * p.t
	}
	return sum / total
}

type layer struct{ t, e float64 }

// clampedParts lists the layers inside the grip. For tapped configurations
// the engaged half of the tapped plate is outside the grip; the remainder
// participates as a clamped layer.
func (j *Junction) clampedParts(cfg Configuration) []layer {
	parts := make([]layer, 0, len(j.clamped)+1)
	for _, c := range j.clamped {
		parts = append(parts, layer{c.Thickness().SI(), c.Material().ElasticModulus().SI()})
	}
	if cfg.tapped() {
		tp := j.member.(component.Clamped)
		t := tp.Thickness().SI() - j.member.ThreadedLength().SI()/2
		if t > 0 {
			parts = append(parts, layer{t, tp.Material().ElasticModulus().SI()})
		}
	}
	return parts
}

// loadingPlaneFactor places the load-introduction planes at the midplanes
// of the outermost clamped parts: n = (L - t_first/2 - t_last/2)/L. A
// degenerate single-layer stack falls back to the conventional n = 0.5.
func (j *Junction) loadingPlaneFactor(grip float64) float64 {
	first := j.clamped[0].Thickness().SI()
	last := j.clamped[len(j.clamped)-1].Thickness().SI()
	n := (grip - first/2 - last/2) / grip
	if n <= 0 || n > 1 {
		return 0.5
	}
	return n
}

// Geometry returns a snapshot of the derived attributes.
func (j *Junction) Geometry() (Geometry, error) {
	if !j.valid {
		return Geometry{}, &ConfigurationError{"junction has no clamped components; geometry is undefined"}
	}
	return j.geom, nil
}

// Fastener returns the fastener reference.
func (j *Junction) Fastener() *component.Fastener { return j.fastener }

// ThreadedMember returns the threaded-member reference.
func (j *Junction) ThreadedMember() component.Threaded { return j.member }

// ClampedCount returns the number of clamped components.
func (j *Junction) ClampedCount() int { return len(j.clamped) }

// ClampedComponents returns a copy of the clamped stack in order.
func (j *Junction) ClampedComponents() []component.Clamped {
	return append([]component.Clamped(nil), j.clamped...)
}

// GripLength returns the derived grip length.
func (j *Junction) GripLength() (units.Quantity, error) {
	g, err := j.Geometry()
	if err != nil {
		return units.Quantity{}, err
	}
	return g.GripLength, nil
}

// StackUpThickness returns the derived stack-up thickness.
func (j *Junction) StackUpThickness() (units.Quantity, error) {
	g, err := j.Geometry()
	if err != nil {
		return units.Quantity{}, err
	}
	return g.StackUpThickness, nil
}

// AddClamped appends a clamped component and re-derives the geometry. On
// validation failure the junction is left unchanged.
func (j *Junction) AddClamped(c component.Clamped) error {
	j.clamped = append(j.clamped, c)
	if err := j.validate(); err != nil {
		j.clamped = j.clamped[:len(j.clamped)-1]
		return err
	}
	j.recompute()
	return nil
}

// RemoveClamped removes the clamped component at index and re-derives the
// geometry. Removing the last component leaves the junction in a defined
// empty state: geometry queries fail with ConfigurationError until a
// component is added back.
func (j *Junction) RemoveClamped(index int) (component.Clamped, error) {
	if index < 0 || index >= len(j.clamped) {
		return nil, &ValidationError{fmt.Sprintf("clamped component index %d out of range", index)}
	}
	removed := j.clamped[index]
	j.clamped = append(j.clamped[:index], j.clamped[index+1:]...)
	if len(j.clamped) == 0 {
		j.valid = false
		j.geom = Geometry{}
		return removed, nil
	}
	j.recompute()
	return removed, nil
}

// SetFastener swaps the fastener and re-derives the geometry. On validation
// failure the junction is left unchanged.
func (j *Junction) SetFastener(f *component.Fastener) error {
	old := j.fastener
	j.fastener = f
	if err := j.validate(); err != nil {
		j.fastener = old
		return err
	}
	j.recompute()
	return nil
}

// SetThreadedMember swaps the threaded member and re-derives the geometry.
// On validation failure the junction is left unchanged.
func (j *Junction) SetThreadedMember(m component.Threaded) error {
	old := j.member
	j.member = m
	if err := j.validate(); err != nil {
		j.member = old
		return err
	}
	j.recompute()
	return nil
}
