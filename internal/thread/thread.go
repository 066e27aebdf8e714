// Package thread parses thread designation strings ("1/4-20 UNC",
// "1/2-13 UNC", "M6x1.0") into resolved thread geometry.
//
// Parsing is a pure function of the designation string; a Resolver memoizes
// resolved specifications and is safe for concurrent use.
package thread

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"Clevis/internal/units"
)

// Series identifies the thread series of a designation.
type Series string

const (
	SeriesUNC    Series = "UNC"
	SeriesUNF    Series = "UNF"
	SeriesMetric Series = "M"
)

// SpecError reports a malformed or non-standard thread designation.
type SpecError struct {
	Designation string
	Reason      string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid thread specification %q: %s", e.Designation, e.Reason)
}

// UnsupportedSeriesError reports a designation whose series grammar is not
// supported.
type UnsupportedSeriesError struct {
	Designation string
	Series      string
}

func (e *UnsupportedSeriesError) Error() string {
	return fmt.Sprintf("unsupported thread series %q in %q", e.Series, e.Designation)
}

// Spec is an immutable resolved thread specification.
type Spec struct {
	Designation     string
	Series          Series
	ThreadsPerInch  int // zero for metric threads
	NominalDiameter units.Quantity
	Pitch           units.Quantity
	MajorDiameter   units.Quantity
	PitchDiameter   units.Quantity
	MinorDiameter   units.Quantity
	stressArea      units.Quantity
}

// StressArea returns the tensile stress area of the thread
// (ASME B1.1 / ISO 898 closed forms).
func (s *Spec) StressArea() units.Quantity { return s.stressArea }

// NominalArea returns the unthreaded shank area from the major diameter.
func (s *Spec) NominalArea() units.Quantity {
	return s.MajorDiameter.Mul(s.MajorDiameter).Scale(math.Pi / 4)
}

// MinorArea returns the cross-sectional area at the minor diameter.
func (s *Spec) MinorArea() units.Quantity {
	return s.MinorDiameter.Mul(s.MinorDiameter).Scale(math.Pi / 4)
}

// standard coarse and fine series, fractional-inch sizes.
var uncTPI = map[string]int{
	"1/4": 20, "5/16": 18, "3/8": 16, "7/16": 14,
	"1/2": 13, "9/16": 12, "5/8": 11, "3/4": 10,
}

var unfTPI = map[string]int{
	"1/4": 28, "5/16": 24, "3/8": 24, "7/16": 20,
	"1/2": 20, "9/16": 18, "5/8": 18, "3/4": 16,
}

// standard metric coarse pitches, mm.
var metricPitch = map[int]float64{
	6: 1.0, 8: 1.25, 10: 1.5, 12: 1.75, 16: 2.0, 20: 2.5,
}

var (
	imperialRe = regexp.MustCompile(`^(\d+(?:/\d+)?)-(\d+)\s+([A-Z]+)$`)
	metricRe   = regexp.MustCompile(`^M(\d+)x([\d.]+)$`)
)

// Resolver parses designations against a unit registry and caches the
// results per unique designation string.
type Resolver struct {
	reg   *units.Registry
	mu    sync.RWMutex
	cache map[string]*Spec
}

// NewResolver returns a Resolver backed by the given registry.
func NewResolver(reg *units.Registry) *Resolver {
	return &Resolver{reg: reg, cache: make(map[string]*Spec)}
}

// Parse resolves a designation into a thread specification. Resolved specs
// are cached and shared; callers must treat them as read-only.
func (r *Resolver) Parse(designation string) (*Spec, error) {
	r.mu.RLock()
	spec, ok := r.cache[designation]
	r.mu.RUnlock()
	if ok {
		return spec, nil
	}

	spec, err := r.resolve(designation)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[designation] = spec
	r.mu.Unlock()
	return spec, nil
}

func (r *Resolver) resolve(designation string) (*Spec, error) {
	if strings.TrimSpace(designation) == "" {
		return nil, &SpecError{designation, "designation must be non-empty"}
	}

	if m := metricRe.FindStringSubmatch(designation); m != nil {
		return r.resolveMetric(designation, m)
	}
	if m := imperialRe.FindStringSubmatch(designation); m != nil {
		return r.resolveImperial(designation, m)
	}
	return nil, &SpecError{designation, "does not match a supported designation grammar"}
}

func (r *Resolver) resolveMetric(designation string, m []string) (*Spec, error) {
	dia, err := strconv.Atoi(m[1])
	if err != nil || dia <= 0 {
		return nil, &SpecError{designation, "nominal diameter must be a positive integer"}
	}
	pitch, err := strconv.ParseFloat(m[2], 64)
	if err != nil || pitch <= 0 {
		return nil, &SpecError{designation, "pitch must be positive"}
	}
	std, ok := metricPitch[dia]
	if !ok || std != pitch {
		return nil, &SpecError{designation, "not a standard metric coarse thread"}
	}

	dmm := float64(dia)
	// ISO 68-1 basic profile
	spec := &Spec{
		Designation:     designation,
		Series:          SeriesMetric,
		NominalDiameter: r.reg.MustNew(dmm, "mm"),
		Pitch:           r.reg.MustNew(pitch, "mm"),
		MajorDiameter:   r.reg.MustNew(dmm, "mm"),
		PitchDiameter:   r.reg.MustNew(dmm-0.6495*pitch, "mm"),
		MinorDiameter:   r.reg.MustNew(dmm-1.2269*pitch, "mm"),
	}
	at := math.Pi / 4 * math.Pow(dmm-0.9382*pitch, 2)
	spec.stressArea = r.reg.MustNew(at, "mm^2")
	return spec, nil
}

func (r *Resolver) resolveImperial(designation string, m []string) (*Spec, error) {
	size, tpiStr, series := m[1], m[2], m[3]

	var table map[string]int
	switch Series(series) {
	case SeriesUNC:
		table = uncTPI
	case SeriesUNF:
		table = unfTPI
	default:
		return nil, &UnsupportedSeriesError{Designation: designation, Series: series}
	}

	tpi, err := strconv.Atoi(tpiStr)
	if err != nil || tpi <= 0 {
		return nil, &SpecError{designation, "threads per inch must be positive"}
	}
	std, ok := table[size]
	if !ok || std != tpi {
		return nil, &SpecError{designation, fmt.Sprintf("not a standard %s thread", series)}
	}

	din, err := parseFraction(size)
	if err != nil {
		return nil, &SpecError{designation, err.Error()}
	}

	p := 1.0 / float64(tpi)
	spec := &Spec{
		Designation:     designation,
		Series:          Series(series),
		ThreadsPerInch:  tpi,
		NominalDiameter: r.reg.MustNew(din, "in"),
		Pitch:           r.reg.MustNew(p, "in"),
		MajorDiameter:   r.reg.MustNew(din, "in"),
		PitchDiameter:   r.reg.MustNew(din-0.6495*p, "in"),
		MinorDiameter:   r.reg.MustNew(din-1.2269*p, "in"),
	}
	at := math.Pi / 4 * math.Pow(din-0.9743/float64(tpi), 2)
	spec.stressArea = r.reg.MustNew(at, "in^2")
	return spec, nil
}

func parseFraction(s string) (float64, error) {
	if num, denom, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(num)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid fraction numerator %q", num)
		}
		d, err := strconv.Atoi(denom)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("invalid fraction denominator %q", denom)
		}
		return float64(n) / float64(d), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return v, nil
}

// MajorDiameter resolves a designation and returns its major diameter.
func (r *Resolver) MajorDiameter(designation string) (units.Quantity, error) {
	spec, err := r.Parse(designation)
	if err != nil {
		return units.Quantity{}, err
	}
	return spec.MajorDiameter, nil
}

// PitchDiameter resolves a designation and returns its pitch diameter.
func (r *Resolver) PitchDiameter(designation string) (units.Quantity, error) {
	spec, err := r.Parse(designation)
	if err != nil {
		return units.Quantity{}, err
	}
	return spec.PitchDiameter, nil
}

// MinorDiameter resolves a designation and returns its minor diameter.
func (r *Resolver) MinorDiameter(designation string) (units.Quantity, error) {
	spec, err := r.Parse(designation)
	if err != nil {
		return units.Quantity{}, err
	}
	return spec.MinorDiameter, nil
}

// Compatible reports whether two designations can be mated: identical
// resolved major diameter and identical pitch. Unparseable designations are
// never compatible.
func (r *Resolver) Compatible(a, b string) bool {
	sa, err := r.Parse(a)
	if err != nil {
		return false
	}
	sb, err := r.Parse(b)
	if err != nil {
		return false
	}
	return sa.MajorDiameter.SI() == sb.MajorDiameter.SI() && sa.Pitch.SI() == sb.Pitch.SI()
}
