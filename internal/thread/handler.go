package thread

import (
	"encoding/json"
	"net/http"

	"Clevis/internal/units"
)

type resolveInput struct {
	Designation string `json:"designation"`
	Unit        string `json:"unit"` // output length unit, defaults by series
}

type resolveResult struct {
	Designation    string        `json:"designation"`
	Series         string        `json:"series"`
	ThreadsPerInch int           `json:"threads_per_inch,omitempty"`
	MajorDiameter  units.Measure `json:"major_diameter"`
	PitchDiameter  units.Measure `json:"pitch_diameter"`
	MinorDiameter  units.Measure `json:"minor_diameter"`
	Pitch          units.Measure `json:"pitch"`
	StressArea     units.Measure `json:"stress_area"`
}

// Handler serves thread designation lookups.
type Handler struct {
	Resolver *Resolver
}

func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var input resolveInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	spec, err := h.Resolver.Parse(input.Designation)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	unit := input.Unit
	if unit == "" {
		unit = "mm"
		if spec.Series != SeriesMetric {
			unit = "in"
		}
	}
	areaUnit := "mm^2"
	if unit == "in" {
		areaUnit = "in^2"
	}

	measure := func(q units.Quantity, u string) (units.Measure, bool) {
		m, err := units.NewMeasure(q, u)
		return m, err == nil
	}
	major, ok1 := measure(spec.MajorDiameter, unit)
	pitchD, ok2 := measure(spec.PitchDiameter, unit)
	minor, ok3 := measure(spec.MinorDiameter, unit)
	pitch, ok4 := measure(spec.Pitch, unit)
	area, ok5 := measure(spec.StressArea(), areaUnit)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		http.Error(w, "Unknown output unit", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resolveResult{
		Designation:    spec.Designation,
		Series:         string(spec.Series),
		ThreadsPerInch: spec.ThreadsPerInch,
		MajorDiameter:  major,
		PitchDiameter:  pitchD,
		MinorDiameter:  minor,
		Pitch:          pitch,
		StressArea:     area,
	})
}
