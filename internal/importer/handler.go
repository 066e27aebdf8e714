// Package importer loads batches of load cases from spreadsheets and runs
// each case against one joint definition.
package importer

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"Clevis/internal/analysis"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

type Handler struct {
	Resolver *thread.Resolver
	Registry *units.Registry
}

type caseResult struct {
	Row    int              `json:"row"`
	Result *analysis.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

type importResult struct {
	Count   int          `json:"count"`
	Results []caseResult `json:"results"`
}

// LoadCases accepts a multipart form with a "joint" JSON field (the
// assembly, temperatures and configuration) and a "file" spreadsheet of
// load cases. Rows after the header carry:
// tension, shear, bending, preload torque — each as a value/unit pair.
func (h *Handler) LoadCases(w http.ResponseWriter, r *http.Request) {
	jointJSON := r.FormValue("joint")
	if jointJSON == "" {
		http.Error(w, "Joint definition required", http.StatusBadRequest)
		return
	}
	var base analysis.Input
	if err := json.Unmarshal([]byte(jointJSON), &base); err != nil {
		http.Error(w, "Invalid joint definition", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "File required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		http.Error(w, "Invalid file", http.StatusBadRequest)
		return
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil || len(rows) < 2 {
		http.Error(w, "Empty sheet", http.StatusBadRequest)
		return
	}

	out := importResult{}
	for i := 1; i < len(rows); i++ {
		env, err := parseLoadCaseRow(rows[i], base.Environment)
		if err != nil {
			out.Results = append(out.Results, caseResult{Row: i + 1, Error: err.Error()})
			continue
		}
		in := base
		in.Environment = env
		res, err := analysis.Calculate(h.Resolver, h.Registry, in)
		if err != nil {
			out.Results = append(out.Results, caseResult{Row: i + 1, Error: err.Error()})
			continue
		}
		out.Count++
		out.Results = append(out.Results, caseResult{Row: i + 1, Result: &res})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// parseLoadCaseRow reads tension, shear, bending and torque columns, each a
// magnitude followed by its unit string. Temperatures come from the base
// joint definition.
func parseLoadCaseRow(row []string, base analysis.EnvironmentInput) (analysis.EnvironmentInput, error) {
	if len(row) < 8 {
		return analysis.EnvironmentInput{}, fmt.Errorf("row needs 8 columns (value/unit pairs for tension, shear, bending, torque)")
	}
	read := func(i int) (units.Measure, error) {
		var v float64
		if _, err := fmt.Sscanf(row[i], "%f", &v); err != nil {
			return units.Measure{}, fmt.Errorf("column %d: %v", i+1, err)
		}
		return units.Measure{Value: v, Unit: row[i+1]}, nil
	}
	tension, err := read(0)
	if err != nil {
		return analysis.EnvironmentInput{}, err
	}
	shear, err := read(2)
	if err != nil {
		return analysis.EnvironmentInput{}, err
	}
	bending, err := read(4)
	if err != nil {
		return analysis.EnvironmentInput{}, err
	}
	torque, err := read(6)
	if err != nil {
		return analysis.EnvironmentInput{}, err
	}

	env := base
	env.Axis = ""
	env.Tension = tension
	env.Shear = shear
	env.Bending = bending
	env.PreloadTorque = torque
	return env, nil
}
