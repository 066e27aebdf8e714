// Package report renders a bolted-joint analysis as a PDF summary.
package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/phpdave11/gofpdf"

	"Clevis/internal/analysis"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

type Input struct {
	Project  string         `json:"project"`
	Author   string         `json:"author"`
	Title    string         `json:"title"`
	Notes    string         `json:"notes"`
	Analysis analysis.Input `json:"analysis"`
}

// Handler runs the analysis and streams the PDF.
type Handler struct {
	Resolver *thread.Resolver
	Registry *units.Registry
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if input.Title == "" {
		input.Title = "Bolted Joint Analysis Report"
	}

	res, err := analysis.Calculate(h.Resolver, h.Registry, input.Analysis)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, input.Title)
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Project: %s", input.Project))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Author: %s", input.Author))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Fastener: %s   Configuration: %s",
		input.Analysis.Fastener.Thread, res.Stiffness.Configuration))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Preloads")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	writeMeasure(pdf, "Nominal", res.Preloads.Nominal)
	writeMeasure(pdf, "Maximum", res.Preloads.Max)
	writeMeasure(pdf, "Minimum (strength)", res.Preloads.MinStrength)
	writeMeasure(pdf, "Minimum (slip)", res.Preloads.MinSlip)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Joint Stiffness")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	writeMeasure(pdf, "Grip length", res.Stiffness.GripLength)
	writeMeasure(pdf, "Bolt stiffness", res.Stiffness.BoltStiffness)
	writeMeasure(pdf, "Joint stiffness", res.Stiffness.JointStiffness)
	pdf.Cell(0, 6, fmt.Sprintf("Stiffness factor: %.4f   Loading-plane factor: %.4f",
		res.Stiffness.StiffnessFactor, res.Stiffness.LoadingPlaneFactor))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Margins of Safety")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	writeMargin(pdf, fmt.Sprintf("Ultimate tension (%s governs)", res.Margins.UltimateTensionGoverns),
		res.Margins.UltimateTension)
	writeMargin(pdf, "Ultimate shear", res.Margins.UltimateShear)
	writeMargin(pdf, "Combined loading", res.Margins.Combined)
	if res.Margins.YieldTension != nil {
		writeMargin(pdf, fmt.Sprintf("Yield tension (%s governs)", res.Margins.YieldTensionGoverns),
			res.Margins.YieldTension)
	}
	writeMargin(pdf, "Slip", res.Margins.Slip)
	writeMargin(pdf, "Separation", res.Margins.Separation)
	pdf.Ln(6)

	verdict := "FAIL"
	if res.Pass {
		verdict = "PASS"
	}
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Overall: %s", verdict))
	pdf.Ln(10)

	if input.Notes != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, input.Notes, "", "L", false)
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"joint-report.pdf\"")
	if err := pdf.Output(w); err != nil {
		http.Error(w, "Report generation error", http.StatusInternalServerError)
		return
	}
}

func writeMeasure(pdf *gofpdf.Fpdf, label string, m units.Measure) {
	pdf.Cell(0, 6, fmt.Sprintf("%s: %.4g %s", label, m.Value, m.Unit))
	pdf.Ln(6)
}

func writeMargin(pdf *gofpdf.Fpdf, label string, ms *float64) {
	if ms == nil {
		pdf.Cell(0, 6, fmt.Sprintf("%s: n/a (no applied load)", label))
		pdf.Ln(6)
		return
	}
	verdict := "FAIL"
	if *ms >= 0 {
		verdict = "PASS"
	}
	pdf.Cell(0, 6, fmt.Sprintf("%s: %+.3f  [%s]", label, *ms, verdict))
	pdf.Ln(6)
}
