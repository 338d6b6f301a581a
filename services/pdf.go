package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"voya/database"
)

var (
	mdHeading  = regexp.MustCompile(`(?m)^#{1,6}[ \t]*`)
	mdEmphasis = regexp.MustCompile(`\*\*|__|\*|` + "`")
	mdBullet   = regexp.MustCompile(`(?m)^[ \t]*[-+*][ \t]+`)
)

// GenerateItineraryPDF renders a stored itinerary to PDF bytes (no filesystem needed).
func GenerateItineraryPDF(it *database.Itinerary) ([]byte, error) {
	if it == nil {
		return nil, fmt.Errorf("PDF output failed: nil itinerary")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	// Core fonts are cp1252; anything outside it is replaced.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetDrawColor(200, 200, 200)
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(150, 150, 150)
		pdf.CellFormat(0, 8,
			tr(fmt.Sprintf("Generated by VOYA AI Travel Planner · Page %d", pdf.PageNo())),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(13, 24, 37)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "VOYA", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(212, 168, 67) // gold
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "AI-Powered Travel Itinerary", "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	sectionHeader := func(title string) {
		pdf.SetFillColor(13, 24, 37)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+tr(title), "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(125, 7, tr(value), "", "L", false)
	}

	// ── Trip Overview ─────────────────────────────────────────
	sectionHeader("Trip Overview")
	row("Destination", it.Destination)
	row("Duration", formatDays(it.Duration))
	if strings.TrimSpace(it.Preferences) != "" {
		row("Preferences", it.Preferences)
	}
	row("AI Provider", it.Provider)
	if !it.CreatedAt.IsZero() {
		row("Generated", it.CreatedAt.UTC().Format("02 Jan 2006, 15:04 UTC"))
	}
	pdf.Ln(4)

	// ── Itinerary ─────────────────────────────────────────────
	sectionHeader("Itinerary")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(170, 5, tr(stripMarkdown(it.Itinerary)), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// stripMarkdown drops heading, emphasis and code markers and turns list dashes into bullets.
func stripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = mdHeading.ReplaceAllString(s, "")
	s = mdBullet.ReplaceAllString(s, "• ")
	s = mdEmphasis.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
