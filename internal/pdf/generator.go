package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/fireops-orders/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(cert model.Certificate, workOrder model.WorkOrder, project model.Project) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, certificateTitle(cert.Type), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Certificate No. %s", cert.Number), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued %s", formatDate(cert.IssuedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Engagement", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Project: %s", project.Title), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s - %s", formatDate(project.StartDate), formatDatePtr(project.EndDate)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Work performed", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)

	headers := []string{"Work order", "Work type", "Completed", "Certificate valid until"}
	colWidths := []float64{70, 35, 30, 35}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	drawTableRow(pdf, g.fontName, []string{
		workOrder.Name,
		string(workOrder.WorkType),
		formatDatePtr(workOrder.CompletedAt),
		formatDate(cert.ExpiresAt),
	}, colWidths, false)

	if workOrder.Description != "" {
		pdf.Ln(2)
		pdf.SetFont(g.fontName, "", 10)
		pdf.MultiCell(0, 5, workOrder.Description, "", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont(g.fontName, "", 11)
	pdf.MultiCell(0, 6, "This certificate confirms that the work listed above was completed and "+
		"inspected in accordance with the applicable fire safety requirements.", "", "L", false)

	pdf.Ln(10)
	signatureBlock(pdf, g.fontName, "Contractor")
	signatureBlock(pdf, g.fontName, "Client")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func certificateTitle(kind model.CertificateType) string {
	switch kind {
	case model.CertificateInspection:
		return "FIRE SAFETY INSPECTION CERTIFICATE"
	case model.CertificateMaintenance:
		return "PREVENTIVE MAINTENANCE CERTIFICATE"
	default:
		return "CERTIFICATE OF COMPLETION"
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cells []string, widths []float64, header bool) {
	if header {
		pdf.SetFont(fontName, "B", 10)
		pdf.SetFillColor(230, 230, 230)
	} else {
		pdf.SetFont(fontName, "", 10)
	}
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", header, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(40, 8, label+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(80, 8, "_______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Date: _______________", "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
