package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the gofpdf family name of the UTF-8 font.
	pdfFontName     = "DejaVuSans"
	pdfFallbackFont = "Arial"
)

// pdfFontCandidates are tried in order: next to the binary (container
// layout), then relative to the repository root.
var pdfFontCandidates = []string{
	"ttf/DejaVuSans.ttf",
	"internal/pkg/formatter/ttf/DejaVuSans.ttf",
}

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

func resolveFontPath() string {
	for _, p := range pdfFontCandidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// pdfWriter renders text with the UTF-8 font when available, otherwise with
// a core font and cp1252 translation.
type pdfWriter struct {
	pdf       *gofpdf.Fpdf
	font      string
	translate func(string) string
}

func newPDFWriter() *pdfWriter {
	pdf := gofpdf.New("P", "mm", "A4", "")
	w := &pdfWriter{pdf: pdf, font: pdfFallbackFont, translate: pdf.UnicodeTranslatorFromDescriptor("")}

	if fontPath := resolveFontPath(); fontPath != "" {
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		w.font = pdfFontName
		w.translate = func(s string) string { return s }
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(w.font, "", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()
	return w
}

func (w *pdfWriter) heading(text string, size float64, gap float64) {
	w.pdf.SetFont(w.font, "B", size)
	w.pdf.Cell(0, 10, w.translate(text))
	w.pdf.Ln(gap)
}

// block writes a bold label followed by wrapped body text.
func (w *pdfWriter) block(label, body string, size, spacing float64) {
	w.pdf.SetFont(w.font, "B", size)
	_, lineHeight := w.pdf.GetFontSize()
	w.pdf.Cell(0, lineHeight*1.5, w.translate(label))
	w.pdf.Ln(lineHeight * 1.5)

	w.pdf.SetFont(w.font, "", size)
	w.pdf.MultiCell(0, lineHeight*spacing, w.translate(body), "", "", false)
	w.pdf.Ln(3)
}

func (mf *PDFFormatter) Format(t *Transcript) ([]byte, error) {
	w := newPDFWriter()

	w.heading(baseTitle, 20, 14)
	for _, turn := range t.Turns {
		w.block(roleLabel(turn.Role), turn.Content, 12, 1.5)
	}

	if len(t.Sources) > 0 {
		w.heading("Sources", 16, 12)
		for _, s := range t.Sources {
			w.block(sourceHeading(s), s.Content, 10, 1.4)
		}
	}

	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
