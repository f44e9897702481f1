package document

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/go-pdf/fpdf"
)

// Confirmation is everything printed on a reservation confirmation.
type Confirmation struct {
	Quote    domain.Quote
	Customer domain.User
	Lines    []domain.QuoteLine
	Log      domain.ConfirmationLog
}

// Renderer draws confirmation documents as A4 PDFs. Without a font file only
// cp1252 text renders and documents carrying anything else are refused; set
// the font path to a TTF with Hangul glyphs for Korean.
type Renderer struct {
	company  string
	fontPath string
}

func NewRenderer(company, fontPath string) *Renderer {
	return &Renderer{company: company, fontPath: fontPath}
}

var columns = []struct {
	title string
	width float64
	align string
}{
	{"No", 10, "C"},
	{"Service", 22, "L"},
	{"Details", 68, "L"},
	{"Date", 22, "C"},
	{"Qty", 12, "R"},
	{"Unit", 28, "R"},
	{"Amount", 28, "R"},
}

func (r *Renderer) Render(doc Confirmation) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	family := "Helvetica"
	tr := r.translator(pdf)
	if r.fontPath != "" {
		pdf.AddUTF8Font("doc", "", r.fontPath)
		pdf.AddUTF8Font("doc", "B", r.fontPath)
		family = "doc"
	} else if s, ok := firstLossy(tr, documentText(r.company, doc)); !ok {
		return nil, fmt.Errorf("%w: confirmation %s: %q needs documents.font_path", domain.ErrValidation, doc.Log.DocumentNo, s)
	}
	pdf.SetTitle("Confirmation "+doc.Log.DocumentNo, true)
	pdf.SetAuthor(r.company, true)
	pdf.AddPage()

	pdf.SetFont(family, "B", 18)
	pdf.CellFormat(0, 10, tr(r.company), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 8, tr("Reservation Confirmation"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(family, "", 10)
	confirmedAt := doc.Log.CreatedAt
	if doc.Quote.ConfirmedAt != nil {
		confirmedAt = *doc.Quote.ConfirmedAt
	}
	header := [][2]string{
		{"Document No", doc.Log.DocumentNo},
		{"Quote", doc.Quote.Title},
		{"Confirmed", formatDate(&confirmedAt)},
		{"Customer", doc.Customer.Name},
		{"Email", doc.Customer.Email},
		{"Phone", doc.Customer.Phone},
	}
	for _, kv := range header {
		if kv[1] == "" {
			continue
		}
		pdf.CellFormat(35, 6, tr(kv[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(family, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	var total int64
	for _, line := range doc.Lines {
		it := line.Item
		details := it.ServiceRefID
		if line.Detail != nil {
			details = strings.Join(line.Detail.Facets, " / ")
		}
		cells := []string{
			strconv.Itoa(it.LineNo),
			string(it.ServiceType),
			details,
			formatDate(it.UsageDate),
			strconv.Itoa(it.Quantity),
			FormatKRW(it.UnitPrice),
			FormatKRW(it.TotalPrice),
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 7, fit(pdf, tr, cells[i], c.width), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
		total += it.TotalPrice
	}

	pdf.SetFont(family, "B", 10)
	pdf.CellFormat(162, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 8, FormatKRW(total), "1", 1, "R", false, 0, "")

	if doc.Quote.ManagerNote != "" || doc.Log.Note != "" {
		pdf.Ln(4)
		pdf.SetFont(family, "", 9)
		note := strings.TrimSpace(doc.Quote.ManagerNote + "\n" + doc.Log.Note)
		pdf.MultiCell(0, 5, tr(note), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render confirmation %s: %w", doc.Log.DocumentNo, err)
	}
	return buf.Bytes(), nil
}

// translator converts text for the page font: identity for a UTF-8 font,
// cp1252 for the core fonts.
func (r *Renderer) translator(pdf *fpdf.Fpdf) func(string) string {
	if r.fontPath != "" {
		return func(s string) string { return s }
	}
	return pdf.UnicodeTranslatorFromDescriptor("")
}

func documentText(company string, doc Confirmation) []string {
	out := []string{company, doc.Log.DocumentNo, doc.Log.Note, doc.Quote.Title, doc.Quote.ManagerNote,
		doc.Customer.Name, doc.Customer.Email, doc.Customer.Phone}
	for _, line := range doc.Lines {
		out = append(out, string(line.Item.ServiceType), line.Item.ServiceRefID)
		if line.Detail != nil {
			out = append(out, line.Detail.Facets...)
		}
	}
	return out
}

// firstLossy returns the first string tr cannot encode.
func firstLossy(tr func(string) string, texts []string) (string, bool) {
	for _, s := range texts {
		for _, r := range s {
			if r > 0xFF && tr(string(r)) == "." {
				return s, false
			}
		}
	}
	return "", true
}

// fit translates s and trims it until it fits into a cell of width mm.
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	limit := width - 2
	out := tr(s)
	if pdf.GetStringWidth(out) <= limit {
		return out
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		out = tr(string(runes) + "..")
		if pdf.GetStringWidth(out) <= limit {
			break
		}
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

// FormatKRW prints an amount with thousands separators, e.g. 1,250,000.
func FormatKRW(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
