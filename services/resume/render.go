package resume

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Watermark settings for unpaid downloads
const (
	WatermarkText    = "CampusConnect"
	WatermarkOpacity = 0.1
	WatermarkSize    = 70
	WatermarkAngle   = 45
)

const (
	margin    = 50.0
	bodySize  = 11.0
	lineH     = 14.0
	titleSize = 25.0
)

type renderer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	w   float64 // printable width
}

// Render lays the document out on US Letter pages. Empty sections are
// skipped. With watermark set, every page carries the diagonal mark.
func Render(doc Document, watermark bool) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCreator("CampusConnect", false)
	if doc.Name != "" {
		pdf.SetTitle(doc.Name+" - Resume", true)
	}

	pageW, _ := pdf.GetPageSize()
	r := &renderer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), w: pageW - 2*margin}

	if watermark {
		pdf.SetFooterFunc(r.watermark)
	}
	pdf.AddPage()

	r.header(doc)
	r.summary(doc)
	r.education(doc.Education)
	r.experience(doc.Experience)
	r.projects(doc.Projects)
	r.skills(doc)
	r.achievements(doc.Achievements)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render resume: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *renderer) header(doc Document) {
	if doc.Name != "" {
		r.pdf.SetFont("Helvetica", "B", titleSize)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.CellFormat(r.w, 32, r.tr(doc.Name), "", 1, "C", false, 0, "")
	}

	r.pdf.SetFont("Helvetica", "", 10)
	r.pdf.SetTextColor(110, 110, 110)
	if doc.Email != "" || doc.Phone != "" || doc.Address != "" {
		contact := fmt.Sprintf("%s | %s | %s", doc.Email, doc.Phone, doc.Address)
		r.pdf.MultiCell(r.w, 13, r.tr(contact), "", "C", false)
	}

	var links []string
	if doc.LinkedIn != "" {
		links = append(links, "LinkedIn: "+doc.LinkedIn)
	}
	if doc.GitHub != "" {
		links = append(links, "GitHub: "+doc.GitHub)
	}
	if doc.Portfolio != "" {
		links = append(links, "Portfolio: "+doc.Portfolio)
	}
	if len(links) > 0 {
		r.pdf.Ln(4)
		r.pdf.MultiCell(r.w, 13, r.tr(strings.Join(links, " | ")), "", "C", false)
	}
}

func (r *renderer) section(title string) {
	r.pdf.Ln(18)
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.SetTextColor(110, 110, 110)
	r.pdf.CellFormat(r.w, 20, r.tr(title), "", 1, "L", false, 0, "")

	y := r.pdf.GetY()
	r.pdf.SetDrawColor(128, 128, 128)
	r.pdf.SetLineWidth(1)
	r.pdf.Line(margin, y, margin+r.w, y)
	r.pdf.Ln(6)

	r.pdf.SetFont("Helvetica", "", bodySize)
	r.pdf.SetTextColor(0, 0, 0)
}

func (r *renderer) text(s string) {
	r.pdf.MultiCell(r.w, lineH, r.tr(s), "", "L", false)
}

// bullets turns a multi-line description into a dash list after the first line
func bullets(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n- ")
}

func (r *renderer) summary(doc Document) {
	if strings.TrimSpace(doc.Summary) == "" {
		return
	}
	r.section("Professional Summary")
	r.pdf.MultiCell(r.w, lineH, r.tr(doc.Summary), "", "J", false)
}

func (r *renderer) education(rows []EducationRow) {
	rows = filter(rows, func(e EducationRow) bool { return e.Degree != "" })
	if len(rows) == 0 {
		return
	}
	r.section("Education")
	for _, e := range rows {
		r.text(fmt.Sprintf("%s at %s", e.Degree, e.University))
		r.text(e.Year)
		if e.CGPA != "" {
			r.text("CGPA: " + e.CGPA)
		}
		r.pdf.Ln(6)
	}
}

func (r *renderer) experience(rows []ExperienceRow) {
	rows = filter(rows, func(e ExperienceRow) bool { return e.Title != "" })
	if len(rows) == 0 {
		return
	}
	r.section("Work Experience")
	for _, e := range rows {
		r.text(fmt.Sprintf("%s at %s", e.Title, e.Company))
		r.text(fmt.Sprintf("%s - %s", e.StartYear, e.EndYear))
		if e.Description != "" {
			r.text(bullets(e.Description))
		}
		r.pdf.Ln(6)
	}
}

func (r *renderer) projects(rows []ProjectRow) {
	rows = filter(rows, func(p ProjectRow) bool { return p.Name != "" })
	if len(rows) == 0 {
		return
	}
	r.section("Projects")
	for _, p := range rows {
		r.linked(p.Name, p.Link)
		if p.Description != "" {
			r.pdf.Ln(2)
			r.text(bullets(p.Description))
		}
		r.pdf.Ln(6)
	}
}

func (r *renderer) skills(doc Document) {
	if strings.TrimSpace(doc.Skills) == "" {
		return
	}
	r.section("Skills")
	r.text(doc.Skills)
}

func (r *renderer) achievements(rows []AchievementRow) {
	rows = filter(rows, func(a AchievementRow) bool { return a.Description != "" })
	if len(rows) == 0 {
		return
	}
	r.section("Achievements & Certifications")
	for _, a := range rows {
		r.linked(a.Description, a.Link)
		r.pdf.Ln(6)
	}
}

// linked writes label followed by a clickable [Link] when target is set
func (r *renderer) linked(label, target string) {
	r.pdf.Write(lineH, r.tr(label))
	if target != "" {
		r.pdf.SetTextColor(8, 145, 178)
		r.pdf.WriteLinkString(lineH, " [Link]", target)
		r.pdf.SetTextColor(0, 0, 0)
	}
	r.pdf.Ln(lineH)
}

func (r *renderer) watermark() {
	pageW, pageH := r.pdf.GetPageSize()
	cx, cy := pageW/2, pageH/2

	r.pdf.SetAlpha(WatermarkOpacity, "Normal")
	r.pdf.SetFont("Helvetica", "B", WatermarkSize)
	r.pdf.SetTextColor(0, 0, 0)
	width := r.pdf.GetStringWidth(WatermarkText)

	r.pdf.TransformBegin()
	r.pdf.TransformRotate(WatermarkAngle, cx, cy)
	r.pdf.Text(cx-width/2, cy+WatermarkSize/3, WatermarkText)
	r.pdf.TransformEnd()
	r.pdf.SetAlpha(1, "Normal")
}

func filter[T any](rows []T, keep func(T) bool) []T {
	var out []T
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}
