package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"langgol/internal/models"
)

// Generator renders a consultation transcript to a PDF file. Interface so
// handlers can be tested with a fake.
type Generator interface {
	GenerateReport(data ReportData) (string, error)
}

type ReportGenerator struct {
	RootDir string // storage root, e.g. "./files"
}

type ReportData struct {
	Email     string
	History   *models.History
	CreatedAt time.Time
	Filename  string // without path; generated when empty
}

func NewReportGenerator(rootDir string) *ReportGenerator {
	return &ReportGenerator{RootDir: filepath.Clean(rootDir)}
}

func (g *ReportGenerator) GenerateReport(data ReportData) (string, error) {
	filename := data.Filename
	if filename == "" {
		filename = fmt.Sprintf("report_%s_%d.pdf",
			sanitize(data.Email), data.CreatedAt.Unix())
	}
	absPath, err := g.ensureTarget(filename)
	if err != nil {
		return "", err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Langgol consultation report", false)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 16)
	doc.Cell(0, 10, "Langgol consultation report")
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 10)
	doc.Cell(0, 8, fmt.Sprintf("Account: %s", data.Email))
	doc.Ln(6)
	doc.Cell(0, 8, fmt.Sprintf("Generated: %s", data.CreatedAt.Format("2006-01-02 15:04")))
	doc.Ln(10)

	h := data.History
	if h == nil {
		h = models.EmptyHistory()
	}

	g.section(doc, "Chat")
	if len(h.Chat) == 0 {
		g.line(doc, "No chat messages.")
	}
	for _, m := range h.Chat {
		g.line(doc, fmt.Sprintf("[%s] %s: %s", stamp(m.Timestamp), m.Sender, m.Text))
	}

	g.section(doc, "Voice sessions")
	if len(h.Live) == 0 {
		g.line(doc, "No voice turns.")
	}
	for _, m := range h.Live {
		g.line(doc, fmt.Sprintf("[%s] farmer: %s", stamp(m.Timestamp), m.User))
		g.line(doc, fmt.Sprintf("         assistant: %s", m.Model))
	}

	g.section(doc, "Image analyses")
	if len(h.Image) == 0 {
		g.line(doc, "No image analyses.")
	}
	for _, m := range h.Image {
		g.line(doc, fmt.Sprintf("[%s] %s", stamp(m.Timestamp), m.FileName))
		g.line(doc, m.Analysis)
	}

	if err := doc.OutputFileAndClose(absPath); err != nil {
		return "", fmt.Errorf("write report pdf: %w", err)
	}
	return absPath, nil
}

func (g *ReportGenerator) section(doc *gofpdf.Fpdf, title string) {
	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 12)
	doc.Cell(0, 8, title)
	doc.Ln(8)
	doc.SetFont("Helvetica", "", 10)
}

func (g *ReportGenerator) line(doc *gofpdf.Fpdf, text string) {
	doc.MultiCell(0, 5, text, "", "L", false)
	doc.Ln(1)
}

func (g *ReportGenerator) ensureTarget(filename string) (string, error) {
	dir := filepath.Join(g.RootDir, "reports")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	return filepath.Join(dir, filepath.Base(filename)), nil
}

func stamp(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func sanitize(email string) string {
	r := strings.NewReplacer("@", "_", ".", "_", "/", "_")
	return r.Replace(email)
}
