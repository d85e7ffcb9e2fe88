// Package report renders graded items as a self-contained HTML page.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"markdown":     renderMarkdown,
	"subjectLabel": func(s homework.Subject) string { return s.Label() },
}).ParseFS(templateFS, "templates/report.html"))

// Card is one item as shown in the report.
type Card struct {
	Name       string
	Status     homework.Status
	Score      string
	HasScore   bool
	OCRText    string
	Correction string
	Feedback   string
	Error      string
}

type pageData struct {
	Subject     homework.Subject
	GeneratedAt string
	Cards       []Card
	Stats       homework.Statistics
	Subjects    []homework.Subject
}

// Cards converts items into report cards, keeping their order.
func Cards(items []homework.Item) []Card {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		c := Card{Name: it.Name, Status: it.Status, Error: it.ErrorMessage}
		if it.Result != nil {
			c.OCRText = it.Result.OCRText
			c.Correction = it.Result.Correction
			c.Feedback = homework.ExtractFeedback(it.Result.Correction)
			c.Score, c.HasScore = homework.ExtractScore(it.Result.Correction)
		}
		cards = append(cards, c)
	}
	return cards
}

// Render writes the report for one channel to w.
func Render(w io.Writer, subject homework.Subject, items []homework.Item, stats homework.Statistics) error {
	data := pageData{
		Subject:     subject,
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
		Cards:       Cards(items),
		Stats:       stats,
		Subjects:    homework.Subjects,
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}
