// Package pdf renders resumes to PDF through headless Chromium.
package pdf

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/jobportal/apiserver/types"
)

//go:embed templates/resume.html.tmpl
var templateFS embed.FS

var resumeTemplate = template.Must(
	template.New("resume.html.tmpl").
		Funcs(template.FuncMap{
			"join":    strings.Join,
			"meta":    joinMeta,
			"labeled": labeled,
		}).
		ParseFS(templateFS, "templates/resume.html.tmpl"),
)

type resumeView struct {
	Title    string
	Name     string
	Contact  []string
	Location string
	Summary  string
	Content  types.ResumeContent
}

// RenderHTML builds the printable HTML document for resume. Sections that
// are absent or empty are left out.
func RenderHTML(resume types.Resume) (string, error) {
	content, err := types.ParseResumeContent(resume.Content)
	if err != nil {
		return "", fmt.Errorf("decode resume content: %w", err)
	}

	view := resumeView{Name: "N/A", Content: content}
	if p := content.Profile; p != nil {
		if name := strings.TrimSpace(p.Name.String()); name != "" {
			view.Name = name
		}
		view.Contact = nonEmpty(p.Email.String(), p.Phone.String())
		view.Location = strings.TrimSpace(p.Location.String())
		view.Summary = strings.TrimSpace(p.Summary.String())
	}
	view.Title = view.Name
	if view.Title == "N/A" {
		view.Title = "Resume"
	}

	var buf bytes.Buffer
	if err := resumeTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute resume template: %w", err)
	}
	return buf.String(), nil
}

func joinMeta(parts ...types.Text) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		values = append(values, part.String())
	}
	return strings.Join(nonEmpty(values...), " | ")
}

func labeled(label string, value types.Text) types.Text {
	if strings.TrimSpace(value.String()) == "" {
		return ""
	}
	return types.Text(label + ": " + value.String())
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
