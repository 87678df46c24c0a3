package rendering

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/jonathan/resume-builder/internal/types"
)

const defaultLaTeXTemplate = "templates/resume.tex"

// LaTeXData represents the data structure passed to the LaTeX template.
// Every string is already escaped for LaTeX.
type LaTeXData struct {
	Name       string
	Title      string
	Email      string
	Phone      string
	Address    string
	Summary    string
	Accent     string
	Experience []LaTeXExperience
	Education  []LaTeXEducation
	Skills     []string
}

// LaTeXExperience is one experience entry with its description split into bullets.
type LaTeXExperience struct {
	Company string
	Role    string
	Date    string
	Bullets []string
}

// LaTeXEducation is one education entry.
type LaTeXEducation struct {
	School string
	Degree string
	Date   string
}

// RenderLaTeX renders doc with the LaTeX template at templatePath, or the embedded default
// template when templatePath is empty.
func RenderLaTeX(doc types.Resume, templatePath string) (string, error) {
	tmpl, err := parseLaTeXTemplate(templatePath)
	if err != nil {
		return "", err
	}

	var result strings.Builder
	if err := tmpl.Execute(&result, buildLaTeXData(doc)); err != nil {
		return "", &RenderError{
			Message: "failed to execute LaTeX template",
			Cause:   err,
		}
	}

	return result.String(), nil
}

// parseLaTeXTemplate reads and parses a LaTeX template file
func parseLaTeXTemplate(templatePath string) (*template.Template, error) {
	var (
		content []byte
		err     error
		name    = templatePath
	)
	if templatePath == "" {
		name = defaultLaTeXTemplate
		content, err = templatesFS.ReadFile(defaultLaTeXTemplate)
	} else {
		content, err = os.ReadFile(templatePath)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{
				Name:    name,
				Message: fmt.Sprintf("template file not found: %s", name),
				Cause:   err,
			}
		}
		return nil, &TemplateError{
			Name:    name,
			Message: "failed to read template file",
			Cause:   err,
		}
	}

	// Delimiters avoid clashing with LaTeX braces.
	tmpl, err := template.New("resume.tex").Delims("<<", ">>").Funcs(template.FuncMap{
		"escape": EscapeLaTeX,
	}).Parse(string(content))
	if err != nil {
		return nil, &TemplateError{
			Name:    name,
			Message: "failed to parse template",
			Cause:   err,
		}
	}

	return tmpl, nil
}

// buildLaTeXData constructs the escaped template data from a document
func buildLaTeXData(doc types.Resume) *LaTeXData {
	data := &LaTeXData{
		Name:    EscapeLaTeX(doc.Personal.FullName),
		Title:   EscapeLaTeX(doc.Personal.JobTitle),
		Email:   EscapeLaTeX(doc.Personal.Email),
		Phone:   EscapeLaTeX(doc.Personal.Phone),
		Address: EscapeLaTeX(doc.Personal.Address),
		Summary: EscapeLaTeX(doc.Personal.Summary),
		Accent:  LaTeXColor(doc.ThemeColor),
	}

	for _, e := range doc.Experience {
		data.Experience = append(data.Experience, LaTeXExperience{
			Company: EscapeLaTeX(e.Company),
			Role:    EscapeLaTeX(e.Role),
			Date:    EscapeLaTeX(e.Date),
			Bullets: BulletLines(e.Description),
		})
	}

	for _, e := range doc.Education {
		data.Education = append(data.Education, LaTeXEducation{
			School: EscapeLaTeX(e.School),
			Degree: EscapeLaTeX(e.Degree),
			Date:   EscapeLaTeX(e.Date),
		})
	}

	for _, s := range SkillTokens(doc.Skills) {
		data.Skills = append(data.Skills, EscapeLaTeX(s))
	}

	return data
}
