package rendering

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

//go:embed templates/*.html templates/*.tex
var templatesFS embed.FS

// RegionID names one display region of the preview.
type RegionID string

// Preview regions, addressed in the page by "preview-<id>".
const (
	RegionHeader     RegionID = "header"
	RegionContact    RegionID = "contact"
	RegionSummary    RegionID = "summary"
	RegionExperience RegionID = "experience"
	RegionEducation  RegionID = "education"
	RegionSkills     RegionID = "skills"
)

// RegionOrder is the top-to-bottom order of the preview regions.
var RegionOrder = []RegionID{
	RegionHeader,
	RegionContact,
	RegionSummary,
	RegionExperience,
	RegionEducation,
	RegionSkills,
}

// Region is the rendered content of one display region.
type Region struct {
	ID     RegionID      `json:"id"`
	Hidden bool          `json:"hidden"`
	HTML   template.HTML `json:"html"`
}

// Preview is the complete visible projection of a document.
type Preview struct {
	ThemeColor string   `json:"themeColor"`
	Regions    []Region `json:"regions"`
}

// Region returns the region with the given ID.
func (p *Preview) Region(id RegionID) (Region, bool) {
	for _, r := range p.Regions {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// Renderer holds the parsed HTML templates. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded HTML templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("resume").Funcs(template.FuncMap{
		"regionID": func(id RegionID) string { return "preview-" + string(id) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, &TemplateError{Name: "templates/*.html", Message: "failed to parse templates", Cause: err}
	}
	return &Renderer{tmpl: tmpl}, nil
}

type contactItem struct {
	Icon string
	Text string
}

type headerView struct {
	Name  string
	Title string
	Theme string
}

type experienceView struct {
	Entries []types.ExperienceEntry
	Theme   string
}

// Preview renders every region of doc. The result depends only on doc.
func (r *Renderer) Preview(doc types.Resume) (*Preview, error) {
	p := &Preview{ThemeColor: doc.ThemeColor, Regions: make([]Region, 0, len(RegionOrder))}

	for _, id := range RegionOrder {
		data, hidden := regionData(id, doc)
		region := Region{ID: id, Hidden: hidden}
		if !hidden {
			var buf bytes.Buffer
			if err := r.tmpl.ExecuteTemplate(&buf, "region-"+string(id), data); err != nil {
				return nil, &RenderError{Region: id, Message: "failed to execute region template", Cause: err}
			}
			region.HTML = template.HTML(buf.String()) //nolint:gosec // produced by html/template
		}
		p.Regions = append(p.Regions, region)
	}

	return p, nil
}

// regionData selects the view data for one region and whether the region is hidden.
func regionData(id RegionID, doc types.Resume) (any, bool) {
	switch id {
	case RegionHeader:
		return headerView{Name: doc.Personal.FullName, Title: doc.Personal.JobTitle, Theme: doc.ThemeColor}, false
	case RegionContact:
		return contactItems(doc.Personal), false
	case RegionSummary:
		return doc.Personal.Summary, doc.Personal.Summary == ""
	case RegionExperience:
		return experienceView{Entries: doc.Experience, Theme: doc.ThemeColor}, len(doc.Experience) == 0
	case RegionEducation:
		return doc.Education, len(doc.Education) == 0
	case RegionSkills:
		return SkillTokens(doc.Skills), doc.Skills == ""
	default:
		return nil, true
	}
}

func contactItems(p types.PersonalInfo) []contactItem {
	items := make([]contactItem, 0, 3)
	if p.Email != "" {
		items = append(items, contactItem{Icon: "mail", Text: p.Email})
	}
	if p.Phone != "" {
		items = append(items, contactItem{Icon: "phone", Text: p.Phone})
	}
	if p.Address != "" {
		items = append(items, contactItem{Icon: "map-pin", Text: p.Address})
	}
	return items
}

// SkillTokens splits the skills text on commas and trims each token.
// Tokens are neither deduplicated nor filtered.
func SkillTokens(skills string) []string {
	if skills == "" {
		return nil
	}
	parts := strings.Split(skills, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// PageData is the view model of the editor page.
type PageData struct {
	SessionID string
	Resume    types.Resume
	Preview   *Preview
	Swatches  []Swatch
	Assist    AssistLabels
}

// Swatch is one palette button.
type Swatch struct {
	Color    string
	Selected bool
}

// ButtonLabel is the text of an assist button while idle and while its request is in flight.
type ButtonLabel struct {
	Idle string
	Busy string
}

// AssistLabels are the button labels of the three assist actions.
type AssistLabels struct {
	Summary ButtonLabel
	Polish  ButtonLabel
	Skills  ButtonLabel
}

// NewPageData assembles the editor view model for a session.
func NewPageData(sessionID string, doc types.Resume, preview *Preview, labels AssistLabels) PageData {
	swatches := make([]Swatch, len(types.Palette))
	for i, c := range types.Palette {
		swatches[i] = Swatch{Color: c, Selected: c == doc.ThemeColor}
	}
	return PageData{
		SessionID: sessionID,
		Resume:    doc,
		Preview:   preview,
		Swatches:  swatches,
		Assist:    labels,
	}
}

// Page writes the full editor page.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", data); err != nil {
		return &RenderError{Message: "failed to execute page template", Cause: err}
	}
	return nil
}

// ExperienceInputs writes the experience input blocks of the editor.
func (r *Renderer) ExperienceInputs(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "experience-inputs", data); err != nil {
		return &RenderError{Region: RegionExperience, Message: "failed to execute inputs template", Cause: err}
	}
	return nil
}

// EducationInputs writes the education input blocks of the editor.
func (r *Renderer) EducationInputs(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "education-inputs", data); err != nil {
		return &RenderError{Region: RegionEducation, Message: "failed to execute inputs template", Cause: err}
	}
	return nil
}

// Printable writes a standalone page holding only the visible preview regions.
func (r *Renderer) Printable(w io.Writer, doc types.Resume) error {
	preview, err := r.Preview(doc)
	if err != nil {
		return err
	}
	if err := r.tmpl.ExecuteTemplate(w, "printable", preview); err != nil {
		return &RenderError{Message: "failed to execute printable template", Cause: err}
	}
	return nil
}
