package rendering

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func seededResume() types.Resume {
	doc := types.ExampleResume()
	doc.Experience[0].ID = "exp-1"
	doc.Education[0].ID = "edu-1"
	return doc
}

func regionDoc(t *testing.T, p *Preview, id RegionID) (*goquery.Document, Region) {
	t.Helper()
	region, ok := p.Region(id)
	require.True(t, ok, "region %s missing", id)
	d, err := goquery.NewDocumentFromReader(strings.NewReader(string(region.HTML)))
	require.NoError(t, err)
	return d, region
}

func TestPreview_RegionOrder(t *testing.T) {
	p, err := newTestRenderer(t).Preview(seededResume())
	require.NoError(t, err)

	require.Len(t, p.Regions, len(RegionOrder))
	for i, id := range RegionOrder {
		assert.Equal(t, id, p.Regions[i].ID)
	}
	assert.Equal(t, types.DefaultThemeColor, p.ThemeColor)
}

func TestPreview_Idempotent(t *testing.T) {
	r := newTestRenderer(t)
	doc := seededResume()

	first, err := r.Preview(doc)
	require.NoError(t, err)
	second, err := r.Preview(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPreview_DoesNotMutateDocument(t *testing.T) {
	doc := seededResume()
	before := doc.Clone()

	_, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)
	assert.Equal(t, before, doc)
}

func TestPreview_Header(t *testing.T) {
	doc := seededResume()
	doc.ThemeColor = "#dc2626"

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	d, region := regionDoc(t, p, RegionHeader)
	assert.False(t, region.Hidden)
	assert.Equal(t, "Alex Morgan", d.Find("#preview-name").Text())
	assert.Equal(t, "Senior Product Designer", d.Find("#preview-title").Text())

	style, _ := d.Find("#preview-name").Attr("style")
	assert.Contains(t, style, "#dc2626")
	border, _ := d.Find("#preview-header-border").Attr("style")
	assert.Contains(t, border, "#dc2626")
}

func TestPreview_ContactItems(t *testing.T) {
	doc := seededResume()
	doc.Personal.Phone = ""

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	d, region := regionDoc(t, p, RegionContact)
	assert.False(t, region.Hidden)

	items := d.Find(".contact-item")
	require.Equal(t, 2, items.Length())
	assert.Contains(t, items.Eq(0).Text(), "alex@example.com")
	icon, _ := items.Eq(1).Find(".icon").Attr("data-icon")
	assert.Equal(t, "map-pin", icon)
}

func TestPreview_ContactNeverHidden(t *testing.T) {
	doc := seededResume()
	doc.Personal.Email, doc.Personal.Phone, doc.Personal.Address = "", "", ""

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	_, region := regionDoc(t, p, RegionContact)
	assert.False(t, region.Hidden)
	assert.Empty(t, strings.TrimSpace(string(region.HTML)))
}

func TestPreview_SummaryVisibility(t *testing.T) {
	r := newTestRenderer(t)

	doc := seededResume()
	doc.Personal.Summary = ""
	p, err := r.Preview(doc)
	require.NoError(t, err)
	_, region := regionDoc(t, p, RegionSummary)
	assert.True(t, region.Hidden)
	assert.Empty(t, region.HTML)

	doc.Personal.Summary = "Designer"
	p, err = r.Preview(doc)
	require.NoError(t, err)
	d, region := regionDoc(t, p, RegionSummary)
	assert.False(t, region.Hidden)
	assert.Equal(t, "Designer", d.Find("#preview-summary-text").Text())
}

func TestPreview_ExperienceEntries(t *testing.T) {
	doc := seededResume()
	doc.ThemeColor = "#7c3aed"
	doc.Experience = append(doc.Experience, types.ExperienceEntry{ID: "exp-2", Company: "Acme", Role: "Intern"})

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	d, _ := regionDoc(t, p, RegionExperience)
	entries := d.Find(".entry")
	require.Equal(t, 2, entries.Length())

	first := entries.Eq(0)
	id, _ := first.Attr("data-entry")
	assert.Equal(t, "exp-1", id)
	assert.Equal(t, "Senior Designer", first.Find(".role").Text())
	assert.Equal(t, "2021 - Present", first.Find(".date").Text())
	assert.Equal(t, "TechFlow", first.Find(".company").Text())
	assert.Equal(t, "• Led design system overhaul.\n• Increased user retention by 20%.", first.Find(".description").Text())

	companyStyle, _ := first.Find(".company").Attr("style")
	assert.Contains(t, companyStyle, "#7c3aed")
	descStyle, _ := first.Find(".description").Attr("style")
	assert.Contains(t, descStyle, "pre-line")
}

func TestPreview_EmptyListsHidden(t *testing.T) {
	doc := seededResume()
	doc.Experience = nil
	doc.Education = []types.EducationEntry{}

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	exp, _ := p.Region(RegionExperience)
	edu, _ := p.Region(RegionEducation)
	assert.True(t, exp.Hidden)
	assert.True(t, edu.Hidden)
}

func TestPreview_Education(t *testing.T) {
	p, err := newTestRenderer(t).Preview(seededResume())
	require.NoError(t, err)

	d, _ := regionDoc(t, p, RegionEducation)
	assert.Equal(t, "NYU", d.Find(".school").Text())
	assert.Equal(t, "B.A. Design", d.Find(".degree").Text())
	assert.Equal(t, "2017 - 2021", d.Find(".date").Text())
}

func TestPreview_SkillChips(t *testing.T) {
	doc := seededResume()
	doc.Skills = "Figma, React,  HTML "

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	d, region := regionDoc(t, p, RegionSkills)
	assert.False(t, region.Hidden)

	var chips []string
	d.Find(".chip").Each(func(_ int, s *goquery.Selection) {
		chips = append(chips, s.Text())
	})
	assert.Equal(t, []string{"Figma", "React", "HTML"}, chips)
}

func TestPreview_SkillsHiddenWhenEmpty(t *testing.T) {
	doc := seededResume()
	doc.Skills = ""

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	_, region := regionDoc(t, p, RegionSkills)
	assert.True(t, region.Hidden)
}

func TestPreview_EscapesUserText(t *testing.T) {
	doc := seededResume()
	doc.Personal.FullName = `<script>alert("x")</script>`

	p, err := newTestRenderer(t).Preview(doc)
	require.NoError(t, err)

	header, _ := p.Region(RegionHeader)
	assert.NotContains(t, string(header.HTML), "<script>")

	d, _ := regionDoc(t, p, RegionHeader)
	assert.Equal(t, `<script>alert("x")</script>`, d.Find("#preview-name").Text())
}

func TestSkillTokens(t *testing.T) {
	assert.Nil(t, SkillTokens(""))
	assert.Equal(t, []string{"Go"}, SkillTokens("Go"))
	assert.Equal(t, []string{"Go", "", "SQL"}, SkillTokens("Go,,SQL"))
	assert.Equal(t, []string{""}, SkillTokens("   "))
}

func TestPage_RendersEditorAndPreview(t *testing.T) {
	r := newTestRenderer(t)
	doc := seededResume()
	p, err := r.Preview(doc)
	require.NoError(t, err)

	labels := AssistLabels{
		Summary: ButtonLabel{Idle: "Draft", Busy: "Thinking..."},
		Polish:  ButtonLabel{Idle: "Polish", Busy: "..."},
		Skills:  ButtonLabel{Idle: "Suggest", Busy: "..."},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, NewPageData("sess-1", doc, p, labels)))

	d, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	session, _ := d.Find("body").Attr("data-session")
	assert.Equal(t, "sess-1", session)
	assert.Equal(t, len(types.Palette), d.Find("#color-picker .swatch").Length())
	assert.Equal(t, 1, d.Find("#color-picker .swatch.selected").Length())

	name, _ := d.Find("#input-fullname").Attr("value")
	assert.Equal(t, "Alex Morgan", name)

	for _, id := range RegionOrder {
		assert.Equal(t, 1, d.Find("#preview-"+string(id)).Length(), "region %s", id)
	}

	busy, _ := d.Find(`button[data-assist="summary"]`).Attr("data-busy")
	assert.Equal(t, "Thinking...", busy)
	assert.Equal(t, 1, d.Find(`button[data-assist="polish"][data-entry="exp-1"]`).Length())
}

func TestPage_HiddenRegionsCarryClass(t *testing.T) {
	r := newTestRenderer(t)
	doc := seededResume()
	doc.Personal.Summary = ""
	p, err := r.Preview(doc)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, NewPageData("s", doc, p, AssistLabels{})))

	d, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.True(t, d.Find("#preview-summary").HasClass("hidden"))
	assert.False(t, d.Find("#preview-header").HasClass("hidden"))
}

func TestExperienceInputs(t *testing.T) {
	r := newTestRenderer(t)
	doc := seededResume()
	doc.Experience = append(doc.Experience, types.ExperienceEntry{ID: "exp-2", Description: types.NewExperienceDescription})

	var buf bytes.Buffer
	require.NoError(t, r.ExperienceInputs(&buf, NewPageData("s", doc, nil, AssistLabels{})))

	d, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	blocks := d.Find(".entry-inputs")
	require.Equal(t, 2, blocks.Length())
	entry, _ := blocks.Eq(1).Attr("data-entry")
	assert.Equal(t, "exp-2", entry)
	assert.Equal(t, types.NewExperienceDescription, blocks.Eq(1).Find(`textarea[data-field="description"]`).Text())
}

func TestEducationInputs(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	require.NoError(t, r.EducationInputs(&buf, NewPageData("s", seededResume(), nil, AssistLabels{})))

	d, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)

	school, _ := d.Find(`input[data-field="school"]`).Attr("value")
	assert.Equal(t, "NYU", school)
}

func TestPrintable_OmitsHiddenRegions(t *testing.T) {
	r := newTestRenderer(t)
	doc := seededResume()
	doc.Personal.Summary = ""

	var buf bytes.Buffer
	require.NoError(t, r.Printable(&buf, doc))

	d, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Find("#preview-summary").Length())
	assert.Equal(t, 1, d.Find("#preview-experience").Length())
	assert.Equal(t, "Alex Morgan", d.Find("#preview-name").Text())
}
