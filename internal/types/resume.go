// Package types provides type definitions for the resume document and the request payloads
// used throughout the resume-builder system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Palette is the fixed set of accent colors offered by the editor.
var Palette = []string{"#2563eb", "#059669", "#dc2626", "#7c3aed", "#ea580c", "#0f172a"}

// DefaultThemeColor is the accent color used by new documents.
const DefaultThemeColor = "#2563eb"

// NewExperienceDescription is the description a freshly added experience entry starts with.
const NewExperienceDescription = "• "

// Resume is the in-memory document model: everything shown in the preview.
type Resume struct {
	Personal   PersonalInfo      `json:"personal"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`
	Skills     string            `json:"skills"`
	ThemeColor string            `json:"themeColor"`
}

// PersonalInfo holds the header, contact and summary fields.
type PersonalInfo struct {
	FullName string `json:"fullName"`
	JobTitle string `json:"jobTitle"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Summary  string `json:"summary"`
}

// ExperienceEntry is one job in the experience list.
type ExperienceEntry struct {
	ID          string `json:"id"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// EducationEntry is one school in the education list.
type EducationEntry struct {
	ID     string `json:"id"`
	School string `json:"school"`
	Degree string `json:"degree"`
	Date   string `json:"date"`
}

// IsPaletteColor reports whether color is one of the palette values.
func IsPaletteColor(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}

// ExampleResume returns the document every new session starts from.
// Entry IDs are left empty; the document layer assigns them.
func ExampleResume() Resume {
	return Resume{
		Personal: PersonalInfo{
			FullName: "Alex Morgan",
			JobTitle: "Senior Product Designer",
			Email:    "alex@example.com",
			Phone:    "(555) 123-4567",
			Address:  "New York, NY",
			Summary:  "Creative designer with 5 years of experience in building user-centric digital products.",
		},
		Experience: []ExperienceEntry{
			{
				Company:     "TechFlow",
				Role:        "Senior Designer",
				Date:        "2021 - Present",
				Description: "• Led design system overhaul.\n• Increased user retention by 20%.",
			},
		},
		Education: []EducationEntry{
			{
				School: "NYU",
				Degree: "B.A. Design",
				Date:   "2017 - 2021",
			},
		},
		Skills:     "Figma, React, HTML, CSS, Leadership",
		ThemeColor: DefaultThemeColor,
	}
}

// Clone returns a deep copy of the resume. Slices are never shared with the receiver.
func (r Resume) Clone() Resume {
	out := r
	out.Experience = make([]ExperienceEntry, len(r.Experience))
	copy(out.Experience, r.Experience)
	out.Education = make([]EducationEntry, len(r.Education))
	copy(out.Education, r.Education)
	return out
}
