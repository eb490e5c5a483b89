package domain

import (
	"fmt"
	"strings"
)

// Resume is a candidate profile extracted from a resume document.
type Resume struct {
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone"`
	Location       string             `json:"location"`
	Summary        string             `json:"summary"`
	Skills         []string           `json:"skills"`
	Experience     []ResumeExperience `json:"experience"`
	Education      []ResumeEducation  `json:"education"`
	Certifications []string           `json:"certifications"`
	Languages      []string           `json:"languages"`
	Projects       []ResumeProject    `json:"projects"`
}

// ResumeExperience is one employment entry.
type ResumeExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

// ResumeEducation is one education entry.
type ResumeEducation struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        string `json:"year,omitempty"`
}

// ResumeProject is one project entry.
type ResumeProject struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// QueryText builds the search text for a resume.
func (r Resume) QueryText() string {
	var parts []string
	add := func(s string) {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}

	if r.Name != "" {
		add("Name: " + r.Name)
	}
	if r.Summary != "" {
		add("Summary: " + r.Summary)
	}
	if skills := joinNonEmpty(r.Skills, ", "); skills != "" {
		add("Skills: " + skills)
	}
	for _, e := range r.Experience {
		add(fmt.Sprintf("Experience: %s at %s - %s", e.Title, e.Company, e.Description))
	}
	for _, e := range r.Education {
		add(fmt.Sprintf("Education: %s from %s", e.Degree, e.Institution))
	}
	if certs := joinNonEmpty(r.Certifications, ", "); certs != "" {
		add("Certifications: " + certs)
	}
	for _, p := range r.Projects {
		add(fmt.Sprintf("Project: %s - %s", p.Name, p.Description))
	}

	return strings.Join(parts, " | ")
}

// ResumeFromFields builds a Resume from a raw field map. Missing fields
// take their empty default and non-list values for list fields become
// empty lists.
func ResumeFromFields(fields map[string]any) Resume {
	r := Resume{
		Name:           stringField(fields, "name"),
		Email:          stringField(fields, "email"),
		Phone:          stringField(fields, "phone"),
		Location:       stringField(fields, "location"),
		Summary:        stringField(fields, "summary"),
		Skills:         strictList(fields, "skills"),
		Certifications: strictList(fields, "certifications"),
		Languages:      strictList(fields, "languages"),
		Experience:     []ResumeExperience{},
		Education:      []ResumeEducation{},
		Projects:       []ResumeProject{},
	}

	for _, m := range objectList(fields, "experience") {
		r.Experience = append(r.Experience, ResumeExperience{
			Title:       stringField(m, "title", "position", "role"),
			Company:     stringField(m, "company", "organization"),
			Duration:    stringField(m, "duration", "dates"),
			Description: stringField(m, "description"),
		})
	}
	for _, m := range objectList(fields, "education") {
		r.Education = append(r.Education, ResumeEducation{
			Degree:      stringField(m, "degree"),
			Institution: stringField(m, "institution", "school"),
			Year:        stringField(m, "year", "graduation_year"),
		})
	}
	if items, ok := fields["projects"].([]any); ok {
		for _, item := range items {
			switch p := item.(type) {
			case map[string]any:
				r.Projects = append(r.Projects, ResumeProject{
					Name:         stringField(p, "name", "title"),
					Description:  stringField(p, "description"),
					Technologies: listField(p, "technologies"),
				})
			case string:
				if s := strings.TrimSpace(p); s != "" {
					r.Projects = append(r.Projects, ResumeProject{Name: s})
				}
			}
		}
	}
	return r
}

// strictList only accepts list values; anything else becomes empty.
func strictList(fields map[string]any, key string) []string {
	switch fields[key].(type) {
	case []any, []string:
		return listField(fields, key)
	default:
		return []string{}
	}
}

func objectList(fields map[string]any, key string) []map[string]any {
	items, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
