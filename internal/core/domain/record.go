package domain

import (
	"fmt"
	"strings"
	"time"
)

// Record is a job posting kept in the record store.
// The store assigns ID; CreatedAt and UpdatedAt are stamped on write.
type Record struct {
	// ID is the store-assigned identifier (RecordId).
	ID string `json:"id,omitempty"`

	// Title is the job title.
	Title string `json:"job_title"`

	// Domain is the job domain (e.g. "Data Science").
	Domain string `json:"job_domain,omitempty"`

	Company    string `json:"company,omitempty"`
	Department string `json:"department,omitempty"`
	Location   string `json:"location,omitempty"`

	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`

	Responsibilities []string `json:"responsibilities"`
	Skills           []string `json:"required_skills"`
	Qualifications   []string `json:"qualifications"`

	ExperienceLevel string `json:"experience_level,omitempty"`
	EmploymentType  string `json:"employment_type,omitempty"`
	SalaryRange     string `json:"salary_range,omitempty"`

	// Metadata holds fields not covered by the schema.
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmbeddableText builds the text sent to the embedding provider.
// Fields appear in a fixed order and absent fields are skipped:
// title, domain, summary, responsibilities, skills, qualifications,
// experience level, company, location, employment type.
func (r Record) EmbeddableText() string {
	var parts []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			parts = append(parts, label+": "+v)
		}
	}

	add("Job Title", r.Title)
	add("Domain", r.Domain)
	add("Summary", r.Summary)
	add("Responsibilities", joinNonEmpty(r.Responsibilities, ". "))
	add("Required Skills", joinNonEmpty(r.Skills, ", "))
	add("Qualifications", joinNonEmpty(r.Qualifications, ". "))
	add("Experience Level", r.ExperienceLevel)
	add("Company", r.Company)
	add("Location", r.Location)
	add("Employment Type", r.EmploymentType)

	return strings.Join(parts, " | ")
}

// Payload returns the denormalised fields copied into the vector index.
// The index payload always carries record_id so points can be traced
// back to the record store.
func (r Record) Payload(recordID string) map[string]any {
	p := map[string]any{
		PayloadRecordID:    recordID,
		"title":            r.Title,
		"domain":           r.Domain,
		"company":          r.Company,
		"location":         r.Location,
		"department":       r.Department,
		"experience_level": r.ExperienceLevel,
		"employment_type":  r.EmploymentType,
		"skills":           append([]string{}, r.Skills...),
		"salary_range":     r.SalaryRange,
		"summary":          r.Summary,
	}
	if !r.CreatedAt.IsZero() {
		p["created_at"] = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

// Matches reports whether term occurs (case-insensitively) in the
// searchable text fields or any skill.
func (r Record) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range []string{r.Title, r.Company, r.Summary, r.Location, r.EmploymentType, r.ExperienceLevel} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	for _, s := range r.Skills {
		if strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

// Field aliases accepted by RecordFromFields, keyed by canonical name.
var recordFieldAliases = map[string][]string{
	"title":            {"job_title", "title"},
	"domain":           {"job_domain", "domain"},
	"company":          {"company", "company_name"},
	"department":       {"department"},
	"location":         {"location"},
	"summary":          {"summary"},
	"description":      {"description", "job_description"},
	"responsibilities": {"responsibilities"},
	"skills":           {"required_skills", "skills"},
	"qualifications":   {"qualifications"},
	"experience_level": {"experience_level", "experience"},
	"employment_type":  {"employment_type", "job_type"},
	"salary_range":     {"salary_range", "salary"},
	"id":               {"id", "_id", "job_id", "record_id"},
}

// RecordFromFields builds a Record from a raw field map, such as one
// decoded from JSON or produced by an LLM. Known aliases are accepted,
// list fields accept a single string, and absent or wrongly typed fields
// take their empty default. Unrecognised keys are kept in Metadata.
func RecordFromFields(fields map[string]any) Record {
	r := Record{
		ID:               stringField(fields, recordFieldAliases["id"]...),
		Title:            stringField(fields, recordFieldAliases["title"]...),
		Domain:           stringField(fields, recordFieldAliases["domain"]...),
		Company:          stringField(fields, recordFieldAliases["company"]...),
		Department:       stringField(fields, recordFieldAliases["department"]...),
		Location:         stringField(fields, recordFieldAliases["location"]...),
		Summary:          stringField(fields, recordFieldAliases["summary"]...),
		Description:      stringField(fields, recordFieldAliases["description"]...),
		Responsibilities: listField(fields, recordFieldAliases["responsibilities"]...),
		Skills:           listField(fields, recordFieldAliases["skills"]...),
		Qualifications:   listField(fields, recordFieldAliases["qualifications"]...),
		ExperienceLevel:  stringField(fields, recordFieldAliases["experience_level"]...),
		EmploymentType:   stringField(fields, recordFieldAliases["employment_type"]...),
		SalaryRange:      stringField(fields, recordFieldAliases["salary_range"]...),
	}

	known := make(map[string]bool)
	for _, keys := range recordFieldAliases {
		for _, k := range keys {
			known[k] = true
		}
	}
	known["created_at"] = true
	known["updated_at"] = true
	for k, v := range fields {
		if known[k] || v == nil {
			continue
		}
		if k == "metadata" {
			if m, ok := v.(map[string]any); ok {
				if r.Metadata == nil {
					r.Metadata = make(map[string]any, len(m))
				}
				for mk, mv := range m {
					r.Metadata[mk] = mv
				}
			}
			continue
		}
		if r.Metadata == nil {
			r.Metadata = make(map[string]any)
		}
		r.Metadata[k] = v
	}
	return r
}

// Normalise replaces nil list fields with empty lists.
func (r *Record) Normalise() {
	if r.Responsibilities == nil {
		r.Responsibilities = []string{}
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Qualifications == nil {
		r.Qualifications = []string{}
	}
}

func stringField(fields map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case float64, int, int64, bool:
			return fmt.Sprint(t)
		}
	}
	return ""
}

func listField(fields map[string]any, keys ...string) []string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case []string:
			return joinable(t)
		case []any:
			out := make([]string, 0, len(t))
			for _, item := range t {
				switch it := item.(type) {
				case string:
					if s := strings.TrimSpace(it); s != "" {
						out = append(out, s)
					}
				case float64, int, int64, bool:
					out = append(out, fmt.Sprint(it))
				}
			}
			return out
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return []string{s}
			}
		}
	}
	return []string{}
}

func joinable(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinNonEmpty(items []string, sep string) string {
	return strings.Join(joinable(items), sep)
}
