package content

import (
	"encoding/json"
	"errors"
	"time"
)

// Kind discriminates the five ordered resource collections that share the
// content_items table.
type Kind string

const (
	KindProject       Kind = "project"
	KindSkill         Kind = "skill"
	KindExperience    Kind = "experience"
	KindEducation     Kind = "education"
	KindCertification Kind = "certification"
)

func (k Kind) Valid() bool {
	switch k {
	case KindProject, KindSkill, KindExperience, KindEducation, KindCertification:
		return true
	}
	return false
}

// AuditResource is the tag stamped on audit log entries for this kind.
func (k Kind) AuditResource() string {
	switch k {
	case KindProject:
		return "PROJECT"
	case KindSkill:
		return "SKILL"
	case KindExperience:
		return "EXPERIENCE"
	case KindEducation:
		return "EDUCATION"
	case KindCertification:
		return "CERTIFICATION"
	}
	return "CONTENT"
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

var (
	ErrNotFound  = errors.New("content not found")
	ErrSlugTaken = errors.New("slug already in use")
)

// Item is one record of any kind. The kind-specific fields live in Attrs as a
// JSON document; Order/Visibility/Status/Slug/Views are the shared envelope the
// repository can filter and sort on.
type Item struct {
	ID         string
	Kind       Kind
	Order      int
	Visibility bool
	Status     Status // projects only; published for every other kind
	Slug       string // projects only
	Views      int64  // projects only
	Attrs      json.RawMessage
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MarshalJSON flattens Attrs next to the envelope fields so responses keep the
// document shape clients expect.
func (it Item) MarshalJSON() ([]byte, error) {
	m := map[string]any{}

	if len(it.Attrs) > 0 {
		if err := json.Unmarshal(it.Attrs, &m); err != nil {
			return nil, err
		}
	}

	m["id"] = it.ID
	m["order"] = it.Order
	m["visibility"] = it.Visibility
	m["createdBy"] = it.CreatedBy
	m["createdAt"] = it.CreatedAt
	m["updatedAt"] = it.UpdatedAt

	if it.Kind == KindProject {
		m["slug"] = it.Slug
		m["status"] = it.Status
		m["metrics"] = map[string]any{"views": it.Views}
	}

	return json.Marshal(m)
}

// Patch carries a partial update. Nil envelope fields keep their current
// values; Attrs (if non-empty) is merged field-wise into the stored document.
type Patch struct {
	Order      *int
	Visibility *bool
	Status     *Status
	Attrs      json.RawMessage
}

func (p Patch) Empty() bool {
	return p.Order == nil && p.Visibility == nil && p.Status == nil && len(p.Attrs) == 0
}

// ListFilter narrows a listing. VisibleOnly/PublishedOnly are the hard caps
// applied to non-admin callers; Visibility/Status are explicit admin filters.
type ListFilter struct {
	VisibleOnly   bool
	PublishedOnly bool
	Visibility    *bool
	Status        *Status
	Category      string
	Featured      *bool
	Search        string
	Limit         int
	Offset        int
}

// Per-kind attribute schemas, validated on create.

type SkillAttrs struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required,oneof=backend frontend database devops ai-ml tools other"`
	Proficiency string `json:"proficiency" binding:"required,oneof=beginner intermediate advanced expert"`
	Icon        string `json:"icon,omitempty"`
}

type ProjectAttrs struct {
	Title            string   `json:"title" binding:"required"`
	ShortDescription string   `json:"shortDescription" binding:"required"`
	Description      string   `json:"description" binding:"required"`
	Technologies     []string `json:"technologies,omitempty"`
	Category         string   `json:"category" binding:"required,oneof=web mobile backend ai-ml opensource other"`
	Images           []string `json:"images,omitempty"`
	LiveURL          string   `json:"liveUrl,omitempty" binding:"omitempty,url"`
	GithubURL        string   `json:"githubUrl,omitempty" binding:"omitempty,url"`
	Featured         bool     `json:"featured"`
}

type ExperienceAttrs struct {
	Company          string     `json:"company" binding:"required"`
	Position         string     `json:"position" binding:"required"`
	Location         string     `json:"location" binding:"required"`
	StartDate        time.Time  `json:"startDate" binding:"required"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	Current          bool       `json:"current"`
	Description      string     `json:"description" binding:"required"`
	Responsibilities []string   `json:"responsibilities,omitempty"`
	Achievements     []string   `json:"achievements,omitempty"`
	Technologies     []string   `json:"technologies,omitempty"`
}

type EducationAttrs struct {
	Institution string     `json:"institution" binding:"required"`
	Degree      string     `json:"degree" binding:"required"`
	Field       string     `json:"field" binding:"required"`
	Location    string     `json:"location" binding:"required"`
	StartDate   time.Time  `json:"startDate" binding:"required"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Current     bool       `json:"current"`
	Grade       string     `json:"grade,omitempty"`
	Description string     `json:"description,omitempty"`
}

type CertificationAttrs struct {
	Title         string     `json:"title" binding:"required"`
	Issuer        string     `json:"issuer" binding:"required"`
	IssueDate     time.Time  `json:"issueDate" binding:"required"`
	ExpiryDate    *time.Time `json:"expiryDate,omitempty"`
	CredentialID  string     `json:"credentialId,omitempty"`
	CredentialURL string     `json:"credentialUrl,omitempty" binding:"omitempty,url"`
	Image         string     `json:"image,omitempty"`
}
