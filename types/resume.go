package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Resume is a user-owned structured CV.
type Resume struct {
	// ID is the unique identifier of the resume.
	ID int `json:"id" db:"id"`

	// UserID identifies the owner.
	UserID int `json:"userId" db:"user_id"`

	// Title names the resume; it is also the exported PDF's file name.
	Title string `json:"title" db:"title"`

	// Content is the free-form structured body, stored as a JSON object.
	// See ResumeContent for the sections understood by the PDF export.
	Content json.RawMessage `json:"content" db:"content"`

	// CreatedAt is the timestamp at which the resume was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent edit.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ResumeContent is the rendering view of Resume.Content. Every section is optional.
type ResumeContent struct {
	Profile    *ResumeProfile     `json:"profile,omitempty"`
	Education  []ResumeEducation  `json:"education,omitempty"`
	Experience []ResumeExperience `json:"experience,omitempty"`
	Skills     []ResumeSkill      `json:"skills,omitempty"`
	Projects   []ResumeProject    `json:"projects,omitempty"`
}

type ResumeProfile struct {
	Name     Text `json:"name"`
	Email    Text `json:"email"`
	Phone    Text `json:"phone"`
	Location Text `json:"location"`
	Summary  Text `json:"summary"`
}

type ResumeEducation struct {
	Degree      Text `json:"degree"`
	Institution Text `json:"institution"`
	Year        Text `json:"year"`
	Grade       Text `json:"grade"`
}

type ResumeExperience struct {
	Role        Text `json:"role"`
	Company     Text `json:"company"`
	Duration    Text `json:"duration"`
	Description Text `json:"description"`
}

type ResumeSkill struct {
	Name        Text `json:"name"`
	Proficiency Text `json:"proficiency"`
}

type ResumeProject struct {
	Title       Text `json:"title"`
	Description Text `json:"description"`
	TechStack   Text `json:"techStack"`
	Links       Text `json:"links"`
}

// Text is a string that also accepts JSON numbers, booleans and arrays of
// scalars (joined with ", "), since resume content is written by many clients.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case '[':
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item != "" {
				parts = append(parts, string(item))
			}
		}
		*t = Text(strings.Join(parts, ", "))
	case '{':
		*t = ""
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*t = Text(n.String())
			return nil
		}
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*t = Text(strconv.FormatBool(b))
	}
	return nil
}

// String returns the text value.
func (t Text) String() string {
	return string(t)
}

// ParseResumeContent decodes raw resume content for rendering.
func ParseResumeContent(raw json.RawMessage) (ResumeContent, error) {
	var content ResumeContent
	if len(bytes.TrimSpace(raw)) == 0 {
		return content, nil
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return ResumeContent{}, err
	}
	return content, nil
}

// ResumeUpdate carries a partial resume update. Nil fields are left untouched.
type ResumeUpdate struct {
	Title   *string         `json:"title"`
	Content json.RawMessage `json:"content"`
}
