package domain

import "time"

type ProjectLink struct {
	Name         string   `json:"name" binding:"required"`
	URL          string   `json:"url" binding:"required"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

// Profile is the public face of a user; one per user.
type Profile struct {
	Meta
	User         string        `json:"user"`
	Avatar       string        `json:"avatar,omitempty"`
	Bio          string        `json:"bio,omitempty"`
	Posts        int           `json:"posts"`
	Followers    int           `json:"followers"`
	Following    int           `json:"following"`
	Skills       []string      `json:"skills"`
	ProjectLinks []ProjectLink `json:"projectLinks" binding:"dive"`
}

// Project is a community project showcase.
type Project struct {
	Meta
	ProjectName string   `json:"projectName" binding:"required"`
	Description string   `json:"description" binding:"required"`
	ProjectLink string   `json:"projectLink" binding:"required"`
	TechStack   []string `json:"techStack"`
}

func (p *Project) Normalize() {
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
}

// Entry is a free-form participation entry.
type Entry struct {
	Meta
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

type Feedback struct {
	Meta
	User       string     `json:"user,omitempty"`
	Name       string     `json:"name" binding:"required"`
	Email      string     `json:"email" binding:"required,email"`
	Subject    string     `json:"subject" binding:"required"`
	Message    string     `json:"message" binding:"required"`
	Category   string     `json:"category" binding:"omitempty,oneof=bug feature suggestion complaint praise other"`
	Status     string     `json:"status" binding:"omitempty,oneof=new read in-progress resolved archived"`
	Priority   string     `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AdminNotes string     `json:"adminNotes,omitempty"`
	ResolvedBy string     `json:"resolvedBy,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

func (f *Feedback) Normalize() {
	if f.Category == "" {
		f.Category = "other"
	}
	if f.Status == "" {
		f.Status = "new"
	}
	if f.Priority == "" {
		f.Priority = "medium"
	}
}
