package domain

import "github.com/samber/lo"

// Listing is a curated directory entry (API, tool, topic, roadmap).
type Listing interface {
	Entity
	ListingCategory() string
	ListingText() (title, body string)
}

// Attributed records which user added a listing.
type Attributed interface {
	AddedByID() string
	SetAddedBy(userID string)
}

// Normalizer fills defaults before a document is validated and stored.
type Normalizer interface {
	Normalize()
}

type API struct {
	Meta
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description" binding:"required"`
	URL           string `json:"url" binding:"required,url"`
	Category      string `json:"category" binding:"required,oneof=weather location news media finance social developer text ai communication ecommerce analytics entertainment utility"`
	Method        string `json:"method" binding:"omitempty,oneof=GET POST PUT DELETE PATCH"`
	AuthRequired  bool   `json:"authRequired"`
	Free          *bool  `json:"free"`
	Rating        int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Documentation string `json:"documentation,omitempty"`
	ExampleCode   string `json:"exampleCode,omitempty"`
	IsActive      *bool  `json:"isActive"`
	AddedBy       string `json:"addedBy,omitempty"`
}

func (a *API) Normalize() {
	if a.Method == "" {
		a.Method = "GET"
	}
	a.Free = defaultTrue(a.Free)
	a.IsActive = defaultTrue(a.IsActive)
}

func (a *API) AddedByID() string { return a.AddedBy }
func (a *API) SetAddedBy(userID string) { a.AddedBy = userID }

func (a *API) ListingCategory() string { return a.Category }

func (a *API) ListingText() (string, string) { return a.Name, a.Description }

type Tool struct {
	Meta
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description" binding:"required"`
	URL           string `json:"url" binding:"required,url"`
	Category      string `json:"category" binding:"required,oneof=editor version-control api database design testing deployment package-manager documentation performance code-quality"`
	Free          *bool  `json:"free"`
	Rating        int    `json:"rating,omitempty" binding:"omitempty,min=1,max=5"`
	Popular       bool   `json:"popular"`
	Documentation string `json:"documentation,omitempty"`
	IsActive      *bool  `json:"isActive"`
	AddedBy       string `json:"addedBy,omitempty"`
}

func (t *Tool) Normalize() {
	t.Free = defaultTrue(t.Free)
	t.IsActive = defaultTrue(t.IsActive)
}

func (t *Tool) AddedByID() string { return t.AddedBy }
func (t *Tool) SetAddedBy(userID string) { t.AddedBy = userID }

func (t *Tool) ListingCategory() string { return t.Category }

func (t *Tool) ListingText() (string, string) { return t.Name, t.Description }

type Lesson struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Duration string `json:"duration,omitempty"`
	Order    int    `json:"order"`
}

type Topic struct {
	Meta
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required,oneof=programming web-development mobile-development data-science ai-ml devops design other"`
	Lessons     []Lesson `json:"lessons" binding:"dive"`
	IsActive    *bool    `json:"isActive"`
	AddedBy     string   `json:"addedBy,omitempty"`
}

func (t *Topic) Normalize() {
	t.IsActive = defaultTrue(t.IsActive)
	if t.Lessons == nil {
		t.Lessons = []Lesson{}
	}
}

func (t *Topic) AddedByID() string { return t.AddedBy }
func (t *Topic) SetAddedBy(userID string) { t.AddedBy = userID }

func (t *Topic) ListingCategory() string { return t.Category }

func (t *Topic) ListingText() (string, string) {
	titles := lo.Map(t.Lessons, func(l Lesson, _ int) string { return l.Title })
	return t.Name, joinText(t.Description, titles)
}

type RoadmapStep struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Resources   []string `json:"resources,omitempty"`
	Order       int      `json:"order"`
}

type Roadmap struct {
	Meta
	Title             string        `json:"title" binding:"required"`
	Description       string        `json:"description" binding:"required"`
	Category          string        `json:"category" binding:"required,oneof=development design data-science ai-ml devops mobile web other"`
	Steps             []RoadmapStep `json:"steps" binding:"dive"`
	EstimatedDuration string        `json:"estimatedDuration,omitempty"`
	Difficulty        string        `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	IsActive          *bool         `json:"isActive"`
	AddedBy           string        `json:"addedBy,omitempty"`
}

func (r *Roadmap) Normalize() {
	if r.Difficulty == "" {
		r.Difficulty = "beginner"
	}
	r.IsActive = defaultTrue(r.IsActive)
	if r.Steps == nil {
		r.Steps = []RoadmapStep{}
	}
}

func (r *Roadmap) AddedByID() string { return r.AddedBy }
func (r *Roadmap) SetAddedBy(userID string) { r.AddedBy = userID }

func (r *Roadmap) ListingCategory() string { return r.Category }

func (r *Roadmap) ListingText() (string, string) {
	titles := lo.Map(r.Steps, func(s RoadmapStep, _ int) string { return s.Title })
	return r.Title, joinText(r.Description, titles)
}

func defaultTrue(b *bool) *bool {
	if b == nil {
		return lo.ToPtr(true)
	}
	return b
}

func joinText(head string, parts []string) string {
	out := head
	for _, p := range parts {
		out += "\n" + p
	}
	return out
}
