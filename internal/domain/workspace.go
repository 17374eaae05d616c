package domain

import (
	"slices"

	"github.com/samber/lo"
)

type IdeFile struct {
	Name     string `json:"name" binding:"required"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// IdeProject is a browser IDE workspace. Collaborators edit it live through the relay;
// the stored files are only what clients explicitly save.
type IdeProject struct {
	Meta
	Owner         string    `json:"owner"`
	Name          string    `json:"name" binding:"required"`
	Files         []IdeFile `json:"files" binding:"dive"`
	ActiveFile    string    `json:"activeFile"`
	Collaborators []string  `json:"collaborators"`
}

func (p *IdeProject) Normalize() {
	if p.Files == nil {
		p.Files = []IdeFile{}
	}
	for i := range p.Files {
		if p.Files[i].Language == "" {
			p.Files[i].Language = "plaintext"
		}
	}
	if p.Collaborators == nil {
		p.Collaborators = []string{}
	}
}

func (p *IdeProject) IsMember(userID string) bool {
	return p.Owner == userID || slices.Contains(p.Collaborators, userID)
}

// AddCollaborator reports whether userID was newly added.
func (p *IdeProject) AddCollaborator(userID string) bool {
	if p.IsMember(userID) {
		return false
	}
	p.Collaborators = append(p.Collaborators, userID)
	return true
}

type TrackProgress struct {
	Track             string   `json:"track"`
	CompletedTopicIDs []string `json:"completedTopicIds"`
}

// LearningProgress is one per user.
type LearningProgress struct {
	Meta
	User   string          `json:"user"`
	Tracks []TrackProgress `json:"tracks"`
}

func NewLearningProgress(userID string) *LearningProgress {
	return &LearningProgress{User: userID, Tracks: []TrackProgress{}}
}

// Complete marks topicID done on track and reports whether anything changed.
func (lp *LearningProgress) Complete(track, topicID string) bool {
	for i := range lp.Tracks {
		if lp.Tracks[i].Track != track {
			continue
		}
		if slices.Contains(lp.Tracks[i].CompletedTopicIDs, topicID) {
			return false
		}
		lp.Tracks[i].CompletedTopicIDs = append(lp.Tracks[i].CompletedTopicIDs, topicID)
		return true
	}
	lp.Tracks = append(lp.Tracks, TrackProgress{Track: track, CompletedTopicIDs: []string{topicID}})
	return true
}

// Uncomplete removes topicID from track and reports whether anything changed.
func (lp *LearningProgress) Uncomplete(track, topicID string) bool {
	for i := range lp.Tracks {
		if lp.Tracks[i].Track != track {
			continue
		}
		before := len(lp.Tracks[i].CompletedTopicIDs)
		lp.Tracks[i].CompletedTopicIDs = lo.Without(lp.Tracks[i].CompletedTopicIDs, topicID)
		return len(lp.Tracks[i].CompletedTopicIDs) != before
	}
	return false
}
