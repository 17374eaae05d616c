package http

import (
	"time"

	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/search"
	"github.com/dkeye/devcircle/internal/storage"
	"github.com/gin-gonic/gin"
)

func directory[T any, P interface {
	*T
	domain.Listing
}](coll *storage.Collection[T, P], ix *search.Index) *Resource[T, P] {
	return &Resource[T, P]{
		Coll:  coll,
		Index: ix,
		BeforeCreate: func(c *gin.Context, doc P) {
			if u := currentUser(c); u != nil {
				if a, ok := any(doc).(domain.Attributed); ok {
					a.SetAddedBy(u.ID)
				}
			}
		},
		BeforeUpdate: func(c *gin.Context, old, doc P) {
			if a, ok := any(doc).(domain.Attributed); ok {
				a.SetAddedBy(any(old).(domain.Attributed).AddedByID())
			}
		},
	}
}

func feedbackResource(store *storage.Store) *Resource[domain.Feedback, *domain.Feedback] {
	return &Resource[domain.Feedback, *domain.Feedback]{
		Coll: store.Feedback,
		Filter: func(c *gin.Context) func(*domain.Feedback) bool {
			status, category, priority := c.Query("status"), c.Query("category"), c.Query("priority")
			return func(f *domain.Feedback) bool {
				return (status == "" || f.Status == status) &&
					(category == "" || f.Category == category) &&
					(priority == "" || f.Priority == priority)
			}
		},
		// submitters cannot triage their own feedback
		BeforeCreate: func(c *gin.Context, f *domain.Feedback) {
			f.Status = "new"
			f.AdminNotes, f.ResolvedBy, f.ResolvedAt = "", "", nil
			f.User = ""
			if u := currentUser(c); u != nil {
				f.User = u.ID
			}
		},
		BeforeUpdate: func(c *gin.Context, old, f *domain.Feedback) {
			f.User = old.User
			if f.Status != "resolved" {
				f.ResolvedBy, f.ResolvedAt = "", nil
				return
			}
			if old.Status != "resolved" {
				now := time.Now().UTC()
				f.ResolvedAt = &now
				if u := currentUser(c); u != nil {
					f.ResolvedBy = u.ID
				}
			}
		},
	}
}
