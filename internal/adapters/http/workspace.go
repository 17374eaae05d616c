package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/storage"
	"github.com/gin-gonic/gin"
)

type workspaceHandlers struct {
	store *storage.Store
}

// member loads an IDE project the caller can see. Outsiders get ErrNotFound.
func (h workspaceHandlers) member(c *gin.Context) (*domain.IdeProject, bool) {
	id, ok := pathID(c, "id")
	if !ok {
		return nil, false
	}
	p, err := h.store.IdeProjects.Get(id)
	if err == nil && !p.IsMember(currentUser(c).ID) {
		err = domain.ErrNotFound
	}
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return p, true
}

func (h workspaceHandlers) list(c *gin.Context) {
	var page storage.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errInvalidQuery(err))
		return
	}
	uid := currentUser(c).ID
	docs, err := h.store.IdeProjects.List(func(p *domain.IdeProject) bool { return p.IsMember(uid) })
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, storage.Paginate(docs, page))
}

func (h workspaceHandlers) get(c *gin.Context) {
	if p, ok := h.member(c); ok {
		c.JSON(http.StatusOK, p)
	}
}

func (h workspaceHandlers) create(c *gin.Context) {
	var p domain.IdeProject
	if !bindJSON(c, &p) {
		return
	}
	p.Owner = currentUser(c).ID
	p.Collaborators = nil
	p.Normalize()
	if err := h.store.IdeProjects.Insert(&p); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, &p)
}

// update lets any member save files; ownership and membership are not editable here.
func (h workspaceHandlers) update(c *gin.Context) {
	p, ok := h.member(c)
	if !ok {
		return
	}
	meta, owner, collaborators := p.Meta, p.Owner, append([]string{}, p.Collaborators...)
	if !bindJSON(c, p) {
		return
	}
	p.Meta, p.Owner, p.Collaborators = meta, owner, collaborators
	p.Normalize()
	if err := h.store.IdeProjects.Replace(p); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h workspaceHandlers) remove(c *gin.Context) {
	p, ok := h.member(c)
	if !ok {
		return
	}
	if p.Owner != currentUser(c).ID {
		_ = c.Error(domain.ErrForbidden)
		return
	}
	if err := h.store.IdeProjects.Delete(p.ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

type collaboratorInput struct {
	UserID string `json:"userId" binding:"required"`
}

func (h workspaceHandlers) addCollaborator(c *gin.Context) {
	p, ok := h.member(c)
	if !ok {
		return
	}
	if p.Owner != currentUser(c).ID {
		_ = c.Error(domain.ErrForbidden)
		return
	}
	var in collaboratorInput
	if !bindJSON(c, &in) {
		return
	}
	uid, err := domain.ParseID(in.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if _, err := h.store.Users.Get(uid); err != nil {
		_ = c.Error(err)
		return
	}
	if p.AddCollaborator(uid) {
		if err := h.store.IdeProjects.Replace(p); err != nil {
			_ = c.Error(err)
			return
		}
	}
	c.JSON(http.StatusOK, p)
}

type progressHandlers struct {
	store *storage.Store
}

// load returns the caller's progress; a user who never completed anything gets an unsaved empty one.
func (h progressHandlers) load(c *gin.Context) (*domain.LearningProgress, bool, error) {
	uid := currentUser(c).ID
	lp, err := h.store.Progress.FindBy("user", uid)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewLearningProgress(uid), false, nil
	}
	return lp, err == nil, err
}

func (h progressHandlers) get(c *gin.Context) {
	lp, _, err := h.load(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, lp)
}

func (h progressHandlers) complete(c *gin.Context) {
	h.mark(c, (*domain.LearningProgress).Complete)
}

func (h progressHandlers) uncomplete(c *gin.Context) {
	h.mark(c, (*domain.LearningProgress).Uncomplete)
}

func (h progressHandlers) mark(c *gin.Context, apply func(*domain.LearningProgress, string, string) bool) {
	track, topic := c.Param("track"), c.Param("topicId")
	if track == "" || topic == "" {
		_ = c.Error(domain.ErrInvalidInput)
		return
	}
	lp, stored, err := h.load(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if apply(lp, track, topic) {
		if stored {
			err = h.store.Progress.Replace(lp)
		} else {
			err = h.store.Progress.Insert(lp)
		}
		if err != nil {
			_ = c.Error(err)
			return
		}
	}
	c.JSON(http.StatusOK, lp)
}
