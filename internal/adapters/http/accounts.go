package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/devcircle/internal/domain"
	"github.com/dkeye/devcircle/internal/service"
	"github.com/dkeye/devcircle/internal/storage"
	"github.com/gin-gonic/gin"
)

type accountHandlers struct {
	users *service.UserService
	store *storage.Store
}

func (h accountHandlers) register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.users.Register(req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h accountHandlers) login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.users.Login(req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h accountHandlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c).View())
}

type userRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// profileView shadows Profile.User with the owner's public identity.
type profileView struct {
	*domain.Profile
	User userRef `json:"user"`
}

func (h accountHandlers) view(p *domain.Profile) (profileView, error) {
	u, err := h.store.Users.Get(p.User)
	if err != nil {
		return profileView{}, err
	}
	return profileView{Profile: p, User: userRef{ID: u.ID, Username: u.Username, Email: u.Email}}, nil
}

func (h accountHandlers) getProfile(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	p, err := h.store.Profiles.FindBy("user", userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	v, err := h.view(p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type profileInput struct {
	Avatar       *string              `json:"avatar"`
	Bio          *string              `json:"bio"`
	Skills       []string             `json:"skills"`
	ProjectLinks []domain.ProjectLink `json:"projectLinks" binding:"dive"`
}

// putProfile creates or updates the caller's own profile. Absent fields stay as they are.
func (h accountHandlers) putProfile(c *gin.Context) {
	var in profileInput
	if !bindJSON(c, &in) {
		return
	}
	u := currentUser(c)

	p, err := h.store.Profiles.FindBy("user", u.ID)
	isNew := errors.Is(err, domain.ErrNotFound)
	switch {
	case isNew:
		p = &domain.Profile{User: u.ID, Skills: []string{}, ProjectLinks: []domain.ProjectLink{}}
	case err != nil:
		_ = c.Error(err)
		return
	}

	if in.Avatar != nil {
		p.Avatar = *in.Avatar
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.Skills != nil {
		p.Skills = in.Skills
	}
	if in.ProjectLinks != nil {
		p.ProjectLinks = in.ProjectLinks
	}

	if isNew {
		err = h.store.Profiles.Insert(p)
	} else {
		err = h.store.Profiles.Replace(p)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	v, err := h.view(p)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}
