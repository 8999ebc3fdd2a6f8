package handlers

import (
	"net/http"

	"streamgate/middleware"
	"streamgate/models"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FullName     *string `json:"full_name"`
	IsAdmin      bool    `json:"is_admin"`
	IsSubscribed bool    `json:"is_subscribed"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		IsAdmin:      u.IsAdmin,
		IsSubscribed: u.IsSubscribed,
	}
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
}

func (h *Handler) GetUser(c *gin.Context) {
	p, _ := middleware.Principal(c)

	u, err := h.Auth.GetProfile(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

// UpdateUser changes full_name only. Other fields in the body are rejected.
func (h *Handler) UpdateUser(c *gin.Context) {
	p, _ := middleware.Principal(c)

	var req updateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	u, err := h.Auth.UpdateProfile(c.Request.Context(), p.ID, req.FullName)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}
