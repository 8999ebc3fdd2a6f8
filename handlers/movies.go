package handlers

import (
	"net/http"

	"streamgate/models"

	"github.com/gin-gonic/gin"
)

type movieRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnail_url"`
	VideoURL     string   `json:"video_url"`
	Category     string   `json:"category"`
	Year         int      `json:"year" binding:"gte=0"`
	Rating       string   `json:"rating"`
	Duration     string   `json:"duration"`
	Genre        []string `json:"genre"`
	Featured     bool     `json:"featured"`
}

func (r movieRequest) movie(id string) *models.Movie {
	return &models.Movie{
		ID:           id,
		Title:        r.Title,
		Description:  r.Description,
		ThumbnailURL: r.ThumbnailURL,
		VideoURL:     r.VideoURL,
		Category:     r.Category,
		Year:         r.Year,
		Rating:       r.Rating,
		Duration:     r.Duration,
		Genre:        r.Genre,
		Featured:     r.Featured,
	}
}

func (h *Handler) ListMovies(c *gin.Context) {
	movies, err := h.Catalog.List(c.Request.Context(), models.MovieFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, movies)
}

func (h *Handler) GetMovie(c *gin.Context) {
	m, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// WatchMovie is mounted behind RequireSubscription.
func (h *Handler) WatchMovie(c *gin.Context) {
	s, err := h.Catalog.Stream(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) CreateMovie(c *gin.Context) {
	if !h.catalogWritable(c) {
		return
	}
	var req movieRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	m, err := h.Catalog.Create(c.Request.Context(), req.movie(""))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMovie(c *gin.Context) {
	if !h.catalogWritable(c) {
		return
	}
	var req movieRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.Logger, err)
		return
	}

	m, err := h.Catalog.Update(c.Request.Context(), req.movie(c.Param("id")))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMovie(c *gin.Context) {
	if !h.catalogWritable(c) {
		return
	}
	if err := h.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "movie deleted"})
}

func (h *Handler) catalogWritable(c *gin.Context) bool {
	if !h.Features.CatalogWriteEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "catalog writes not enabled"})
		return false
	}
	return true
}
