package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/pkg/response"
	"github.com/oksasatya/go-library-management/pkg/validation"
)

type AuthorHandler struct {
	Svc    AuthorService
	Logger *logrus.Logger
}

func NewAuthorHandler(svc AuthorService, logger *logrus.Logger) *AuthorHandler {
	return &AuthorHandler{Svc: svc, Logger: logger}
}

type createAuthorRequest struct {
	FirstName   string  `json:"first_name" binding:"required,personname"`
	LastName    string  `json:"last_name" binding:"required,personname"`
	BirthYear   *int    `json:"birth_year" binding:"omitempty,gte=1000,lte=2025"`
	Nationality *string `json:"nationality" binding:"omitempty,max=100,nationality"`
}

func (h *AuthorHandler) List(c *gin.Context) {
	authors, err := h.Svc.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthorViews(authors), "authors", gin.H{"count": len(authors)})
}

func (h *AuthorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.Svc.Get(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthorView(a), "author", nil)
}

// ByLastName GET /api/authors/name/:lastName
func (h *AuthorHandler) ByLastName(c *gin.Context) {
	last := c.Param("lastName")
	if !validation.IsPersonName(last) {
		response.Error[any](c, http.StatusBadRequest, "invalid path parameter", map[string]string{"lastName": "must be 2-50 letters, spaces or hyphens"})
		return
	}
	authors, err := h.Svc.FindByLastName(c.Request.Context(), principalFrom(c), last)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthorViews(authors), "authors", gin.H{"count": len(authors)})
}

func (h *AuthorHandler) Create(c *gin.Context) {
	var req createAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Svc.Create(c.Request.Context(), principalFrom(c), application.CreateAuthorInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		BirthYear:   req.BirthYear,
		Nationality: req.Nationality,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toAuthorView(a), "author created", nil)
}

func (h *AuthorHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), principalFrom(c), id); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "author deleted", nil)
}
