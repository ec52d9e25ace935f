package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/application"
	"github.com/oksasatya/go-library-management/internal/domain/policy"
	"github.com/oksasatya/go-library-management/pkg/response"
	"github.com/oksasatya/go-library-management/pkg/validation"
)

// MaxCoverSize caps cover uploads.
const MaxCoverSize = 5 << 20

type BookHandler struct {
	Svc    BookService
	Logger *logrus.Logger
}

func NewBookHandler(svc BookService, logger *logrus.Logger) *BookHandler {
	return &BookHandler{Svc: svc, Logger: logger}
}

type createBookRequest struct {
	Title           string `json:"title" binding:"required,booktitle"`
	PublicationYear int    `json:"publication_year" binding:"gte=1800"`
	AvailableCopies *int   `json:"available_copies" binding:"required,gte=0"`
	TotalCopies     *int   `json:"total_copies" binding:"required,gte=0"`
	AuthorID        int64  `json:"author_id" binding:"required,gt=0"`
}

// List GET /api/books. Guests only learn how many books exist.
func (h *BookHandler) List(c *gin.Context) {
	res, err := h.Svc.List(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if res.Tier == policy.TierGuest {
		response.Success(c, http.StatusOK, gin.H{"count": res.Count}, "books", nil)
		return
	}
	response.Success(c, http.StatusOK, booksFor(res.Tier, res.Books), "books", gin.H{"count": res.Count})
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, tier, err := h.Svc.Get(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, bookFor(tier, b), "book", nil)
}

// Search GET /api/books/search?title=
func (h *BookHandler) Search(c *gin.Context) {
	title := c.Query("title")
	if !validation.IsSearchTitle(title) {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"title": "must be 1-200 letters, digits, spaces or hyphens"})
		return
	}
	res, err := h.Svc.SearchByTitle(c.Request.Context(), principalFrom(c), title)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if res.Tier == policy.TierGuest {
		titles := make([]string, 0, len(res.Books))
		for _, b := range res.Books {
			titles = append(titles, b.Title)
		}
		response.Success(c, http.StatusOK, gin.H{"titles": titles, "count": res.Count}, "books", nil)
		return
	}
	response.Success(c, http.StatusOK, booksFor(res.Tier, res.Books), "books", gin.H{"count": res.Count})
}

func (h *BookHandler) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.Svc.Create(c.Request.Context(), principalFrom(c), application.CreateBookInput{
		Title:           req.Title,
		PublicationYear: req.PublicationYear,
		AvailableCopies: *req.AvailableCopies,
		TotalCopies:     *req.TotalCopies,
		AuthorID:        req.AuthorID,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, bookFor(policy.TierAdmin, b), "book created", nil)
}

// UploadCover PUT /api/books/:id/cover (multipart field "file")
func (h *BookHandler) UploadCover(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxCoverSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid file", map[string]string{"file": "is required"})
		return
	}
	if fh.Size > MaxCoverSize {
		response.Error[any](c, http.StatusBadRequest, "invalid file", map[string]string{"file": "must be at most 5 MiB"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid file", map[string]string{"file": "cannot be read"})
		return
	}
	defer f.Close()

	b, err := h.Svc.UploadCover(c.Request.Context(), principalFrom(c), id, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, bookFor(policy.TierAdmin, b), "cover uploaded", nil)
}
