package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/errs"
	"github.com/oksasatya/go-library-management/pkg/response"
)

type LoanHandler struct {
	Svc    LoanService
	Logger *logrus.Logger
}

func NewLoanHandler(svc LoanService, logger *logrus.Logger) *LoanHandler {
	return &LoanHandler{Svc: svc, Logger: logger}
}

type createLoanRequest struct {
	UserID int64 `json:"user_id" binding:"required,gt=0"`
	BookID int64 `json:"book_id" binding:"required,gt=0"`
}

func (h *LoanHandler) List(c *gin.Context) {
	loans, err := h.Svc.ListLoans(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLoanViews(loans), "loans", gin.H{"count": len(loans)})
}

func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.Svc.GetLoan(c.Request.Context(), principalFrom(c), id)
	h.writeLoan(c, l, err, "loan")
}

func (h *LoanHandler) Create(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	l, err := h.Svc.CreateLoan(c.Request.Context(), principalFrom(c), req.UserID, req.BookID)
	h.writeLoan(c, l, err, "loan created")
}

// Return PUT /api/loans/:id/return
func (h *LoanHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.Svc.ReturnBook(c.Request.Context(), principalFrom(c), id)
	h.writeLoan(c, l, err, "book returned")
}

// Extend PUT /api/loans/:id/extend
func (h *LoanHandler) Extend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	l, err := h.Svc.ExtendLoan(c.Request.Context(), principalFrom(c), id)
	h.writeLoan(c, l, err, "loan extended")
}

// ByUser GET /api/loans/users/:userId/loans. An unknown user is a 400 here.
func (h *LoanHandler) ByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	loans, err := h.Svc.ListLoansByUser(c.Request.Context(), principalFrom(c), userID)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			writeErrorStatus(c, h.Logger, err, http.StatusBadRequest)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLoanViews(loans), "loans", gin.H{"count": len(loans)})
}

// Reminders POST /api/loans/reminders
func (h *LoanHandler) Reminders(c *gin.Context) {
	sent, err := h.Svc.SendOverdueReminders(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"queued": sent}, "overdue reminders queued", nil)
}

func (h *LoanHandler) writeLoan(c *gin.Context, l *entity.Loan, err error, msg string) {
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLoanView(l), msg, nil)
}
