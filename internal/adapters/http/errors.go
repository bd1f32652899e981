package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"roomqueue/internal/domain"
)

const (
	codeValidationError  = "validation_error"
	codeDateRestriction  = "date_restriction"
	codeSlotConflict     = "slot_conflict"
	codeQuotaExceeded    = "quota_exceeded"
	codeNotFound         = "not_found"
	codeForbidden        = "forbidden"
	codeInvalidStudentID = "invalid_student_id"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, errorResponse{Error: msg, Code: code})
}

// writeDomainError maps the ledger's error kinds onto the transport.
// All of them are recoverable; none aborts the process.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(c, http.StatusBadRequest, codeValidationError, err.Error())
	case errors.Is(err, domain.ErrDateRestriction):
		writeError(c, http.StatusBadRequest, codeDateRestriction, err.Error())
	case errors.Is(err, domain.ErrSlotConflict):
		writeError(c, http.StatusConflict, codeSlotConflict, err.Error())
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(c, http.StatusConflict, codeQuotaExceeded, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(c, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidStudentID):
		writeError(c, http.StatusBadRequest, codeInvalidStudentID, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
