package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/segyhp/lending-ledger/internal/service"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/response"
)

type LendingHandler struct {
	service   *service.LendingService
	validator *validator.Validate
	log       *zap.Logger
}

func NewLendingHandler(service *service.LendingService, log *zap.Logger) *LendingHandler {
	return &LendingHandler{
		service:   service,
		validator: newValidator(),
		log:       log,
	}
}

// decode reads a JSON body into dst and validates it.
func (h *LendingHandler) decode(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return customError.WrapValidation("Invalid request body: " + err.Error())
	}
	if err := h.validator.Struct(dst); err != nil {
		return customError.WrapValidation(describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// writeError maps the error taxonomy onto HTTP status codes.
func (h *LendingHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, customError.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, customError.ErrEligibility), errors.Is(err, customError.ErrLimitExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, customError.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, customError.ErrNotFound):
		status = http.StatusNotFound
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		response.ErrorWithCode(w, http.StatusInternalServerError, customError.Code(err), "Internal server error", nil)
		return
	}

	message := err.Error()
	var be *customError.BusinessError
	if errors.As(err, &be) {
		message = be.Message
	}
	response.ErrorWithCode(w, status, customError.Code(err), message, nil)
}
