package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/response"
)

func applicationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["applicationId"])
	if err != nil {
		return uuid.Nil, customError.WrapValidation("Invalid application ID")
	}
	return id, nil
}

func (h *LendingHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var request domain.SubmitApplicationRequest
	if err := h.decode(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.service.SubmitApplication(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, app)
}

func (h *LendingHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	switch status {
	case "", domain.ApplicationStatusPending, domain.ApplicationStatusApproved, domain.ApplicationStatusRejected:
	default:
		h.writeError(w, r, customError.WrapValidation("Unknown application status "+status))
		return
	}

	response.Success(w, h.service.ListApplications(r.Context(), status))
}

func (h *LendingHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := applicationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.service.GetApplication(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, app)
}

// ApproveApplication issues the requested loan. If issuance fails the
// application stays PENDING and the issuance error is returned.
func (h *LendingHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	id, err := applicationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var request domain.ApproveApplicationRequest
	if err := h.decode(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}

	loan, err := h.service.ApproveApplication(r.Context(), id, &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, loan)
}

func (h *LendingHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	id, err := applicationID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	app, err := h.service.RejectApplication(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, app)
}
