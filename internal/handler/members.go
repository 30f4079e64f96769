package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/pkg/response"
)

func (h *LendingHandler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var request domain.RegisterMemberRequest
	if err := h.decode(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}

	member, err := h.service.RegisterMember(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, member)
}

func (h *LendingHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.ListMembers(r.Context()))
}

func (h *LendingHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.GetMember(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, member)
}

func (h *LendingHandler) RecordContribution(w http.ResponseWriter, r *http.Request) {
	var request domain.ContributionRequest
	if err := h.decode(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}

	member, err := h.service.RecordContribution(r.Context(), mux.Vars(r)["memberId"], &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, member)
}

func (h *LendingHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.CheckEligibility(r.Context(), mux.Vars(r)["memberId"]))
}

func (h *LendingHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.Deactivate(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, member)
}

func (h *LendingHandler) MemberTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.MemberTransactions(r.Context(), mux.Vars(r)["memberId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, txs)
}
