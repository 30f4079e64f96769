package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
	"github.com/segyhp/lending-ledger/internal/lending"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/response"
	"github.com/segyhp/lending-ledger/pkg/utils"
)

func (h *LendingHandler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.IssueLoanRequest
	if err := h.decode(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}

	loan, err := h.service.IssueLoan(r.Context(), &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, loan)
}

func (h *LendingHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.GetLoan(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, loan)
}

func (h *LendingHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), mux.Vars(r)["loanId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, schedule)
}

// Repay records a payment. Clients retrying a payment send the same
// Idempotency-Key header to avoid paying twice.
func (h *LendingHandler) Repay(w http.ResponseWriter, r *http.Request) {
	var request domain.RepaymentRequest
	if err := h.decode(r, &request); err != nil {
		h.writeError(w, r, err)
		return
	}
	request.IdempotencyKey = r.Header.Get(HeaderIdemKey)

	result, err := h.service.Repay(r.Context(), mux.Vars(r)["loanId"], &request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if result.Replayed {
		response.Success(w, result)
		return
	}
	response.Created(w, result)
}

// Quote prices a prospective loan from query parameters:
// amount, term, feeType (default upfront), interestRate, interestType.
func (h *LendingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	amount, err := utils.DecimalFromString(q.Get("amount"))
	if err != nil {
		h.writeError(w, r, customError.WrapValidation("amount must be a decimal number"))
		return
	}

	term, err := strconv.Atoi(q.Get("term"))
	if err != nil {
		h.writeError(w, r, customError.WrapValidation("term must be a whole number of months"))
		return
	}

	in := lending.QuoteInput{
		Amount:       amount,
		TermMonths:   term,
		FeeType:      q.Get("feeType"),
		InterestType: q.Get("interestType"),
	}
	if in.FeeType == "" {
		in.FeeType = domain.FeeTypeUpfront
	}
	if raw := q.Get("interestRate"); raw != "" {
		rate, err := utils.DecimalFromString(raw)
		if err != nil {
			h.writeError(w, r, customError.WrapValidation("interestRate must be a decimal number"))
			return
		}
		in.InterestRate = decimal.NewNullDecimal(rate)
	}

	quote, err := h.service.Quote(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Success(w, quote)
}

func (h *LendingHandler) Agreement(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Agreement())
}
