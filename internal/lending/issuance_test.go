package lending

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

func TestIssueLoan_ScenarioUpfront(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "1000"), activeMember("MC-0002", "200"))
	e := newTestEngine(b)

	eligibility := CheckEligibility(b, "MC-0001", testNow)
	require.True(t, eligibility.Eligible)
	assert.True(t, eligibility.Limit.Equal(dec("4000")))

	d, loan, err := e.IssueLoan(b, standardLoan("3000", 12, domain.FeeTypeUpfront), testNow)
	require.NoError(t, err)

	assert.Equal(t, "L001-26", loan.ID)
	assert.Equal(t, domain.LoanStatusActive, loan.Status)
	assert.True(t, loan.Fee.Equal(dec("50")))
	assert.True(t, loan.OriginalAmount.Equal(dec("3000")))
	assert.True(t, loan.RemainingBalance.Equal(dec("3000")))
	assert.True(t, loan.MonthlyPayment.Equal(dec("250")))
	assert.Equal(t, time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC), loan.NextPaymentDue)
	assert.Equal(t, 0, loan.MissedPayments)

	require.Len(t, d.Transactions, 2)
	assert.Equal(t, domain.TransactionTypeLoanDisbursal, d.Transactions[0].Type)
	assert.True(t, d.Transactions[0].Amount.Equal(dec("3000")))
	assert.Equal(t, domain.TransactionTypeFee, d.Transactions[1].Type)
	assert.True(t, d.Transactions[1].Amount.Equal(dec("50")))
	assert.Contains(t, d.Transactions[1].Description, "upfront")
	assert.Equal(t, int64(1), d.Transactions[0].Sequence)
	assert.Equal(t, int64(2), d.Transactions[1].Sequence)

	require.Len(t, d.Members, 1)
	require.NotNil(t, d.Members[0].ActiveLoanID)
	assert.Equal(t, loan.ID, *d.Members[0].ActiveLoanID)

	b.Apply(d)
	borrower, _ := b.Member("MC-0001")
	assert.Equal(t, loan.ID, *borrower.ActiveLoanID)
	assert.Len(t, b.Transactions(), 2)
}

func TestIssueLoan_CapitalizedFee(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "1250"), activeMember("MC-0002", "200"))
	e := newTestEngine(b)

	d, loan, err := e.IssueLoan(b, standardLoan("5000", 24, domain.FeeTypeCapitalized), testNow)
	require.NoError(t, err)

	assert.True(t, loan.Fee.Equal(dec("70")))
	assert.True(t, loan.OriginalAmount.Equal(dec("5070")))
	assert.True(t, loan.RemainingBalance.Equal(dec("5070")))
	assert.Equal(t, 1, countByType(d.Transactions, domain.TransactionTypeLoanDisbursal))
	assert.Equal(t, 1, countByType(d.Transactions, domain.TransactionTypeFee))
	assert.True(t, d.Transactions[0].Amount.Equal(dec("5000")), "disbursal never includes the fee")
	assert.Contains(t, d.Transactions[1].Description, "capitalized")
}

func TestIssueLoan_WithInterest(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "1000"), activeMember("MC-0002", "200"))
	e := newTestEngine(b)

	in := standardLoan("1200", 12, domain.FeeTypeUpfront)
	in.InterestRate = decimal.NewNullDecimal(dec("12"))

	_, loan, err := e.IssueLoan(b, in, testNow)
	require.NoError(t, err)

	assert.Equal(t, domain.InterestTypeCompound, loan.InterestType)
	assert.True(t, loan.MonthlyPayment.Equal(dec("106.62")))
	assert.True(t, loan.RemainingBalance.Equal(dec("1200")))
}

func TestIssueLoan_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		members []*domain.Member
		input   IssueLoanInput
		wantErr error
		message string
	}{
		{
			name:    "missing cosigner",
			members: []*domain.Member{activeMember("MC-0001", "1000")},
			input:   IssueLoanInput{BorrowerID: "MC-0001", Amount: dec("100"), TermMonths: 12, FeeType: domain.FeeTypeUpfront},
			wantErr: customError.ErrValidation,
			message: "Cosigner is required",
		},
		{
			name:    "borrower cosigning own loan",
			members: []*domain.Member{activeMember("MC-0001", "1000")},
			input:   IssueLoanInput{BorrowerID: "MC-0001", CosignerID: "MC-0001", Amount: dec("100"), TermMonths: 12, FeeType: domain.FeeTypeUpfront},
			wantErr: customError.ErrValidation,
		},
		{
			name:    "non positive amount",
			members: []*domain.Member{activeMember("MC-0001", "1000"), activeMember("MC-0002", "10")},
			input:   standardLoan("0", 12, domain.FeeTypeUpfront),
			wantErr: customError.ErrValidation,
		},
		{
			name:    "sub-cent amount",
			members: []*domain.Member{activeMember("MC-0001", "1000"), activeMember("MC-0002", "10")},
			input:   standardLoan("100.009", 12, domain.FeeTypeUpfront),
			wantErr: customError.ErrValidation,
			message: "Amount cannot include fractions of a cent",
		},
		{
			name:    "unsupported term",
			members: []*domain.Member{activeMember("MC-0001", "1000"), activeMember("MC-0002", "10")},
			input:   standardLoan("100", 6, domain.FeeTypeUpfront),
			wantErr: customError.ErrValidation,
		},
		{
			name:    "borrower has no contributions",
			members: []*domain.Member{activeMember("MC-0001", "0"), activeMember("MC-0002", "10")},
			input:   standardLoan("100", 12, domain.FeeTypeUpfront),
			wantErr: customError.ErrEligibility,
			message: ReasonNoContribution,
		},
		{
			name:    "over the limit",
			members: []*domain.Member{activeMember("MC-0001", "500"), activeMember("MC-0002", "10")},
			input:   standardLoan("2000.01", 12, domain.FeeTypeUpfront),
			wantErr: customError.ErrLimitExceeded,
		},
		{
			name:    "cosigner fails the full check",
			members: []*domain.Member{activeMember("MC-0001", "500"), activeMember("MC-0002", "0")},
			input:   standardLoan("100", 12, domain.FeeTypeUpfront),
			wantErr: customError.ErrEligibility,
			message: "Cosigner ineligible: " + ReasonNoContribution,
		},
		{
			name:    "cosigner unknown",
			members: []*domain.Member{activeMember("MC-0001", "500")},
			input:   standardLoan("100", 12, domain.FeeTypeUpfront),
			wantErr: customError.ErrEligibility,
			message: "Cosigner ineligible: " + ReasonMemberNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bookWith(tt.members...)
			e := newTestEngine(b)

			d, loan, err := e.IssueLoan(b, tt.input, testNow)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
			assert.Nil(t, d)
			assert.Nil(t, loan)
			assert.Empty(t, b.Transactions())
		})
	}
}

func TestIssueLoan_CosignerSymmetry(t *testing.T) {
	b := bookWith(
		activeMember("MC-0001", "1000"),
		activeMember("MC-0002", "1000"),
		activeMember("MC-0003", "1000"),
	)
	e := newTestEngine(b)
	loan := issue(t, e, b, standardLoan("1000", 12, domain.FeeTypeUpfront), testNow)

	// MC-0002 cosigns loan X: cannot borrow, cannot cosign again.
	_, _, err := e.IssueLoan(b, IssueLoanInput{
		BorrowerID: "MC-0002", CosignerID: "MC-0003", Amount: dec("100"), TermMonths: 12, FeeType: domain.FeeTypeUpfront,
	}, testNow)
	assert.ErrorIs(t, err, customError.ErrEligibility)
	assert.Contains(t, err.Error(), ReasonActiveCosigner)

	_, _, err = e.IssueLoan(b, IssueLoanInput{
		BorrowerID: "MC-0003", CosignerID: "MC-0002", Amount: dec("100"), TermMonths: 12, FeeType: domain.FeeTypeUpfront,
	}, testNow)
	assert.ErrorIs(t, err, customError.ErrEligibility)
	assert.Contains(t, err.Error(), "Cosigner ineligible: "+ReasonActiveCosigner)

	// Once X is paid the cosigner is free again.
	d, _, err := e.Repay(b, RepaymentInput{LoanID: loan.ID, Amount: dec("1000")}, testNow)
	require.NoError(t, err)
	b.Apply(d)

	assert.True(t, CheckEligibility(b, "MC-0002", testNow).Eligible)
}

func TestIssueLoan_SequencePerYear(t *testing.T) {
	b := bookWith(
		activeMember("MC-0001", "1000"), activeMember("MC-0002", "1000"),
		activeMember("MC-0003", "1000"), activeMember("MC-0004", "1000"),
	)
	e := newTestEngine(b)

	first := issue(t, e, b, standardLoan("100", 12, domain.FeeTypeUpfront), testNow)
	second := issue(t, e, b, IssueLoanInput{
		BorrowerID: "MC-0003", CosignerID: "MC-0004", Amount: dec("100"), TermMonths: 12, FeeType: domain.FeeTypeUpfront,
	}, time.Date(2027, 1, 2, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, "L001-26", first.ID)
	assert.Equal(t, "L001-27", second.ID)
	assert.Equal(t, time.Date(2027, 2, 10, 0, 0, 0, 0, time.UTC), second.NextPaymentDue)
}
