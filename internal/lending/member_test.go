package lending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
)

func TestRegisterMember_AssignsSequentialIDs(t *testing.T) {
	b := bookWith(activeMember("MC-0007", "0"))
	e := newTestEngine(b)

	d, m, err := e.RegisterMember(b, "  Ada Obi ", "ada@example.com", testNow)
	require.NoError(t, err)
	b.Apply(d)

	assert.Equal(t, "MC-0008", m.ID)
	assert.Equal(t, "Ada Obi", m.Name)
	assert.Equal(t, domain.AccountStatusActive, m.AccountStatus)
	assert.True(t, m.TotalContribution.IsZero())

	_, _, err = e.RegisterMember(b, "", "", testNow)
	assert.ErrorIs(t, err, customError.ErrValidation)
}

func TestRecordContribution(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "100"))
	e := newTestEngine(b)

	d, m, err := e.RecordContribution(b, ContributionInput{MemberID: "MC-0001", Amount: dec("50"), PaymentMethod: "mobile"}, testNow)
	require.NoError(t, err)

	assert.True(t, m.TotalContribution.Equal(dec("150")))
	require.Len(t, d.Transactions, 1)
	assert.Equal(t, domain.TransactionTypeContribution, d.Transactions[0].Type)
	assert.Equal(t, "mobile", d.Transactions[0].PaymentMethod)

	_, _, err = e.RecordContribution(b, ContributionInput{MemberID: "MC-0001", Amount: dec("-5")}, testNow)
	assert.ErrorIs(t, err, customError.ErrValidation)
	_, _, err = e.RecordContribution(b, ContributionInput{MemberID: "MC-0404", Amount: dec("5")}, testNow)
	assert.ErrorIs(t, err, customError.ErrNotFound)
}

func TestRecordContribution_WholeCentsOnly(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "100"))
	e := newTestEngine(b)

	_, _, err := e.RecordContribution(b, ContributionInput{MemberID: "MC-0001", Amount: dec("0.005")}, testNow)
	require.ErrorIs(t, err, customError.ErrValidation)
	assert.Contains(t, err.Error(), "fractions of a cent")

	// Trailing zeros are still whole cents.
	_, m, err := e.RecordContribution(b, ContributionInput{MemberID: "MC-0001", Amount: dec("12.500")}, testNow)
	require.NoError(t, err)
	assert.True(t, m.TotalContribution.Equal(dec("112.5")))
}

func TestDeactivate_DistributesBalance(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "500"))
	e := newTestEngine(b)

	d, m, err := e.Deactivate(b, "MC-0001", testNow)
	require.NoError(t, err)

	require.Len(t, d.Transactions, 1)
	assert.Equal(t, domain.TransactionTypeDistribution, d.Transactions[0].Type)
	assert.True(t, d.Transactions[0].Amount.Equal(dec("500")))
	assert.True(t, m.TotalContribution.IsZero())
	assert.Equal(t, domain.AccountStatusInactive, m.AccountStatus)

	b.Apply(d)
	_, _, err = e.Deactivate(b, "MC-0001", testNow)
	assert.ErrorIs(t, err, customError.ErrStateConflict)
	_, _, err = e.RecordContribution(b, ContributionInput{MemberID: "MC-0001", Amount: dec("5")}, testNow)
	assert.ErrorIs(t, err, customError.ErrStateConflict)
}

func TestDeactivate_ZeroBalanceWritesNoEntry(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "0"))
	e := newTestEngine(b)

	d, m, err := e.Deactivate(b, "MC-0001", testNow)
	require.NoError(t, err)

	assert.Empty(t, d.Transactions)
	assert.Equal(t, domain.AccountStatusInactive, m.AccountStatus)
}

func TestDeactivate_BlockedByLoans(t *testing.T) {
	b := bookWith(activeMember("MC-0001", "1000"), activeMember("MC-0002", "1000"))
	e := newTestEngine(b)
	issue(t, e, b, standardLoan("500", 12, domain.FeeTypeUpfront), testNow)

	_, _, err := e.Deactivate(b, "MC-0001", testNow)
	assert.ErrorIs(t, err, customError.ErrEligibility)
	assert.Contains(t, err.Error(), ReasonActiveLoan)

	_, _, err = e.Deactivate(b, "MC-0002", testNow)
	assert.ErrorIs(t, err, customError.ErrEligibility)
	assert.Contains(t, err.Error(), ReasonActiveCosigner)
}
