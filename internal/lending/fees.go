package lending

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/lending-ledger/internal/domain"
	customError "github.com/segyhp/lending-ledger/pkg/errors"
	"github.com/segyhp/lending-ledger/pkg/utils"
)

// Fee schedule and repayment-time penalties.
var (
	FeeThreshold       = decimal.NewFromInt(2500)
	SmallLoanFee       = decimal.NewFromInt(30)
	ShortTermLargeFee  = decimal.NewFromInt(50)
	LongTermLargeFee   = decimal.NewFromInt(70)
	LateFee            = decimal.NewFromInt(5)
	RoundingTolerance  = decimal.New(1, -2)
	AgreementLateFee   = decimal.NewFromInt(25)
	AgreementGraceDays = 15
)

// Terms describes the repayment terms of a principal.
type Terms struct {
	Principal    decimal.Decimal
	TermMonths   int
	InterestRate decimal.NullDecimal // annual percentage
	InterestType string
}

func (t Terms) hasInterest() bool {
	return t.InterestRate.Valid && t.InterestRate.Decimal.IsPositive()
}

func (t Terms) interestType() string {
	if t.InterestType == "" {
		return domain.InterestTypeCompound
	}
	return t.InterestType
}

// ApplicationFee returns the one-off fee for a loan of the given size and term.
func ApplicationFee(amount decimal.Decimal, termMonths int) decimal.Decimal {
	if amount.LessThanOrEqual(FeeThreshold) {
		return SmallLoanFee
	}
	if termMonths <= 12 {
		return ShortTermLargeFee
	}
	return LongTermLargeFee
}

// FinancedPrincipal is the requested amount plus the fee when capitalized.
func FinancedPrincipal(amount, fee decimal.Decimal, feeType string) decimal.Decimal {
	if feeType == domain.FeeTypeCapitalized {
		return amount.Add(fee)
	}
	return amount
}

// MonthlyPayment returns the fixed monthly installment for the terms.
// Without interest the principal is split evenly.
func MonthlyPayment(t Terms) decimal.Decimal {
	n := decimal.NewFromInt(int64(t.TermMonths))
	if !t.hasInterest() {
		return utils.RoundMoney(t.Principal.Div(n))
	}
	if t.interestType() == domain.InterestTypeSimple {
		return utils.CalculateFlatPayment(t.Principal, t.InterestRate.Decimal, t.TermMonths)
	}

	// P * r * (1+r)^n / ((1+r)^n - 1)
	r := utils.MonthlyRate(t.InterestRate.Decimal).InexactFloat64()
	factor := math.Pow(1+r, float64(t.TermMonths))
	payment := t.Principal.InexactFloat64() * r * factor / (factor - 1)
	return utils.RoundMoney(decimal.NewFromFloat(payment))
}

// TotalInterest is payment x n - P.
func TotalInterest(t Terms) decimal.Decimal {
	if !t.hasInterest() {
		return decimal.Zero
	}
	total := MonthlyPayment(t).Mul(decimal.NewFromInt(int64(t.TermMonths)))
	return utils.RoundMoney(total.Sub(t.Principal))
}

// AmortizationSchedule lays out every installment, starting at firstDue and
// falling on the same day of each following month. The last row absorbs
// rounding so the balance finishes at exactly zero.
func AmortizationSchedule(t Terms, firstDue time.Time) []*domain.ScheduleEntry {
	if t.TermMonths <= 0 || !t.Principal.IsPositive() {
		return nil
	}

	payment := MonthlyPayment(t)
	n := decimal.NewFromInt(int64(t.TermMonths))
	monthlyRate := decimal.Zero
	flatInterest := decimal.Zero
	if t.hasInterest() {
		if t.interestType() == domain.InterestTypeSimple {
			flatInterest = utils.RoundMoney(TotalInterest(t).Div(n))
		} else {
			monthlyRate = utils.MonthlyRate(t.InterestRate.Decimal)
		}
	}

	schedule := make([]*domain.ScheduleEntry, 0, t.TermMonths)
	remaining := t.Principal
	interestLeft := TotalInterest(t)

	for period := 1; period <= t.TermMonths; period++ {
		interest := flatInterest
		if monthlyRate.IsPositive() {
			interest = utils.RoundMoney(remaining.Mul(monthlyRate))
		}
		principalPart := payment.Sub(interest)

		if period == t.TermMonths {
			principalPart = remaining
			if flatInterest.IsPositive() {
				interest = interestLeft
			}
		}
		if principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}

		remaining = remaining.Sub(principalPart)
		interestLeft = interestLeft.Sub(interest)

		schedule = append(schedule, &domain.ScheduleEntry{
			Period:    period,
			DueDate:   utils.CalculateDueDate(firstDue, period),
			Payment:   principalPart.Add(interest),
			Principal: principalPart,
			Interest:  interest,
			Balance:   remaining,
		})
	}

	return schedule
}

// LateFeeDue returns the fee a repayment made at asOf must carry.
func LateFeeDue(loan *domain.Loan, asOf time.Time) decimal.Decimal {
	if utils.IsPastDue(loan.NextPaymentDue, asOf) {
		return LateFee
	}
	return decimal.Zero
}

// Agreement returns the late-payment clause printed on loan agreements.
func Agreement() domain.AgreementTerms {
	return domain.AgreementTerms{
		LateFee:         AgreementLateFee,
		GracePeriodDays: AgreementGraceDays,
		Text: fmt.Sprintf(
			"A late fee of $%s applies to any installment unpaid %d days after its due date.",
			AgreementLateFee.StringFixed(2), AgreementGraceDays),
	}
}

// LoanTerms rebuilds the repayment terms of an issued loan.
func LoanTerms(l *domain.Loan) Terms {
	return Terms{
		Principal:    l.OriginalAmount,
		TermMonths:   l.TermMonths,
		InterestRate: l.InterestRate,
		InterestType: l.InterestType,
	}
}

// QuoteInput is a prospective loan to price.
type QuoteInput struct {
	Amount       decimal.Decimal
	TermMonths   int
	FeeType      string
	InterestRate decimal.NullDecimal
	InterestType string
}

// checkAmount rejects amounts that are not positive or not whole cents.
func checkAmount(amount decimal.Decimal, what string) error {
	if !amount.IsPositive() {
		return customError.WrapValidation(what + " must be greater than zero")
	}
	if !amount.Equal(utils.RoundMoney(amount)) {
		return customError.WrapValidation(what + " cannot include fractions of a cent")
	}
	return nil
}

func validateLoanShape(amount decimal.Decimal, termMonths int, feeType string, rate decimal.NullDecimal, interestType string) error {
	if err := checkAmount(amount, "Amount"); err != nil {
		return err
	}
	if termMonths != 12 && termMonths != 24 {
		return customError.WrapValidation("Term must be 12 or 24 months")
	}
	if feeType != domain.FeeTypeUpfront && feeType != domain.FeeTypeCapitalized {
		return customError.WrapValidation(fmt.Sprintf("Unknown fee type %q", feeType))
	}
	if rate.Valid && rate.Decimal.IsNegative() {
		return customError.WrapValidation("Interest rate cannot be negative")
	}
	if rate.Valid && !rate.Decimal.Equal(rate.Decimal.Round(4)) {
		return customError.WrapValidation("Interest rate allows at most four decimal places")
	}
	switch interestType {
	case "", domain.InterestTypeSimple, domain.InterestTypeCompound:
	default:
		return customError.WrapValidation(fmt.Sprintf("Unknown interest type %q", interestType))
	}
	return nil
}

// Quote prices a prospective loan issued at asOf. Agreement previews and
// dashboards use this rather than computing fees themselves.
func Quote(in QuoteInput, asOf time.Time) (*domain.Quote, error) {
	if err := validateLoanShape(in.Amount, in.TermMonths, in.FeeType, in.InterestRate, in.InterestType); err != nil {
		return nil, err
	}

	fee := ApplicationFee(in.Amount, in.TermMonths)
	terms := Terms{
		Principal:    FinancedPrincipal(in.Amount, fee, in.FeeType),
		TermMonths:   in.TermMonths,
		InterestRate: in.InterestRate,
		InterestType: in.InterestType,
	}

	return &domain.Quote{
		RequestedAmount: in.Amount,
		TermMonths:      in.TermMonths,
		FeeType:         in.FeeType,
		Fee:             fee,
		Principal:       terms.Principal,
		MonthlyPayment:  MonthlyPayment(terms),
		TotalInterest:   TotalInterest(terms),
		Schedule:        AmortizationSchedule(terms, utils.PaymentDayAfter(asOf)),
		Agreement:       Agreement(),
	}, nil
}
