package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentDay is the day of the month every loan payment falls due.
const PaymentDay = 10

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// RoundMoney rounds to whole cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateFlatPayment calculates a flat (simple interest) monthly payment.
// Formula: (Principal + Principal * rate% * years) / months
func CalculateFlatPayment(principal decimal.Decimal, annualRatePercent decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	totalInterest := principal.Mul(annualRatePercent).Div(hundred).Mul(n).Div(twelve)
	totalAmount := principal.Add(totalInterest)
	return RoundMoney(totalAmount.Div(n))
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(twelve)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// IsPastDue reports whether asOf falls after the end of the due date's day.
func IsPastDue(dueDate, asOf time.Time) bool {
	return asOf.After(EndOfDay(dueDate.In(asOf.Location())))
}

// PaymentDayAfter returns the 10th of the month following t's month.
func PaymentDayAfter(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, PaymentDay, 0, 0, 0, 0, t.Location())
}

// CalculateDueDate returns the due date of the given period, where period 1
// falls on firstDue and each later period one month after.
func CalculateDueDate(firstDue time.Time, period int) time.Time {
	return time.Date(firstDue.Year(), firstDue.Month()+time.Month(period-1), firstDue.Day(), 0, 0, 0, 0, firstDue.Location())
}

// CalendarMonthsBetween counts whole calendar months from -> to, reading both
// dates in to's location. A month only counts once to's day-of-month has
// reached from's day-of-month.
func CalendarMonthsBetween(from, to time.Time) int {
	from = from.In(to.Location())
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
