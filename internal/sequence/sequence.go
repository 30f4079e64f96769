// Package sequence allocates the human-readable member and loan identifiers.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

const memberKey = "member"

// Generator hands out monotonically increasing numbers per key. It is safe for
// concurrent use. Counters start at zero and are raised with Observe when
// existing records are loaded.
type Generator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewGenerator() *Generator {
	return &Generator{counters: make(map[string]int64)}
}

func (g *Generator) next(key string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counters[key]++
	return g.counters[key]
}

func (g *Generator) observe(key string, n int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.counters[key] {
		g.counters[key] = n
	}
}

// NextMemberID returns the next MC-#### identifier.
func (g *Generator) NextMemberID() string {
	return FormatMemberID(g.next(memberKey))
}

// NextLoanID returns the next L###-YY identifier for the given calendar year.
// Each year has its own counter, so numbering restarts at 1 on January 1st.
func (g *Generator) NextLoanID(year int) string {
	yy := year % 100
	return FormatLoanID(g.next(loanKey(yy)), yy)
}

// Observe raises the counters past an identifier that already exists.
// Unrecognised identifiers are ignored.
func (g *Generator) Observe(id string) {
	if n, ok := ParseMemberID(id); ok {
		g.observe(memberKey, n)
		return
	}
	if n, yy, ok := ParseLoanID(id); ok {
		g.observe(loanKey(yy), n)
	}
}

func loanKey(yy int) string {
	return "loan:" + strconv.Itoa(yy)
}

func FormatMemberID(n int64) string {
	return fmt.Sprintf("MC-%04d", n)
}

func FormatLoanID(n int64, yy int) string {
	return fmt.Sprintf("L%03d-%02d", n, yy%100)
}

func ParseMemberID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, "MC-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ParseLoanID splits L###-YY into its sequence number and two-digit year.
func ParseLoanID(id string) (int64, int, bool) {
	rest, ok := strings.CutPrefix(id, "L")
	if !ok {
		return 0, 0, false
	}
	seqPart, yearPart, ok := strings.Cut(rest, "-")
	if !ok || len(yearPart) != 2 {
		return 0, 0, false
	}
	n, err := strconv.ParseInt(seqPart, 10, 64)
	if err != nil || n <= 0 {
		return 0, 0, false
	}
	yy, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, false
	}
	return n, yy, true
}
