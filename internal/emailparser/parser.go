// Package emailparser extracts purchase notifications from Brazilian bank
// e-mails and suggests a category for the establishment.
package emailparser

import (
	"regexp"
	"strings"
	"time"

	"github.com/boddenberg/family-finance-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Parsed is one purchase found in an e-mail body.
type Parsed struct {
	Amount        domain.Money `json:"amount"`
	Establishment string       `json:"establishment"`
	Date          string       `json:"date"` // YYYY-MM-DD
	RawText       string       `json:"rawText"`
	Confidence    float64      `json:"confidence"`
	Pattern       string       `json:"pattern"`
}

const maxEstablishment = 50

type pattern struct {
	name       string
	re         *regexp.Regexp
	confidence float64
	// date converts the captured date, "" when absent.
	date func(captured string, now time.Time) string
}

// Patterns are tried in order; every pattern that matches yields a result.
var patterns = []pattern{
	{
		name:       "compra",
		re:         regexp.MustCompile(`(?i)compra\s+(?:aprovada|realizada)\s+(?:de\s+)?R\$\s*([\d.,]+)\s+(?:em|no|na)\s+(.+?)(?:\s+em\s+(\d{2}/\d{2}/\d{4}))?\s*(?:\.(?:\s|$)|\n|$)`),
		confidence: 0.9,
		date:       fullDate,
	},
	{
		name:       "debito",
		re:         regexp.MustCompile(`(?i)d[eé]bito\s+(?:de\s+)?R\$\s*([\d.,]+)\s+(?:(?:em|no|na)\s+)?(.+?)(?:\s+(\d{2}/\d{2}))?\s*(?:\.(?:\s|$)|\n|$)`),
		confidence: 0.8,
		date:       dayMonth,
	},
	{
		name:       "generico",
		re:         regexp.MustCompile(`(?i)R\$\s*([\d.,]+)\s+(?:em|no|na|para)\s+(.+)`),
		confidence: 0.6,
	},
}

// Parser extracts purchases. The clock fills in missing dates.
type Parser struct {
	now func() time.Time
}

func New() *Parser {
	return &Parser{now: time.Now}
}

// NewWithClock returns a parser with a fixed clock, mainly for tests.
func NewWithClock(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse returns one result per matching pattern, in pattern order.
// Matches whose amount cannot be read are skipped.
func (p *Parser) Parse(content string) []Parsed {
	now := p.now()
	today := now.Format(domain.DateLayout)

	var out []Parsed
	for _, pt := range patterns {
		m := pt.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		amount, ok := ParseAmount(m[1])
		if !ok || amount <= 0 {
			continue
		}

		est := strings.TrimSpace(m[2])
		if r := []rune(est); len(r) > maxEstablishment {
			est = strings.TrimSpace(string(r[:maxEstablishment]))
		}

		date := ""
		if pt.date != nil && len(m) > 3 && m[3] != "" {
			date = pt.date(m[3], now)
		}
		if date == "" {
			date = today
		}

		out = append(out, Parsed{
			Amount:        amount,
			Establishment: est,
			Date:          date,
			RawText:       strings.TrimSpace(m[0]),
			Confidence:    pt.confidence,
			Pattern:       pt.name,
		})
	}
	return out
}

// Best returns the highest-confidence result.
func (p *Parser) Best(content string) (Parsed, bool) {
	results := p.Parse(content)
	if len(results) == 0 {
		return Parsed{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return best, true
}

func fullDate(captured string, _ time.Time) string {
	t, err := time.Parse("02/01/2006", captured)
	if err != nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func dayMonth(captured string, now time.Time) string {
	t, err := time.Parse("02/01/2006", captured+"/"+now.Format("2006"))
	if err != nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

var plainDecimal = regexp.MustCompile(`^\d+\.\d{1,2}$`)

// ParseAmount reads a Brazilian amount such as "1.234,56". A lone dot
// followed by one or two digits ("45.90") is read as the decimal separator.
func ParseAmount(s string) (domain.Money, bool) {
	s = strings.TrimRight(strings.TrimSpace(s), ".,")
	if s == "" {
		return 0, false
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case plainDecimal.MatchString(s):
	default:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	return domain.MoneyFromDecimal(d), true
}
