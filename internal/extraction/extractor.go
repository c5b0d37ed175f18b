package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	invoiceNumberPattern = regexp.MustCompile(`(?im)^.*?invoice\s*(?:no\.?|number|#)?\s*[:#]?\s*([A-Z]{0,4}[-/]?\d[A-Z0-9/-]{2,19})\s*$`)
	totalPattern         = regexp.MustCompile(`(?i)(?:total\s*(?:due|amount)?|amount\s*due|balance\s*due)\s*(?:\(inc[^)]*\))?\s*[:]?\s*\$?\s*([\d,]+\.\d{2})`)
	subtotalPattern      = regexp.MustCompile(`(?i)sub\s*-?\s*total\s*[:]?\s*\$?\s*([\d,]+\.\d{2})`)
	gstPattern           = regexp.MustCompile(`(?i)(?:gst|tax)\s*(?:\(10%\)|10%)?\s*[:]?\s*\$?\s*([\d,]+\.\d{2})`)
	datePatterns         = []struct {
		re     *regexp.Regexp
		layout string
	}{
		{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), "2006-01-02"},
		{regexp.MustCompile(`\b(\d{2}/\d{2}/\d{4})\b`), "02/01/2006"},
		{regexp.MustCompile(`\b(\d{1,2} (?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]* \d{4})\b`), "2 January 2006"},
	}

	// Support item codes look like 01_011_0107_1_1, optionally with a
	// trailing claim-type suffix
	supportItemPattern = regexp.MustCompile(`\b(\d{2}_\d{3,5}_\d{4}_\d_\d(?:_T)?)\b`)
	lineAmountPattern  = regexp.MustCompile(`\$?\s*([\d,]+\.\d{2})`)
	quantityPattern    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d{1,2})?)\s*(?:x|hrs?|hours?|units?|each)\b`)
)

// Field weights for the confidence score
const (
	weightNumber    = 0.25
	weightDate      = 0.15
	weightTotal     = 0.35
	weightGST       = 0.10
	weightLineItems = 0.15
)

// HeuristicExtractor recovers invoice fields from recognized text with
// pattern matching. It never fails; sparse text just yields a low-confidence
// result.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates a new HeuristicExtractor
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// Extract parses recognized text into structured invoice fields
func (e *HeuristicExtractor) Extract(text string) (*Result, error) {
	result := &Result{}

	if m := invoiceNumberPattern.FindStringSubmatch(text); len(m) > 1 {
		result.InvoiceNumber = strings.ToUpper(m[1])
		result.Confidence += weightNumber
	}

	if date := findDate(text); date != nil {
		result.InvoiceDate = date
		result.Confidence += weightDate
	}

	if m := totalPattern.FindStringSubmatch(text); len(m) > 1 {
		result.TotalCents = parseCents(m[1])
		result.Confidence += weightTotal
	}
	if m := subtotalPattern.FindStringSubmatch(text); len(m) > 1 {
		result.SubtotalCents = parseCents(m[1])
	}
	if m := gstPattern.FindStringSubmatch(text); len(m) > 1 {
		result.GSTCents = parseCents(m[1])
		result.Confidence += weightGST
	}

	result.LineItems = extractLineItems(text)
	if len(result.LineItems) > 0 {
		result.Confidence += weightLineItems
	}

	result.normalize()
	return result, nil
}

func findDate(text string) *time.Time {
	for _, p := range datePatterns {
		if m := p.re.FindStringSubmatch(text); len(m) > 1 {
			if t, err := time.Parse(p.layout, m[1]); err == nil {
				return &t
			}
		}
	}
	return nil
}

// extractLineItems treats each line carrying a support item code as a billed
// line. The last amount on the line is its total.
func extractLineItems(text string) []LineItem {
	var items []LineItem
	for _, line := range strings.Split(text, "\n") {
		code := supportItemPattern.FindString(line)
		if code == "" {
			continue
		}

		amounts := lineAmountPattern.FindAllStringSubmatch(line, -1)
		if len(amounts) == 0 {
			continue
		}
		total := parseCents(amounts[len(amounts)-1][1])
		if total == 0 {
			continue
		}

		item := LineItem{
			SupportItemCode: code,
			Description:     describeLine(line, code),
			Quantity:        1,
			UnitPriceCents:  total,
			TotalCents:      total,
		}
		if m := quantityPattern.FindStringSubmatch(line); len(m) > 1 {
			if qty, err := strconv.ParseFloat(m[1], 64); err == nil && qty > 0 {
				item.Quantity = qty
				if len(amounts) >= 2 {
					item.UnitPriceCents = parseCents(amounts[0][1])
				} else {
					item.UnitPriceCents = int64(float64(total)/qty + 0.5)
				}
			}
		}
		items = append(items, item)
	}
	return items
}

func describeLine(line, code string) string {
	desc := strings.Replace(line, code, "", 1)
	desc = lineAmountPattern.ReplaceAllString(desc, "")
	return strings.Trim(strings.TrimSpace(desc), "-|: \t")
}

func parseCents(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(amount*100 + 0.5)
}
