package extraction

import "time"

// Result holds the structured fields recovered from an invoice document.
// Amounts are integer cents.
type Result struct {
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
	SubtotalCents int64      `json:"subtotal_cents"`
	GSTCents      int64      `json:"gst_cents"`
	TotalCents    int64      `json:"total_cents"`
	Confidence    float64    `json:"confidence"`
	LineItems     []LineItem `json:"line_items,omitempty"`
}

// LineItem is a single billed support line
type LineItem struct {
	SupportItemCode string  `json:"support_item_code"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	TotalCents      int64   `json:"total_cents"`
}

// normalize makes the amounts mutually consistent. Total always equals
// subtotal plus GST afterwards.
func (r *Result) normalize() {
	switch {
	case r.TotalCents == 0 && r.SubtotalCents > 0:
		r.TotalCents = r.SubtotalCents + r.GSTCents
	case r.SubtotalCents == 0 && r.TotalCents > 0:
		r.SubtotalCents = r.TotalCents - r.GSTCents
	case r.TotalCents != r.SubtotalCents+r.GSTCents:
		// Conflicting amounts; trust the total and discount confidence
		r.SubtotalCents = r.TotalCents - r.GSTCents
		r.Confidence -= 0.1
		if r.Confidence < 0 {
			r.Confidence = 0
		}
	}
}

// Merge overlays an assisted extraction onto a heuristic one. The assisted
// result is only trusted where it agrees with the heuristic total, or where
// the heuristics found no total at all.
func Merge(base, assisted *Result) *Result {
	if assisted == nil {
		return base
	}
	if base.TotalCents != 0 && assisted.TotalCents != 0 && base.TotalCents != assisted.TotalCents {
		return base
	}

	merged := *base
	if merged.InvoiceNumber == "" {
		merged.InvoiceNumber = assisted.InvoiceNumber
	}
	if merged.InvoiceDate == nil {
		merged.InvoiceDate = assisted.InvoiceDate
	}
	if merged.TotalCents == 0 {
		merged.SubtotalCents = assisted.SubtotalCents
		merged.GSTCents = assisted.GSTCents
		merged.TotalCents = assisted.TotalCents
	}
	if len(merged.LineItems) == 0 {
		merged.LineItems = assisted.LineItems
	}
	if assisted.Confidence > merged.Confidence {
		merged.Confidence = assisted.Confidence
	}
	merged.normalize()
	return &merged
}
