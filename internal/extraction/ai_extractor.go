package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const extractionSystemPrompt = "You are an expert at reading Australian NDIS provider invoices. " +
	"Extract structured data from OCR text. All monetary values are integer cents. " +
	"Use null for fields you cannot find. Never guess amounts."

// AIExtractor is a second-pass field extractor backed by a chat completion
// model. It is consulted when pattern matching comes back low-confidence.
type AIExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewAIExtractor creates a new AIExtractor
func NewAIExtractor(apiKey, model string, logger *zap.Logger) *AIExtractor {
	return &AIExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

type aiInvoicePayload struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
	SubtotalCents int64  `json:"subtotal_cents"`
	GSTCents      int64  `json:"gst_cents"`
	TotalCents    int64  `json:"total_cents"`
	LineItems     []struct {
		SupportItemCode string  `json:"support_item_code"`
		Description     string  `json:"description"`
		Quantity        float64 `json:"quantity"`
		UnitPriceCents  int64   `json:"unit_price_cents"`
		TotalCents      int64   `json:"total_cents"`
	} `json:"line_items"`
}

// Extract asks the model for structured invoice fields
func (e *AIExtractor) Extract(ctx context.Context, text string) (*Result, error) {
	prompt := fmt.Sprintf(`Extract invoice information from this OCR text:

%s

Return JSON with this structure:
{
  "invoice_number": "string",
  "invoice_date": "YYYY-MM-DD",
  "subtotal_cents": integer,
  "gst_cents": integer,
  "total_cents": integer,
  "line_items": [
    {
      "support_item_code": "NDIS code like 01_011_0107_1_1",
      "description": "string",
      "quantity": float,
      "unit_price_cents": integer,
      "total_cents": integer
    }
  ]
}`, text)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractionSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Error("AI extraction call failed", zap.Error(err))
		return nil, fmt.Errorf("ai extraction: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("ai extraction: empty response")
	}

	var payload aiInvoicePayload
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &payload); err != nil {
		e.logger.Error("Failed to parse AI extraction response",
			zap.Error(err),
			zap.String("content", resp.Choices[0].Message.Content))
		return nil, fmt.Errorf("parse ai extraction response: %w", err)
	}

	result := &Result{
		InvoiceNumber: payload.InvoiceNumber,
		SubtotalCents: payload.SubtotalCents,
		GSTCents:      payload.GSTCents,
		TotalCents:    payload.TotalCents,
		Confidence:    0.9,
	}
	if payload.InvoiceDate != "" {
		if t, err := time.Parse("2006-01-02", payload.InvoiceDate); err == nil {
			result.InvoiceDate = &t
		}
	}
	for _, l := range payload.LineItems {
		result.LineItems = append(result.LineItems, LineItem{
			SupportItemCode: l.SupportItemCode,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPriceCents:  l.UnitPriceCents,
			TotalCents:      l.TotalCents,
		})
	}
	result.normalize()

	e.logger.Info("AI extraction completed",
		zap.String("invoice_number", result.InvoiceNumber),
		zap.Int64("total_cents", result.TotalCents))
	return result, nil
}
