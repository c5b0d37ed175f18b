package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// LogSender implements port.NotificationSender by writing the approval request
// to the log. It stands in for the mail and SMS gateways in development and in
// deployments where delivery is handled by an external automation watching the
// event stream.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// SendApprovalRequest logs the request destined for the participant
func (s *LogSender) SendApprovalRequest(ctx context.Context, participant *entity.Participant, invoice *entity.Invoice, approvalURL string) error {
	contact := participant.ApprovalContact()
	if contact == "" {
		return fmt.Errorf("participant %d has no approval contact", participant.ID)
	}

	s.logger.Info("Approval request dispatched",
		zap.Int64("participant_id", participant.ID),
		zap.String("method", participant.ApprovalMethod),
		zap.String("contact", contact),
		zap.Int64("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("total_cents", invoice.TotalCents),
		zap.String("approval_url", approvalURL))
	return nil
}

// Verify interface compliance
var _ port.NotificationSender = (*LogSender)(nil)
