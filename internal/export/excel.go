package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// Column layout of the payer-portal bulk upload sheet
var uploadHeaders = []string{
	"ClaimReference",
	"InvoiceID",
	"ParticipantID",
	"SupportItemCode",
	"Quantity",
	"UnitPrice",
	"Amount",
}

// ExcelExporter writes the bulk upload spreadsheet for a claim batch
type ExcelExporter struct {
	outputDir string
	sheetName string
	logger    *zap.Logger
}

// NewExcelExporter creates a new ExcelExporter writing under outputDir
func NewExcelExporter(outputDir string, logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{
		outputDir: outputDir,
		sheetName: "Claims",
		logger:    logger,
	}
}

// Export writes one row per claim line and returns the file path. Amounts are
// formatted in dollars, the unit the portal expects.
func (e *ExcelExporter) Export(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) (string, error) {
	e.logger.Info("Exporting claim batch",
		zap.Int64("batch_id", batch.ID),
		zap.String("reference", batch.Reference),
		zap.Int("claims", len(claims)))

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(e.sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		e.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	for col, header := range uploadHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		e.setCell(f, cell, header)
	}

	row := 2
	for _, claim := range claims {
		lines := claim.Lines
		if len(lines) == 0 {
			// A claim without stored lines is still claimable as one covering row
			lines = []entity.ClaimLine{{
				Quantity:       1,
				UnitPriceCents: claim.ClaimedCents,
				TotalCents:     claim.ClaimedCents,
			}}
		}
		for _, line := range lines {
			e.writeRow(f, row, claim, line)
			row++
		}
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	outputPath := filepath.Join(e.outputDir,
		fmt.Sprintf("%s_%s.xlsx", batch.Reference, time.Now().UTC().Format("20060102_150405")))
	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to save export file: %w", err)
	}

	e.logger.Info("Claim batch exported", zap.String("path", outputPath))
	return outputPath, nil
}

func (e *ExcelExporter) writeRow(f *excelize.File, row int, claim *entity.Claim, line entity.ClaimLine) {
	values := []interface{}{
		claim.Reference,
		claim.InvoiceID,
		claim.ParticipantID,
		line.SupportItemCode,
		line.Quantity,
		centsToDollars(line.UnitPriceCents),
		centsToDollars(line.TotalCents),
	}
	for col, value := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		e.setCell(f, cell, value)
	}
}

// setCell sets a cell value in the Excel file
func (e *ExcelExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(e.sheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func centsToDollars(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
