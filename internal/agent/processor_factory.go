package agent

import (
	"context"
	"fmt"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document/pdf"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document/textract"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

// NewExtractor builds the document extractor selected by cfg.Type.
func NewExtractor(ctx context.Context, cfg config.ExtractorConfig, log logger.Logger) (document.Extractor, error) {
	log.Info("Creating extractor", logger.String("type", cfg.Type))

	switch cfg.Type {
	case "", "pdf":
		return pdf.NewProcessor(log), nil
	case "textract":
		p, err := textract.NewProcessor(ctx, cfg.Textract, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create textract processor: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported extractor type: %s", cfg.Type)
	}
}
