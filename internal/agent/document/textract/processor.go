package textract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/wahid18-maqs/blood-test-analyser/config"
	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

// API is the subset of the Textract client the processor calls.
type API interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

type Processor struct {
	client        API
	logger        logger.Logger
	minConfidence float32
}

func NewProcessor(ctx context.Context, cfg config.TextractConfig, log logger.Logger) (*Processor, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg.MinConfidence, log), nil
}

// NewWithClient wraps an existing Textract client.
func NewWithClient(client API, minConfidence float32, log logger.Logger) *Processor {
	return &Processor{
		client:        client,
		logger:        log,
		minConfidence: minConfidence,
	}
}

// Extract sends the document to Textract and keeps LINE blocks at or above the
// configured confidence. Textract rejecting the document itself yields the
// unreadable-document text; any other service failure is returned as an error.
func (p *Processor) Extract(ctx context.Context, reader io.Reader) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return document.EmptyDocumentText, nil
	}

	result, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: data},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if rejectedDocument(err) {
			p.logger.Warn("Textract rejected document", logger.Error(err))
			return document.UnreadableDocumentText, nil
		}
		return "", fmt.Errorf("failed to analyze document: %w", err)
	}

	text := document.CleanText(strings.Join(p.lines(result.Blocks), "\n"))
	if text == "" {
		return document.EmptyDocumentText, nil
	}
	return text, nil
}

func rejectedDocument(err error) bool {
	var unsupported *types.UnsupportedDocumentException
	var bad *types.BadDocumentException
	var tooLarge *types.DocumentTooLargeException
	return errors.As(err, &unsupported) || errors.As(err, &bad) || errors.As(err, &tooLarge)
}

func (p *Processor) lines(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		if block.Confidence == nil || *block.Confidence < p.minConfidence {
			continue
		}
		texts = append(texts, *block.Text)
	}
	return texts
}

// textract client doesn't need special cleanup
func (p *Processor) Close() error {
	return nil
}
