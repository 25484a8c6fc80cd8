package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

const (
	CodeMissingFile     = "MISSING_FILE"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
)

// DocumentValidator checks uploads before anything is written.
type DocumentValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

// ValidatorConfig holds the accepted extensions, their MIME types and the size limit.
type ValidatorConfig struct {
	MaxFileSize  int64               // bytes
	AllowedTypes map[string][]string // extension -> expected sniffed MIME types
}

// ValidationError is a client error: the request is rejected with no side effects.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// FileInfo describes an accepted upload.
type FileInfo struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType"`
	Extension string `json:"extension"`
	Hash      string `json:"hash"`
}

// NewDocumentValidator builds a validator; a nil config accepts PDFs up to 10 MiB.
func NewDocumentValidator(log logger.Logger, config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = &ValidatorConfig{
			MaxFileSize: 10 * 1024 * 1024,
			AllowedTypes: map[string][]string{
				".pdf": {"application/pdf"},
			},
		}
	}
	return &DocumentValidator{logger: log, config: config}
}

// ConfigForExtensions maps plain extensions to the MIME types the sniffer reports for them.
func ConfigForExtensions(maxSize int64, exts []string) *ValidatorConfig {
	allowed := make(map[string][]string, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		switch ext {
		case ".pdf":
			allowed[ext] = []string{"application/pdf"}
		default:
			allowed[ext] = nil
		}
	}
	return &ValidatorConfig{MaxFileSize: maxSize, AllowedTypes: allowed}
}

// MaxFileSize returns the upload limit in bytes.
func (v *DocumentValidator) MaxFileSize() int64 {
	return v.config.MaxFileSize
}

// ValidateHeader checks the name and declared size of an upload before its body is read.
// A negative size means unknown.
func (v *DocumentValidator) ValidateHeader(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return &ValidationError{
			Code:    CodeMissingFile,
			Message: "A file upload is required",
			Field:   "file",
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := v.config.AllowedTypes[ext]; !ok {
		return &ValidationError{
			Code:    CodeInvalidFileType,
			Message: fmt.Sprintf("File type %q is not allowed", ext),
			Field:   "extension",
		}
	}

	if size > v.config.MaxFileSize {
		return v.TooLarge()
	}
	return nil
}

// ValidateContent checks the received bytes and describes the upload.
// A MIME mismatch is logged, not rejected: an unreadable PDF still gets an instructional answer.
func (v *DocumentValidator) ValidateContent(filename string, content []byte) (*FileInfo, error) {
	if err := v.ValidateHeader(filename, int64(len(content))); err != nil {
		return nil, err
	}

	info := &FileInfo{
		Filename:  filename,
		Size:      int64(len(content)),
		Extension: strings.ToLower(filepath.Ext(filename)),
		MimeType:  http.DetectContentType(content),
		Hash:      calculateHash(content),
	}

	if len(content) > 0 && !v.mimeAllowed(info) {
		v.logger.Warn("Upload content does not match its extension",
			logger.String("filename", filename),
			logger.String("mimeType", info.MimeType),
		)
	}
	return info, nil
}

// TooLarge returns the size error, also used when a streamed body exceeds the limit.
func (v *DocumentValidator) TooLarge() error {
	return &ValidationError{
		Code:    CodeFileTooLarge,
		Message: fmt.Sprintf("File size exceeds maximum limit of %d bytes", v.config.MaxFileSize),
		Field:   "size",
	}
}

func (v *DocumentValidator) mimeAllowed(info *FileInfo) bool {
	allowed := v.config.AllowedTypes[info.Extension]
	if len(allowed) == 0 {
		return true
	}
	for _, mime := range allowed {
		if strings.HasPrefix(info.MimeType, mime) {
			return true
		}
	}
	return false
}

func calculateHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
