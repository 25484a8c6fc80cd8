package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

func TestValidateHeader(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), nil)

	cases := []struct {
		name     string
		filename string
		size     int64
		code     string
	}{
		{"pdf ok", "report.pdf", 2048, ""},
		{"upper ext ok", "REPORT.PDF", 10, ""},
		{"unknown size ok", "report.pdf", -1, ""},
		{"at limit ok", "report.pdf", 10 * 1024 * 1024, ""},
		{"too large", "report.pdf", 11 * 1024 * 1024, CodeFileTooLarge},
		{"wrong type", "report.docx", 10, CodeInvalidFileType},
		{"no ext", "report", 10, CodeInvalidFileType},
		{"missing", "  ", 10, CodeMissingFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateHeader(tc.filename, tc.size)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Equal(t, tc.code, ve.Code)
			require.True(t, IsValidationError(err))
		})
	}
}

func TestValidateContentAcceptsEmptyPDF(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), nil)
	info, err := v.ValidateContent("empty.pdf", nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), info.Size)
	require.Equal(t, ".pdf", info.Extension)
	require.Len(t, info.Hash, 64)
}

func TestValidateContentLogsMimeMismatch(t *testing.T) {
	log := logger.NewTestLogger()
	v := NewDocumentValidator(log, ConfigForExtensions(1024, []string{"pdf"}))

	_, err := v.ValidateContent("notes.pdf", []byte("just some text"))
	require.NoError(t, err)
	require.Len(t, log.EntriesAt("WARN"), 1)

	_, err = v.ValidateContent("real.pdf", []byte("%PDF-1.4\n"))
	require.NoError(t, err)
	require.Len(t, log.EntriesAt("WARN"), 1)
}

func TestValidateContentRejectsOversize(t *testing.T) {
	v := NewDocumentValidator(logger.NewNop(), ConfigForExtensions(8, []string{".pdf"}))
	_, err := v.ValidateContent("big.pdf", make([]byte, 9))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, CodeFileTooLarge, ve.Code)
}
