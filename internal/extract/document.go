package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/ppiankov/plagscan/internal/model"
	"go.uber.org/zap"
)

// SupportedExtensions lists the upload formats ExtractDocument understands.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}

// ExtractDocument turns an uploaded file into plain text. Size and format
// problems return model input errors; decoding failures return *model.ExtractionError.
func ExtractDocument(filename string, data []byte, maxBytes int64, logger *zap.Logger) (string, error) {
	if len(data) == 0 {
		return "", model.ErrEmptyUpload
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: max %d MB", model.ErrUploadTooLarge, maxBytes/(1024*1024))
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = PDFText(data, logger)
	case ".docx":
		text, err = DOCXText(data)
	case ".txt":
		text = TXTText(data)
	default:
		return "", model.ErrUnsupportedFormat
	}
	if err != nil {
		return "", &model.ExtractionError{Filename: filename, Err: err}
	}
	return text, nil
}

// DOCXText returns the non-blank lines of a .docx file. Paragraphs, line
// breaks and table cells each start a new line.
func DOCXText(data []byte) (text string, err error) {
	if err := checkDOCXParts(data); err != nil {
		return "", err
	}

	// docconv indexes package parts named in [Content_Types].xml without
	// checking that they exist.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("convert docx: malformed package: %v", r)
		}
	}()

	raw, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("convert docx: %w", err)
	}
	return nonBlankLines(raw), nil
}

func checkDOCXParts(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open docx: %w", err)
	}
	have := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		have[f.Name] = true
	}
	for _, part := range []string{"[Content_Types].xml", "word/document.xml"} {
		if !have[part] {
			return fmt.Errorf("%s not found", part)
		}
	}
	return nil
}

// nonBlankLines collapses whitespace inside each line and drops empty ones.
func nonBlankLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}

// TXTText decodes UTF-8, dropping invalid bytes.
func TXTText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
