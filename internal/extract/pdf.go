package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF concatenates the plain text of every page, each followed by a newline.
func extractPDF(content []byte) (text string, err error) {
	// The parser panics on some malformed object graphs.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", ErrEncrypted
		}
		return "", err
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			return "", fmt.Errorf("page %d: missing from page tree", pageNum)
		}
		if page.V.Key("Contents").Kind() != pdf.Null {
			pageText, err := page.GetPlainText(nil)
			if err != nil {
				return "", fmt.Errorf("page %d: %w", pageNum, err)
			}
			textBuilder.WriteString(pageText)
		}
		textBuilder.WriteString("\n")
	}

	out := textBuilder.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrNoText
	}
	return out, nil
}
