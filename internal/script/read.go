package script

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadFile returns the text of a script file. Files ending in .pdf have their
// text extracted page by page; anything else is read as UTF-8 text.
// maxBytes <= 0 disables the size check.
func ReadFile(path string, maxBytes int64) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat script: %w", err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("script %s too large (%d bytes, max %d)", path, info.Size(), maxBytes)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := extractPDF(content)
		if err != nil {
			return "", fmt.Errorf("extract pdf script %s: %w", path, err)
		}
		return text, nil
	}
	return string(content), nil
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", err
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
