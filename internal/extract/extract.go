// Package extract turns an uploaded document into the flat text handed to the prompt.
package extract

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the resolved document type.
type Kind string

const (
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindPDF      Kind = "pdf"
)

// Document is an upload as received from the browser.
type Document struct {
	Filename    string
	ContentType string
	Content     []byte
}

var (
	ErrUnsupportedType = errors.New("unsupported file type (only .txt, .md and .pdf are allowed)")
	ErrInvalidEncoding = errors.New("content is not valid UTF-8 text")
	ErrEncrypted       = errors.New("pdf is encrypted")
	ErrNoText          = errors.New("no extractable text")
)

// Error is the extraction failure surfaced to callers. It wraps one of the
// sentinel errors above or the underlying parser error.
type Error struct {
	Filename string
	Kind     Kind
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("extract %q: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("extract %q (%s): %v", e.Filename, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var declaredKinds = map[string]Kind{
	"text/plain":      KindText,
	"text/markdown":   KindMarkdown,
	"text/x-markdown": KindMarkdown,
	"application/pdf": KindPDF,
}

var extensionKinds = map[string]Kind{
	".txt":      KindText,
	".md":       KindMarkdown,
	".markdown": KindMarkdown,
	".pdf":      KindPDF,
}

// DetectKind resolves the document type from the declared MIME type, then the
// filename extension, then the content itself.
func DetectKind(doc Document) (Kind, error) {
	if doc.ContentType != "" {
		if mediaType, _, err := mime.ParseMediaType(doc.ContentType); err == nil {
			if kind, ok := declaredKinds[strings.ToLower(mediaType)]; ok {
				return kind, nil
			}
		}
	}
	if kind, ok := extensionKinds[strings.ToLower(filepath.Ext(doc.Filename))]; ok {
		return kind, nil
	}
	sniffed := mimetype.Detect(doc.Content)
	switch {
	case sniffed.Is("application/pdf"):
		return KindPDF, nil
	case sniffed.Is("text/plain"):
		return KindText, nil
	}
	return "", ErrUnsupportedType
}

// Extract returns the document text. PDFs are read page by page; text and
// markdown are decoded as-is.
func Extract(doc Document) (string, error) {
	kind, err := DetectKind(doc)
	if err != nil {
		return "", &Error{Filename: doc.Filename, Err: err}
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = extractPDF(doc.Content)
	default:
		text, err = decodeText(doc.Content)
	}
	if err != nil {
		return "", &Error{Filename: doc.Filename, Kind: kind, Err: err}
	}
	return text, nil
}
