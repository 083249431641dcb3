package analyzer

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// PDFExtractor reads the text layer of PDF documents.
type PDFExtractor struct{}

// ExtractText returns the plain text of the document. The pdf package panics
// on some malformed files; that is reported as an error.
func (PDFExtractor) ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "pdf: open")
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", errors.Wrap(err, "pdf: read text")
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", errors.Wrap(err, "pdf: read text")
	}
	return buf.String(), nil
}
