package extract

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Page is one page-level chunk of extracted text, the unit of
// embedding and retrieval.
type Page struct {
	Number int
	Text   string
}

func IsPDF(data []byte) bool {
	return len(data) >= 5 && bytes.HasPrefix(data, []byte("%PDF-"))
}

// Pages parses raw PDF bytes into ordered page-level chunks. Pages that
// yield no extractable text are kept as empty chunks so page numbering
// stays aligned with the source document.
func Pages(data []byte) ([]Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	total := r.NumPage()
	if total <= 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	fonts := make(map[string]*pdf.Font)
	out := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			out = append(out, Page{Number: i})
			continue
		}
		text, err := p.GetPlainText(fonts)
		if err != nil {
			// A single unreadable page should not sink the document.
			out = append(out, Page{Number: i})
			continue
		}
		out = append(out, Page{Number: i, Text: collapseWhitespace(text)})
	}
	return out, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
