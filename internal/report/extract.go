package report

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Pages reads back the plain text of a rendered report, one trimmed entry
// per page. Pages without a content stream yield "", so entry i is page i+1.
func Pages(data []byte) ([]string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open report pdf: %w", err)
	}
	pages := make([]string, doc.NumPage())
	for i := range pages {
		page := doc.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d of %d: %w", i+1, len(pages), err)
		}
		pages[i] = strings.TrimSpace(text)
	}
	return pages, nil
}

// ArchiveContent is the searchable text stored with an archived report:
// every page prefixed by a "[página N]" marker.
func ArchiveContent(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[página %d]\n%s", i+1, text)
	}
	return b.String()
}
