// Package export renders tabular report datasets as CSV or PDF.
package export

import "fmt"

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Notes   []string
	Headers []string
	Rows    []map[string]string
}

// Content types for rendered files.
const (
	ContentTypeCSV = "text/csv"
	ContentTypePDF = "application/pdf"
)

// ContentType maps a file extension to its MIME type.
func ContentType(ext string) string {
	switch ext {
	case "csv":
		return ContentTypeCSV
	case "pdf":
		return ContentTypePDF
	default:
		return "application/octet-stream"
	}
}

func requireHeaders(kind string, data Dataset) error {
	if len(data.Headers) == 0 {
		return fmt.Errorf("%s requires at least one header", kind)
	}
	return nil
}
