package driven

import "context"

// TextExtractor turns document bytes into plain text.
// Each extractor handles specific MIME types (e.g., DOCX, HTML).
type TextExtractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract returns the document text.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ExtractorRegistry selects the extractor for a file.
type ExtractorRegistry interface {
	// Register adds an extractor to the registry.
	Register(extractor TextExtractor)

	// ExtractFile extracts text from data, choosing the extractor by MIME
	// type or, when mimeType is empty, by the file name's extension.
	ExtractFile(ctx context.Context, filename, mimeType string, data []byte) (string, error)

	// SupportedMIMETypes returns all MIME types that can be extracted.
	SupportedMIMETypes() []string
}
