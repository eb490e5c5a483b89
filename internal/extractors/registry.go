package extractors

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
	"github.com/custodia-labs/jobmatch/internal/core/ports/driven"
	"github.com/custodia-labs/jobmatch/internal/extractors/docx"
	"github.com/custodia-labs/jobmatch/internal/extractors/html"
	"github.com/custodia-labs/jobmatch/internal/extractors/markdown"
	"github.com/custodia-labs/jobmatch/internal/extractors/pdf"
	"github.com/custodia-labs/jobmatch/internal/extractors/plaintext"
	"github.com/custodia-labs/jobmatch/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// extensionTypes covers extensions the platform MIME table often lacks.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".htm":      "text/html",
	".html":     "text/html",
	".docx":     docx.MIMEType,
	".pdf":      pdf.MIMEType,
}

// Registry maps MIME types to extractors. Later registrations win.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.TextExtractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]driven.TextExtractor)}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds an extractor for each of its MIME types.
func (r *Registry) Register(extractor driven.TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range extractor.SupportedMIMETypes() {
		r.extractors[t] = extractor
	}
}

// ExtractFile extracts text, choosing the extractor by MIME type or,
// when mimeType is empty, by the file name's extension.
func (r *Registry) ExtractFile(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	mediaType := resolveType(filename, mimeType)
	if mediaType == "" {
		return "", fmt.Errorf("%w: cannot determine the type of %q", domain.ErrUnsupportedType, filename)
	}

	r.mu.RLock()
	extractor, ok := r.extractors[mediaType]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mediaType)
	}

	logger.Debug("Extracting %s (%s, %d bytes)", filename, mediaType, len(data))
	text, err := extractor.Extract(ctx, data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s contains no text", domain.ErrInvalidInput, filename)
	}
	return text, nil
}

// SupportedMIMETypes returns all MIME types that can be extracted, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func resolveType(filename, mimeType string) string {
	if mimeType == "" {
		ext := strings.ToLower(filepath.Ext(filename))
		if t, ok := extensionTypes[ext]; ok {
			return t
		}
		mimeType = mime.TypeByExtension(ext)
	}
	if mimeType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
