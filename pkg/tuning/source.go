package tuning

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// DefaultFetchTimeout bounds a single HTTP fetch.
const DefaultFetchTimeout = 10 * time.Second

// maxDocumentBytes caps how much of a tuning document is read.
const maxDocumentBytes = 4 << 20

// Source provides tuning documents.
type Source interface {
	// Load fetches and parses the current document.
	Load(ctx context.Context) (*Document, error)

	// String describes the source for logs and metrics.
	String() string
}

// NewSource returns an HTTPSource for http(s) URLs and a FileSource otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, &http.Client{Timeout: timeout})
	}
	return NewFileSource(location)
}

// FileSource reads a tuning document from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file path.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads and parses the file.
func (s *FileSource) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file %q: %w", s.path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileSource) String() string {
	return "file:" + s.path
}

// HTTPSource fetches a tuning document over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTP-backed source. A nil client gets
// DefaultFetchTimeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &HTTPSource{url: url, client: client}
}

// Load performs a GET and parses the body. Non-2xx responses are errors.
func (s *HTTPSource) Load(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tuning document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch tuning document: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning document: %w", err)
	}

	return Parse(data)
}

func (s *HTTPSource) String() string {
	return s.url
}

// MemorySource serves a fixed document. It is mainly used in tests.
type MemorySource struct {
	mu  sync.RWMutex
	doc *Document
	err error
}

// NewMemorySource creates an in-memory source.
func NewMemorySource(doc *Document) *MemorySource {
	return &MemorySource{doc: doc}
}

// Load returns the stored document or error.
func (s *MemorySource) Load(ctx context.Context) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.doc == nil {
		return nil, fmt.Errorf("no tuning document")
	}
	return s.doc, nil
}

// Set replaces the stored document and clears any error.
func (s *MemorySource) Set(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.err = nil
}

// SetError makes subsequent loads fail with err.
func (s *MemorySource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *MemorySource) String() string {
	return "memory"
}
