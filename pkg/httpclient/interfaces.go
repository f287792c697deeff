package httpclient

import (
	"context"
	"io"
)

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// FileField is a single multipart file part.
type FileField struct {
	Param    string
	FileName string
	Reader   io.Reader
}

// Request describes one outgoing call. Body and Files are mutually exclusive.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        []byte
	ContentType string
	Files       []FileField
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
}
