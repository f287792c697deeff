package taskclient

import "fmt"

// TransportError is returned when the request never produced a response
// (connection refused, DNS failure, timeout, cancelled context).
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is returned for any non-2xx response status.
type ServerError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: response status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: response status %d: %s", e.Op, e.StatusCode, e.Body)
}

// MalformedResponseError is returned when a response body is not valid JSON.
type MalformedResponseError struct {
	Op   string
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// FileAccessError is returned when a screenshot file cannot be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("open screenshot %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }
