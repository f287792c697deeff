package taskclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/crawl-agent-client/pkg/httpclient"
)

const (
	pathGetTask        = "/get_task"
	pathSaveResults    = "/save_results"
	pathAddURL         = "/add_url"
	pathLogError       = "/log_error"
	pathSaveScreenshot = "/save_screenshot"

	screenshotField = "screenshot"
	requestIDHeader = "X-Request-ID"
	contentTypeJSON = "application/json"

	defaultTimeout = 60 * time.Second
)

// Client talks to the coordinating agent server. It holds no per-call state
// and is safe for concurrent use.
type Client struct {
	baseURL string
	http    httpclient.Client
	log     Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default resty transport.
func WithHTTPClient(c httpclient.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the logger used for per-call diagnostics.
func WithLogger(log Logger) Option {
	return func(cl *Client) { cl.log = ensureLogger(log) }
}

// New builds a client for the server at baseURL (e.g. http://localhost:5001).
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	c := &Client{
		baseURL: baseURL,
		log:     noopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = httpclient.NewRestyClient(defaultTimeout)
	}
	return c, nil
}

// BaseURL returns the server address all calls are made against.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchTask asks the server for the current task. A nil Task with a nil error
// means the server replied with JSON null (no task assigned).
func (c *Client) FetchTask(ctx context.Context) (Task, error) {
	const op = "get_task"

	raw, err := c.call(ctx, op, httpclient.Request{URL: c.baseURL + pathGetTask})
	if err != nil {
		return nil, err
	}

	var task Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, &MalformedResponseError{Op: op, Body: snippet(raw), Err: err}
	}
	if task == nil {
		return nil, nil
	}

	if v, ok := task[metadataField].(string); ok {
		md, err := DecodeMetadata(v)
		if err != nil {
			return nil, fmt.Errorf("%s: decode json_metadata: %w", op, err)
		}
		if md.Kind == MetadataRaw {
			c.log.DebugObj("json_metadata kept as raw string", "task_meta", map[string]any{
				"task_id": task.ID(),
			})
		}
		task[metadataField] = md.Value
	}
	return task, nil
}

// SaveResult submits result as the JSON body of a result report.
func (c *Client) SaveResult(ctx context.Context, result any) (any, error) {
	return c.postJSON(ctx, "save_results", pathSaveResults, result)
}

// AddURL registers a newly discovered URL. jsonMetadata may be nil, in which
// case json_metadata is sent as null.
func (c *Client) AddURL(ctx context.Context, url string, jsonMetadata any) (any, error) {
	return c.postJSON(ctx, "add_url", pathAddURL, addURLBody{URL: url, JSONMetadata: jsonMetadata})
}

// LogError reports an error message to the server.
func (c *Client) LogError(ctx context.Context, message string) (any, error) {
	return c.postJSON(ctx, "log_error", pathLogError, logErrorBody{Message: message})
}

// SaveScreenshot uploads the file at path as the multipart field "screenshot".
func (c *Client) SaveScreenshot(ctx context.Context, path string) (any, error) {
	const op = "save_screenshot"

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	defer f.Close()

	raw, err := c.call(ctx, op, httpclient.Request{
		URL: c.baseURL + pathSaveScreenshot,
		Files: []httpclient.FileField{{
			Param:    screenshotField,
			FileName: filepath.Base(path),
			Reader:   f,
		}},
	})
	if err != nil {
		return nil, err
	}
	return decodeAny(op, raw)
}

type addURLBody struct {
	URL          string `json:"url"`
	JSONMetadata any    `json:"json_metadata"`
}

type logErrorBody struct {
	Message string `json:"message"`
}

func (c *Client) postJSON(ctx context.Context, op, path string, body any) (any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal body: %w", op, err)
	}

	raw, err := c.call(ctx, op, httpclient.Request{
		URL:         c.baseURL + path,
		Body:        payload,
		ContentType: contentTypeJSON,
	})
	if err != nil {
		return nil, err
	}
	return decodeAny(op, raw)
}

// call performs one POST and returns the body of a 2xx response.
func (c *Client) call(ctx context.Context, op string, req httpclient.Request) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	reqID := uuid.NewString()
	req.Method = http.MethodPost
	req.Headers = map[string]string{requestIDHeader: reqID}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		c.log.WarnObj("agent call failed", "agent_call", map[string]any{
			"op":         op,
			"request_id": reqID,
			"error":      err.Error(),
		})
		return nil, &TransportError{Op: op, URL: req.URL, Err: err}
	}

	status := resp.StatusCode()
	c.log.DebugObj("agent call completed", "agent_call", map[string]any{
		"op":         op,
		"request_id": reqID,
		"status":     status,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if status < 200 || status > 299 {
		return nil, &ServerError{Op: op, StatusCode: status, Body: snippet(resp.Body())}
	}
	return resp.Body(), nil
}

func decodeAny(op string, raw []byte) (any, error) {
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &MalformedResponseError{Op: op, Body: snippet(raw), Err: err}
	}
	return out, nil
}

func snippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return string(bytes.TrimSpace(body))
}
