package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Script is the text being prompted. It is replaced wholesale on every load.
type Script struct {
	Text     string
	Filename string
}

var (
	ErrInvalidDocURL       = errors.New("invalid Google Docs URL")
	ErrInvalidRepoURL      = errors.New("invalid GitHub repository URL")
	ErrUnsupportedEncoding = errors.New("unsupported content encoding or empty content")
	ErrEmptyScript         = errors.New("no text to prompt")
	ErrNotMarkdown         = errors.New("only .md files can be loaded")
)

// APIError carries a failed remote response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Code)
}

const userAgent = "teleprompt/1.0 (+https://github.com)"

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// normalizeText strips a byte order mark and folds CRLF/CR line endings.
func normalizeText(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

type scriptLoadedMsg struct {
	script Script
	source string
}

type fetchFailedMsg struct {
	source string
	err    error
}

// fetchScriptCmd runs a fetch off the UI loop and reports back as a message.
func fetchScriptCmd(source string, timeout time.Duration, fetch func(ctx context.Context) (Script, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		script, err := fetch(ctx)
		if err != nil {
			return fetchFailedMsg{source: source, err: err}
		}
		return scriptLoadedMsg{script: script, source: source}
	}
}
