package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const defaultGoogleDocsBaseURL = "https://docs.google.com"

var (
	docIDPattern     = regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`)
	bareDocIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-_]{20,}$`)
)

// ExtractDocID accepts a document URL or a bare document id.
func ExtractDocID(input string) (string, error) {
	input = strings.TrimSpace(input)
	if m := docIDPattern.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}
	if bareDocIDPattern.MatchString(input) {
		return input, nil
	}
	return "", ErrInvalidDocURL
}

// GoogleDocsClient reads publicly shared documents through the plain-text
// export endpoint.
type GoogleDocsClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewGoogleDocsClient(baseURL string, client *http.Client) *GoogleDocsClient {
	if baseURL == "" {
		baseURL = defaultGoogleDocsBaseURL
	}
	return &GoogleDocsClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: client}
}

func (c *GoogleDocsClient) Fetch(ctx context.Context, docID string) (Script, error) {
	endpoint := fmt.Sprintf("%s/document/d/%s/export?format=txt", c.BaseURL, url.PathEscape(docID))
	req, err := newRequest(ctx, endpoint)
	if err != nil {
		return Script{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Script{}, fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Script{}, &APIError{Code: resp.StatusCode, Message: "failed to fetch document"}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Script{}, fmt.Errorf("read document: %w", err)
	}
	text := normalizeText(string(body))
	if strings.TrimSpace(text) == "" {
		return Script{}, ErrEmptyScript
	}
	return Script{Text: text, Filename: "gdoc:" + docID}, nil
}

// FetchURL resolves the id from a pasted URL and fetches it.
func (c *GoogleDocsClient) FetchURL(ctx context.Context, input string) (Script, error) {
	id, err := ExtractDocID(input)
	if err != nil {
		return Script{}, err
	}
	return c.Fetch(ctx, id)
}
