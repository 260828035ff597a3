package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

const defaultGitHubAPIURL = "https://api.github.com"

type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Owner       struct {
		Login string `json:"login"`
	} `json:"owner"`
}

// Entry is one item of a repository directory listing.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func (e Entry) IsDir() bool { return e.Type == "dir" }

func (e Entry) IsMarkdown() bool {
	return e.Type == "file" && strings.HasSuffix(strings.ToLower(e.Name), ".md")
}

type fileContent struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type GitHubClient struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewGitHubClient(baseURL, token string, client *http.Client) *GitHubClient {
	if baseURL == "" {
		baseURL = defaultGitHubAPIURL
	}
	return &GitHubClient{BaseURL: strings.TrimRight(baseURL, "/"), Token: token, HTTP: client}
}

func (c *GitHubClient) get(ctx context.Context, endpoint, fallback string, out interface{}) error {
	req, err := newRequest(ctx, c.BaseURL+endpoint)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", fallback, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		msg := fallback
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &APIError{Code: resp.StatusCode, Message: msg}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", fallback, err)
	}
	return nil
}

// escapePath escapes each segment of a repository path but keeps the slashes.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (c *GitHubClient) ListUserRepos(ctx context.Context, username string) ([]Repo, error) {
	var repos []Repo
	endpoint := fmt.Sprintf("/users/%s/repos?sort=updated&per_page=100", url.PathEscape(strings.TrimSpace(username)))
	if err := c.get(ctx, endpoint, "failed to fetch repositories", &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ListContents lists a directory, directories first, then by name.
func (c *GitHubClient) ListContents(ctx context.Context, owner, repo, dir string) ([]Entry, error) {
	var entries []Entry
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(repo), escapePath(dir))
	if err := c.get(ctx, endpoint, "failed to fetch repository contents", &entries); err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// FetchMarkdown downloads one file through the contents API, which returns
// it base64 encoded.
func (c *GitHubClient) FetchMarkdown(ctx context.Context, owner, repo, filePath string) (Script, error) {
	var file fileContent
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(repo), escapePath(filePath))
	if err := c.get(ctx, endpoint, "failed to fetch markdown file", &file); err != nil {
		return Script{}, err
	}
	if file.Encoding != "base64" || file.Content == "" {
		return Script{}, ErrUnsupportedEncoding
	}
	// the API breaks the payload into 60 column lines
	raw := strings.NewReplacer("\n", "", "\r", "").Replace(file.Content)
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Script{}, fmt.Errorf("decode %s: %w", filePath, err)
	}
	name := file.Name
	if name == "" {
		name = path.Base(filePath)
	}
	return Script{Text: normalizeText(string(decoded)), Filename: name}, nil
}

var repoURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// ParseRepoURL extracts owner and repository from a github.com URL.
func ParseRepoURL(rawURL string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

// parseRepoRef accepts either a github.com URL or an owner/repo pair.
func parseRepoRef(ref string) (owner, repo string, err error) {
	ref = strings.TrimSpace(ref)
	if owner, repo, ok := ParseRepoURL(ref); ok {
		return owner, repo, nil
	}
	parts := strings.Split(strings.Trim(ref, "/"), "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
	}
	return "", "", ErrInvalidRepoURL
}
