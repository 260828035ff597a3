package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractDocID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{in: "https://docs.google.com/document/d/1AbC-d_EfGh/edit", want: "1AbC-d_EfGh"},
		{in: "  https://docs.google.com/document/d/xyz/edit?usp=sharing ", want: "xyz"},
		{in: "1234567890abcdefghijABCDEF", want: "1234567890abcdefghijABCDEF"},
		{in: "https://example.com/not-a-doc", err: true},
		{in: "short", err: true},
		{in: "", err: true},
	}
	for _, tc := range cases {
		got, err := ExtractDocID(tc.in)
		if tc.err {
			if !errors.Is(err, ErrInvalidDocURL) {
				t.Fatalf("ExtractDocID(%q) err=%v want ErrInvalidDocURL", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ExtractDocID(%q)=%q,%v want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestGoogleDocsFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/d/abc123/export" || r.URL.Query().Get("format") != "txt" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		w.Write([]byte("\ufeffHello\r\nWorld\r\n"))
	}))
	defer srv.Close()

	client := NewGoogleDocsClient(srv.URL, srv.Client())
	script, err := client.Fetch(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if script.Text != "Hello\nWorld\n" || script.Filename != "gdoc:abc123" {
		t.Fatalf("script=%+v", script)
	}

	script, err = client.FetchURL(context.Background(), "https://docs.google.com/document/d/abc123/edit")
	if err != nil || script.Filename != "gdoc:abc123" {
		t.Fatalf("FetchURL()=%+v,%v", script, err)
	}
}

func TestGoogleDocsFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/document/d/private/export":
			w.WriteHeader(http.StatusUnauthorized)
		case "/document/d/empty/export":
			w.Write([]byte(" \n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := NewGoogleDocsClient(srv.URL+"/", srv.Client())

	_, err := client.Fetch(context.Background(), "private")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusUnauthorized {
		t.Fatalf("err=%v want 401 APIError", err)
	}

	if _, err := client.Fetch(context.Background(), "empty"); !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("err=%v want ErrEmptyScript", err)
	}

	if _, err := client.FetchURL(context.Background(), "nonsense"); !errors.Is(err, ErrInvalidDocURL) {
		t.Fatalf("err=%v want ErrInvalidDocURL", err)
	}
}
