package ytweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
)

var (
	videoPattern    = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)
	ErrNoVideoMatch = errors.New("no video found for the given query")
)

// Searcher finds videos by scraping the YouTube results page.
type Searcher struct {
	BaseURL string
	Client  *http.Client
}

// NewSearcher returns a searcher against www.youtube.com.
func NewSearcher(client *http.Client) *Searcher {
	return &Searcher{BaseURL: "https://www.youtube.com", Client: client}
}

// First returns the watch URL of the top result for query.
func (s *Searcher) First(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", s.BaseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("YouTube search failed with status code %v", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	m := videoPattern.FindSubmatch(body)
	if m == nil {
		return "", ErrNoVideoMatch
	}
	return fmt.Sprintf("%s/watch?v=%s", s.BaseURL, m[1]), nil
}
