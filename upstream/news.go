package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"assistant-api/domain"
)

const (
	defaultNewsBaseURL = "https://newsapi.org/v2"
	defaultNewsCountry = "us"
	headlineCount      = 3
)

// NewsClient fetches top headlines from NewsAPI for a configured country.
type NewsClient struct {
	APIKey  string
	Country string
	BaseURL string
	HTTP    *http.Client
}

// TopHeadlines returns the first three headlines as an enumerated list with a
// header line.
func (c *NewsClient) TopHeadlines(ctx context.Context) (domain.NewsReply, error) {
	if c.APIKey == "" {
		return domain.NewsReply{Text: "News API key not configured."}, nil
	}

	base := c.BaseURL
	if base == "" {
		base = defaultNewsBaseURL
	}
	country := c.Country
	if country == "" {
		country = defaultNewsCountry
	}
	endpoint := fmt.Sprintf("%s/top-headlines?country=%s&pageSize=%d&apiKey=%s",
		base, url.QueryEscape(country), headlineCount, url.QueryEscape(c.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.NewsReply{}, err
	}
	resp, err := httpClientOrDefault(c.HTTP).Do(req)
	if err != nil {
		return domain.NewsReply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewsReply{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.NewsReply{}, &APIError{Provider: "newsapi", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Articles []struct {
			Title string `json:"title"`
		} `json:"articles"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return domain.NewsReply{}, err
	}

	lines := []string{"Latest news headlines:"}
	for i, a := range payload.Articles {
		if i == headlineCount {
			break
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, a.Title))
	}
	return domain.NewsReply{Text: strings.Join(lines, "\n")}, nil
}
