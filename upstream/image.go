package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/bytedance/sonic"

	"assistant-api/domain"
)

const defaultImageBaseURL = "https://api.unsplash.com"

// ImageStrategy selects how the image client resolves a subject to a URL.
type ImageStrategy string

const (
	// StrategyRandom asks for one random photo matching the subject.
	StrategyRandom ImageStrategy = "random"
	// StrategySearch searches and picks the first result.
	StrategySearch ImageStrategy = "search"
)

// ImageClient looks up a photo for a subject via the Unsplash API.
type ImageClient struct {
	AccessKey string
	Strategy  ImageStrategy
	BaseURL   string
	HTTP      *http.Client
}

// Find resolves the subject to an image URL using the configured strategy.
// An empty strategy behaves as StrategyRandom.
func (c *ImageClient) Find(ctx context.Context, subject string) (domain.ImageReply, error) {
	if c.AccessKey == "" {
		return domain.ImageReply{Text: "Image API key not configured."}, nil
	}
	if c.Strategy == StrategySearch {
		return c.searchFirst(ctx, subject)
	}
	return c.random(ctx, subject)
}

func (c *ImageClient) random(ctx context.Context, subject string) (domain.ImageReply, error) {
	endpoint := fmt.Sprintf("%s/photos/random?query=%s&client_id=%s",
		c.baseURL(), url.QueryEscape(subject), url.QueryEscape(c.AccessKey))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.ImageReply{}, err
	}

	var payload struct {
		URLs struct {
			Small string `json:"small"`
		} `json:"urls"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return domain.ImageReply{}, err
	}
	return domain.ImageReply{
		Text:     fmt.Sprintf("Here is an image for %q:", subject),
		ImageURL: payload.URLs.Small,
	}, nil
}

func (c *ImageClient) searchFirst(ctx context.Context, subject string) (domain.ImageReply, error) {
	endpoint := fmt.Sprintf("%s/search/photos?query=%s&per_page=1&client_id=%s",
		c.baseURL(), url.QueryEscape(subject), url.QueryEscape(c.AccessKey))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return domain.ImageReply{}, err
	}

	var payload struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return domain.ImageReply{}, err
	}
	if len(payload.Results) == 0 {
		return domain.ImageReply{Text: fmt.Sprintf("No image found for %q.", subject)}, nil
	}
	return domain.ImageReply{
		Text:     fmt.Sprintf("Here is an image for %q:", subject),
		ImageURL: payload.Results[0].URLs.Regular,
	}, nil
}

func (c *ImageClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClientOrDefault(c.HTTP).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: "unsplash", StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (c *ImageClient) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultImageBaseURL
}
