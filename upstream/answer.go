package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/bytedance/sonic"

	"assistant-api/domain"
)

const defaultAnswerEndpoint = "https://gemini.googleapis.com/v1/models/text-bison-001:predict"

const (
	answerTemperature     = 0.7
	answerMaxOutputTokens = 256
)

// AnswerClient posts general questions to the Gemini text-completion endpoint.
// It handles the fallback branch of the classifier.
type AnswerClient struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client
}

type answerRequest struct {
	Instances  []answerInstance `json:"instances"`
	Parameters answerParameters `json:"parameters"`
}

type answerInstance struct {
	Content string `json:"content"`
}

type answerParameters struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Answer sends the raw query text and returns the first prediction's content.
func (c *AnswerClient) Answer(ctx context.Context, query string) (domain.GeneralReply, error) {
	if c.APIKey == "" {
		return domain.GeneralReply{Text: "I do not understand that yet, and Gemini API key is not configured."}, nil
	}

	payload, err := sonic.Marshal(answerRequest{
		Instances:  []answerInstance{{Content: query}},
		Parameters: answerParameters{Temperature: answerTemperature, MaxOutputTokens: answerMaxOutputTokens},
	})
	if err != nil {
		return domain.GeneralReply{}, err
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultAnswerEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.GeneralReply{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClientOrDefault(c.HTTP).Do(req)
	if err != nil {
		return domain.GeneralReply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GeneralReply{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.GeneralReply{}, &APIError{Provider: "gemini", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out struct {
		Predictions []struct {
			Content string `json:"content"`
		} `json:"predictions"`
	}
	if err := sonic.Unmarshal(body, &out); err != nil {
		return domain.GeneralReply{}, err
	}
	if len(out.Predictions) == 0 {
		return domain.GeneralReply{Text: "Sorry, no response from Gemini AI."}, nil
	}
	return domain.GeneralReply{Text: out.Predictions[0].Content}, nil
}
