package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"assistant-api/domain"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// WeatherClient answers current-weather queries via the OpenWeather API.
type WeatherClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// CurrentWeather fetches the current conditions for a city, metric units.
func (c *WeatherClient) CurrentWeather(ctx context.Context, city string) (domain.WeatherReply, error) {
	if c.APIKey == "" {
		return domain.WeatherReply{Text: "Weather API key not configured."}, nil
	}

	base := c.BaseURL
	if base == "" {
		base = defaultWeatherBaseURL
	}
	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		base, url.QueryEscape(city), url.QueryEscape(c.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.WeatherReply{}, err
	}
	resp, err := httpClientOrDefault(c.HTTP).Do(req)
	if err != nil {
		return domain.WeatherReply{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WeatherReply{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.WeatherReply{}, &APIError{Provider: "openweather", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return domain.WeatherReply{}, err
	}

	description := ""
	if len(payload.Weather) > 0 {
		description = payload.Weather[0].Description
	}
	temp := strconv.FormatFloat(payload.Main.Temp, 'f', -1, 64)
	return domain.WeatherReply{
		Text: fmt.Sprintf("Current weather in %s: %s, temperature is %s°C.", city, description, temp),
	}, nil
}
