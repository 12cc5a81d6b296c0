package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// clear sky
	defaultConditionID = 800
	defaultHumidity    = 50.0
	defaultVisibility  = 10000.0
	maxErrorBody       = 512
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("weather provider not configured")

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather provider returned status %d", e.StatusCode)
}

// HTTPDoer is the subset of *http.Client the provider needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenWeatherMap fetches current conditions from the OpenWeatherMap v2.5 API.
type OpenWeatherMap struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
	now     func() time.Time
}

// NewOpenWeatherMap creates a provider. An empty baseURL means DefaultBaseURL;
// a nil client means http.DefaultClient.
func NewOpenWeatherMap(baseURL, apiKey string, client HTTPDoer) *OpenWeatherMap {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenWeatherMap{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		now:     time.Now,
	}
}

// Configured reports whether an API key is present.
func (p *OpenWeatherMap) Configured() bool {
	return p.apiKey != ""
}

type owmResponse struct {
	Main *struct {
		Temp      float64  `json:"temp"`
		FeelsLike *float64 `json:"feels_like"`
		Humidity  *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID   int    `json:"id"`
		Main string `json:"main"`
	} `json:"weather"`
	Rain *struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Wind *struct {
		Speed float64  `json:"speed"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"`
	Sys        *struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

// Fetch requests current weather for a point. Cancellation and deadlines come from ctx.
func (p *OpenWeatherMap) Fetch(ctx context.Context, lat, lon float64) (*Data, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", p.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		// the request URL carries the API key and the coordinates
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("failed to call weather provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	if body.Main == nil {
		return nil, errors.New("failed to decode weather response: missing main block")
	}

	return body.toData(p.now().UTC()), nil
}

func (r *owmResponse) toData(now time.Time) *Data {
	d := &Data{
		TempC:       r.Main.Temp,
		FeelsLikeC:  r.Main.Temp,
		HumidityPct: defaultHumidity,
		VisibilityM: defaultVisibility,
		Condition:   "unknown",
		ConditionID: defaultConditionID,
		IsDaylight:  true,
		FetchedAt:   now,
	}

	if r.Main.FeelsLike != nil {
		d.FeelsLikeC = *r.Main.FeelsLike
	}
	if r.Main.Humidity != nil {
		d.HumidityPct = *r.Main.Humidity
	}
	if r.Rain != nil {
		d.Rain1hMM = r.Rain.OneHour
	}
	if r.Wind != nil {
		d.WindSpeedMS = r.Wind.Speed
		d.WindGustMS = r.Wind.Gust
	}
	if r.Visibility != nil {
		d.VisibilityM = *r.Visibility
	}
	if len(r.Weather) > 0 {
		d.Condition = strings.ToLower(r.Weather[0].Main)
		d.ConditionID = r.Weather[0].ID
	}
	if r.Sys != nil && r.Sys.Sunrise != 0 && r.Sys.Sunset != 0 {
		ts := now.Unix()
		d.IsDaylight = r.Sys.Sunrise < ts && ts < r.Sys.Sunset
	}

	return d
}
