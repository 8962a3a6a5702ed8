// Package feed queries the external score feed: per-miner scores for the
// top-N population, the enabled-environment registry, and the scoring
// policy. Field presence is loose on the wire; callers get explicit
// defaults applied exactly once here.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// EnvScore is one miner's raw per-environment entry.
type EnvScore struct {
	Score        float64  `json:"score"`
	SampleCount  int      `json:"sample_count"`
	Threshold    float64  `json:"threshold"`
	Completeness *float64 `json:"completeness"`
}

// CompletenessOrDefault returns the reported completeness, defaulting to a
// fully delivered problem set when the feed omitted the field.
func (e EnvScore) CompletenessOrDefault() float64 {
	if e.Completeness == nil {
		return 1.0
	}
	return *e.Completeness
}

// MinerScore is one miner's full score-feed entry.
type MinerScore struct {
	Hotkey        string              `json:"miner_hotkey"`
	FirstBlock    int64               `json:"first_block"`
	TotalSamples  int                 `json:"total_samples"`
	OverallScore  float64             `json:"overall_score"`
	Model         string              `json:"model"`
	ModelRevision string              `json:"model_revision"`
	ScoresByEnv   map[string]EnvScore `json:"scores_by_env"`
}

// ScorePayload is the /scores/latest response. BlockNumber 0 means the feed
// has no data yet.
type ScorePayload struct {
	BlockNumber int64        `json:"block_number"`
	Scores      []MinerScore `json:"scores"`
}

// ScoringPolicy carries validator scoring parameters relevant here.
type ScoringPolicy struct {
	MinCompleteness *float64 `json:"min_completeness"`
}

type Client interface {
	LatestScores(ctx context.Context, top int) (*ScorePayload, error)
	Environments(ctx context.Context) ([]string, error)
	ScoringPolicy(ctx context.Context) (*ScoringPolicy, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("feed %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) LatestScores(ctx context.Context, top int) (*ScorePayload, error) {
	data, err := c.doReq(ctx, "GET", "/scores/latest?top="+strconv.Itoa(top))
	if err != nil {
		return nil, err
	}

	// The feed reports its own failures inside a 200 body.
	var status struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &status); err == nil && status.Success != nil && !*status.Success {
		return nil, fmt.Errorf("feed error response: %s", status.Error)
	}

	var payload ScorePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *HTTPClient) Environments(ctx context.Context) ([]string, error) {
	data, err := c.doReq(ctx, "GET", "/config/environments")
	if err != nil {
		return nil, err
	}
	var cfg struct {
		ParamValue map[string]struct {
			EnabledForScoring bool `json:"enabled_for_scoring"`
		} `json:"param_value"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	var enabled []string
	for name, env := range cfg.ParamValue {
		if env.EnabledForScoring {
			enabled = append(enabled, name)
		}
	}
	sort.Strings(enabled)
	return enabled, nil
}

func (c *HTTPClient) ScoringPolicy(ctx context.Context) (*ScoringPolicy, error) {
	data, err := c.doReq(ctx, "GET", "/scores/weights/latest")
	if err != nil {
		return nil, err
	}
	var policy ScoringPolicy
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}
