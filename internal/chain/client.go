package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Metagraph is the dense population view at the current chain block. The
// slice index of a hotkey is the miner's UID.
type Metagraph struct {
	Block    int64    `json:"block"`
	Hotkeys  []string `json:"hotkeys"`
	Coldkeys []string `json:"coldkeys"`
}

// Commitment is one historical on-chain commitment record for a miner.
type Commitment struct {
	Block     int64  `json:"block"`
	Model     string `json:"model"`
	Revision  string `json:"revision"`
	ServiceID string `json:"service_id"`
}

type Client interface {
	Metagraph(ctx context.Context) (*Metagraph, error)
	Commitments(ctx context.Context) (map[string][]Commitment, error)
}

type HTTPClient struct {
	baseURL    string
	netuid     int
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, netuid int) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		netuid:     netuid,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
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
		return nil, fmt.Errorf("chain %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) Metagraph(ctx context.Context) (*Metagraph, error) {
	data, err := c.doReq(ctx, "GET", "/subnets/"+strconv.Itoa(c.netuid)+"/metagraph")
	if err != nil {
		return nil, err
	}
	var meta Metagraph
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (c *HTTPClient) Commitments(ctx context.Context) (map[string][]Commitment, error) {
	data, err := c.doReq(ctx, "GET", "/subnets/"+strconv.Itoa(c.netuid)+"/commitments")
	if err != nil {
		return nil, err
	}
	var commits map[string][]Commitment
	if err := json.Unmarshal(data, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// ModelNames resolves a display name per hotkey from its most recent
// commitment, formatted model@revision.
func ModelNames(commits map[string][]Commitment) map[string]string {
	names := make(map[string]string, len(commits))
	for hotkey, list := range commits {
		if len(list) == 0 {
			continue
		}
		latest := list[len(list)-1]
		if latest.Model == "" {
			continue
		}
		name := latest.Model
		if latest.Revision != "" {
			name += "@" + latest.Revision
		}
		names[hotkey] = name
	}
	return names
}
