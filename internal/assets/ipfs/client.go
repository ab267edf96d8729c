// Package ipfs pins token images and metadata documents through a
// Pinata-compatible pinning API and returns gateway URIs.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Defaults for the hosted pinning service.
const (
	DefaultAPIURL     = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs"
)

// Options configures a Client.
type Options struct {
	APIURL     string
	GatewayURL string
	JWT        string // bearer token of the pinning account
	Timeout    time.Duration
}

// Client implements the asset and metadata stores on a pinning service.
type Client struct {
	http    *resty.Client
	gateway string
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinJSONRequest struct {
	PinataContent  json.RawMessage `json:"pinataContent"`
	PinataMetadata pinMetadata     `json:"pinataMetadata"`
}

// NewClient creates a pinning client.
func NewClient(opts Options) *Client {
	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	gateway := opts.GatewayURL
	if gateway == "" {
		gateway = DefaultGatewayURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(timeout)
	if opts.JWT != "" {
		rc.SetAuthToken(opts.JWT)
	}

	return &Client{http: rc, gateway: strings.TrimRight(gateway, "/")}
}

// Upload pins a file and returns its gateway URI.
func (c *Client) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	meta, err := json.Marshal(pinMetadata{Name: key})
	if err != nil {
		return "", fmt.Errorf("ipfs: encode pin metadata: %w", err)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetMultipartField("file", fileName(key), contentType, bytes.NewReader(data)).
		SetMultipartFormData(map[string]string{"pinataMetadata": string(meta)}).
		SetResult(&pinResponse{}).
		Post("/pinning/pinFileToIPFS")
	return c.uri(res, err, "pin file")
}

// Publish pins a JSON document and returns its gateway URI.
func (c *Client) Publish(ctx context.Context, key string, document []byte) (string, error) {
	if !json.Valid(document) {
		return "", errors.New("ipfs: document is not valid JSON")
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(pinJSONRequest{
			PinataContent:  document,
			PinataMetadata: pinMetadata{Name: key},
		}).
		SetResult(&pinResponse{}).
		Post("/pinning/pinJSONToIPFS")
	return c.uri(res, err, "pin json")
}

func (c *Client) uri(res *resty.Response, err error, op string) (string, error) {
	if err != nil {
		return "", fmt.Errorf("ipfs: %s: %w", op, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("ipfs: %s: status %d: %s", op, res.StatusCode(), strings.TrimSpace(string(res.Body())))
	}
	pin, ok := res.Result().(*pinResponse)
	if !ok || pin.IpfsHash == "" {
		return "", fmt.Errorf("ipfs: %s: response has no content hash", op)
	}
	return c.gateway + "/" + pin.IpfsHash, nil
}

func fileName(key string) string {
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return key
}
