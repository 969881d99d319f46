// Package ipfs uploads build artifacts to an IPFS node over its HTTP API.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
	"go.uber.org/zap"

	"github.com/teranos/subgraph/errors"
)

const addPath = "/api/v0/add"

// AddResponse is the response from the node's add endpoint.
type AddResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// Client talks to one IPFS node.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

// NewClient creates a client for addr. addr may be a URL
// (http://localhost:5001), a host:port, or a multiaddr (/ip4/127.0.0.1/tcp/5001).
func NewClient(addr string, logger *zap.SugaredLogger) (*Client, error) {
	base, err := ParseAddress(addr)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}, nil
}

// ParseAddress normalizes an IPFS node address to an HTTP base URL.
func ParseAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("IPFS address is empty")
	}

	if strings.HasPrefix(addr, "/") {
		// /ip4/<host>/tcp/<port>[/http|/https]
		parts := strings.Split(strings.Trim(addr, "/"), "/")
		if len(parts) < 4 || parts[2] != "tcp" {
			return "", errors.WithHint(
				errors.Newf("unsupported IPFS multiaddr %q", addr),
				"use /ip4/<host>/tcp/<port> or http://<host>:<port>")
		}
		switch parts[0] {
		case "ip4", "ip6", "dns", "dns4", "dns6":
		default:
			return "", errors.Newf("unsupported IPFS multiaddr protocol %q", parts[0])
		}
		scheme := "http"
		if len(parts) > 4 && parts[4] == "https" {
			scheme = "https"
		}
		host := parts[1]
		if parts[0] == "ip6" {
			host = "[" + host + "]"
		}
		return scheme + "://" + host + ":" + parts[3], nil
	}

	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return "", errors.WithHint(
			errors.Newf("invalid IPFS address %q", addr),
			"use http://<host>:<port>")
	}
	return strings.TrimSuffix(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}

// Add uploads content under name, pins it and returns its content ID.
func (c *Client) Add(ctx context.Context, name string, content []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", errors.Wrap(err, "failed to create multipart file field")
	}
	if _, err := part.Write(content); err != nil {
		return "", errors.Wrap(err, "failed to write content to multipart form")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close multipart writer")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addPath+"?pin=true", body)
	if err != nil {
		return "", errors.Wrap(err, "failed to create IPFS HTTP request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "IPFS add request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read IPFS response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("IPFS node returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var addResp AddResponse
	if err := json.Unmarshal(respBody, &addResp); err != nil {
		return "", errors.Wrapf(err, "failed to parse IPFS response: %s", string(respBody))
	}
	if err := ValidateCID(addResp.Hash); err != nil {
		return "", errors.Wrapf(err, "IPFS node returned an invalid hash for %s", name)
	}

	c.logger.Debugw("Uploaded to IPFS",
		"name", name,
		"cid", addResp.Hash,
		"size", addResp.Size)
	return addResp.Hash, nil
}

// UploadFiles adds each file and returns the content IDs keyed by path.
func (c *Client) UploadFiles(ctx context.Context, paths []string) (map[string]string, error) {
	cids := make(map[string]string, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", p)
		}
		id, err := c.Add(ctx, filepath.Base(p), content)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to upload %s", p)
		}
		cids[p] = id
	}
	return cids, nil
}

// ValidateCID checks that s is a well-formed content ID, either version 0
// (base58 "Qm...") or version 1 in any multibase.
func ValidateCID(s string) error {
	if s == "" {
		return errors.New("empty content ID")
	}
	if _, err := cid.Decode(s); err != nil {
		return errors.Wrapf(err, "invalid content ID %q", s)
	}
	return nil
}
