// Package store provides the content-addressed store client used to anchor
// DAO metadata. It speaks the IPFS HTTP API: raw blocks go through add,
// JSON documents through dag/put, and both return a CID.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/vision-dao/beacon-deploy/internal/errs"
)

// Store is the surface the payload publisher needs. Implementations must be
// safe for concurrent use; uploads are idempotent by content.
type Store interface {
	// Add uploads raw bytes and returns their CID.
	Add(ctx context.Context, data []byte) (string, error)
	// DagPut serializes v as DAG-JSON, uploads it as a DAG node, and
	// returns the node's CID.
	DagPut(ctx context.Context, v any) (string, error)
}

// Client is an IPFS HTTP API client implementing Store.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a client for the IPFS HTTP API at baseURL,
// e.g. "http://127.0.0.1:5001".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// addResponse matches the add endpoint's reply.
type addResponse struct {
	Hash string `json:"Hash"`
}

// dagPutResponse matches the dag/put endpoint's reply. The CID is wrapped
// in a DAG-JSON link map.
type dagPutResponse struct {
	Cid struct {
		Slash string `json:"/"`
	} `json:"Cid"`
}

// Add uploads raw bytes via /api/v0/add and returns the resulting CID.
func (c *Client) Add(ctx context.Context, data []byte) (string, error) {
	body, err := c.post(ctx, "/api/v0/add", url.Values{"pin": {"true"}}, data)
	if err != nil {
		return "", err
	}

	var resp addResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errs.New(errs.KindSerialization, "decode add response", err)
	}

	return validateCID(resp.Hash)
}

// DagPut uploads v as a DAG-JSON node via /api/v0/dag/put and returns the
// node's CID. Documents are stored as dag-json so they can be fetched back
// as the same JSON they were put as.
func (c *Client) DagPut(ctx context.Context, v any) (string, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return "", errs.New(errs.KindSerialization, "encode DAG node", err)
	}

	params := url.Values{
		"store-codec": {"dag-json"},
		"input-codec": {"dag-json"},
		"pin":         {"true"},
	}

	body, err := c.post(ctx, "/api/v0/dag/put", params, doc)
	if err != nil {
		return "", err
	}

	var resp dagPutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errs.New(errs.KindSerialization, "decode dag/put response", err)
	}

	return validateCID(resp.Cid.Slash)
}

// post issues a multipart file upload, the request shape every kubo
// endpoint here expects, and returns the raw response body.
func (c *Client) post(ctx context.Context, path string, params url.Values, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "file")
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "build upload request", err)
	}
	if _, err := part.Write(payload); err != nil {
		return nil, errs.New(errs.KindNetwork, "build upload request", err)
	}
	if err := mw.Close(); err != nil {
		return nil, errs.New(errs.KindNetwork, "build upload request", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "build upload request", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "store "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, "read store response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.KindNetwork, "store "+path,
			fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body)))
	}

	return body, nil
}

// validateCID rejects store replies that do not carry a well-formed CID. A
// reference is only embedded in a parent document once the store has
// durably accepted the content, and a syntactically broken CID means it
// has not.
func validateCID(s string) (string, error) {
	if s == "" {
		return "", errs.Newf(errs.KindNetwork, "store returned an empty CID")
	}
	if _, err := cid.Decode(s); err != nil {
		return "", errs.New(errs.KindEncoding, "store returned malformed CID "+s, err)
	}
	return s, nil
}
