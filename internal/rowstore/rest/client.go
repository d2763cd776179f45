// Package rest implements the rowstore.Client contract over a hosted row
// store speaking the PostgREST dialect (Supabase and the local server in
// internal/server both expose it).
//
// The filter surface maps onto query parameters:
//
//	Equals{"user_id": "u1"}        → ?user_id=eq.u1
//	In{"id": ["a","b"]}            → ?id=in.(a,b)
//	Order{"created_at", desc}      → ?order=created_at.desc
//
// Every call sends the API key plus a per-call bearer token obtained from
// the injected oauth2.TokenSource: the identity provider owns credential
// refresh, the adapter just asks for the current token. The client is an
// explicitly constructed value scoped to one authenticated session; there is
// no package-level instance.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/snipspace/internal/rowstore"
)

type Client struct {
	baseURL    string
	apiKey     string
	tokens     oauth2.TokenSource // nil = anonymous (API key only)
	httpClient *http.Client
}

var _ rowstore.Client = (*Client)(nil)

// New creates a REST row-store client. tokens may be nil for anonymous
// access (the public discovery page needs no credential).
func New(baseURL, apiKey string, tokens oauth2.TokenSource) *Client {
	if !strings.HasPrefix(baseURL, "http") {
		baseURL = "https://" + baseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Select(ctx context.Context, q rowstore.Query) ([]rowstore.Row, error) {
	params := encodeFilter(q.Filter)
	params.Set("select", "*")
	if q.Order != nil {
		dir := "asc"
		if q.Order.Descending {
			dir = "desc"
		}
		params.Set("order", q.Order.Field+"."+dir)
	}

	body, err := c.do(ctx, http.MethodGet, q.Collection, params, nil, "select")
	if err != nil {
		return nil, err
	}

	var rows []rowstore.Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &rowstore.RemoteError{
			Op: "select", Collection: q.Collection,
			Message: "malformed response: " + err.Error(), Err: err,
		}
	}
	return rows, nil
}

func (c *Client) Insert(ctx context.Context, collection string, record rowstore.Row) (rowstore.Row, error) {
	body, err := c.do(ctx, http.MethodPost, collection, nil, record, "insert")
	if err != nil {
		return nil, err
	}

	// Prefer: return=representation makes the store echo the inserted rows
	// back, including assigned id and created_at.
	var rows []rowstore.Row
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return nil, &rowstore.RemoteError{
			Op: "insert", Collection: collection,
			Message: "store did not return the inserted row",
		}
	}
	return rows[0], nil
}

func (c *Client) Update(ctx context.Context, collection string, f rowstore.Filter, patch rowstore.Row) error {
	_, err := c.do(ctx, http.MethodPatch, collection, encodeFilter(f), patch, "update")
	return err
}

func (c *Client) Delete(ctx context.Context, collection string, f rowstore.Filter) error {
	_, err := c.do(ctx, http.MethodDelete, collection, encodeFilter(f), nil, "delete")
	return err
}

func (c *Client) do(ctx context.Context, method, collection string, params url.Values, payload any, op string) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, &rowstore.RemoteError{
				Op: op, Collection: collection,
				Message: "encoding request: " + err.Error(), Err: err,
			}
		}
		reqBody = bytes.NewReader(data)
	}

	endpoint := c.baseURL + "/rest/v1/" + collection
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &rowstore.RemoteError{Op: op, Collection: collection, Message: err.Error(), Err: err}
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, &rowstore.RemoteError{
				Op: op, Collection: collection,
				Message: "obtaining credential: " + err.Error(), Err: err,
			}
		}
		tok.SetAuthHeader(req)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &rowstore.RemoteError{Op: op, Collection: collection, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &rowstore.RemoteError{Op: op, Collection: collection, Message: "reading response: " + err.Error(), Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, &rowstore.RemoteError{
			Op: op, Collection: collection,
			Code:    resp.StatusCode,
			Message: strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// encodeFilter turns a rowstore.Filter into PostgREST query parameters.
// Fields are emitted in sorted order so request URLs are deterministic.
func encodeFilter(f rowstore.Filter) url.Values {
	params := url.Values{}

	fields := make([]string, 0, len(f.Equals))
	for field := range f.Equals {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		params.Add(field, "eq."+formatValue(f.Equals[field]))
	}

	fields = fields[:0]
	for field := range f.In {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		vals := make([]string, 0, len(f.In[field]))
		for _, v := range f.In[field] {
			vals = append(vals, formatValue(v))
		}
		params.Add(field, "in.("+strings.Join(vals, ",")+")")
	}
	return params
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
