package namesilo

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://www.namesilo.com/api"

// Client talks to the NameSilo DNS API. Every call is a single request, no
// retries are made.
type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func NewClient(key string, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, errors.New("namesilo: missing API key")
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		key:     key,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddRecord creates a record and returns its id. A duplicate-conflict is
// returned as an *APIError with CodeDuplicate.
func (c *Client) AddRecord(ctx context.Context, domain string, params RecordParams) (string, error) {
	r, err := c.do(ctx, "dnsAddRecord", url.Values{
		"domain":  {domain},
		"rrtype":  {string(params.Type)},
		"rrhost":  {params.Host},
		"rrvalue": {params.Value},
		"rrttl":   {strconv.Itoa(params.TTL)},
	})
	if err != nil {
		return "", err
	}
	return r.RecordID, nil
}

func (c *Client) ListRecords(ctx context.Context, domain string) ([]Record, error) {
	r, err := c.do(ctx, "dnsListRecords", url.Values{"domain": {domain}})
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(r.ResourceRecords))
	for _, rr := range r.ResourceRecords {
		records = append(records, rr.normalize())
	}
	return records, nil
}

// UpdateRecord replaces the record identified by id. The registrar assigns a
// new id on every successful update, the old one becomes invalid.
func (c *Client) UpdateRecord(ctx context.Context, domain, id string, params RecordParams) (string, error) {
	r, err := c.do(ctx, "dnsUpdateRecord", url.Values{
		"domain":  {domain},
		"rrid":    {id},
		"rrhost":  {params.Host},
		"rrvalue": {params.Value},
		"rrttl":   {strconv.Itoa(params.TTL)},
	})
	if err != nil {
		return "", err
	}
	return r.RecordID, nil
}

func (c *Client) DeleteRecord(ctx context.Context, domain, id string) error {
	_, err := c.do(ctx, "dnsDeleteRecord", url.Values{
		"domain": {domain},
		"rrid":   {id},
	})
	return err
}

func (c *Client) do(ctx context.Context, operation string, params url.Values) (*reply, error) {
	params.Set("version", "1")
	params.Set("type", "xml")
	params.Set("key", c.key)

	endpoint := c.baseURL + "/" + operation + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("namesilo: build %s request: %w", operation, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("namesilo: %s: %w", operation, redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("namesilo: read %s response: %w", operation, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("namesilo: %s returned status %d", operation, resp.StatusCode)
	}

	var decoded response
	if err := xml.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("namesilo: decode %s response: %w", operation, err)
	}

	r := &decoded.Reply
	if strings.TrimSpace(r.Detail) != detailSuccess {
		return nil, &APIError{
			Operation: operation,
			Code:      strings.TrimSpace(r.Code),
			Detail:    strings.TrimSpace(r.Detail),
		}
	}
	r.RecordID = strings.TrimSpace(r.RecordID)
	return r, nil
}

// redact strips the query string, which carries the API key, from transport
// errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
			u.RawQuery = ""
			urlErr.URL = u.String()
		}
	}
	return err
}
