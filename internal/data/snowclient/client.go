// Package snowclient is the HTTP client for the ServiceNow Table API, the
// single boundary snowlens has with the platform. It only reads: every call
// is a table-name + query + field-list fetch returning flat records.
package snowclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/snowlens/snowlens/internal/core/model"
	"github.com/snowlens/snowlens/internal/util"
)

// ErrTableUnavailable marks a fetch that failed for one table without the
// backend itself being down: the table does not exist on the instance, is
// ACL-restricted, or rejected the query. Callers skip the table and carry on.
var ErrTableUnavailable = errors.New("table unavailable")

// Field is one record field. Under sysparm_display_value=all the API returns
// {"value": ..., "display_value": ...} objects; under other modes it returns
// bare strings. Both decode into the same shape.
type Field struct {
	Value   string
	Display string
}

// UnmarshalJSON accepts either a JSON string or a value/display_value object.
func (f *Field) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = Field{}
		return nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Value        interface{} `json:"value"`
			DisplayValue interface{} `json:"display_value"`
		}
		if err := sonic.Unmarshal(data, &obj); err != nil {
			return err
		}
		f.Value = stringify(obj.Value)
		f.Display = stringify(obj.DisplayValue)
		return nil
	}
	var s string
	if err := sonic.Unmarshal(data, &s); err != nil {
		// Numeric and boolean scalars appear on some system fields.
		var v interface{}
		if err2 := sonic.Unmarshal(data, &v); err2 != nil {
			return err
		}
		s = stringify(v)
	}
	f.Value = s
	return nil
}

// String returns the display value when present, the raw value otherwise.
// This mirrors how the platform's own tooling resolves dual-format fields.
func (f Field) String() string {
	if f.Display != "" {
		return f.Display
	}
	return f.Value
}

func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Record is one flat row returned by the Table API.
type Record map[string]Field

// Get returns the resolved string for a field, empty when absent.
func (r Record) Get(field string) string {
	return r[field].String()
}

// FetchRequest describes one Table API read.
type FetchRequest struct {
	Table   string
	Query   string
	Fields  []string
	Limit   int
	Offset  int
	OrderBy string
}

// Client talks to one ServiceNow instance over basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
}

// Options configures a Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// New creates a Client. Every request carries the configured timeout so no
// fetch blocks indefinitely.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		username:   opts.Username,
		password:   opts.Password,
	}
}

type tableResponse struct {
	Result []Record `json:"result"`
}

// Fetch reads records from one table. Table-level rejections (missing table,
// ACL denial, bad query) come back as ErrTableUnavailable so the caller can
// skip the table; transport failures and server errors come back as
// UPSTREAM_ERROR.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) ([]Record, error) {
	endpoint := fmt.Sprintf("%s/api/now/table/%s", c.baseURL, url.PathEscape(req.Table))

	params := url.Values{}
	params.Set("sysparm_limit", strconv.Itoa(req.Limit))
	params.Set("sysparm_offset", strconv.Itoa(req.Offset))
	params.Set("sysparm_display_value", "all")
	params.Set("sysparm_exclude_reference_link", "true")
	if req.Query != "" {
		params.Set("sysparm_query", req.Query)
	}
	if len(req.Fields) > 0 {
		params.Set("sysparm_fields", strings.Join(req.Fields, ","))
	}
	if req.OrderBy != "" {
		params.Set("sysparm_orderby", req.OrderBy)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, model.Upstreamf(err, "build request for %s", req.Table)
	}
	httpReq.SetBasicAuth(c.username, c.password)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, model.Upstreamf(err, "fetch %s", req.Table)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.Upstreamf(err, "read response for %s", req.Table)
	}

	util.LogDebugf("Fetched %s: status=%d bytes=%d duration=%v",
		req.Table, resp.StatusCode, len(body), time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// fallthrough to decode
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s returned HTTP %d: %w", req.Table, resp.StatusCode, ErrTableUnavailable)
	default:
		return nil, model.Upstreamf(fmt.Errorf("HTTP %d", resp.StatusCode), "fetch %s", req.Table)
	}

	if len(body) == 0 {
		return nil, nil
	}

	var decoded tableResponse
	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return nil, model.Upstreamf(err, "decode response for %s", req.Table)
	}
	return decoded.Result, nil
}
