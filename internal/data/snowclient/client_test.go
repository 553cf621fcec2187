package snowclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowlens/snowlens/internal/core/model"
)

func TestFieldUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantValue   string
		wantDisplay string
		wantString  string
	}{
		{
			name:       "bare string",
			input:      `"2025-03-01 12:00:00"`,
			wantValue:  "2025-03-01 12:00:00",
			wantString: "2025-03-01 12:00:00",
		},
		{
			name:        "value and display object",
			input:       `{"value":"abc123","display_value":"Resolve Incident"}`,
			wantValue:   "abc123",
			wantDisplay: "Resolve Incident",
			wantString:  "Resolve Incident",
		},
		{
			name:       "object with null display",
			input:      `{"value":"abc123","display_value":null}`,
			wantValue:  "abc123",
			wantString: "abc123",
		},
		{
			name:       "numeric scalar",
			input:      `4.25`,
			wantValue:  "4.25",
			wantString: "4.25",
		},
		{
			name:       "null",
			input:      `null`,
			wantString: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Field
			require.NoError(t, sonic.Unmarshal([]byte(tt.input), &f))
			assert.Equal(t, tt.wantValue, f.Value)
			assert.Equal(t, tt.wantDisplay, f.Display)
			assert.Equal(t, tt.wantString, f.String())
		})
	}
}

func TestFetch(t *testing.T) {
	var gotQuery, gotFields, gotLimit, gotOrder string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/now/table/sys_generative_ai_log", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		q := r.URL.Query()
		gotQuery = q.Get("sysparm_query")
		gotFields = q.Get("sysparm_fields")
		gotLimit = q.Get("sysparm_limit")
		gotOrder = q.Get("sysparm_orderby")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[
			{"sys_id":{"value":"a1","display_value":"a1"},"time_taken":{"value":"4.2","display_value":"4.2"}},
			{"sys_id":"b2","time_taken":"1.1"}
		]}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL, Username: "admin", Password: "secret", Timeout: 5 * time.Second})
	records, err := client.Fetch(context.Background(), FetchRequest{
		Table:   "sys_generative_ai_log",
		Query:   "conversation=conv1",
		Fields:  []string{"sys_id", "time_taken"},
		Limit:   1000,
		OrderBy: "sys_created_on",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "conversation=conv1", gotQuery)
	assert.Equal(t, "sys_id,time_taken", gotFields)
	assert.Equal(t, "1000", gotLimit)
	assert.Equal(t, "sys_created_on", gotOrder)

	assert.Equal(t, "a1", records[0].Get("sys_id"))
	assert.Equal(t, "4.2", records[0].Get("time_taken"))
	assert.Equal(t, "b2", records[1].Get("sys_id"))
	assert.Equal(t, "", records[1].Get("missing_field"))
}

func TestFetchTableUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		client := New(Options{BaseURL: server.URL})
		_, err := client.Fetch(context.Background(), FetchRequest{Table: "sys_cs_fdih_invocation", Limit: 10})
		assert.ErrorIs(t, err, ErrTableUnavailable, "status %d", status)
		assert.NotEqual(t, model.CodeUpstream, model.CodeOf(err), "status %d", status)

		server.Close()
	}
}

func TestFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL})
	_, err := client.Fetch(context.Background(), FetchRequest{Table: "sys_cs_message", Limit: 10})
	assert.Equal(t, model.CodeUpstream, model.CodeOf(err))
}

func TestFetchUnreachable(t *testing.T) {
	// Closed server: the dial fails, which must surface as an upstream error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(Options{BaseURL: server.URL, Timeout: time.Second})
	_, err := client.Fetch(context.Background(), FetchRequest{Table: "sys_cs_message", Limit: 10})
	assert.Equal(t, model.CodeUpstream, model.CodeOf(err))
}
