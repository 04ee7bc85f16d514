package submitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"review-reconciler/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRepoURL(t *testing.T) {
	assert.NoError(t, ValidateRepoURL("https://github.com/acme/widgets"))
	assert.ErrorIs(t, ValidateRepoURL("https://gitlab.com/acme/widgets"), ErrInvalidRepoURL)
	assert.ErrorIs(t, ValidateRepoURL("https://github.com/"), ErrInvalidRepoURL)
	assert.ErrorIs(t, ValidateRepoURL(""), ErrInvalidRepoURL)
}

func TestSubmit_Success(t *testing.T) {
	var gotRepo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRepo = body["repo_url"]
		w.Write([]byte(`{"status":"success","message":"Analysis started asynchronously.","run_id":"r-1","reports_bucket":"acme-reports","region":"eu-west-1"}`))
	}))
	defer srv.Close()

	handle, err := NewClient(srv.URL+"/", srv.Client(), nil).Submit(context.Background(), "https://github.com/acme/widgets")

	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/widgets", gotRepo)
	assert.Equal(t, "r-1", handle.RunID)
	assert.Equal(t, "acme-reports", handle.ReportsBucket)
	assert.Equal(t, "https://acme-reports.s3.amazonaws.com", handle.StoreLocation("http"))
	assert.Equal(t, "acme-reports", handle.StoreLocation("s3"))
}

func TestSubmit_ProxyEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"statusCode":200,"body":"{\"status\":\"success\",\"run_id\":\"r-2\",\"reports_bucket\":\"b\"}"}`))
	}))
	defer srv.Close()

	handle, err := NewClient(srv.URL, srv.Client(), nil).Submit(context.Background(), "https://github.com/acme/widgets")

	require.NoError(t, err)
	assert.Equal(t, "r-2", handle.RunID)
	assert.Equal(t, "b", handle.ReportsBucket)
}

func TestSubmit_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "envelope status code", status: 200, body: `{"statusCode":400,"body":"Invalid repository URL. Must start with https://github.com/"}`, message: "Invalid repository URL. Must start with https://github.com/"},
		{name: "status error with message", status: 200, body: `{"status":"error","message":"GitHub rate limit"}`, message: "GitHub rate limit"},
		{name: "http error plain text", status: 500, body: `Internal server error: boom`, message: "Internal server error: boom"},
		{name: "http error without details", status: 502, body: `{}`, message: "Backend Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, srv.Client(), nil).Submit(context.Background(), "https://github.com/acme/widgets")

			var subErr *SubmissionError
			require.ErrorAs(t, err, &subErr)
			assert.Equal(t, tt.message, subErr.Message)
		})
	}
}

func TestSubmit_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(base, nil, nil).Submit(context.Background(), "https://github.com/acme/widgets")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrStoreUnreachable)
	assert.Contains(t, err.Error(), NetworkErrorMessage)
}

func TestSubmit_InvalidURLMakesNoCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewClient(srv.URL, srv.Client(), nil).Submit(context.Background(), "ftp://example.com/repo")

	assert.ErrorIs(t, err, ErrInvalidRepoURL)
	assert.False(t, called)
}
