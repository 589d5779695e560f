package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRobotsChecker_Allowed(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			hits.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "Mozilla/5.0 (X11)", zaptest.NewLogger(t))
	ctx := context.Background()

	assert.True(t, rc.Allowed(ctx, server.URL+"/public/page"))
	assert.False(t, rc.Allowed(ctx, server.URL+"/private/page"))
	assert.True(t, rc.Allowed(ctx, server.URL+"/"))
	assert.Equal(t, int32(1), hits.Load(), "robots.txt should be fetched once per host")
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	rc := NewRobotsChecker(server.Client(), "plagscan", nil)
	assert.True(t, rc.Allowed(context.Background(), server.URL+"/anything"))
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rc := NewRobotsChecker(http.DefaultClient, "plagscan", nil)
	assert.True(t, rc.Allowed(context.Background(), url+"/page"))
}

func TestNormalizeUserAgent(t *testing.T) {
	assert.Equal(t, "Mozilla", NormalizeUserAgent("Mozilla/5.0 (Windows NT 10.0)"))
	assert.Equal(t, "plagscan", NormalizeUserAgent("plagscan"))
	assert.Equal(t, "", NormalizeUserAgent(""))
}
