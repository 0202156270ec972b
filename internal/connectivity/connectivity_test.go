package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateTrustCache(t *testing.T) {
	tests := []struct {
		name    string
		online  bool
		force   bool
		expired bool
		want    bool
	}{
		{"online fresh", true, false, false, true},
		{"online expired", true, false, true, false},
		{"online forced fresh", true, true, false, false},
		{"offline expired", false, false, true, true},
		{"offline fresh", false, false, false, true},
		{"offline forced", false, true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checked := false
			g := NewGate(Static(tt.online))
			got := g.TrustCache(context.Background(), tt.force, func(context.Context) bool {
				checked = true
				return tt.expired
			})
			assert.Equal(t, tt.want, got)
			if !tt.online || tt.force {
				assert.False(t, checked, "expiry lookup is skipped when it cannot change the outcome")
			}
		})
	}
}

func TestNilProbeMeansOnline(t *testing.T) {
	g := NewGate(nil)
	assert.True(t, g.TrustCache(context.Background(), false, func(context.Context) bool { return false }))
	assert.False(t, g.TrustCache(context.Background(), false, func(context.Context) bool { return true }))
}

func TestHTTPProbe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	p := NewHTTPProbe(ts.URL, time.Second)
	assert.True(t, p.Online(context.Background()), "any HTTP answer means the network is reachable")

	ts.Close()
	assert.False(t, p.Online(context.Background()))
	assert.False(t, NewHTTPProbe("://bad", 0).Online(context.Background()))
}
