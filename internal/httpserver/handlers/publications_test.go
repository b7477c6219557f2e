package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/localpub/localpub/internal/domain"
	"github.com/localpub/localpub/internal/httpserver/deps"
	"github.com/localpub/localpub/internal/logger"
	"github.com/localpub/localpub/internal/table"
)

func testDeps(tbl *table.Table, ready bool) deps.Deps {
	return deps.Deps{
		Logger:    logger.New("error", false),
		StartTime: time.Now(),
		Table:     tbl,
		Ready:     func() bool { return ready },
	}
}

func TestPublicationsSnapshot(t *testing.T) {
	tbl := table.New()
	tbl.Put("c1", table.Entry{
		State: table.Published,
		Record: &domain.ServiceRecord{
			Instance:   "web",
			Service:    "_http._tcp",
			Target:     "web.local",
			Port:       8080,
			TTLSeconds: 3600,
			Txt:        []domain.TxtEntry{{Key: "version", Value: "1"}},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/publications", nil)
	rr := httptest.NewRecorder()
	Publications(testDeps(tbl, true))(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp publicationsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}

	p := resp.Publications[0]
	if p.ContainerID != "c1" || p.State != "published" || p.Instance != "web" || p.Port != 8080 {
		t.Errorf("publication = %+v", p)
	}
	if len(p.Txt) != 1 || p.Txt[0] != "version=1" {
		t.Errorf("txt = %v, want [version=1]", p.Txt)
	}
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		ready      bool
		wantStatus int
	}{
		{
			name:       "ready",
			ready:      true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "not ready",
			ready:      false,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/readyz", nil)
			rr := httptest.NewRecorder()
			Readyz(testDeps(table.New(), tt.ready))(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
