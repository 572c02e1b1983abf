package metrics

import (
	"database/sql"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"
)

func TestRecordCreatedAndDeleted(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCreated(KindTopLevel)
	m.RecordCreated(KindReply)
	m.RecordCreated(KindReply)
	m.RecordDeleted()

	if v := testutil.ToFloat64(m.CommentsCreated.WithLabelValues(KindTopLevel)); v != 1 {
		t.Errorf("created_total[top_level] = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.CommentsCreated.WithLabelValues(KindReply)); v != 2 {
		t.Errorf("created_total[reply] = %f, want 2", v)
	}
	if v := testutil.ToFloat64(m.CommentsDeleted); v != 1 {
		t.Errorf("deleted_total = %f, want 1", v)
	}
}

func TestRecordRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordRequest("GET", "/v1/comments/:commentId/tree", 200, 10*time.Millisecond)
	m.RecordRequest("GET", "", 404, time.Millisecond)

	if v := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/comments/:commentId/tree", "200")); v != 1 {
		t.Errorf("requests_total = %f, want 1", v)
	}
	if v := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")); v != 1 {
		t.Errorf("requests_total[unmatched] = %f, want 1", v)
	}
}

func TestRecordTree(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordTree(3, 12)

	if n := testutil.CollectAndCount(m.TreeNodes); n != 1 {
		t.Errorf("expected 1 tree_nodes series, got %d", n)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	m.RecordCreated(KindReply)
	m.RecordDeleted()
	m.RecordTree(1, 1)
	m.RecordRequest("GET", "/", 200, time.Second)
	if err := m.RegisterDBStats(nil, "x"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestRegisterDBStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := m.RegisterDBStats(db, "comments"); err != nil {
		t.Fatalf("RegisterDBStats failed: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "go_sql_max_open_connections" {
			found = true
		}
	}
	if !found {
		t.Error("expected go_sql_max_open_connections to be exported")
	}
}
