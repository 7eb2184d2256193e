package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRouter(t *testing.T) {
	m := New()
	m.ObserveMessage()
	m.ObserveCommand("help", ResultOK, 20*time.Millisecond)
	m.ObservePurged(5)
	m.Gauge("music", "sessions", "Active players.", func() float64 { return 2 })

	srv := httptest.NewServer(m.Router(func() gin.H { return gin.H{"status": "online", "guilds": 3} }))
	defer srv.Close()

	body := get(t, srv.URL+"/metrics")
	for _, want := range []string{
		"b3bot_chat_messages_total 1",
		`b3bot_commands_invocations_total{command="help",result="ok"} 1`,
		"b3bot_purge_deleted_total 5",
		"b3bot_music_sessions 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output lacks %q", want)
		}
	}

	if got := get(t, srv.URL+"/status"); got != `{"guilds":3,"status":"online"}` {
		t.Errorf("unexpected status %s", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveMessage()
	m.ObserveCommand("x", ResultError, time.Second)
	m.ObservePurged(1)
	m.Gauge("a", "b", "c", func() float64 { return 0 })
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: %s", url, resp.Status)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
