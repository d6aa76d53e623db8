package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rpg/internal/brick"
	"rpg/internal/domain"
	"rpg/internal/registry"
	"rpg/internal/render"
	"rpg/internal/repository/sqlite"
	"rpg/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := registry.New(registry.Options{
		Logger:  logger,
		Devices: brick.NewDevices(1, nil),
		Driver:  registry.DriverConfig{YieldEvery: 1},
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, reg.Close(ctx))
	})

	journal, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	svc := service.NewGraphService(service.Options{
		Registry: reg,
		Journal:  journal,
		SVG:      render.SVG{Binary: "/nonexistent/dot"},
		Logger:   logger,
	})

	mux := http.NewServeMux()
	NewGraphHandler(svc, "test").Register(mux)
	mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	srv := httptest.NewServer(Chain(mux, Recover(logger), CORS([]string{"*"}), Logger(logger)))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func (c client) do(method, path, body string) (int, []byte, http.Header) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, r)
	require.NoError(c.t, err)
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data, resp.Header
}

// expect performs a request answered with the result envelope
func (c client) expect(method, path, body string, wantStatus int, wantDesc string) {
	c.t.Helper()
	status, data, _ := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, "%s %s: %s", method, path, data)

	var res domain.Result
	require.NoError(c.t, json.Unmarshal(data, &res))
	if wantStatus < 300 {
		assert.Equal(c.t, domain.StatusOK, res.Status)
	} else {
		assert.Equal(c.t, domain.StatusError, res.Status)
	}
	if wantDesc != "" {
		assert.Equal(c.t, wantDesc, res.Description)
	}
}

func (c client) getJSON(path string, v any) {
	c.t.Helper()
	status, data, _ := c.do(http.MethodGet, path, "")
	require.Equal(c.t, http.StatusOK, status, "GET %s: %s", path, data)
	require.NoError(c.t, json.Unmarshal(data, v))
}

func TestVersionAndHealth(t *testing.T) {
	c := client{t, newTestServer(t)}

	var v VersionResponse
	c.getJSON("/", &v)
	assert.Equal(t, VersionResponse{Name: "rpg", Version: "test"}, v)

	c.expect(http.MethodGet, "/health", "", http.StatusOK, "")

	status, _, _ := c.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEndToEnd(t *testing.T) {
	c := client{t, newTestServer(t)}

	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusConflict, "graph already exists")

	var names []string
	c.getJSON("/api/graphs", &names)
	assert.Equal(t, []string{"g"}, names)

	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"tap","name":"t1"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"tap","name":"t2"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"tap","name":"t2"}`, http.StatusConflict, "brick already exists")

	var graph domain.GraphDescription
	c.getJSON("/api/graphs/g", &graph)
	assert.Equal(t, "g", graph.Name)
	assert.ElementsMatch(t, []string{"t1", "t2"}, graph.Bricks)

	var br domain.BrickDescription
	c.getJSON("/api/graphs/g/bricks/t1", &br)
	assert.Equal(t, domain.BrickDescription{Name: "t1", TypeName: "tap"}, br)

	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"t1","east":"t2"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"t1","east":"zz"}`, http.StatusNotFound, "east brick not found")
	c.expect(http.MethodDelete, "/api/graphs/g/links?west=t1&east=t2", "", http.StatusOK, "")
	c.expect(http.MethodDelete, "/api/graphs/g/links?west=t1&east=t2", "", http.StatusUnprocessableEntity, "t1 is not linked to t2")

	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"t1","east":"t2"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks/t2/unlink", "", http.StatusOK, "")

	c.expect(http.MethodDelete, "/api/graphs/g/bricks/t1", "", http.StatusOK, "")
	c.expect(http.MethodDelete, "/api/graphs/g/bricks/t1", "", http.StatusNotFound, "brick t1 not found")

	c.expect(http.MethodDelete, "/api/graphs/g?wait=true", "", http.StatusOK, "")
	c.expect(http.MethodGet, "/api/graphs/g", "", http.StatusNotFound, "graph g not found")
	c.getJSON("/api/graphs", &names)
	assert.Empty(t, names)
}

func TestBadRequests(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")

	c.expect(http.MethodPost, "/api/graphs", `{"name":`, http.StatusBadRequest, "malformed request body")
	c.expect(http.MethodPost, "/api/graphs", `{"name" "g"}`, http.StatusBadRequest, "malformed request body")
	c.expect(http.MethodPost, "/api/graphs", "", http.StatusBadRequest, "request body is required")
	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"a",`, http.StatusBadRequest, "malformed request body")
	c.expect(http.MethodPost, "/api/graphs", `{"title":"x"}`, http.StatusBadRequest, "")
	c.expect(http.MethodPost, "/api/graphs", `{"name":""}`, http.StatusBadRequest, "graph name is required")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"router","name":"r"}`, http.StatusBadRequest, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"nic","name":"n"}`, http.StatusBadRequest, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"nic","name":"n","port":5}`, http.StatusUnprocessableEntity, "")
	c.expect(http.MethodPost, "/api/graphs/nope/bricks", `{"kind":"tap","name":"t"}`, http.StatusNotFound, "graph nope not found")
	c.expect(http.MethodDelete, "/api/graphs/g?wait=maybe", "", http.StatusBadRequest, "wait must be true or false")
	c.expect(http.MethodGet, "/api/journal?limit=-3", "", http.StatusBadRequest, "")
	c.expect(http.MethodGet, "/api/graphs/g/export?format=toml", "", http.StatusBadRequest, "")
}

func TestBrickDetail(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks",
		`{"kind":"switch","name":"s","west_ports":2,"east_ports":1,"side":"west"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"nic","name":"n","port":0}`, http.StatusCreated, "")

	var detail domain.BrickDetail
	c.getJSON("/api/graphs/g/bricks/s?detail=true", &detail)
	assert.Equal(t, "switch", detail.TypeName)
	assert.Equal(t, 2, detail.WestPorts)
	assert.Equal(t, 1, detail.EastPorts)
	assert.Equal(t, domain.SideWest, detail.Side)

	c.getJSON("/api/graphs/g/bricks/n?detail=1", &detail)
	require.NotNil(t, detail.Port)
	assert.Equal(t, 0, *detail.Port)
}

func TestFirewallRoutes(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"firewall","name":"fw"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"tap","name":"t"}`, http.StatusCreated, "")

	base := "/api/graphs/g/bricks/fw/firewall"
	c.expect(http.MethodPost, base+"/rules", `{"filter":"tcp and port 22","side":"west"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, base+"/rules", `{"filter":"udp","side":"up"}`, http.StatusBadRequest,
		"choose west or east for side parameter")
	c.expect(http.MethodPost, base+"/rules", `{"filter":"port banana","side":"east"}`, http.StatusUnprocessableEntity, "")

	var rules FirewallRulesResponse
	c.getJSON(base+"/rules", &rules)
	assert.Len(t, rules.Staged, 1)
	assert.Empty(t, rules.Active)

	c.expect(http.MethodPost, base+"/reload", "", http.StatusOK, "")
	c.getJSON(base+"/rules", &rules)
	assert.Equal(t, []domain.Rule{{Filter: "tcp and port 22", Side: domain.SideWest}}, rules.Active)

	c.expect(http.MethodPost, base+"/flush", "", http.StatusOK, "")
	c.getJSON(base+"/rules", &rules)
	assert.Empty(t, rules.Staged)
	assert.Empty(t, rules.Active)

	c.expect(http.MethodPost, "/api/graphs/g/bricks/t/firewall/reload", "", http.StatusNotFound, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks/zz/firewall/flush", "", http.StatusNotFound, "brick zz not found")
}

func TestSwitchScenario(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"tap","name":"t1"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"nop","name":"n1"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks",
		`{"kind":"switch","name":"s1","west_ports":2,"east_ports":2,"side":"west"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"t1","east":"s1"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"n1","east":"s1"}`, http.StatusCreated, "")

	var graph domain.GraphDescription
	c.getJSON("/api/graphs/g", &graph)
	assert.ElementsMatch(t, []string{"t1", "n1", "s1"}, graph.Bricks)

	c.expect(http.MethodDelete, "/api/graphs/g/links?west=t1&east=s1", "", http.StatusOK, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks/s1/unlink", "", http.StatusOK, "")

	// n1 can take a new east peer once s1 let go of it
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"nop","name":"n2"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"n1","east":"n2"}`, http.StatusCreated, "")

	c.expect(http.MethodDelete, "/api/graphs/g?wait=true", "", http.StatusOK, "")
	c.expect(http.MethodGet, "/api/graphs/g", "", http.StatusNotFound, "graph g not found")
}

func TestFirewallFlushScenario(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"firewall","name":"fw"}`, http.StatusCreated, "")

	base := "/api/graphs/g/bricks/fw/firewall"
	c.expect(http.MethodPost, base+"/rules", `{"filter":"src host 10::1","side":"west"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, base+"/flush", "", http.StatusOK, "")
	c.expect(http.MethodPost, base+"/rules", `{"filter":"tcp port 22","side":"west"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, base+"/rules", `{"filter":"ip6 host 10::1","side":"west"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, base+"/reload", "", http.StatusOK, "")

	var rules FirewallRulesResponse
	c.getJSON(base+"/rules", &rules)
	assert.Equal(t, []domain.Rule{
		{Filter: "tcp port 22", Side: domain.SideWest},
		{Filter: "ip6 host 10::1", Side: domain.SideWest},
	}, rules.Active)
}

func TestRenderRoutes(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"tap","name":"a"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"nop","name":"b"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/links", `{"west":"a","east":"b"}`, http.StatusCreated, "")

	status, data, header := c.do(http.MethodGet, "/api/graphs/g/dot", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, header.Get("Content-Type"), "text/vnd.graphviz")
	assert.Contains(t, string(data), "digraph")
	assert.Contains(t, string(data), `"a" -> "b"`)

	c.expect(http.MethodGet, "/api/graphs/nope/dot", "", http.StatusNotFound, "graph nope not found")
	c.expect(http.MethodGet, "/api/graphs/g/svg", "", http.StatusNotFound, "svg for graph g unavailable")

	var network render.VisNetwork
	c.getJSON("/api/graphs/g/vis", &network)
	assert.Len(t, network.Nodes, 2)
	assert.Len(t, network.Edges, 1)

	var stats map[string]uint64
	c.getJSON("/api/graphs/g/stats", &stats)
	assert.Contains(t, stats, "a")
	assert.Contains(t, stats, "b")
}

func TestExportImport(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"g"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs/g/bricks", `{"kind":"hub","name":"h","west_ports":1,"east_ports":2}`, http.StatusCreated, "")

	status, data, header := c.do(http.MethodGet, "/api/graphs/g/export?format=json", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Contains(t, header.Get("Content-Disposition"), `"g.json"`)

	renamed := strings.Replace(string(data), `"name": "g"`, `"name": "copy"`, 1)
	status, body, _ := c.do(http.MethodPost, "/api/graphs/import?format=json", renamed)
	require.Equal(t, http.StatusCreated, status, string(body))

	var desc domain.GraphDescription
	require.NoError(t, json.Unmarshal(body, &desc))
	assert.Equal(t, domain.GraphDescription{Name: "copy", Bricks: []string{"h"}}, desc)

	status, data, _ = c.do(http.MethodGet, "/api/graphs/copy/export", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "name: copy")

	c.expect(http.MethodPost, "/api/graphs/import?format=yaml", string(data), http.StatusConflict, "graph already exists")
	c.expect(http.MethodPost, "/api/graphs/import?format=yaml", "name: [", http.StatusBadRequest, "")
}

func TestJournalRoute(t *testing.T) {
	c := client{t, newTestServer(t)}
	c.expect(http.MethodPost, "/api/graphs", `{"name":"a"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs", `{"name":"b"}`, http.StatusCreated, "")
	c.expect(http.MethodPost, "/api/graphs", `{"name":"b"}`, http.StatusConflict, "")

	req, err := http.NewRequest(http.MethodPost, c.srv.URL+"/api/graphs/b/bricks", strings.NewReader(`{"kind":"nop","name":"n"}`))
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := c.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))

	var entries []domain.JournalEntry
	c.getJSON("/api/journal", &entries)
	require.Len(t, entries, 4)
	assert.Equal(t, domain.OpCreateBrick, entries[0].Operation)
	assert.Equal(t, "req-42", entries[0].RequestID)
	assert.Equal(t, "error", entries[1].Status)

	c.getJSON("/api/journal?graph=a", &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OpCreateGraph, entries[0].Operation)

	c.getJSON("/api/journal?operation=create_graph&limit=1", &entries)
	assert.Len(t, entries, 1)
}

func TestMiddleware(t *testing.T) {
	c := client{t, newTestServer(t)}

	c.expect(http.MethodGet, "/boom", "", http.StatusInternalServerError, "internal error")

	status, _, header := c.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, header.Get(RequestIDHeader))
	assert.Equal(t, "*", header.Get("Access-Control-Allow-Origin"))

	status, _, _ = c.do(http.MethodOptions, "/api/graphs", "")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestCORSRestrictsOrigins(t *testing.T) {
	h := CORS([]string{"http://lab.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://lab.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://lab.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://elsewhere.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{domain.NewError(domain.ErrNotFound, "x"), http.StatusNotFound},
		{domain.NewError(domain.ErrWrongBrickKind, "x"), http.StatusNotFound},
		{domain.NewError(domain.ErrAlreadyExists, "x"), http.StatusConflict},
		{domain.NewError(domain.ErrInvalidArgument, "x"), http.StatusBadRequest},
		{domain.NewError(domain.ErrCapability, "x"), http.StatusUnprocessableEntity},
		{domain.NewError(domain.ErrInternal, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"", "request body is required"},
		{`{"name":`, "malformed request body"},
		{`{"name":"g"`, "malformed request body"},
		{`{"name" 1}`, "malformed request body"},
		{`{"name":1}`, "invalid request body: "},
		{`{"title":"x"}`, "invalid request body: "},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v CreateGraphRequest
			err := decode(req, &v)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.True(t, strings.HasPrefix(domain.Describe(err), tt.want), domain.Describe(err))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"g"}`))
	var v CreateGraphRequest
	require.NoError(t, decode(req, &v))
	assert.Equal(t, "g", v.Name)
}
