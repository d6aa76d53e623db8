package handler

import (
	"net/http"
	"strconv"

	"rpg/internal/domain"
	"rpg/internal/registry"
	"rpg/internal/service"
)

// GraphHandler serves the control operations of a GraphService
type GraphHandler struct {
	svc     *service.GraphService
	version string
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *service.GraphService, version string) *GraphHandler {
	return &GraphHandler{svc: svc, version: version}
}

// Register adds every API route to mux
func (h *GraphHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Version)
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("GET /api/graphs", h.ListGraphs)
	mux.HandleFunc("POST /api/graphs", h.CreateGraph)
	mux.HandleFunc("POST /api/graphs/import", h.Import)
	mux.HandleFunc("GET /api/graphs/{graph}", h.GetGraph)
	mux.HandleFunc("DELETE /api/graphs/{graph}", h.DeleteGraph)
	mux.HandleFunc("GET /api/graphs/{graph}/stats", h.Stats)
	mux.HandleFunc("GET /api/graphs/{graph}/dot", h.RenderDot)
	mux.HandleFunc("GET /api/graphs/{graph}/svg", h.RenderSVG)
	mux.HandleFunc("GET /api/graphs/{graph}/vis", h.RenderVis)
	mux.HandleFunc("GET /api/graphs/{graph}/export", h.Export)

	mux.HandleFunc("POST /api/graphs/{graph}/bricks", h.CreateBrick)
	mux.HandleFunc("GET /api/graphs/{graph}/bricks/{brick}", h.GetBrick)
	mux.HandleFunc("DELETE /api/graphs/{graph}/bricks/{brick}", h.DeleteBrick)
	mux.HandleFunc("POST /api/graphs/{graph}/bricks/{brick}/unlink", h.UnlinkOne)

	mux.HandleFunc("POST /api/graphs/{graph}/links", h.Link)
	mux.HandleFunc("DELETE /api/graphs/{graph}/links", h.UnlinkPair)

	mux.HandleFunc("GET /api/graphs/{graph}/bricks/{brick}/firewall/rules", h.FirewallRules)
	mux.HandleFunc("POST /api/graphs/{graph}/bricks/{brick}/firewall/rules", h.FirewallRuleAdd)
	mux.HandleFunc("POST /api/graphs/{graph}/bricks/{brick}/firewall/flush", h.FirewallFlush)
	mux.HandleFunc("POST /api/graphs/{graph}/bricks/{brick}/firewall/reload", h.FirewallReload)

	mux.HandleFunc("GET /api/journal", h.Journal)
}

// VersionResponse identifies the server
type VersionResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Version returns the API version
func (h *GraphHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, VersionResponse{Name: "rpg", Version: h.version}, http.StatusOK)
}

// Health reports liveness
func (h *GraphHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, domain.OK())
}

// ListGraphs returns the names of all graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.ListGraphs(r.Context()), http.StatusOK)
}

// CreateGraphRequest is the body of a graph creation
type CreateGraphRequest struct {
	Name string `json:"name"`
}

// CreateGraph creates an empty running graph
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, h.svc.CreateGraph(r.Context(), req.Name), http.StatusCreated)
}

// GetGraph returns a graph's name and brick names
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	desc, err := h.svc.GetGraph(r.Context(), r.PathValue("graph"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, desc, http.StatusOK)
}

// DeleteGraph stops and removes a graph; ?wait=true returns once its
// bricks are released
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	wait, err := boolQuery(r, "wait")
	if err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, h.svc.DeleteGraph(r.Context(), r.PathValue("graph"), wait), http.StatusOK)
}

// Stats returns per-brick poll counts
func (h *GraphHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), r.PathValue("graph"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, stats, http.StatusOK)
}

// RenderDot returns the topology as graphviz DOT text
func (h *GraphHandler) RenderDot(w http.ResponseWriter, r *http.Request) {
	dot, err := h.svc.RenderDot(r.Context(), r.PathValue("graph"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	w.Write([]byte(dot))
}

// RenderSVG returns the topology drawn as SVG
func (h *GraphHandler) RenderSVG(w http.ResponseWriter, r *http.Request) {
	svg, err := h.svc.RenderSVG(r.Context(), r.PathValue("graph"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// RenderVis returns the topology as vis-network nodes and edges
func (h *GraphHandler) RenderVis(w http.ResponseWriter, r *http.Request) {
	network, err := h.svc.RenderVis(r.Context(), r.PathValue("graph"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, network, http.StatusOK)
}

// Export returns the topology as a YAML or JSON document
func (h *GraphHandler) Export(w http.ResponseWriter, r *http.Request) {
	graph := r.PathValue("graph")
	format := r.URL.Query().Get("format")

	data, contentType, err := h.svc.Export(r.Context(), graph, format)
	if err != nil {
		writeError(w, err)
		return
	}
	if format == "" {
		format = "yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(graph+"."+format))
	w.Write(data)
}

// Import builds a new graph from an exported topology document
func (h *GraphHandler) Import(w http.ResponseWriter, r *http.Request) {
	topo, err := h.svc.Import(r.Context(), r.URL.Query().Get("format"), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, domain.GraphDescription{Name: topo.Name, Bricks: topo.BrickNames()}, http.StatusCreated)
}

// CreateBrickRequest is the body of a brick creation. Which fields apply
// depends on Kind.
type CreateBrickRequest struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	WestPorts int    `json:"west_ports,omitempty"`
	EastPorts int    `json:"east_ports,omitempty"`
	Side      string `json:"side,omitempty"`
	Vdev      string `json:"vdev,omitempty"`
	Port      *int   `json:"port,omitempty"`
}

// CreateBrick adds a brick to a graph
func (h *GraphHandler) CreateBrick(w http.ResponseWriter, r *http.Request) {
	var req CreateBrickRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	spec := registry.BrickSpec{
		Kind:      domain.Kind(req.Kind),
		Name:      req.Name,
		WestPorts: req.WestPorts,
		EastPorts: req.EastPorts,
		Side:      req.Side,
		Vdev:      req.Vdev,
		Port:      req.Port,
	}
	writeOutcome(w, h.svc.CreateBrick(r.Context(), r.PathValue("graph"), spec), http.StatusCreated)
}

// GetBrick returns a brick's name and type; ?detail=true adds its
// configuration
func (h *GraphHandler) GetBrick(w http.ResponseWriter, r *http.Request) {
	graph, name := r.PathValue("graph"), r.PathValue("brick")

	detail, err := boolQuery(r, "detail")
	if err != nil {
		writeError(w, err)
		return
	}
	if detail {
		d, err := h.svc.BrickDetail(r.Context(), graph, name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, d, http.StatusOK)
		return
	}

	desc, err := h.svc.GetBrick(r.Context(), graph, name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, desc, http.StatusOK)
}

// DeleteBrick detaches, closes and removes a brick
func (h *GraphHandler) DeleteBrick(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteBrick(r.Context(), r.PathValue("graph"), r.PathValue("brick"))
	writeOutcome(w, err, http.StatusOK)
}

// LinkRequest names the two ends of a link
type LinkRequest struct {
	West string `json:"west"`
	East string `json:"east"`
}

// Link connects west's east side to east's west side
func (h *GraphHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, h.svc.Link(r.Context(), r.PathValue("graph"), req.West, req.East), http.StatusCreated)
}

// UnlinkPair removes the link named by the west and east query parameters
func (h *GraphHandler) UnlinkPair(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	err := h.svc.UnlinkPair(r.Context(), r.PathValue("graph"), q.Get("west"), q.Get("east"))
	writeOutcome(w, err, http.StatusOK)
}

// UnlinkOne detaches a brick from all its peers
func (h *GraphHandler) UnlinkOne(w http.ResponseWriter, r *http.Request) {
	err := h.svc.UnlinkOne(r.Context(), r.PathValue("graph"), r.PathValue("brick"))
	writeOutcome(w, err, http.StatusOK)
}

// RuleRequest is a firewall filter and the side it applies to
type RuleRequest struct {
	Filter string `json:"filter"`
	Side   string `json:"side"`
}

// FirewallRulesResponse lists a firewall's rule sets
type FirewallRulesResponse struct {
	Staged []domain.Rule `json:"staged"`
	Active []domain.Rule `json:"active"`
}

// FirewallRules returns the staged and active rules of a firewall
func (h *GraphHandler) FirewallRules(w http.ResponseWriter, r *http.Request) {
	staged, active, err := h.svc.FirewallRules(r.Context(), r.PathValue("graph"), r.PathValue("brick"))
	if err != nil {
		writeError(w, err)
		return
	}
	if staged == nil {
		staged = []domain.Rule{}
	}
	if active == nil {
		active = []domain.Rule{}
	}
	writeJSON(w, FirewallRulesResponse{Staged: staged, Active: active}, http.StatusOK)
}

// FirewallRuleAdd stages a rule on a firewall
func (h *GraphHandler) FirewallRuleAdd(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := h.svc.FirewallRuleAdd(r.Context(), r.PathValue("graph"), r.PathValue("brick"), req.Filter, req.Side)
	writeOutcome(w, err, http.StatusCreated)
}

// FirewallFlush clears a firewall's staged and active rules
func (h *GraphHandler) FirewallFlush(w http.ResponseWriter, r *http.Request) {
	err := h.svc.FirewallFlush(r.Context(), r.PathValue("graph"), r.PathValue("brick"))
	writeOutcome(w, err, http.StatusOK)
}

// FirewallReload activates a firewall's staged rules
func (h *GraphHandler) FirewallReload(w http.ResponseWriter, r *http.Request) {
	err := h.svc.FirewallReload(r.Context(), r.PathValue("graph"), r.PathValue("brick"))
	writeOutcome(w, err, http.StatusOK)
}

// Journal lists recorded operations, newest first
func (h *GraphHandler) Journal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.JournalFilter{
		Graph:     q.Get("graph"),
		Operation: q.Get("operation"),
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeError(w, domain.NewError(domain.ErrInvalidArgument, "limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.svc.Journal(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, entries, http.StatusOK)
}

func boolQuery(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, domain.NewError(domain.ErrInvalidArgument, name+" must be true or false")
	}
	return v, nil
}
