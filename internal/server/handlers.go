package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"curve-planner/curve"
	"curve-planner/geometry"
	"curve-planner/internal/config"
	"curve-planner/internal/logging"
	"curve-planner/planner"
	"curve-planner/sampler"
	"curve-planner/scenario"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

type planRequest struct {
	Obstacles        *geojson.FeatureCollection `json:"obstacles"`
	Margin           *float64                   `json:"margin,omitempty"`
	Search           string                     `json:"search,omitempty"`
	PolygonVertices  *bool                      `json:"polygonVertices,omitempty"`
	SubdivisionDepth int                        `json:"subdivisionDepth,omitempty"`
	SimplifyEpsilon  *float64                   `json:"simplifyEpsilon,omitempty"`
	DefaultWidth     float64                    `json:"defaultWidth,omitempty"`
	DropContained    bool                       `json:"dropContained,omitempty"`
}

type fitRequest struct {
	planRequest
	Degree *int   `json:"degree,omitempty"`
	Basis  string `json:"basis,omitempty"`
	Method string `json:"method,omitempty"`
	Steps  *int   `json:"steps,omitempty"`
}

type routeResponse struct {
	Path      []int            `json:"path"`
	Points    []geometry.Point `json:"points"`
	Length    float64          `json:"length"`
	Waypoints int              `json:"waypoints"`
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
}

type graphResponse struct {
	Success  bool               `json:"success"`
	Lines    [][]geometry.Point `json:"lines"`
	NumNodes int                `json:"numNodes"`
	NumEdges int                `json:"numEdges"`
}

type fitResponse struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message,omitempty"`
	Basis      curve.Basis         `json:"basis"`
	Method     planner.Method      `json:"method"`
	Result     planner.Result      `json:"result"`
	Comparison *planner.Comparison `json:"comparison,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// POST /api/v1/route - Shortest route from START to END around the obstacles
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req planRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	obstacles, opts, err := s.discreteInput(&req)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	route := planner.PlanDiscrete(obstacles, opts)
	s.metrics.routes.WithLabelValues(string(opts.Search), strconv.FormatBool(route.Found)).Inc()

	resp := routeResponse{
		Path:      route.Path,
		Points:    route.Points,
		Length:    route.Length,
		Waypoints: route.Waypoints,
		Success:   route.Found,
	}
	if !route.Found {
		resp.Message = "no path found"
	}

	logger.Info("route planned",
		zap.Int("obstacles", len(obstacles)),
		zap.Int("waypoints", route.Waypoints),
		zap.Bool("found", route.Found),
		zap.Int("hops", len(route.Path)),
		zap.Float64("length", route.Length),
	)
	respondJSON(w, http.StatusOK, resp)
}

// POST /api/v1/graph - Visibility graph edges as line strings for visualization
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	obstacles, opts, err := s.discreteInput(&req)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	route := planner.PlanDiscrete(obstacles, opts)
	lines := route.Graph.LineStrings()

	logging.FromContext(r.Context()).Debug("graph exported",
		zap.Int("nodes", len(route.Graph.Nodes)),
		zap.Int("edges", len(lines)),
	)
	respondJSON(w, http.StatusOK, graphResponse{
		Success:  true,
		Lines:    lines,
		NumNodes: len(route.Graph.Nodes),
		NumEdges: len(lines),
	})
}

// POST /api/v1/fit - Bend a curve from START to END around the obstacles
func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	var req fitRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	obstacles, discrete, err := s.discreteInput(&req.planRequest)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	basis := curve.Basis(s.cfg.Solver.Basis)
	if req.Basis != "" {
		basis = curve.Basis(req.Basis)
	}
	degree := s.cfg.Solver.Degree
	if req.Degree != nil {
		degree = *req.Degree
	}
	if degree < 0 || degree > config.MaxSolverDegree {
		s.respondWithError(w, http.StatusBadRequest, fmt.Errorf("degree must be between 0 and %d", config.MaxSolverDegree))
		return
	}
	c, err := curve.New(basis, degree)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	method := req.Method
	if method == "" {
		method = s.cfg.Solver.Method
	}
	m, err := planner.ParseMethod(method)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, err)
		return
	}

	steps := s.cfg.Solver.Steps
	if req.Steps != nil {
		steps = *req.Steps
	}
	if steps < 0 || steps > config.MaxSolverSteps {
		s.respondWithError(w, http.StatusBadRequest, fmt.Errorf("steps must be between 0 and %d", config.MaxSolverSteps))
		return
	}

	opts := planner.DefaultSessionOptions()
	opts.Method = m
	session := planner.NewSession(curve.NewSolver(c, curve.WithLogger(logger)), obstacles, opts,
		planner.WithLogger(logger))

	start := time.Now()
	result, err := session.Run(r.Context(), steps)
	s.metrics.fitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// The client went away.
		logger.Warn("fit interrupted", zap.Error(err))
		s.respondWithError(w, http.StatusServiceUnavailable, err)
		return
	}

	resp := fitResponse{
		Success: result.Converged,
		Basis:   basis,
		Method:  m,
		Result:  result,
	}
	switch {
	case result.Converged:
		s.metrics.fitSessions.WithLabelValues("converged").Inc()
		cmp := planner.Compare(c, planner.PlanDiscrete(obstacles, discrete))
		resp.Comparison = &cmp
	case result.Diverged:
		s.metrics.fitSessions.WithLabelValues("diverged").Inc()
		resp.Message = "weights diverged"
		// Non-finite weights cannot be encoded.
		resp.Result.Weights = nil
	default:
		s.metrics.fitSessions.WithLabelValues("exhausted").Inc()
		resp.Message = fmt.Sprintf("not converged after %d steps", result.Steps)
	}

	logger.Info("curve fitted",
		zap.String("basis", string(basis)),
		zap.String("method", string(m)),
		zap.Int("degree", degree),
		zap.Int("steps", result.Steps),
		zap.Bool("converged", result.Converged),
		zap.Int("cost_points", len(result.CostPoints)),
	)
	respondJSON(w, http.StatusOK, resp)
}

// GET /health - Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// discreteInput converts a request into obstacles and discrete planner
// options, falling back to the configured defaults.
func (s *Server) discreteInput(req *planRequest) ([]geometry.Obstacle, planner.DiscreteOptions, error) {
	var opts planner.DiscreteOptions
	if req.Obstacles == nil {
		return nil, opts, errors.New("obstacles are required")
	}

	load := scenario.Options{
		DefaultWidth:    req.DefaultWidth,
		SimplifyEpsilon: s.cfg.Planner.SimplifyEpsilon,
		DropContained:   req.DropContained,
	}
	if req.SimplifyEpsilon != nil {
		load.SimplifyEpsilon = *req.SimplifyEpsilon
	}
	obstacles, err := scenario.FromFeatureCollection(req.Obstacles, load)
	if err != nil {
		return nil, opts, err
	}

	opts.Margin = s.cfg.Planner.Margin
	if req.Margin != nil {
		opts.Margin = *req.Margin
	}
	if opts.Margin < 0 {
		return nil, opts, errors.New("margin must not be negative")
	}

	search := req.Search
	if search == "" {
		search = s.cfg.Planner.Search
	}
	if opts.Search, err = planner.ParseSearch(search); err != nil {
		return nil, opts, err
	}

	opts.Sampler = sampler.Options{
		MaxSubdivisionDepth: req.SubdivisionDepth,
		PolygonVertices:     s.cfg.Planner.PolygonVertices,
	}
	if req.PolygonVertices != nil {
		opts.Sampler.PolygonVertices = *req.PolygonVertices
	}
	if opts.Sampler.MaxSubdivisionDepth < 0 || opts.Sampler.MaxSubdivisionDepth > 8 {
		return nil, opts, errors.New("subdivisionDepth must be between 0 and 8")
	}
	return obstacles, opts, nil
}

func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) respondWithError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorResponse{Success: false, Message: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
