package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leofalp/aigoflow/core/chain"
	"github.com/leofalp/aigoflow/core/engine"
	"github.com/leofalp/aigoflow/providers/observability"
)

// maxBodySize caps request bodies.
const maxBodySize = 4 << 20

// Server serves the HTTP API on top of a Runner.
type Server struct {
	runner          *engine.Runner
	store           chain.ResultStore
	provider        observability.Provider
	metrics         http.Handler
	statusObservers []engine.StatusObserver
}

// Option configures a Server.
type Option func(*Server)

// WithResultStore sets the store shared by all chain requests.
func WithResultStore(store chain.ResultStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithObserver sets the provider used for request logging and chain spans.
func WithObserver(provider observability.Provider) Option {
	return func(s *Server) {
		s.provider = provider
	}
}

// WithMetricsHandler mounts handler on GET /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithStatusObserver attaches observers to every run started by the API.
func WithStatusObserver(observers ...engine.StatusObserver) Option {
	return func(s *Server) {
		s.statusObservers = append(s.statusObservers, observers...)
	}
}

// NewServer creates a Server.
func NewServer(runner *engine.Runner, opts ...Option) *Server {
	s := &Server{runner: runner, store: chain.NewMemoryStore()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/node-types", s.nodeTypes)
		r.Post("/runs", s.run)
		r.Post("/chains", s.runChain)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) nodeTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"types": s.runner.Factory().Types()})
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) {
	var request RunRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}
	if request.Flow == nil {
		s.reject(w, r, http.StatusBadRequest, errors.New("flow is required"))
		return
	}

	opts := []engine.RunOption{engine.WithInputs(request.Inputs)}
	if request.StartNode != "" {
		opts = append(opts, engine.WithStartNode(request.StartNode))
	}
	if request.ExecutionID != "" {
		opts = append(opts, engine.WithExecutionID(request.ExecutionID))
	}
	if len(s.statusObservers) > 0 {
		opts = append(opts, engine.WithRunStatusObserver(s.statusObservers...))
	}

	result, err := s.runner.Run(r.Context(), request.Flow, opts...)
	if err != nil {
		s.reject(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(result))
}

func (s *Server) runChain(w http.ResponseWriter, r *http.Request) {
	var request ChainRequest
	if err := decodeBody(w, r, &request); err != nil {
		s.reject(w, r, http.StatusBadRequest, err)
		return
	}
	if len(request.Flows) == 0 {
		s.reject(w, r, http.StatusBadRequest, errors.New("flows are required"))
		return
	}

	items := make([]chain.Item, 0, len(request.Flows))
	for _, entry := range request.Flows {
		if entry.ID == "" {
			s.reject(w, r, http.StatusBadRequest, errors.New("every flow needs an id"))
			return
		}
		items = append(items, chain.Item{ID: entry.ID, Flow: entry.Flow, Inputs: entry.Inputs})
	}

	executor := chain.NewExecutor(s.runner, chain.WithResultStore(s.store), chain.WithObserver(s.provider))
	var runOpts []chain.RunOption
	if request.ChainID != "" {
		runOpts = append(runOpts, chain.WithChainID(request.ChainID))
	}
	report, err := executor.Run(r.Context(), items, runOpts...)
	writeJSON(w, http.StatusOK, newChainResponse(report, err))
}

func (s *Server) reject(w http.ResponseWriter, r *http.Request, status int, err error) {
	if s.provider != nil {
		s.provider.Warn(r.Context(), "request rejected",
			observability.String("http.route", r.URL.Path),
			observability.Int(observability.AttrHTTPStatusCode, status),
			observability.Error(err),
		)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps run errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrStartNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newRunResponse(result *engine.Result) RunResponse {
	response := RunResponse{
		ExecutionID: result.ExecutionID,
		Status:      "success",
		Outputs:     result.Outputs,
		Nodes:       make(map[string]NodeStatus),
		DurationMs:  result.Duration.Milliseconds(),
	}
	if response.Outputs == nil {
		response.Outputs = []engine.Output{}
	}
	for id, state := range result.Context.States() {
		status := NodeStatus{Status: state.Status}
		if state.Err != nil {
			status.Error = state.Err.Error()
		}
		response.Nodes[id] = status
	}
	if result.Err != nil {
		response.Status = "error"
		response.Error = result.Err.Error()
	}
	return response
}

func newChainResponse(report *chain.Report, err error) ChainResponse {
	response := ChainResponse{
		ChainID:    report.ChainID,
		Status:     string(chain.FlowCompleted),
		Flows:      make([]ChainFlowResponse, 0, len(report.Flows)),
		DurationMs: report.Duration.Milliseconds(),
	}
	if err != nil {
		response.Status = string(chain.FlowFailed)
		response.Error = err.Error()
	}
	for _, run := range report.Flows {
		flowResponse := ChainFlowResponse{ID: run.ID, Status: string(run.Status), Unresolved: run.Unresolved}
		if run.Result != nil {
			flowResponse.ExecutionID = run.Result.ExecutionID
			flowResponse.Outputs = run.Result.Outputs
		}
		if run.Err != nil {
			flowResponse.Error = run.Err.Error()
		}
		response.Flows = append(response.Flows, flowResponse)
	}
	return response
}
