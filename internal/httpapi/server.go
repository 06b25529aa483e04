package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"liquidityDepth/internal/model"
	"liquidityDepth/internal/service"
)

const (
	ParamPool  = "pool"
	ParamBase  = "base"
	ParamRange = "range"

	HeaderRequestID = "X-Request-ID"
)

type Estimator interface {
	Estimate(ctx context.Context, req model.PriceRangeRequest) (model.LiquidityResult, error)
}

type VaultAggregator interface {
	Aggregate(ctx context.Context) model.VaultAggregate
}

// Server exposes estimates, vault totals and token metadata as JSON.
type Server struct {
	est    Estimator
	vaults VaultAggregator
	tokens service.TokenSource
	logger *zap.Logger
}

func NewServer(est Estimator, vaults VaultAggregator, tokens service.TokenSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{est: est, vaults: vaults, tokens: tokens, logger: logger}
}

type errorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/liquidity/pool", s.handlePool)
	mux.HandleFunc("GET /v1/liquidity/vaults", s.handleVaults)
	mux.HandleFunc("GET /v1/tokens/{address}", s.handleToken)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.withRequestID(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listen", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := model.PriceRangeRequest{Pool: q.Get(ParamPool), BaseToken: q.Get(ParamBase)}
	for _, name := range []string{ParamPool, ParamBase, ParamRange} {
		if q.Get(name) == "" {
			s.writeError(w, r, http.StatusBadRequest, name, fmt.Errorf("%s is required", name))
			return
		}
	}
	rangePercent, err := strconv.ParseFloat(q.Get(ParamRange), 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ParamRange, model.ErrInvalidRange)
		return
	}
	req.RangePercent = rangePercent

	res, err := s.est.Estimate(r.Context(), req)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, r, http.StatusBadRequest, verr.Field, err)
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, "", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.vaults.Aggregate(r.Context()))
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	addr, err := service.ParseAddress("address", r.PathValue("address"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "address", err)
		return
	}

	meta, err := s.tokens.GetTokenInfo(r.Context(), addr)
	switch {
	case errors.Is(err, model.ErrUnknownToken):
		s.writeError(w, r, http.StatusNotFound, "address", err)
	case err != nil:
		s.writeError(w, r, http.StatusBadGateway, "", err)
	default:
		writeJSON(w, http.StatusOK, meta)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, field string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, errorBody{
		Error:     err.Error(),
		Field:     field,
		RequestID: w.Header().Get(HeaderRequestID),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"json marshal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		s.logger.Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(started)),
		)
	})
}
