// Package api exposes the strategy control surface over HTTP: lifecycle
// transitions, parameter updates, and read access to performance, recent
// signals, and positions.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"signal-systemv1/internal/events"
	"signal-systemv1/internal/ledger"
	"signal-systemv1/internal/model"
	"signal-systemv1/internal/portfolio"
	"signal-systemv1/internal/strategy"
)

// Server wires the control handlers to their collaborators.
type Server struct {
	Manager *strategy.Manager
	Ring    *events.SignalRing
	Ledger  *ledger.Ledger
	Quotes  *portfolio.Quotes
}

// NewRouter sets up HTTP routes for the control API.
func (s *Server) NewRouter() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/v1/strategies", s.listStrategies)
	mux.HandleFunc("POST /api/v1/strategies/{kind}/start", s.startStrategy)
	mux.HandleFunc("POST /api/v1/strategies/{kind}/stop", s.stopStrategy)
	mux.HandleFunc("POST /api/v1/strategies/{kind}/mode", s.setMode)
	mux.HandleFunc("PUT /api/v1/strategies/{kind}/parameters", s.updateParameters)
	mux.HandleFunc("GET /api/v1/strategies/{kind}/performance", s.performance)
	mux.HandleFunc("GET /api/v1/signals", s.recentSignals)
	mux.HandleFunc("GET /api/v1/positions", s.positions)

	return mux
}

type strategyStatus struct {
	Name   string          `json:"name"`
	Mode   strategy.Mode   `json:"mode"`
	Params strategy.Params `json:"params"`
}

func (s *Server) listStrategies(w http.ResponseWriter, _ *http.Request) {
	var out []strategyStatus
	for _, kind := range s.Manager.Kinds() {
		st, err := s.Manager.Strategy(kind)
		if err != nil {
			continue
		}
		out = append(out, strategyStatus{Name: st.Name(), Mode: st.Mode(), Params: st.Parameters()})
	}
	writeJSON(w, http.StatusOK, out)
}

type modeRequest struct {
	Mode strategy.Mode `json:"mode"`
}

func (s *Server) startStrategy(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := strategy.Kind(r.PathValue("kind"))
	if err := s.Manager.Start(kind, req.Mode); err != nil {
		writeStrategyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started", "mode": string(req.Mode)})
}

func (s *Server) stopStrategy(w http.ResponseWriter, r *http.Request) {
	kind := strategy.Kind(r.PathValue("kind"))
	if err := s.Manager.Stop(kind); err != nil {
		writeStrategyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := strategy.Kind(r.PathValue("kind"))
	if err := s.Manager.SetMode(kind, req.Mode); err != nil {
		writeStrategyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": string(req.Mode)})
}

func (s *Server) updateParameters(w http.ResponseWriter, r *http.Request) {
	var params strategy.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	kind := strategy.Kind(r.PathValue("kind"))
	if err := s.Manager.UpdateParameters(kind, params); err != nil {
		writeStrategyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) performance(w http.ResponseWriter, r *http.Request) {
	kind := strategy.Kind(r.PathValue("kind"))
	st, err := s.Manager.Strategy(kind)
	if err != nil {
		writeStrategyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st.Performance())
}

func (s *Server) recentSignals(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	sigs := s.Ring.Recent(limit)
	if sigs == nil {
		sigs = []model.Signal{}
	}
	writeJSON(w, http.StatusOK, sigs)
}

func (s *Server) positions(w http.ResponseWriter, _ *http.Request) {
	type positionView struct {
		model.Position
		AvgPrice      float64 `json:"avg_price"`
		UnrealizedPnL float64 `json:"unrealized_pnl"`
	}
	marks := s.Quotes.Marks()
	positions := s.Ledger.Positions()
	out := make([]positionView, 0, len(positions))
	for _, p := range positions {
		out = append(out, positionView{
			Position:      p,
			AvgPrice:      p.AvgPrice(),
			UnrealizedPnL: p.UnrealizedPnL(marks[p.Product]),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeStrategyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, strategy.ErrUnknownStrategy):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, strategy.ErrAlreadyRunning), errors.Is(err, strategy.ErrNotRunning):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
