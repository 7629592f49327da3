package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"studiosim/internal/auth"
	"studiosim/internal/feed"
	"studiosim/internal/game"
	"studiosim/internal/sim"
)

// Delegator is told when a company switches delegation on or off. The API
// runs fine without one; a separate worker then picks companies up.
type Delegator interface {
	Start(id string) bool
	Stop(id string)
}

type Server struct {
	log   *slog.Logger
	game  *game.Service
	feed  *feed.Hub
	deleg Delegator
	mux   *chi.Mux
}

func New(logger *slog.Logger, gameSvc *game.Service, hub *feed.Hub, deleg Delegator) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:   logger,
		game:  gameSvc,
		feed:  hub,
		deleg: deleg,
		mux:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		// The feed is long-lived and must not sit behind the request timeout.
		r.With(s.companyAuth).Get("/companies/{id}/feed", s.handleFeed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/companies", s.handleCreateCompany)

			r.Route("/companies/{id}", func(r chi.Router) {
				r.Use(s.companyAuth)
				r.Get("/", s.handleCompany)
				r.Get("/history", s.handleHistory)
				r.Post("/advance", s.handleAdvance)
				r.Post("/delegation", s.handleDelegation)
				r.Post("/delegation/cycle", s.handleDelegationCycle)
				r.Post("/reset", s.handleReset)

				r.Get("/staff/candidates", s.handleCandidates)
				r.Post("/staff/hire", s.handleHire)
				r.Post("/staff/{staff_id}/train", s.handleTrain)
				r.Post("/staff/{staff_id}/vacation", s.handleVacation)
				r.Post("/staff/{staff_id}/specialist", s.handleAssignSpecialist)
				r.Delete("/staff/{staff_id}/specialist", s.handleClearSpecialist)

				r.Post("/projects", s.handleStartProject)
				r.Post("/research", s.handleResearch)
				r.Post("/engines/build/cancel", s.handleCancelEngineBuild)
				r.Post("/engines/{engine_id}/build", s.handleEngineBuild)
				r.Post("/franchises", s.handleFranchise)
				r.Post("/upgrades/{upgrade_id}/buy", s.handleBuyUpgrade)
				r.Post("/marketing", s.handleMarketing)
			})
		})
	})
}

// companyAuth checks the studio key for the {id} in the path.
func (s *Server) companyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := auth.BearerKey(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing studio key")
			return
		}
		if err := s.game.Authorize(r.Context(), chi.URLParam(r, "id"), key); err != nil {
			writeDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.CreateCompany(r.Context(), in.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.game.FundsHistory(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": out})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	c, rep, err := s.game.Advance(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": c, "report": rep})
}

func (s *Server) handleDelegation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	c, err := s.game.SetDelegation(r.Context(), id, idempotencyKey(r), in.Enabled)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if s.deleg != nil {
		if in.Enabled {
			s.deleg.Start(id)
		} else {
			s.deleg.Stop(id)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": c})
}

func (s *Server) handleDelegationCycle(w http.ResponseWriter, r *http.Request) {
	c, rep, err := s.game.RunDelegationCycle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": c, "report": rep})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.deleg != nil {
		s.deleg.Stop(id)
	}
	c, err := s.game.Reset(r.Context(), id, idempotencyKey(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": c})
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(r.URL.Query().Get("n"))
	out, err := s.game.Candidates(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"candidates": out})
}

func (s *Server) handleHire(w http.ResponseWriter, r *http.Request) {
	var in sim.Hire
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	s.apply(w, r, in)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Skill sim.Skill `json:"skill"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !in.Skill.Valid() {
		writeError(w, http.StatusBadRequest, "unknown skill")
		return
	}
	s.apply(w, r, sim.StartTraining{StaffID: chi.URLParam(r, "staff_id"), Skill: in.Skill})
}

func (s *Server) handleVacation(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, sim.SendOnVacation{StaffID: chi.URLParam(r, "staff_id")})
}

func (s *Server) handleAssignSpecialist(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Role sim.SpecialistRole `json:"role"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !in.Role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown specialist role")
		return
	}
	s.apply(w, r, sim.AssignSpecialist{StaffID: chi.URLParam(r, "staff_id"), Role: in.Role})
}

func (s *Server) handleClearSpecialist(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, sim.ClearSpecialist{StaffID: chi.URLParam(r, "staff_id")})
}

func (s *Server) handleStartProject(w http.ResponseWriter, r *http.Request) {
	var in sim.StartProject
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Budget < 0 {
		writeError(w, http.StatusBadRequest, "project needs a name and a non-negative budget")
		return
	}
	s.apply(w, r, in)
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var in sim.StartResearch
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !in.ItemKind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown research kind")
		return
	}
	s.apply(w, r, in)
}

func (s *Server) handleEngineBuild(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StaffIDs []string `json:"staff_ids"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, sim.StartEngineBuild{EngineID: chi.URLParam(r, "engine_id"), StaffIDs: in.StaffIDs})
}

func (s *Server) handleCancelEngineBuild(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, sim.CancelEngineBuild{})
}

func (s *Server) handleFranchise(w http.ResponseWriter, r *http.Request) {
	var in sim.StartFranchise
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, in)
}

func (s *Server) handleBuyUpgrade(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Level int `json:"level"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, sim.BuyUpgrade{UpgradeID: chi.URLParam(r, "upgrade_id"), Level: in.Level})
}

func (s *Server) handleMarketing(w http.ResponseWriter, r *http.Request) {
	var in sim.StartMarketingPush
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, in)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeError(w, http.StatusServiceUnavailable, "feed disabled")
		return
	}
	s.feed.Serve(w, r, chi.URLParam(r, "id"))
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, cmd sim.Command) {
	c, err := s.game.Apply(r.Context(), chi.URLParam(r, "id"), idempotencyKey(r), cmd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var note string
	if len(c.Notifications) > 0 {
		note = c.Notifications[0]
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": c, "notice": note})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, game.ErrCompanyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrDuplicateIdempotency), errors.Is(err, game.ErrTxConflict), errors.Is(err, game.ErrStaleSnapshot):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sim.ErrSlotBusy), errors.Is(err, sim.ErrGameOver), errors.Is(err, sim.ErrRoleTaken),
		errors.Is(err, game.ErrDelegationOff):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidName),
		errors.Is(err, sim.ErrInsufficientFunds), errors.Is(err, sim.ErrStaffNotIdle), errors.Is(err, sim.ErrNoStaff),
		errors.Is(err, sim.ErrNotResearched), errors.Is(err, sim.ErrRosterFull), errors.Is(err, sim.ErrSkillTooLow),
		errors.Is(err, sim.ErrTierOrder), errors.Is(err, sim.ErrMaxLevel), errors.Is(err, sim.ErrNotEligible):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
