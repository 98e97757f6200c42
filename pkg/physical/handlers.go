package physical

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// optionResponse is one {id, name} entry of a form option list.
type optionResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// planDetailResponse is the body of GET /plan/{planId}/.
type planDetailResponse struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	IsActive     bool             `json:"is_active"`
	Environments []optionResponse `json:"environments"`
}

// ListEnginesHandler handles GET /engine/
func ListEnginesHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		engines, err := store.ListEngines()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list engines: %v", err))
			return
		}

		resp := make([]optionResponse, len(engines))
		for i, e := range engines {
			resp[i] = optionResponse{ID: e.ID, Name: e.DisplayName()}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ListPlansHandler handles GET /plan/?engine_id={engineId}
//
// Lookup failures the form can recover from are answered with 200 and an
// error payload, which the form shows verbatim. Storage failures are 500s.
func ListPlansHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("engine_id")
		if raw == "" || raw == "none" {
			writeLookupError(w, "engine required")
			return
		}
		engineID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || engineID == 0 {
			writeLookupError(w, fmt.Sprintf("invalid engine id %q", raw))
			return
		}

		plans, err := store.PlansForEngine(uint(engineID))
		if err != nil {
			if errors.Is(err, ErrEngineNotFound) {
				writeLookupError(w, fmt.Sprintf("engine %d not found", engineID))
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list plans: %v", err))
			return
		}

		resp := make([]optionResponse, len(plans))
		for i, p := range plans {
			resp[i] = optionResponse{ID: p.ID, Name: p.Name}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetPlanHandler handles GET /plan/{planId}/
func GetPlanHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "planId")
		planID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || planID == 0 {
			writeLookupError(w, fmt.Sprintf("invalid plan id %q", raw))
			return
		}

		plan, err := store.Plan(uint(planID))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get plan: %v", err))
			return
		}
		if plan == nil {
			writeLookupError(w, fmt.Sprintf("plan %d not found", planID))
			return
		}

		resp := planDetailResponse{
			ID:           plan.ID,
			Name:         plan.Name,
			Description:  plan.Description,
			IsActive:     plan.IsActive,
			Environments: make([]optionResponse, len(plan.Environments)),
		}
		for i, env := range plan.Environments {
			resp.Environments[i] = optionResponse{ID: env.ID, Name: env.Name}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthHandler handles GET /healthz
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

// ReadyHandler handles GET /readyz. The server is ready once the database
// answers.
func ReadyHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, map[string]string{"error": message})
}

// writeLookupError answers a successful request whose lookup failed.
func writeLookupError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusOK, message)
}
