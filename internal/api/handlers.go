package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/EmpoweredVote/geodata/internal/assemble"
	"github.com/EmpoweredVote/geodata/internal/query"
)

// Searcher is the search surface the handlers need; *search.Service
// satisfies it.
type Searcher interface {
	SearchPenetrationTests(ctx context.Context, c query.PenetrationTestCriteria) ([]*assemble.PenetrationReport, error)
	SearchConeTests(ctx context.Context, c query.ConeTestCriteria) ([]*assemble.ConeReport, error)
	SearchVelocityProfiles(ctx context.Context, c query.VelocityProfileCriteria) ([]*assemble.VelocityProfile, error)
}

type handlers struct {
	svc Searcher
}

func (h *handlers) penetrationTests(w http.ResponseWriter, r *http.Request) {
	c, err := penetrationCriteria(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reports, err := h.svc.SearchPenetrationTests(r.Context(), c)
	if err != nil {
		searchError(w, "spt", err)
		return
	}
	writeJSON(w, reports)
}

func (h *handlers) coneTests(w http.ResponseWriter, r *http.Request) {
	c, err := coneCriteria(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	reports, err := h.svc.SearchConeTests(r.Context(), c)
	if err != nil {
		searchError(w, "cpt", err)
		return
	}
	writeJSON(w, reports)
}

func (h *handlers) velocityProfiles(w http.ResponseWriter, r *http.Request) {
	c, err := velocityCriteria(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	profiles, err := h.svc.SearchVelocityProfiles(r.Context(), c)
	if err != nil {
		searchError(w, "vs", err)
		return
	}
	writeJSON(w, profiles)
}

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "ok")
}

func searchError(w http.ResponseWriter, kind string, err error) {
	log.Printf("[api] %s search error: %v", kind, err)
	if errors.Is(err, assemble.ErrReferenceNotFound) {
		http.Error(w, "Data integrity error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Error(w, "Search failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
