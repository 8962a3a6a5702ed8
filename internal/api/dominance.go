package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/subnet-watch/frontier/internal/dominance"
	"github.com/subnet-watch/frontier/internal/tracker"
)

// Tracker is the snapshot contract the API serves. Satisfied by
// *tracker.Tracker.
type Tracker interface {
	Snapshot(ctx context.Context, block *int64, refresh bool) *dominance.Snapshot
	MinerStatus(ctx context.Context, uid int, block *int64, refresh bool) (*dominance.MinerStatus, bool)
	DominatorDetails(ctx context.Context, uid int, block *int64, refresh bool) (*tracker.DominatorDetail, bool)
	Rebuild(ctx context.Context, block *int64, withDetails bool) (*dominance.Snapshot, map[int]*tracker.DominatorDetail)
}

type DominanceHandler struct {
	tracker Tracker
}

func NewDominanceHandler(t Tracker) *DominanceHandler {
	return &DominanceHandler{tracker: t}
}

func (h *DominanceHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	block := parseBlock(r)
	refresh := r.URL.Query().Get("refresh") == "true"
	snap := h.tracker.Snapshot(r.Context(), block, refresh)
	writeJSON(w, http.StatusOK, snap)
}

func (h *DominanceHandler) GetUID(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.Atoi(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid uid"})
		return
	}
	block := parseBlock(r)
	refresh := r.URL.Query().Get("refresh") == "true"

	status, ok := h.tracker.MinerStatus(r.Context(), uid, block, refresh)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("uid %d not found", uid)})
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *DominanceHandler) GetDominating(w http.ResponseWriter, r *http.Request) {
	uid, err := strconv.Atoi(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid uid"})
		return
	}
	block := parseBlock(r)
	refresh := r.URL.Query().Get("refresh") == "true"

	detail, ok := h.tracker.DominatorDetails(r.Context(), uid, block, refresh)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("uid %d not found", uid)})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *DominanceHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	block := parseBlock(r)
	snap, _ := h.tracker.Rebuild(r.Context(), block, false)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("dominance data refreshed for block %d", snap.Block),
		"data":    snap,
	})
}

func (h *DominanceHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	block := parseBlock(r)
	snap, details := h.tracker.Rebuild(r.Context(), block, true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     fmt.Sprintf("all dominance data calculated for block %d", snap.Block),
		"main_data":   snap,
		"detail_data": details,
	})
}

func parseBlock(r *http.Request) *int64 {
	v := r.URL.Query().Get("block")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
