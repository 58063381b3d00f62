package adminapi

import (
	"encoding/json"
	"net/http"
)

func (h *routerHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sim.Stats())
}

func (h *routerHandlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.lb.GetTop(10))
}

func (h *routerHandlers) handlePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sim.Players())
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
