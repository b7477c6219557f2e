package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/localpub/localpub/internal/httpserver/deps"
)

type resyncResponse struct {
	Triggered bool `json:"triggered"`
}

// Resync queues a reconciliation sweep. The sweep runs inside the engine's
// serialized loop; this handler only triggers it.
func Resync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.ResyncTrigger()
		d.Logger.Info("manual reconciliation sweep triggered")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(resyncResponse{
			Triggered: true,
		})
	}
}
