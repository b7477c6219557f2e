package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/localpub/localpub/internal/httpserver/deps"
)

type publicationEntry struct {
	ContainerID string   `json:"container_id"`
	State       string   `json:"state"`
	Instance    string   `json:"instance,omitempty"`
	Service     string   `json:"service,omitempty"`
	Target      string   `json:"target,omitempty"`
	Port        int      `json:"port,omitempty"`
	TTLSeconds  uint32   `json:"ttl_seconds,omitempty"`
	Txt         []string `json:"txt,omitempty"`
}

type publicationsResponse struct {
	Count        int                `json:"count"`
	Publications []publicationEntry `json:"publications"`
}

// Publications returns a snapshot of the publication table.
func Publications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := d.Table.All()

		entries := make([]publicationEntry, 0, len(snapshot))
		for id, e := range snapshot {
			entry := publicationEntry{
				ContainerID: id,
				State:       e.State.String(),
			}
			if e.Record != nil {
				entry.Instance = e.Record.Instance
				entry.Service = e.Record.Service
				entry.Target = e.Record.Target
				entry.Port = e.Record.Port
				entry.TTLSeconds = e.Record.TTLSeconds
				entry.Txt = e.Record.WireTxt()
			}
			entries = append(entries, entry)
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].ContainerID < entries[j].ContainerID
		})

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(publicationsResponse{
			Count:        len(entries),
			Publications: entries,
		})
	}
}
