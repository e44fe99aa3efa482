package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/louisbranch/estimate.space/internal/platform/pagination"
	"github.com/louisbranch/estimate.space/internal/services/estimate/room"
	"github.com/louisbranch/estimate.space/internal/services/estimate/storage"
	"golang.org/x/net/websocket"
)

var (
	journalPageSize = pagination.PageSizeConfig{Default: 50, Max: 500}
	journalOrderBy  = pagination.OrderByConfig{
		Default: "seq",
		Allowed: []string{"seq", "seq desc"},
	}
)

// handlerConfig wires the HTTP surface.
type handlerConfig struct {
	service *room.Service
	hub     *wsHub
	// journal is nil when the journal is disabled.
	journal storage.JournalStore
	// mcp is nil when MCP is disabled.
	mcp http.Handler
}

type suggestResponse struct {
	SessionID string `json:"sessionId"`
}

type journalEntryView struct {
	Seq          int64           `json:"seq"`
	Timestamp    string          `json:"ts"`
	SessionID    string          `json:"session_id"`
	Kind         string          `json:"kind"`
	ConnectionID string          `json:"connection_id,omitempty"`
	Role         string          `json:"role,omitempty"`
	Name         string          `json:"name,omitempty"`
	Detail       json.RawMessage `json:"detail"`
}

type journalResponse struct {
	Entries       []journalEntryView `json:"entries"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

type httpError struct {
	Error string `json:"error"`
}

func newHandler(cfg handlerConfig) http.Handler {
	gateway := &wsGateway{service: cfg.service, hub: cfg.hub}
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(gateway.handleWSConn)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	mux.HandleFunc("GET /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cfg.service.ListActive())
	})
	mux.HandleFunc("GET /api/sessions/suggest", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, suggestResponse{SessionID: cfg.service.SuggestSessionID()})
	})
	if cfg.journal != nil {
		mux.HandleFunc("GET /api/journal", journalHandler(cfg.journal))
	}
	if cfg.mcp != nil {
		mux.Handle("/mcp", cfg.mcp)
	}
	return mux
}

func journalHandler(journal storage.JournalStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		pageSize, err := pagination.ParsePageSize(query.Get("page_size"), journalPageSize)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
		orderBy, err := pagination.NormalizeOrderBy(query.Get("order_by"), journalOrderBy)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}

		page, err := journal.ListJournalEntries(r.Context(), storage.JournalQuery{
			Filter:     query.Get("filter"),
			PageSize:   pageSize,
			PageToken:  query.Get("page_token"),
			Descending: orderBy == "seq desc",
		})
		if err != nil {
			writeJSON(w, http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}

		resp := journalResponse{
			Entries:       make([]journalEntryView, 0, len(page.Entries)),
			NextPageToken: page.NextPageToken,
		}
		for _, entry := range page.Entries {
			detail := json.RawMessage(entry.Detail)
			if !json.Valid(detail) {
				detail = json.RawMessage("{}")
			}
			resp.Entries = append(resp.Entries, journalEntryView{
				Seq:          entry.Seq,
				Timestamp:    entry.Timestamp.UTC().Format(time.RFC3339Nano),
				SessionID:    entry.SessionID,
				Kind:         string(entry.Kind),
				ConnectionID: entry.ConnectionID,
				Role:         entry.Role,
				Name:         entry.Name,
				Detail:       detail,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("estimate: write json response: %v", err)
	}
}
