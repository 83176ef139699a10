package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"smartpark-iot/internal/audit"
	parkingapp "smartpark-iot/internal/parking/application"
	parking "smartpark-iot/internal/parking/domain"
)

// Handler provides the dashboard slot, stats and simulation endpoints.
type Handler struct {
	session *parkingapp.Session
	audit   audit.Logger
	logger  *log.Logger
}

// NewHandler constructs a handler. auditLogger may be nil.
func NewHandler(session *parkingapp.Session, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if session == nil {
		return nil, errors.New("parking handler: nil session")
	}
	if logger == nil {
		return nil, errors.New("parking handler: nil logger")
	}
	return &Handler{session: session, audit: auditLogger, logger: logger}, nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/slots", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/slots/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/slots/{id}/reserve", h.handleReserve).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/slots/{id}/toggle", h.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/stats", h.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/simulation", h.handleSimulation).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/simulation/toggle", h.handleSimulationToggle).Methods(http.MethodPost)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	slots := h.session.Slots()
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := parking.SlotStatus(raw)
		if !status.IsValid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filtered := make([]parking.ParkingSlot, 0, len(slots))
		for _, slot := range slots {
			if slot.Status == status {
				filtered = append(filtered, slot)
			}
		}
		slots = filtered
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	slot, err := h.session.Slot(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, parking.ErrSlotNotFound) {
			http.Error(w, "slot not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.session.ReserveSlot(r.Context(), id) {
		http.Error(w, "slot not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.session.ToggleSlotStatus(r.Context(), id) {
		http.Error(w, "slot not found", http.StatusNotFound)
		return
	}
	metadata := map[string]string{}
	if slot, err := h.session.Slot(id); err == nil {
		metadata["status"] = string(slot.Status)
	}
	h.logAudit(r.Context(), audit.FromRequest(r, "slot.toggle", "slot", id, metadata))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Stats())
}

type simulationResponse struct {
	Active bool `json:"active"`
}

func (h *Handler) handleSimulation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, simulationResponse{Active: h.session.SimulationActive()})
}

func (h *Handler) handleSimulationToggle(w http.ResponseWriter, r *http.Request) {
	active := h.session.ToggleSimulation(r.Context())
	h.logAudit(r.Context(), audit.FromRequest(r, "simulation.toggle", "simulation", "", simulationResponse{Active: active}))
	writeJSON(w, http.StatusOK, simulationResponse{Active: active})
}

func (h *Handler) logAudit(ctx context.Context, entry audit.Entry) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Log(ctx, entry); err != nil {
		h.logger.Printf("audit log error: action=%s err=%v", entry.Action, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
