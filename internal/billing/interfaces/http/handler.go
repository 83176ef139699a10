package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"smartpark-iot/internal/auth"
	billingapp "smartpark-iot/internal/billing/application"
	billing "smartpark-iot/internal/billing/domain"
	"smartpark-iot/internal/observability/metrics"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
	contentTypeHTML = "text/html; charset=utf-8"
)

// Handler serves payments, receipts and the reservation report.
type Handler struct {
	payments *billingapp.PaymentService
	reports  *billingapp.ReportService
	logger   *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(payments *billingapp.PaymentService, reports *billingapp.ReportService, logger *log.Logger) (*Handler, error) {
	if payments == nil {
		return nil, errors.New("billing handler: nil payment service")
	}
	if reports == nil {
		return nil, errors.New("billing handler: nil report service")
	}
	if logger == nil {
		return nil, errors.New("billing handler: nil logger")
	}
	return &Handler{payments: payments, reports: reports, logger: logger}, nil
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/api/payments/create", h.handleCreatePayment).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/payments/{id}/receipt.{format:html|pdf}", h.handleReceipt).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/reservations", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/reservations/export.{format:csv|xlsx}", h.handleExport).Methods(http.MethodGet)
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req billingapp.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid input"})
		return
	}
	req.UserID = auth.SubjectFromContext(r.Context())
	req.UserEmail = auth.UsernameFromContext(r.Context())

	receipt, err := h.payments.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidPayment):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		case errors.Is(err, billing.ErrSlotNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Slot not found"})
		default:
			h.logger.Printf("payment error: slot=%s err=%v", req.SlotID, err)
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Payment failed"})
		}
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	receipt, err := h.payments.Receipt(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, billing.ErrNotFound) {
			http.Error(w, "receipt not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	format := "receipt_" + vars["format"]
	var (
		body        []byte
		contentType string
	)
	switch vars["format"] {
	case "pdf":
		body, err = BuildReceiptPDF(*receipt)
		contentType = contentTypePDF
	default:
		var buf bytes.Buffer
		err = RenderReceiptHTML(&buf, *receipt)
		body = buf.Bytes()
		contentType = contentTypeHTML
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+receipt.ID+"."+vars["format"])
	_, _ = w.Write(body)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.reports.List(r.Context(), filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := mux.Vars(r)["format"]
	start := time.Now()
	report, err := h.reports.List(r.Context(), filter)
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	filename := "reservations-" + time.Now().UTC().Format("2006-01-02") + "." + format
	switch format {
	case "xlsx":
		body, err := BuildReservationsXLSX(report.Items, report.Summary)
		if err != nil {
			metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeXLSX)
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		_, _ = w.Write(body)
	default:
		var buf bytes.Buffer
		if err := WriteReservationsCSV(&buf, report.Items); err != nil {
			metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentTypeCSV)
		w.Header().Set("Content-Disposition", "attachment; filename="+filename)
		_, _ = w.Write(buf.Bytes())
	}
	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	h.logger.Printf("reservation export: format=%s rows=%d", format, len(report.Items))
}

func parseFilter(r *http.Request) (billing.Filter, error) {
	q := r.URL.Query()
	filter := billing.Filter{Search: q.Get("search")}
	switch status := q.Get("status"); status {
	case "", "all":
	case string(billing.ReservationActive), string(billing.ReservationCompleted), string(billing.ReservationCancelled):
		filter.Status = billing.ReservationStatus(status)
	default:
		return billing.Filter{}, errors.New("invalid status")
	}
	switch payment := q.Get("paymentStatus"); payment {
	case "", "all":
	case string(billing.PaymentPending), string(billing.PaymentCompleted), string(billing.PaymentFailed):
		filter.PaymentStatus = billing.PaymentStatus(payment)
	default:
		return billing.Filter{}, errors.New("invalid paymentStatus")
	}
	return filter, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
