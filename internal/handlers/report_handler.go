package handlers

import (
	"fmt"
	"net/http"

	"vet-backend/internal/services"
	"vet-backend/internal/timeutil"
	"vet-backend/pkg/utils"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(s *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: s}
}

// InvoicePDF serves a printable invoice as a PDF download
func (h *ReportHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid invoice ID")
		return
	}

	pdf, err := h.Service.GenerateInvoicePDF(r.Context(), id)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%d.pdf", id))
	w.Write(pdf)
}

// InvoicesCSV exports invoices issued in ?from= .. ?to= as CSV
func (h *ReportHandler) InvoicesCSV(w http.ResponseWriter, r *http.Request) {
	from, err := timeutil.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	to, err := timeutil.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid to date")
		return
	}

	csvData, err := h.Service.ExportInvoicesCSV(r.Context(), from, to)
	if err != nil {
		utils.ServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=invoices.csv")
	w.Write(csvData)
}
