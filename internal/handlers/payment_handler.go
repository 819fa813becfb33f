package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cylinder-backend/internal/models"
	"cylinder-backend/internal/services"
	"cylinder-backend/pkg/utils"
)

type PaymentHandler struct {
	Service  *services.PaymentService
	Receipts *services.ReceiptService
}

func NewPaymentHandler(s *services.PaymentService, receipts *services.ReceiptService) *PaymentHandler {
	return &PaymentHandler{Service: s, Receipts: receipts}
}

func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.Service.Create(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}

	payment, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	if customerStr := r.URL.Query().Get("customer_id"); customerStr != "" {
		customerID, err := strconv.Atoi(customerStr)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		payments, err := h.Service.ListByCustomer(r.Context(), customerID)
		if err != nil {
			writeError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, payments)
		return
	}

	payments, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in models.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Update(r.Context(), id, &in); err != nil {
		writeError(w, err)
		return
	}

	payment, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadReceipt streams the payment receipt PDF.
func (h *PaymentHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	pdf, err := h.Receipts.PaymentReceipt(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt-%s.pdf"`, id))
	w.Write(pdf)
}
