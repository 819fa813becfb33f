package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"cylinder-backend/internal/models"
	"cylinder-backend/internal/services"
	"cylinder-backend/pkg/utils"
)

type SaleHandler struct {
	Service *services.SaleService
}

func NewSaleHandler(s *services.SaleService) *SaleHandler {
	return &SaleHandler{Service: s}
}

func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var in models.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.Service.Create(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}

	sale, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, sale)
}

func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SaleFilter{
		Type:        models.SaleType(q.Get("type")),
		Status:      models.SaleStatus(q.Get("status")),
		PaymentType: models.PaymentType(q.Get("payment_type")),
	}
	if s := q.Get("customer_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		filter.CustomerID = id
	}
	if s := q.Get("limit"); s != "" {
		filter.Limit, _ = strconv.Atoi(s)
	}
	if s := q.Get("offset"); s != "" {
		filter.Offset, _ = strconv.Atoi(s)
	}

	sales, err := h.Service.List(r.Context(), &filter)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sales)
}

func (h *SaleHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in models.SaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.Update(r.Context(), id, &in); err != nil {
		writeError(w, err)
		return
	}

	sale, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
