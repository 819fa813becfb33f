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

type CylinderHandler struct {
	Service *services.CylinderService
}

func NewCylinderHandler(s *services.CylinderService) *CylinderHandler {
	return &CylinderHandler{Service: s}
}

func (h *CylinderHandler) GetTracking(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.Atoi(mux.Vars(r)["customerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	tracking, err := h.Service.GetTracking(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tracking)
}

func (h *CylinderHandler) ListTracking(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ListTracking(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, records)
}

func (h *CylinderHandler) RecordReturn(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.Atoi(mux.Vars(r)["customerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	var req models.RecordReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.RecordReturn(r.Context(), customerID, &req); err != nil {
		writeError(w, err)
		return
	}

	tracking, err := h.Service.GetTracking(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tracking)
}

func (h *CylinderHandler) ReturnHistory(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.Atoi(mux.Vars(r)["customerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	events, err := h.Service.ReturnHistory(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, events)
}

func (h *CylinderHandler) ResetTracking(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.Atoi(mux.Vars(r)["customerId"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	if err := h.Service.Reset(r.Context(), customerID); err != nil {
		writeError(w, err)
		return
	}

	tracking, err := h.Service.GetTracking(r.Context(), customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tracking)
}
