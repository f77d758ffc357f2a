// Package controller exposes order-worker's internal HTTP surface: the
// warehouse/ops-triggered shipment, delivery, completion, and refund
// transitions that SPEC_FULL.md keeps out of checkout-api's customer-facing
// API. Callers are trusted internal systems, not end users.
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/order-worker/internal/order/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/util"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

func (c *Controller) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid order id")
		return uuid.UUID{}, false
	}
	return id, true
}

// @Summary Get an order by id
// @Tags orders
// @Produce json
// @Param id path string true "Order ID (uuid)"
// @Router /orders/{id} [get]
func (c *Controller) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.orderID(w, r)
	if !ok {
		return
	}
	o, err := c.svc.GetByID(r.Context(), orderID)
	if err != nil {
		if util.IsNotFound(err) {
			httpjson.WriteError(w, http.StatusNotFound, "order not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

// @Summary Advance an order Paid -> Shipped
// @Tags orders
// @Produce json
// @Param id path string true "Order ID (uuid)"
// @Router /orders/{id}/ship [post]
func (c *Controller) MarkAsShipped(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.orderID(w, r)
	if !ok {
		return
	}
	o, err := c.svc.MarkAsShipped(r.Context(), orderID)
	if err != nil {
		httpjson.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

// @Summary Advance an order Shipped -> Delivered
// @Tags orders
// @Produce json
// @Param id path string true "Order ID (uuid)"
// @Router /orders/{id}/deliver [post]
func (c *Controller) MarkAsDelivered(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.orderID(w, r)
	if !ok {
		return
	}
	o, err := c.svc.MarkAsDelivered(r.Context(), orderID)
	if err != nil {
		httpjson.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

// @Summary Advance an order Delivered -> Completed
// @Tags orders
// @Produce json
// @Param id path string true "Order ID (uuid)"
// @Router /orders/{id}/complete [post]
func (c *Controller) Complete(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.orderID(w, r)
	if !ok {
		return
	}
	o, err := c.svc.Complete(r.Context(), orderID)
	if err != nil {
		httpjson.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// @Summary Refund a Paid or Delivered order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID (uuid)"
// @Router /orders/{id}/refund [post]
func (c *Controller) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	orderID, ok := c.orderID(w, r)
	if !ok {
		return
	}
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := c.svc.ProcessRefund(r.Context(), orderID, req.Reason)
	if err != nil {
		httpjson.WriteError(w, http.StatusConflict, err.Error())
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, o)
}
