package controller

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/checkout/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/platform/middleware"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/address"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/util"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/validate"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

func currentCustomerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httpjson.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.UUID{}, false
	}
	return id, true
}

type createSessionRequest struct {
	DeliveryAddress struct {
		Street     string `json:"street" validate:"required"`
		City       string `json:"city" validate:"required"`
		PostalCode string `json:"postalCode" validate:"required"`
		State      string `json:"state" validate:"required"`
		Country    string `json:"country" validate:"required,len=2"`
	} `json:"delivery_address" validate:"required"`
}

// CreateSession godoc
// @Summary Create a checkout session from the customer's current cart
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /api/checkout/sessions [post]
func (c *Controller) CreateSession(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	addr, err := address.New(req.DeliveryAddress.Street, req.DeliveryAddress.City,
		req.DeliveryAddress.PostalCode, req.DeliveryAddress.State, req.DeliveryAddress.Country)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := c.svc.CreateSession(r.Context(), customerID, addr)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, session)
}

// ConfirmSession godoc
// @Summary Confirm a checkout session into a Pending order
// @Tags checkout
// @Produce json
// @Security BearerAuth
// @Param id path string true "Session ID (uuid)"
// @Router /api/checkout/sessions/{id}/confirm [post]
func (c *Controller) ConfirmSession(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	order, err := c.svc.Confirm(r.Context(), customerID, sessionID)
	if err != nil {
		if util.IsNotFound(err) {
			httpjson.WriteError(w, http.StatusNotFound, "session not found or expired")
			return
		}
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, order)
}

// GetOrder godoc
// @Summary Get an order placed by the current customer
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID (uuid)"
// @Router /api/orders/{id} [get]
func (c *Controller) GetOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}

	order, err := c.svc.GetByID(r.Context(), orderID, customerID)
	if err != nil {
		if util.IsNotFound(err) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, order)
}
