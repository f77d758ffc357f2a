package controller

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/cart/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/platform/middleware"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/cart"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/validate"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

type cartLineResponse struct {
	ISBN      string `json:"isbn"`
	SellerID  string `json:"seller_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Currency  string `json:"currency"`
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

// @Summary Get the current customer's cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Router /api/cart [get]
func (c *Controller) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	cart, err := c.svc.Get(r.Context(), customerID)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, toResponse(cart.Items()))
}

type addItemRequest struct {
	ISBN      string `json:"isbn" validate:"required"`
	SellerID  string `json:"seller_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice string `json:"unit_price" validate:"required"`
	Currency  string `json:"currency" validate:"required,len=3"`
}

// @Summary Add a line item to the current customer's cart
// @Tags cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Router /api/cart/items [post]
func (c *Controller) AddItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cart, err := c.svc.AddItem(r.Context(), customerID, service.AddItemInput{
		ISBN:      req.ISBN,
		SellerID:  req.SellerID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		Currency:  req.Currency,
	})
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, toResponse(cart.Items()))
}

// @Summary Remove one (isbn, seller_id) line from the current customer's cart
// @Tags cart
// @Produce json
// @Security BearerAuth
// @Param isbn query string true "ISBN"
// @Param seller_id query string true "Seller ID"
// @Router /api/cart/items [delete]
func (c *Controller) RemoveItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	isbn := r.URL.Query().Get("isbn")
	sellerID := r.URL.Query().Get("seller_id")

	cart, err := c.svc.RemoveItem(r.Context(), customerID, isbn, sellerID)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, toResponse(cart.Items()))
}

// @Summary Empty the current customer's cart
// @Tags cart
// @Security BearerAuth
// @Router /api/cart [delete]
func (c *Controller) Clear(w http.ResponseWriter, r *http.Request) {
	customerID, ok := currentCustomerID(w, r)
	if !ok {
		return
	}

	if err := c.svc.Clear(r.Context(), customerID); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toResponse(items []cart.CartItem) []cartLineResponse {
	out := make([]cartLineResponse, 0, len(items))
	for _, it := range items {
		out = append(out, cartLineResponse{
			ISBN:      it.ISBN.String(),
			SellerID:  it.SellerID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Amount().String(),
			Currency:  it.UnitPrice.Currency(),
		})
	}
	return out
}
