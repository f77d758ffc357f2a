package controller

import (
	"encoding/json"
	"net/http"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/checkout-api/internal/identity/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/validate"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token      string `json:"token"`
	CustomerID string `json:"customer_id"`
	Email      string `json:"email"`
}

// @Summary Register a new customer
// @Tags auth
// @Accept json
// @Produce json
// @Router /api/auth/register [post]
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, customer, err := c.svc.Register(r.Context(), service.RegisterInput{Email: req.Email, Password: req.Password})
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	httpjson.WriteJSON(w, http.StatusCreated, authResponse{Token: token, CustomerID: customer.ID.String(), Email: customer.Email})
}

// @Summary Log in an existing customer
// @Tags auth
// @Accept json
// @Produce json
// @Router /api/auth/login [post]
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, customer, err := c.svc.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		httpjson.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	httpjson.WriteJSON(w, http.StatusOK, authResponse{Token: token, CustomerID: customer.ID.String(), Email: customer.Email})
}
