package controller

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/domain/payment"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
)

type Repository interface {
	ListForSeller(ctx context.Context, sellerID string) ([]payment.Settlement, error)
}

type Controller struct {
	repo Repository
}

func New(repo Repository) *Controller {
	return &Controller{repo: repo}
}

// ListForSeller godoc
// @Summary List a seller's settlement batches
// @Tags settlement
// @Produce json
// @Param sellerId path string true "Seller ID"
// @Router /api/sellers/{sellerId}/settlements [get]
func (c *Controller) ListForSeller(w http.ResponseWriter, r *http.Request) {
	sellerID := mux.Vars(r)["sellerId"]
	if sellerID == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "missing seller id")
		return
	}
	settlements, err := c.repo.ListForSeller(r.Context(), sellerID)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, "failed to list settlements")
		return
	}
	httpjson.WriteJSON(w, http.StatusOK, settlements)
}
