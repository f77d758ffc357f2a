package controller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/apps/notification-worker/internal/notification/service"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/apperr"
	"github.com/has99an/GeorgiaTechLibrary.Marketplace-sub004/shared/httpjson"
)

type Controller struct {
	svc *service.Service
}

func New(svc *service.Service) *Controller {
	return &Controller{svc: svc}
}

// Retry handles POST /notifications/{id}/retry?orderId=... per spec.md
// §4.7 step 3.
// @Summary Retry a failed notification
// @Tags notifications
// @Produce json
// @Param id path string true "Notification ID (uuid)"
// @Param orderId query string true "Order ID the notification belongs to"
// @Router /notifications/{id}/retry [post]
func (c *Controller) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		httpjson.WriteError(w, http.StatusBadRequest, "orderId query parameter is required")
		return
	}

	if err := c.svc.Retry(r.Context(), orderID, id); err != nil {
		if apperr.IsNotFound(err) {
			httpjson.WriteError(w, http.StatusNotFound, "notification not found")
			return
		}
		if apperr.IsConflict(err) {
			httpjson.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "retrying"})
}
