package http

import (
	"errors"
	"net/http"

	"github.com/DRSN-tech/miniapp-backend/internal/domain"
	"github.com/DRSN-tech/miniapp-backend/internal/usecase"
	"github.com/DRSN-tech/miniapp-backend/pkg/e"
	"github.com/DRSN-tech/miniapp-backend/pkg/logger"
)

type CartHandler struct {
	cartUC usecase.CartUC
	logger logger.Logger
}

func NewCartHandler(cartUC usecase.CartUC, logger logger.Logger) *CartHandler {
	return &CartHandler{cartUC: cartUC, logger: logger}
}

func (c *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r)(c.cartUC.GetCart(sessionFromCtx(r.Context())))
}

func (c *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, r)(c.cartUC.AddItem(sessionFromCtx(r.Context()), req.ProductID, req.Quantity))
}

func (c *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	var req SetQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, r)(c.cartUC.SetItemQuantity(sessionFromCtx(r.Context()), id, req.Quantity))
}

func (c *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "productID")
	if err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, r)(c.cartUC.RemoveItem(sessionFromCtx(r.Context()), id))
}

func (c *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r)(c.cartUC.ClearCart(sessionFromCtx(r.Context())))
}

func (c *CartHandler) setMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	mode, err := domain.ParseFulfillmentMode(req.Mode)
	if err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, r)(c.cartUC.SetFulfillmentMode(sessionFromCtx(r.Context()), mode))
}

func (c *CartHandler) setDetail(w http.ResponseWriter, r *http.Request) {
	var req DetailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	c.respond(w, r)(c.cartUC.SetOrderDetail(sessionFromCtx(r.Context()), req.Detail))
}

func (c *CartHandler) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r)(c.cartUC.CancelCheckout(sessionFromCtx(r.Context())))
}

// submitOrder отправляет заказ оператору. При сбое доставки корзина и данные заказа сохраняются.
func (c *CartHandler) submitOrder(w http.ResponseWriter, r *http.Request) {
	receipt, err := c.cartUC.SubmitOrder(r.Context(), sessionFromCtx(r.Context()), identityFromCtx(r.Context()))
	if err != nil {
		if errors.Is(err, e.ErrOrderNotSent) {
			c.logger.Errorf(err, "order not sent: session: %s", sessionFromCtx(r.Context()))
		}
		WriteError(w, err)
		return
	}

	c.logger.Infof("Order submitted: id: %s, total: %s", receipt.Order.ID, receipt.Order.Total.StringFixed(2))
	WriteSuccess(w, http.StatusCreated, ToReceiptResponse(receipt))
}

// respond пишет состояние корзины или ошибку.
func (c *CartHandler) respond(w http.ResponseWriter, r *http.Request) func(*usecase.CartView, error) {
	return func(view *usecase.CartView, err error) {
		if err != nil {
			if !errors.Is(err, e.ErrValidation) && !errors.Is(err, e.ErrNotFound) && !errors.Is(err, e.ErrBounds) {
				c.logger.Errorf(err, "%s %s", r.Method, r.URL.Path)
			}
			WriteError(w, err)
			return
		}

		WriteSuccess(w, http.StatusOK, ToCartResponse(view))
	}
}
