package controllers

import (
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

type PaymentController struct {
	payments *services.PaymentService
	hub      *ws.Hub
}

func NewPaymentController(payments *services.PaymentService, hub *ws.Hub) *PaymentController {
	return &PaymentController{payments: payments, hub: hub}
}

// Store records a pending payment; settlement happens in the background.
func (c *PaymentController) Store(x *ctx.Context) {
	var input services.InitiatePaymentInput
	if !x.BindJSON(&input) {
		return
	}

	payment, err := c.payments.Initiate(x.Context(), input)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created("Payment initiated successfully", payment)
}

func (c *PaymentController) Show(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	payment, err := c.payments.Get(x.Context(), id)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", payment)
}

func (c *PaymentController) ByOrder(x *ctx.Context) {
	orderID, ok := x.ParamUint("orderId")
	if !ok {
		return
	}
	payments, err := c.payments.ListByOrder(x.Context(), orderID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", payments)
}

func (c *PaymentController) UpdateStatus(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	var input services.UpdateStatusInput
	if !x.BindJSON(&input) {
		return
	}

	payment, err := c.payments.UpdateStatus(x.Context(), id, input.Status)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("Payment status updated successfully", payment)
}

// Stream upgrades to a websocket that receives the caller's settlement
// events. Browsers cannot set headers on the handshake, so the token comes
// from ?token=.
func (c *PaymentController) Stream(x *ctx.Context) {
	token := x.Query("token")
	if token == "" {
		x.Unauthorized("Access token required")
		return
	}
	claims, err := auth.ValidateToken(token)
	if err != nil {
		x.Unauthorized("Invalid or expired token")
		return
	}
	c.hub.Upgrade(x.W, x.R, claims.UserID)
}
