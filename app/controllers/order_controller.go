package controllers

import (
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (c *OrderController) Store(x *ctx.Context) {
	var input services.PlaceOrderInput
	if !x.BindJSON(&input) {
		return
	}

	order, err := c.orders.Place(x.Context(), x.UserID(), input)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created("Order created successfully", order)
}

// Index lists the caller's own orders, newest first.
func (c *OrderController) Index(x *ctx.Context) {
	orders, err := c.orders.ListForUser(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", orders)
}

func (c *OrderController) Show(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	order, err := c.orders.Get(x.Context(), id)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", order)
}

func (c *OrderController) UpdateStatus(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	var input services.UpdateStatusInput
	if !x.BindJSON(&input) {
		return
	}

	order, err := c.orders.UpdateStatus(x.Context(), id, input.Status)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("Order status updated successfully", order)
}
