package controllers

import (
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type AccountController struct {
	accounts *services.AccountService
}

func NewAccountController(accounts *services.AccountService) *AccountController {
	return &AccountController{accounts: accounts}
}

func (c *AccountController) Register(x *ctx.Context) {
	var input services.RegisterInput
	if !x.BindJSON(&input) {
		return
	}

	user, err := c.accounts.Register(x.Context(), input)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created("User registered successfully", user)
}

func (c *AccountController) Login(x *ctx.Context) {
	var input services.LoginInput
	if !x.BindJSON(&input) {
		return
	}

	result, err := c.accounts.Login(x.Context(), input.Email, input.Password)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("Login successful", result)
}

func (c *AccountController) Profile(x *ctx.Context) {
	user, err := c.accounts.Profile(x.Context(), x.UserID())
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", user)
}

func (c *AccountController) UpdateProfile(x *ctx.Context) {
	var input services.UpdateProfileInput
	if !x.BindJSON(&input) {
		return
	}

	user, err := c.accounts.UpdateProfile(x.Context(), x.UserID(), input)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("Profile updated successfully", user)
}
