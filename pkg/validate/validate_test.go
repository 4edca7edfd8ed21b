package validate_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/pkg/validate"
)

type registerInput struct {
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	Role      string `json:"role"      validate:"nullable,in=customer,admin"`
	Website   string `json:"website"   validate:"nullable,url"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(registerInput{
		Email:     "jane@test.com",
		Password:  "jane123",
		FirstName: "Jane",
	})
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(registerInput{})
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.Contains(t, errs, "firstName")
	assert.NotContains(t, errs, "role")
}

func TestEmailRule(t *testing.T) {
	errs := validate.Struct(registerInput{Email: "not-an-email", Password: "secret1", FirstName: "J"})
	assert.Equal(t, "The email must be a valid email address.", errs["email"])
}

func TestInRuleKeepsListTogether(t *testing.T) {
	type in struct {
		Method string `json:"paymentMethod" validate:"required,in=credit_card,debit_card,paypal,cash,max=20"`
	}
	assert.Empty(t, validate.Struct(in{Method: "paypal"}))
	assert.Empty(t, validate.Struct(in{Method: "cash"}))
	assert.Equal(t, "The selected paymentMethod is invalid.", validate.Struct(in{Method: "bitcoin"})["paymentMethod"])
}

func TestNullableSkipsRules(t *testing.T) {
	errs := validate.Struct(registerInput{Email: "a@b.co", Password: "secret1", FirstName: "A", Website: ""})
	assert.NotContains(t, errs, "website")

	errs = validate.Struct(registerInput{Email: "a@b.co", Password: "secret1", FirstName: "A", Website: "ftp://x"})
	assert.Contains(t, errs, "website")
}

type lineItem struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"  validate:"required,gt=0"`
}

type placeOrder struct {
	Items           []lineItem `json:"items"           validate:"required,min=1,dive"`
	ShippingAddress string     `json:"shippingAddress" validate:"required"`
}

func TestDiveReportsElementPaths(t *testing.T) {
	errs := validate.Struct(placeOrder{
		Items:           []lineItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: -1}},
		ShippingAddress: "1 Main St",
	})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs, "items.1.quantity")
}

func TestEmptySliceIsRequired(t *testing.T) {
	errs := validate.Struct(placeOrder{ShippingAddress: "x"})
	assert.Equal(t, "The items field is required.", errs["items"])
}

func TestDecimalBounds(t *testing.T) {
	type in struct {
		Price *decimal.Decimal `json:"price" validate:"required,gte=0"`
	}
	neg := decimal.RequireFromString("-1.50")
	zero := decimal.Zero
	assert.Contains(t, validate.Struct(in{Price: &neg}), "price")
	assert.Empty(t, validate.Struct(in{Price: &zero}))
	assert.Contains(t, validate.Struct(in{}), "price")
}
