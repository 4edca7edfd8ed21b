package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Index lists products, optionally filtered by ?category= and ?isActive=.
func (c *ProductController) Index(x *ctx.Context) {
	filter := repositories.ProductFilter{Category: x.Query("category")}
	if raw := x.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			x.ValidationError(map[string]string{"isActive": "isActive must be true or false"})
			return
		}
		filter.IsActive = &active
	}

	products, err := c.catalog.List(x.Context(), filter)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", products)
}

func (c *ProductController) Show(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	product, err := c.catalog.Get(x.Context(), id)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("", product)
}

func (c *ProductController) Store(x *ctx.Context) {
	var input services.CreateProductInput
	if !x.BindJSON(&input) {
		return
	}

	product, err := c.catalog.Create(x.Context(), input)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created("Product created successfully", product)
}

func (c *ProductController) Update(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	var input services.UpdateProductInput
	if !x.BindJSON(&input) {
		return
	}

	product, err := c.catalog.Update(x.Context(), id, input)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("Product updated successfully", product)
}

func (c *ProductController) Destroy(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	if err := c.catalog.Delete(x.Context(), id); err != nil {
		x.Fail(err)
		return
	}
	x.Success("Product deleted successfully", nil)
}

// UploadImage stores the multipart "image" field and points imageUrl at it.
func (c *ProductController) UploadImage(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}

	file, hdr, err := x.FormFile("image")
	if errors.Is(err, bind.ErrNoFile) {
		x.ValidationError(map[string]string{"image": "image is required"})
		return
	}
	if err != nil {
		x.Error(http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	product, err := c.catalog.UploadImage(x.Context(), id, hdr.Filename, hdr.Header.Get("Content-Type"), file)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success("Product image uploaded successfully", product)
}
