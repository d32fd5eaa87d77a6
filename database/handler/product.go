package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"storefront/middleware"
	"storefront/model"
	"storefront/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxUploadSize = 10 << 20

// CreateProduct accepts a multipart form with the product fields and an optional "image" file.
func (h *Handler) CreateProduct(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	in, err := productInput(c)
	if err != nil {
		utils.RespondError(c, err, "All fields are required and must be valid")
		return
	}

	header, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		utils.RespondError(c, model.Validation("error in parsing multipart form", err.Error()), "")
		return
	default:
		in.ImageFilename, err = h.saveImage(c, header)
		if err != nil {
			logrus.Errorf("CreateProduct: error in saving image err = %v", err)
			utils.RespondError(c, err, "error in saving image")
			return
		}
	}

	product, err := h.Catalog.Create(c.Request.Context(), middleware.UserContextData(c), in)
	if err != nil {
		if in.ImageFilename != "" {
			if rmErr := h.Images.Remove(in.ImageFilename); rmErr != nil {
				logrus.Errorf("CreateProduct: error in removing orphan image err = %v", rmErr)
			}
		}
		utils.RespondError(c, err, "Failed to create product")
		return
	}
	utils.RespondJSON(c, http.StatusCreated, dataResponse{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// saveImage checks the upload's content type and writes it into the image store.
func (h *Handler) saveImage(c *gin.Context, header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	checkErr := h.Images.Check(file)
	_ = file.Close()
	if checkErr != nil {
		return "", checkErr
	}
	name := h.Images.Name(header.Filename)
	if err := c.SaveUploadedFile(header, h.Images.Path(name)); err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	return name, nil
}

func productInput(c *gin.Context) (model.ProductInput, error) {
	invalid := func(detail string) error {
		return model.Validation("All fields are required and must be valid", detail)
	}
	in := model.ProductInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Brand:       c.PostForm("brand"),
	}
	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		return in, invalid("Price must be a number")
	}
	in.Price = price
	if raw := strings.TrimSpace(c.PostForm("stock")); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return in, invalid("Stock must be a whole number")
		}
		in.Stock = stock
	}
	return in, nil
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.Catalog.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	utils.RespondJSON(c, http.StatusOK, product)
}

func (h *Handler) GetAllProducts(c *gin.Context) {
	h.respondList(c)(h.Catalog.All(c.Request.Context(), middleware.UserContextData(c)))
}

func (h *Handler) GetActiveProducts(c *gin.Context) {
	h.respondList(c)(h.Catalog.Active(c.Request.Context()))
}

func (h *Handler) GetProductsByCategory(c *gin.Context) {
	h.respondList(c)(h.Catalog.ByCategory(c.Request.Context(), c.Param("category")))
}

func (h *Handler) GetProductsByBrand(c *gin.Context) {
	h.respondList(c)(h.Catalog.ByBrand(c.Request.Context(), c.Param("brand")))
}

func (h *Handler) GetSaleProducts(c *gin.Context) {
	h.respondList(c)(h.Catalog.OnSale(c.Request.Context()))
}

func (h *Handler) respondList(c *gin.Context) func([]model.Product, error) {
	return func(products []model.Product, err error) {
		if err != nil {
			utils.RespondError(c, err, "Server error")
			return
		}
		utils.RespondJSON(c, http.StatusOK, products)
	}
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	utils.RespondJSON(c, http.StatusOK, dataResponse{Success: true, Data: categories})
}

func (h *Handler) GetBrands(c *gin.Context) {
	brands, err := h.Catalog.Brands(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	utils.RespondJSON(c, http.StatusOK, dataResponse{Success: true, Data: brands})
}

func (h *Handler) SearchByName(c *gin.Context) {
	var body model.SearchByNameRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	products, err := h.Catalog.SearchByName(c.Request.Context(), body.Name)
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	utils.RespondJSON(c, http.StatusOK, dataResponse{Success: true, Data: products})
}

func (h *Handler) SearchByPrice(c *gin.Context) {
	var body model.SearchByPriceRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	products, err := h.Catalog.SearchByPrice(c.Request.Context(), body)
	if err != nil {
		utils.RespondError(c, err, "Server error")
		return
	}
	utils.RespondJSON(c, http.StatusOK, dataResponse{Success: true, Data: products})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var body model.UpdateProductRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	product, err := h.Catalog.Update(c.Request.Context(), middleware.UserContextData(c), c.Param("productId"), body)
	if err != nil {
		utils.RespondError(c, err, "Failed to update product")
		return
	}
	utils.RespondJSON(c, http.StatusOK, product)
}

func (h *Handler) ArchiveProduct(c *gin.Context) {
	product, err := h.Catalog.Archive(c.Request.Context(), middleware.UserContextData(c), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err, "Failed to archive product")
		return
	}
	utils.RespondJSON(c, http.StatusOK, product)
}

func (h *Handler) ActivateProduct(c *gin.Context) {
	product, err := h.Catalog.Activate(c.Request.Context(), middleware.UserContextData(c), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err, "Failed to activate product")
		return
	}
	utils.RespondJSON(c, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	product, err := h.Catalog.Delete(c.Request.Context(), middleware.UserContextData(c), c.Param("productId"))
	if err != nil {
		utils.RespondError(c, err, "Server error while deleting product")
		return
	}
	utils.RespondJSON(c, http.StatusOK, dataResponse{
		Success: true,
		Message: "Product deleted successfully",
		Data:    product,
	})
}

type saleResponse struct {
	Message string         `json:"message"`
	Product *model.Product `json:"product"`
}

func (h *Handler) UpdateSale(c *gin.Context) {
	var body model.SaleRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	start, err := utils.ParseDate(body.SaleStart)
	if err != nil {
		utils.RespondError(c, err, "Invalid sale start")
		return
	}
	end, err := utils.ParseDate(body.SaleEnd)
	if err != nil {
		utils.RespondError(c, err, "Invalid sale end")
		return
	}
	product, err := h.Catalog.UpdateSale(c.Request.Context(), middleware.UserContextData(c), c.Param("productId"), model.SaleInput{
		IsOnSale:           body.IsOnSale,
		DiscountPercentage: body.DiscountPercentage,
		SaleStart:          start,
		SaleEnd:            end,
	})
	if err != nil {
		utils.RespondError(c, err, "Error updating sale")
		return
	}
	utils.RespondJSON(c, http.StatusOK, saleResponse{Message: "Sale updated", Product: product})
}
