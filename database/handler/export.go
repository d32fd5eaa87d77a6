package handler

import (
	"net/http"

	"storefront/middleware"
	"storefront/model"
	"storefront/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tealeg/xlsx"
)

const timestampLayout = "2006-01-02 15:04:05"

var exportHeaders = []string{
	"ID", "Name", "Description", "Price", "Stock", "Category", "Brand", "Image",
	"Active", "OnSale", "DiscountPercentage", "SalePrice", "CreatedAt", "UpdatedAt",
}

func (h *Handler) ExportProducts(c *gin.Context) {
	products, err := h.Catalog.Export(c.Request.Context(), middleware.UserContextData(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch products")
		return
	}
	file, err := productWorkbook(products)
	if err != nil {
		logrus.Errorf("ExportProducts: error in building workbook err = %v", err)
		utils.RespondError(c, model.Internal("Failed to create Excel sheet", err), "")
		return
	}

	c.Header("Content-Disposition", "attachment; filename=products.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := file.Write(c.Writer); err != nil {
		logrus.Errorf("ExportProducts: error in writing workbook err = %v", err)
	}
}

func productWorkbook(products []model.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}
	headerRow := sheet.AddRow()
	for _, header := range exportHeaders {
		headerRow.AddCell().SetValue(header)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Price.InexactFloat64())
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.Brand)
		row.AddCell().SetValue(p.ImageFilename)
		row.AddCell().SetValue(p.IsActive)
		row.AddCell().SetValue(p.Sale.IsOnSale)
		row.AddCell().SetValue(p.Sale.DiscountPercentage.InexactFloat64())
		if p.Sale.SalePrice != nil {
			row.AddCell().SetValue(p.Sale.SalePrice.InexactFloat64())
		} else {
			row.AddCell().SetValue("")
		}
		row.AddCell().SetValue(p.CreatedAt.Format(timestampLayout))
		row.AddCell().SetValue(p.UpdatedAt.Format(timestampLayout))
	}
	return file, nil
}
