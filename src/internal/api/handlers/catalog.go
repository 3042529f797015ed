package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
)

// CatalogHandler handles the supplier, inventory and order records that are
// payload to the backup engine.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

type supplierRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=50"`
	Address      string `json:"address" validate:"max=500"`
}

type inventoryItemRequest struct {
	SupplierID     *uuid.UUID `json:"supplier_id"`
	SKU            string     `json:"sku" validate:"required,max=64"`
	Name           string     `json:"name" validate:"required,max=200"`
	Quantity       int        `json:"quantity" validate:"min=0"`
	UnitPriceCents int64      `json:"unit_price_cents" validate:"min=0"`
}

type orderRequest struct {
	SupplierID *uuid.UUID `json:"supplier_id"`
	Reference  string     `json:"reference" validate:"required,max=64"`
	Status     string     `json:"status" validate:"omitempty,oneof=draft placed received cancelled"`
	TotalCents int64      `json:"total_cents" validate:"min=0"`
}

// ListSuppliers returns all suppliers
func (h *CatalogHandler) ListSuppliers(c echo.Context) error {
	var suppliers []models.Supplier
	if err := h.db.Order("name").Find(&suppliers).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list suppliers")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"suppliers": suppliers, "total": len(suppliers)})
}

// CreateSupplier creates a supplier
func (h *CatalogHandler) CreateSupplier(c echo.Context) error {
	var req supplierRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	supplier := models.Supplier{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Address:      req.Address,
		IsActive:     true,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create supplier")
	}
	return c.JSON(http.StatusCreated, supplier)
}

// ListInventory returns all stocked items
func (h *CatalogHandler) ListInventory(c echo.Context) error {
	var items []models.InventoryItem
	if err := h.db.Order("sku").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list inventory")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items, "total": len(items)})
}

// CreateInventoryItem creates a stocked item
func (h *CatalogHandler) CreateInventoryItem(c echo.Context) error {
	var req inventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item := models.InventoryItem{
		SupplierID:     req.SupplierID,
		SKU:            req.SKU,
		Name:           req.Name,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	}
	if err := h.db.Create(&item).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create inventory item")
	}
	return c.JSON(http.StatusCreated, item)
}

// ListOrders returns all purchase orders
func (h *CatalogHandler) ListOrders(c echo.Context) error {
	var orders []models.Order
	if err := h.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list orders")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders, "total": len(orders)})
}

// CreateOrder creates a purchase order
func (h *CatalogHandler) CreateOrder(c echo.Context) error {
	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order := models.Order{
		SupplierID: req.SupplierID,
		Reference:  req.Reference,
		Status:     req.Status,
		TotalCents: req.TotalCents,
	}
	if order.Status == "" {
		order.Status = models.OrderStatusDraft
	}
	if err := h.db.Create(&order).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create order")
	}
	return c.JSON(http.StatusCreated, order)
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/suppliers", h.ListSuppliers)
	g.POST("/suppliers", h.CreateSupplier)
	g.GET("/inventory", h.ListInventory)
	g.POST("/inventory", h.CreateInventoryItem)
	g.GET("/orders", h.ListOrders)
	g.POST("/orders", h.CreateOrder)
}
