package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/innopoints/innopoints-api/internal/api/handler/v1/request"
	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/domain"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, caller domain.Account, product domain.Product) (domain.Product, error)
	CreateVariety(ctx context.Context, caller domain.Account, variety domain.Variety) (domain.Variety, error)
	Variety(ctx context.Context, id uint) (domain.VarietyStock, error)
	Purchase(ctx context.Context, caller domain.Account, varietyID uint, qty int) (domain.StockChange, error)
	Restock(ctx context.Context, caller domain.Account, varietyID uint, qty int) (domain.StockChange, error)
	TransitionStatus(ctx context.Context, caller domain.Account, id uint, status domain.StockChangeStatus) (domain.StockChange, error)
}

type StoreHandler struct {
	svc      InventoryService
	accounts AccountFinder
}

func NewStoreHandler(svc InventoryService, accounts AccountFinder) *StoreHandler {
	return &StoreHandler{
		svc:      svc,
		accounts: accounts,
	}
}

// HandleCreateProduct godoc
// @Summary      Add a product to the store
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateProductRequest  true  "request body"
// @Success      201      {object}  domain.Product
// @Failure      400      {object}  response.Err
// @Failure      403      {object}  response.Err
// @Router       /products [post]
// @Security     BearerAuth
func (h *StoreHandler) HandleCreateProduct(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateProductRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	product, err := h.svc.CreateProduct(ctx.Request.Context(), caller, domain.Product{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, product)
}

// HandleCreateVariety godoc
// @Summary      Add a variety to a product
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        productID  path      int                           true  "Product ID"
// @Param        request    body      request.CreateVarietyRequest  true  "request body"
// @Success      201        {object}  domain.Variety
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Router       /products/{productID}/varieties [post]
// @Security     BearerAuth
func (h *StoreHandler) HandleCreateVariety(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	productID, respErr := paramID(ctx, "productID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.CreateVarietyRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	images := make([]domain.Image, 0, len(req.Images))
	for i, id := range req.Images {
		images = append(images, domain.Image{ID: id, Order: i})
	}

	variety, err := h.svc.CreateVariety(ctx.Request.Context(), caller, domain.Variety{
		ProductID: productID,
		Size:      req.Size,
		Color:     req.Color,
		Images:    images,
	})
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, variety)
}

// HandleGetVariety godoc
// @Summary      Get a variety with its stock figures
// @Tags         store
// @Produce      json
// @Param        varietyID  path      int  true  "Variety ID"
// @Success      200        {object}  domain.VarietyStock
// @Failure      404        {object}  response.Err
// @Router       /varieties/{varietyID} [get]
// @Security     BearerAuth
func (h *StoreHandler) HandleGetVariety(ctx *gin.Context) {
	varietyID, respErr := paramID(ctx, "varietyID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	variety, err := h.svc.Variety(ctx.Request.Context(), varietyID)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, variety)
}

// HandlePurchase godoc
// @Summary      Buy a variety
// @Description  Charges the caller and reserves the stock in one transaction.
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        varietyID  path      int                      true  "Variety ID"
// @Param        request    body      request.QuantityRequest  true  "request body"
// @Success      201        {object}  domain.StockChange
// @Failure      400        {object}  response.Err
// @Failure      402        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      409        {object}  response.Err
// @Router       /varieties/{varietyID}/purchase [post]
// @Security     BearerAuth
func (h *StoreHandler) HandlePurchase(ctx *gin.Context) {
	h.handleQuantity(ctx, h.svc.Purchase)
}

// HandleRestock godoc
// @Summary      Record an arrival of stock
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        varietyID  path      int                      true  "Variety ID"
// @Param        request    body      request.QuantityRequest  true  "request body"
// @Success      201        {object}  domain.StockChange
// @Failure      400        {object}  response.Err
// @Failure      403        {object}  response.Err
// @Router       /varieties/{varietyID}/restock [post]
// @Security     BearerAuth
func (h *StoreHandler) HandleRestock(ctx *gin.Context) {
	h.handleQuantity(ctx, h.svc.Restock)
}

func (h *StoreHandler) handleQuantity(ctx *gin.Context, apply func(context.Context, domain.Account, uint, int) (domain.StockChange, error)) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	varietyID, respErr := paramID(ctx, "varietyID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.QuantityRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	change, err := apply(ctx.Request.Context(), caller, varietyID, req.Quantity)
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusCreated, change)
}

// HandleStockChangeStatus godoc
// @Summary      Move a stock change to another status
// @Description  Rejecting a purchase refunds it; re-opening a rejected one charges again.
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        stockChangeID  path      int                               true  "Stock change ID"
// @Param        request        body      request.StockChangeStatusRequest  true  "request body"
// @Success      200            {object}  domain.StockChange
// @Failure      400            {object}  response.Err
// @Failure      403            {object}  response.Err
// @Failure      404            {object}  response.Err
// @Failure      409            {object}  response.Err
// @Router       /stock_changes/{stockChangeID}/status [patch]
// @Security     BearerAuth
func (h *StoreHandler) HandleStockChangeStatus(ctx *gin.Context) {
	caller, respErr := currentAccount(ctx, h.accounts)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	id, respErr := paramID(ctx, "stockChangeID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.StockChangeStatusRequest
	if respErr = bindJSON(ctx, &req); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	change, err := h.svc.TransitionStatus(ctx.Request.Context(), caller, id, domain.StockChangeStatus(req.Status))
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	ctx.JSON(http.StatusOK, change)
}
