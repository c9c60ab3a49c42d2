package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yashrajoria/restaurant-backend/models"
)

// CatalogController serves the menu. Public handlers only see active
// categories and available dishes; the Admin* handlers see everything.
type CatalogController struct {
	service   CatalogServiceAPI
	validator *RequestValidator
	logger    *zap.Logger
}

func NewCatalogController(s CatalogServiceAPI, v *RequestValidator, logger *zap.Logger) *CatalogController {
	return &CatalogController{service: s, validator: v, logger: logger}
}

func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	categories, err := ctrl.service.ListCategories(c.Request.Context(), true)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (ctrl *CatalogController) GetCategory(c *gin.Context) {
	ctrl.getCategory(c, false)
}

func (ctrl *CatalogController) getCategory(c *gin.Context, includeInactive bool) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid category ID", err)
		return
	}
	category, err := ctrl.service.GetCategory(c.Request.Context(), id, includeInactive)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch category", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctrl *CatalogController) ListDishes(c *gin.Context) {
	ctrl.listDishes(c, true)
}

func (ctrl *CatalogController) listDishes(c *gin.Context, availableOnly bool) {
	filter, err := ctrl.validator.ParseDishFilter(c)
	if err != nil {
		respondError(c, ctrl.logger, "Invalid dish filter", err)
		return
	}
	page, err := ctrl.service.ListDishes(c.Request.Context(), filter, availableOnly)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch dishes", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (ctrl *CatalogController) GetDish(c *gin.Context) {
	ctrl.getDish(c, false)
}

func (ctrl *CatalogController) getDish(c *gin.Context, includeUnavailable bool) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid dish ID", err)
		return
	}
	dish, err := ctrl.service.GetDish(c.Request.Context(), id, includeUnavailable)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch dish", err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func (ctrl *CatalogController) PopularDishes(c *gin.Context) {
	limit, err := ctrl.validator.ParseLimit(c)
	if err != nil {
		respondError(c, ctrl.logger, "Invalid limit", err)
		return
	}
	dishes, err := ctrl.service.PopularDishes(c.Request.Context(), limit)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch popular dishes", err)
		return
	}
	c.JSON(http.StatusOK, dishes)
}

func (ctrl *CatalogController) DishRatings(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid dish ID", err)
		return
	}
	ratings, err := ctrl.service.DishRatings(c.Request.Context(), id)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch ratings", err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// Admin handlers

func (ctrl *CatalogController) AdminListCategories(c *gin.Context) {
	categories, err := ctrl.service.ListCategories(c.Request.Context(), false)
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch categories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (ctrl *CatalogController) AdminGetCategory(c *gin.Context) {
	ctrl.getCategory(c, true)
}

func (ctrl *CatalogController) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := ctrl.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to create category", err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (ctrl *CatalogController) UpdateCategory(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid category ID", err)
		return
	}
	var req models.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := ctrl.service.UpdateCategory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to update category", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (ctrl *CatalogController) DeleteCategory(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid category ID", err)
		return
	}
	if err := ctrl.service.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.logger, "Service failed to delete category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (ctrl *CatalogController) AdminListDishes(c *gin.Context) {
	ctrl.listDishes(c, false)
}

func (ctrl *CatalogController) AdminGetDish(c *gin.Context) {
	ctrl.getDish(c, true)
}

func (ctrl *CatalogController) CreateDish(c *gin.Context) {
	var req models.DishRequest
	if !bindJSON(c, &req) {
		return
	}
	dish, err := ctrl.service.CreateDish(c.Request.Context(), req)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to create dish", err)
		return
	}
	c.JSON(http.StatusCreated, dish)
}

func (ctrl *CatalogController) UpdateDish(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid dish ID", err)
		return
	}
	var req models.DishRequest
	if !bindJSON(c, &req) {
		return
	}
	dish, err := ctrl.service.UpdateDish(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to update dish", err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func (ctrl *CatalogController) SetAvailability(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid dish ID", err)
		return
	}
	var req models.AvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	dish, err := ctrl.service.SetAvailability(c.Request.Context(), id, *req.IsAvailable)
	if err != nil {
		respondError(c, ctrl.logger, "Service failed to toggle availability", err)
		return
	}
	c.JSON(http.StatusOK, dish)
}

func (ctrl *CatalogController) DeleteDish(c *gin.Context) {
	id, err := ctrl.validator.ParseID(c, "id")
	if err != nil {
		respondError(c, ctrl.logger, "Invalid dish ID", err)
		return
	}
	if err := ctrl.service.DeleteDish(c.Request.Context(), id); err != nil {
		respondError(c, ctrl.logger, "Service failed to delete dish", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dish deleted successfully"})
}

func (ctrl *CatalogController) DishStats(c *gin.Context) {
	stats, err := ctrl.service.DishStats(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to compute dish stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (ctrl *CatalogController) LowStock(c *gin.Context) {
	dishes, err := ctrl.service.LowStock(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to fetch low stock dishes", err)
		return
	}
	c.JSON(http.StatusOK, dishes)
}

// MenuOverview serves the landing page menu.
func (ctrl *CatalogController) MenuOverview(c *gin.Context) {
	overview, err := ctrl.service.MenuOverview(c.Request.Context())
	if err != nil {
		respondError(c, ctrl.logger, "Failed to load menu overview", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
