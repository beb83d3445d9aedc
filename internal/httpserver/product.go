package httpserver

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopfront/internal/service"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func productID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid product id")
	}
	return id, nil
}

func (h *ProductHTTP) GetAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.all")

	ps, err := h.Svc.All(ctx)
	if err != nil {
		return httpError(l, "get_products_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": ps})
}

func (h *ProductHTTP) GetFeatured(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.featured")

	ps, err := h.Svc.Featured(ctx)
	if err != nil {
		return httpError(l, "get_featured_failed", err)
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *ProductHTTP) GetByCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.category")

	ps, err := h.Svc.ByCategory(ctx, c.Param("category"))
	if err != nil {
		return httpError(l, "get_category_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"products": ps})
}

func (h *ProductHTTP) GetRecommendations(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.recommendations")

	ps, err := h.Svc.Recommendations(ctx)
	if err != nil {
		return httpError(l, "get_recommendations_failed", err)
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *ProductHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.search")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		return httpError(l, "search_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.create")

	var req struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Image       string  `json:"image"`
		Category    string  `json:"category"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	p, err := h.Svc.Create(ctx, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
	})
	if err != nil {
		return httpError(l, "create_product_failed", err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHTTP) ToggleFeatured(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.toggle_featured")

	id, err := productID(c)
	if err != nil {
		return err
	}
	p, err := h.Svc.ToggleFeatured(ctx, id)
	if err != nil {
		return httpError(l, "toggle_featured_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "products.delete")

	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return httpError(l, "delete_product_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}
