package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/veranda/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	JWTSecret      []byte
	AuthClient     middleware.Refresher
	// AssetDir is served under /assets when set.
	AssetDir string
	Ready    func() error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)
	h := d.CatalogHandler

	products := e.Group("/catalog/products")
	products.GET("/search", h.SearchProducts)
	products.GET("", h.GetProducts)
	products.GET("/:id", h.GetProduct)
	products.POST("", h.CreateProduct, authMW.RequireAdmin)
	products.PATCH("/:id", h.PatchProduct, authMW.RequireAdmin)
	products.DELETE("/:id", h.DeleteProduct, authMW.RequireAdmin)

	e.GET("/catalog/categories", h.GetCategories)
	e.POST("/catalog/categories", h.CreateCategory, authMW.RequireAdmin)
	e.GET("/catalog/materials", h.GetMaterials)
	e.POST("/catalog/materials", h.CreateMaterial, authMW.RequireAdmin)

	e.POST("/catalog/assets", h.UploadAsset, authMW.RequireAdmin)
	if d.AssetDir != "" {
		e.Static("/assets", d.AssetDir)
	}
}
