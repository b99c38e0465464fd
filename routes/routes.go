package routes

import (
	"invoicegen-backend/config"
	"invoicegen-backend/controllers"
	"invoicegen-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps bundles everything the router hands to the controllers.
type Deps struct {
	Cfg     *config.Config
	Store   *services.SessionStore
	Gateway services.Charger
	Render  *services.RenderService
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", controllers.SessionHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", controllers.SessionHeader},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	pipeline := &controllers.PipelineController{Cfg: d.Cfg}
	checkout := &controllers.CheckoutController{Gateway: d.Gateway, Cfg: d.Cfg}
	invoice := &controllers.InvoiceController{Render: d.Render}

	// Charge relay; called by the checkout state machine, not the browser.
	r.POST("/checkout", checkout.Relay)

	api := r.Group("/api")
	api.Use(controllers.SessionMiddleware(d.Store))
	{
		api.GET("/config", pipeline.ClientConfig)
		api.GET("/pipeline", pipeline.Status)
		api.POST("/pipeline/plan", pipeline.SelectPlan)
		api.POST("/pipeline/reset", pipeline.Reset)

		// Checkout step routes
		co := api.Group("/checkout")
		{
			co.PUT("/contact", checkout.SetContactField)
			co.POST("/next", checkout.ProceedToCard)
			co.POST("/back", checkout.Back)
			co.PUT("/card", checkout.SetCard)
			co.POST("/submit", checkout.Submit)
			co.POST("/cancel", checkout.Cancel)
		}

		// Invoice routes
		inv := api.Group("/invoice")
		{
			inv.GET("", invoice.GetInvoice)
			inv.PUT("/customer", invoice.UpdateCustomer)
			inv.POST("/items", invoice.AddItem)
			inv.PUT("/items/:index", invoice.UpdateItem)
			inv.DELETE("/items/:index", invoice.RemoveItem)
			inv.POST("/logo", invoice.UploadLogo)
			inv.POST("/render", invoice.RenderInvoice)
		}
	}

	return r
}
