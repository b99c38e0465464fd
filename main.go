package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"invoicegen-backend/config"
	"invoicegen-backend/routes"
	"invoicegen-backend/services"
)

func main() {
	cfg := config.Load()

	gateway := services.NewStripeGateway(cfg)
	relay := services.NewHTTPChargeRelay(cfg.RelayURL)
	store := services.NewSessionStore(cfg.SessionTTL, func() *services.Pipeline {
		return services.NewPipeline(gateway, relay)
	})
	reaper := store.StartReaper()
	defer reaper.Stop()

	render := services.NewRenderService(services.NewAssetCache(cfg.BackgroundImagePath))

	r := routes.SetupRouter(routes.Deps{
		Cfg:     cfg,
		Store:   store,
		Gateway: gateway,
		Render:  render,
	})
	printRoutes(r)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
