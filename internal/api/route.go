package api

import (
	"github.com/gofiber/fiber/v2"
	v1 "github.com/velora/messaging-services/msggateway/internal/api/v1"
)

func SetupRoutes(app *fiber.App, handler *v1.Handler) {
	app.Get("/ping", handler.Pong)
	app.Post("/v1/messages/template", handler.SendTemplate)
	app.Post("/v1/messages/:id/clicks", handler.Click)
	app.Post("/v1/webhooks/:provider", handler.Webhook)
}
