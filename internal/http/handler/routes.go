package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"docvault/internal/delivery"
	"docvault/internal/service"
)

// Deps are the collaborators the routes need.
type Deps struct {
	// DB backs /health. Leave nil when metadata is kept in memory.
	DB        Pinger
	Documents service.DocumentService
	Delivery  *delivery.Engine
	MaxUpload int64
	Log       zerolog.Logger
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parse, call the service, map errors.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/upload-pc", UploadDocument(d.Documents, d.MaxUpload, d.Log))
	api.Get("/files", ListDocuments(d.Documents, d.Log))
	api.Get("/files/:uuid", GetDocument(d.Documents, d.Log))
	api.Get("/files/:uuid/content", GetDocumentContent(d.Documents, d.Delivery, d.Log))
}
