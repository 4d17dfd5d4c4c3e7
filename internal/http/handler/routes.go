package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"signdocs/internal/http/middleware"
	"signdocs/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay free of business logic; everything flows through the injected service.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Probes stay outside the identity boundary.
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Every document route requires a verified caller identity.
	docs := app.Group("/documents", middleware.Identity())

	docs.Get("/", ListDocuments(docSvc))
	docs.Post("/", CreateDocument(docSvc))
	docs.Get("/:id", GetDocument(docSvc))
	docs.Put("/:id", UpdateDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
	docs.Post("/:id/upload", UploadDocument(docSvc))
	docs.Get("/:id/url", GetDocumentURL(docSvc))
	docs.Get("/:id/versions", ListDocumentVersions(docSvc))
}
