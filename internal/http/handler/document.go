package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"signdocs/internal/http/middleware"
	"signdocs/internal/model"
	"signdocs/internal/service"
)

// HealthCheck reports whether the database dependency is reachable.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a trivial liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDocuments returns the documents visible to the caller.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		docs, err := svc.List(c.UserContext(), ident)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Success", docs)
	}
}

// GetDocument returns a single document if the caller can see it.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), ident, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Success", doc)
	}
}

// CreateDocument creates a document record, honoring a client-supplied id.
func CreateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		var input service.CreateDocumentInput
		if err := c.BodyParser(&input); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid request body")
		}
		if input.ID != "" {
			if _, err := uuid.Parse(input.ID); err != nil {
				return writeError(c, fiber.StatusBadRequest, "invalid id format")
			}
		}
		doc, err := svc.Create(c.UserContext(), ident, input)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusCreated, "Document created successfully", doc)
	}
}

// UpdateDocument applies a partial update to a visible document.
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid id format")
		}
		var patch model.DocumentPatch
		if err := c.BodyParser(&patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid request body")
		}
		doc, err := svc.Update(c.UserContext(), ident, id, patch)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Document updated successfully", doc)
	}
}

// DeleteDocument removes a document together with its version history and
// blob folder.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), ident, id); err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Document deleted successfully", nil)
	}
}

// UploadDocument accepts one file (multipart field "file") for an existing
// document and returns the stored file reference.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid id format")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		res, err := svc.Upload(c.UserContext(), ident, id, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Document uploaded successfully", res)
	}
}

// GetDocumentURL issues a time-bounded access link for the document's file.
// The default link is short-lived; "?expiry=extended" requests the sharing
// tier explicitly.
func GetDocumentURL(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid id format")
		}
		extended := c.Query("expiry") == "extended"

		u, err := svc.AccessURL(c.UserContext(), ident, id, extended)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Success", fiber.Map{"url": u})
	}
}

// ListDocumentVersions returns the full version history, oldest first.
func ListDocumentVersions(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ident, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid id format")
		}
		versions, err := svc.Versions(c.UserContext(), ident, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return writeData(c, fiber.StatusOK, "Success", versions)
	}
}
