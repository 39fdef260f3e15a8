package handlers

import (
	"log"
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/meetingcoach/meeting-coach/internal/storage"
)

// SessionsHandler serves saved analysis sessions.
type SessionsHandler struct {
	db *storage.SessionDB
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(db *storage.SessionDB) *SessionsHandler {
	return &SessionsHandler{db: db}
}

// List returns recent sessions, newest first.
func (h *SessionsHandler) List(c *fiber.Ctx) error {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	sessions, err := h.db.List(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sessions)
}

// Report returns the saved analysis report for a session.
func (h *SessionsHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")

	session, err := h.db.Get(id)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Session not found"})
	}
	if session.ReportPath == "" {
		return c.Status(404).JSON(fiber.Map{"error": "Session has no report"})
	}

	content, err := os.ReadFile(session.ReportPath)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read report file"})
	}

	if err := h.db.Touch(id); err != nil {
		log.Printf("Failed to touch session %s: %v", id, err)
	}

	c.Set("Content-Type", "text/markdown; charset=utf-8")
	return c.SendString(string(content))
}

// Delete removes a session record. Report files on disk are kept.
func (h *SessionsHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if _, err := h.db.Get(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Session not found"})
	}
	if err := h.db.Delete(id); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"deleted": id})
}
