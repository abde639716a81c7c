package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/models"
	"github.com/virti1331/cc-statement-parser/internal/pipeline"
	"github.com/virti1331/cc-statement-parser/internal/writer"
)

// PageBreak separates pages in the optional extractedText form field.
const PageBreak = "\n---PAGE_BREAK---\n"

// ParseResponse is the JSON envelope returned by /api/parse.
type ParseResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	File    string            `json:"file,omitempty"`
	Data    *models.Statement `json:"data,omitempty"`
}

// Options configures the HTTP app.
type Options struct {
	MaxUploadMB  int
	AllowOrigins string
	Version      string
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Pipeline *pipeline.Pipeline
	Log      *zap.Logger
	Version  string
}

// NewApp builds the fiber app with middleware and routes registered.
func NewApp(h *Handler, opts Options) *fiber.App {
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 32
	}
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = "*"
	}
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.Version == "" {
		h.Version = opts.Version
	}

	app := fiber.New(fiber.Config{
		AppName:               "ccparse",
		BodyLimit:             opts.MaxUploadMB << 20,
		DisableStartupMessage: true,
		JSONEncoder:           encodeJSON,
		ErrorHandler:          h.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/parse", h.HandleParse)
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
		"engine":  "fiber",
	})
}

// HandleParse accepts a multipart PDF upload in field "file" and returns the
// extracted statement. Clients that already extracted the text (pdf.js) may
// send it in "extractedText" to skip server-side extraction.
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	requestID := uuid.NewString()
	c.Set("X-Request-ID", requestID)
	log := h.Log.With(zap.String("request_id", requestID))

	header, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file part in the request.")
	}
	if header.Filename == "" {
		return writeError(c, fiber.StatusBadRequest, "No file selected.")
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Unsupported file type. Please upload a PDF.")
	}
	filename := filepath.Base(header.Filename)
	log.Info("upload received", zap.String("file", filename), zap.Int64("size", header.Size))

	var st *models.Statement
	if text := c.FormValue("extractedText"); strings.TrimSpace(text) != "" {
		st, err = h.Pipeline.ParseText(splitPages(text), log)
	} else {
		st, err = h.parseUpload(c, header, log)
	}

	if err != nil {
		if pipeline.IsFatal(err) {
			log.Warn("statement rejected", zap.Error(err))
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
		log.Error("statement parse failed", zap.Error(err))
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("Failed to parse statement: %v", err))
	}

	return c.JSON(ParseResponse{Success: true, File: filename, Data: st})
}

// parseUpload saves the upload to a temporary file and runs the full pipeline on it.
func (h *Handler) parseUpload(c *fiber.Ctx, header *multipart.FileHeader, log *zap.Logger) (*models.Statement, error) {
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return nil, errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := c.SaveFile(header, tmpPath); err != nil {
		return nil, errors.Wrap(err, "save upload")
	}
	return h.Pipeline.ParseFile(tmpPath, log)
}

func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	h.Log.Error("request failed", zap.Int("status", code), zap.Error(err))
	return writeError(c, code, err.Error())
}

func splitPages(text string) []string {
	var pages []string
	for _, page := range strings.Split(text, PageBreak) {
		if page = strings.TrimSpace(page); page != "" {
			pages = append(pages, page)
		}
	}
	return pages
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ParseResponse{Success: false, Error: msg})
}

func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := writer.Encode(&buf, v, ""); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
