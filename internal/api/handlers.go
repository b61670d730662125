package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danielbnavia/navia-doc-validator/internal/export"
	"github.com/danielbnavia/navia-doc-validator/internal/models"
	"github.com/danielbnavia/navia-doc-validator/internal/service/validator"
	"github.com/danielbnavia/navia-doc-validator/internal/storage"
	"github.com/danielbnavia/navia-doc-validator/internal/web"
)

// maxUploadBytes caps the multipart form size for one document.
const maxUploadBytes = 32 << 20

// extendedValidationFlag is consulted per request; the decision only
// annotates the request log line today.
const extendedValidationFlag = "extended-validation"

// DocumentValidator is the relay service surface the handler depends on.
type DocumentValidator interface {
	Validate(ctx context.Context, doc models.File) (*models.RelayResponse, error)
}

// FlagEvaluator answers advisory boolean feature-flag questions.
type FlagEvaluator interface {
	Evaluate(ctx context.Context, flagKey, userContext string) bool
}

// HistoryStore persists completed relay calls. nil disables persistence.
type HistoryStore interface {
	Insert(ctx context.Context, rec models.ValidationRecord) (int64, error)
	List(ctx context.Context, limit int) ([]models.ValidationRecord, error)
	Get(ctx context.Context, id int64) (models.ValidationRecord, error)
}

// Handler wires HTTP routes to the validation relay service and the
// optional history store.
type Handler struct {
	validator    DocumentValidator
	flags        FlagEvaluator
	history      HistoryStore
	historyLimit int
}

// NewHandler constructs a Handler instance. history may be nil when no
// database is configured; flagEval may be nil to disable flag lookups.
func NewHandler(docValidator DocumentValidator, flagEval FlagEvaluator, history HistoryStore, historyLimit int) *Handler {
	return &Handler{
		validator:    docValidator,
		flags:        flagEval,
		history:      history,
		historyLimit: historyLimit,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "method not allowed"})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.OPTIONS("/validate", emptyOK)
	api.POST("/validate", h.validateDocument)
	api.GET("/history", h.listHistory)
	api.GET("/history/export", h.exportHistory)
	api.GET("/history/:id", h.getHistory)

	// embedded upload page at the root
	router.NoRoute(gin.WrapH(http.FileServer(http.FS(web.FS()))))
}

// corsMiddleware allows the frontend to call the relay from any origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Next()
	}
}

func emptyOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) validateDocument(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid multipart form"})
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file field is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "open uploaded file failed"})
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "read uploaded file failed"})
		return
	}

	mediaType := fileHeader.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = models.MediaTypePDF
	}
	doc := models.File{
		Name:      filepath.Base(fileHeader.Filename),
		Size:      fileHeader.Size,
		MediaType: mediaType,
		Data:      data,
	}

	if h.flags != nil {
		extended := h.flags.Evaluate(c.Request.Context(), extendedValidationFlag, doc.MediaType)
		log.Printf("validate request file=%q extended_validation=%v", doc.Name, extended)
	}

	resp, err := h.validator.Validate(c.Request.Context(), doc)
	if err != nil {
		if errors.Is(err, validator.ErrMissingAPIKey) {
			body := gin.H{"success": false, "error": validator.ErrMissingAPIKey.Error()}
			h.recordOutcome(doc, nil, validator.ErrMissingAPIKey)
			c.JSON(http.StatusInternalServerError, body)
			return
		}
		h.recordOutcome(doc, nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
			"details": fmt.Sprintf("%+v", err),
		})
		return
	}

	h.recordOutcome(doc, resp, nil)
	c.JSON(http.StatusOK, resp)
}

// recordOutcome persists one relay completion. Best effort: a store failure
// is logged and never alters the response.
func (h *Handler) recordOutcome(doc models.File, resp *models.RelayResponse, callErr error) {
	if h.history == nil {
		return
	}
	rec := models.ValidationRecord{
		FileName:  doc.Name,
		FileSize:  doc.Size,
		MediaType: doc.MediaType,
		CreatedAt: time.Now().UTC(),
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	} else if resp != nil {
		rec.Success = resp.Success
		rec.Result = string(resp.Result)
		result := models.DecodeValidationResult(resp.Result)
		if !result.RawFallback() {
			rec.ValidationStatus = string(result.ValidationStatus)
		}
		if resp.Usage != nil {
			rec.InputTokens = resp.Usage.InputTokens
			rec.OutputTokens = resp.Usage.OutputTokens
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := h.history.Insert(ctx, rec); err != nil {
		log.Printf("record validation failed file=%q err=%v", doc.Name, err)
	}
}

func (h *Handler) listHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history store not configured"})
		return
	}
	limit := h.historyLimit
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	records, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list history failed"})
		return
	}
	if records == nil {
		records = []models.ValidationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) getHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history store not configured"})
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}
	rec, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get record failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) exportHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history store not configured"})
		return
	}
	records, err := h.history.List(c.Request.Context(), h.historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list history failed"})
		return
	}
	workbook, err := export.HistoryWorkbook(records)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "build workbook failed"})
		return
	}
	defer workbook.Close()

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "write workbook failed"})
		return
	}
	filename := fmt.Sprintf("validations-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
