package routes

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/Nivk0/ktpilot-rag-bot/internal/config"
	"github.com/Nivk0/ktpilot-rag-bot/internal/logger"
	"github.com/Nivk0/ktpilot-rag-bot/internal/queue"
	"github.com/Nivk0/ktpilot-rag-bot/middleware"
	"github.com/Nivk0/ktpilot-rag-bot/models"
	"github.com/Nivk0/ktpilot-rag-bot/services"
	"github.com/Nivk0/ktpilot-rag-bot/utils"
)

func SetupDocumentRoutes(router *gin.Engine, cfg *config.Config, store services.DocumentStore,
	extractor *services.TextExtractor, chunker *services.Chunker, asynqClient *asynq.Client) {

	api := router.Group("/api/documents")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))

	// Upload a knowledge document. Small files are extracted and chunked
	// inline; anything over the sync limit goes through the worker queue.
	api.POST("", func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "A 'file' form field is required", gin.H{"error": err.Error()})
			return
		}

		if fileHeader.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusRequestEntityTooLarge,
				"file_too_large",
				"File exceeds the maximum allowed size",
				gin.H{"max_bytes": cfg.MaxFileSize})
			return
		}

		if !allowedExtension(fileHeader.Filename) {
			utils.RespondWithBadRequest(c, "Unsupported file type",
				gin.H{"allowed": []string{".pdf", ".html", ".htm", ".docx", ".txt", ".md"}})
			return
		}

		title := c.PostForm("title")
		if title == "" {
			title = strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
		}

		docID := uuid.New().String()

		if err := os.MkdirAll(cfg.FileStorageDir, 0o755); err != nil {
			utils.RespondWithInternalError(c, "Failed to prepare storage", nil)
			return
		}
		storedPath := filepath.Join(cfg.FileStorageDir,
			fmt.Sprintf("%s%s", docID, filepath.Ext(fileHeader.Filename)))
		if err := c.SaveUploadedFile(fileHeader, storedPath); err != nil {
			utils.RespondWithInternalError(c, "Failed to store uploaded file", nil)
			return
		}

		doc := &models.Document{
			ID:         docID,
			Title:      title,
			Filename:   fileHeader.Filename,
			FilePath:   storedPath,
			Status:     models.DocStatusProcessing,
			UploadedAt: time.Now(),
		}

		// Async path for large files
		if fileHeader.Size > cfg.SyncProcessingLimit && asynqClient != nil {
			if err := store.SaveDocument(c.Request.Context(), doc); err != nil {
				utils.RespondWithInternalError(c, "Failed to save document", nil)
				return
			}

			task, err := queue.NewDocumentProcessTask(docID, title, fileHeader.Filename, storedPath)
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to queue document processing", nil)
				return
			}
			if _, err := asynqClient.Enqueue(task); err != nil {
				logger.Error("Failed to enqueue document task", "doc_id", docID, "error", err)
				utils.RespondWithInternalError(c, "Failed to queue document processing", nil)
				return
			}

			c.JSON(http.StatusAccepted, models.UploadResponse{
				ID:       docID,
				Title:    title,
				Filename: fileHeader.Filename,
				Status:   models.DocStatusProcessing,
			})
			return
		}

		data, err := os.ReadFile(storedPath)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to read uploaded file", nil)
			return
		}

		text, err := extractor.Extract(fileHeader.Filename, data)
		if err != nil {
			doc.Status = models.DocStatusFailed
			store.SaveDocument(c.Request.Context(), doc)
			utils.RespondWithBadRequest(c, "Could not extract text from the file", gin.H{"error": err.Error()})
			return
		}

		doc.Content = text
		doc.Chunks = chunker.ChunkDocument(text, docID, title)
		doc.Status = models.DocStatusCompleted

		if err := store.SaveDocument(c.Request.Context(), doc); err != nil {
			utils.RespondWithInternalError(c, "Failed to save document", nil)
			return
		}

		logger.Info("Document uploaded", "doc_id", docID, "filename", fileHeader.Filename,
			"chunks", len(doc.Chunks))

		c.JSON(http.StatusCreated, models.UploadResponse{
			ID:       docID,
			Title:    title,
			Filename: fileHeader.Filename,
			Status:   models.DocStatusCompleted,
			Chunks:   len(doc.Chunks),
		})
	})

	// List completed documents
	api.GET("", func(c *gin.Context) {
		docs, err := store.ListDocuments(c.Request.Context())
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to list documents", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
	})

	// Fetch one document's metadata
	api.GET("/:id", func(c *gin.Context) {
		doc, err := store.GetDocument(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to fetch document", nil)
			return
		}
		if doc == nil {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}

		c.JSON(http.StatusOK, doc)
	})

	// Delete a document. Chunks are embedded so they go with it.
	api.DELETE("/:id", func(c *gin.Context) {
		doc, err := store.GetDocument(c.Request.Context(), c.Param("id"))
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to fetch document", nil)
			return
		}
		if doc == nil {
			utils.RespondWithNotFound(c, "Document not found")
			return
		}

		if err := store.DeleteDocument(c.Request.Context(), doc.ID); err != nil {
			utils.RespondWithInternalError(c, "Failed to delete document", nil)
			return
		}

		if doc.FilePath != "" {
			if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove stored file", "path", doc.FilePath, "error", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "Document deleted", "id": doc.ID})
	})
}

func allowedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".html", ".htm", ".docx", ".txt", ".md":
		return true
	}
	return false
}
