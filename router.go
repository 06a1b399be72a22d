package main

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bookrook/bookrook-backend/internal"
	"github.com/bookrook/bookrook-backend/internal/chat"
	"github.com/bookrook/bookrook-backend/internal/provider"
	"github.com/bookrook/bookrook-backend/internal/session"
	"github.com/bookrook/bookrook-backend/internal/store"
)

const sessionHeader = "X-Session-ID"

type server struct {
	svc      provider.AssistantService
	files    *store.FileStore
	driver   *chat.Driver
	sessions *session.Registry
	log      *zap.Logger
}

func newRouter(s *server) *gin.Engine {
	r := gin.Default()

	// CORS with credentials for the single-page front end.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+sessionHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "uptime": time.Now().Format(time.RFC3339)})
	})

	r.GET("/api/model", func(c *gin.Context) {
		c.JSON(200, gin.H{"model": s.svc.Model()})
	})

	r.GET("/api/messages", func(c *gin.Context) {
		sess := s.session(c)
		c.JSON(200, internal.ChatHistory{Messages: sess.History.All()})
	})

	r.POST("/api/messages", s.handleSendMessage)

	r.POST("/api/reset", func(c *gin.Context) {
		sess := s.session(c)
		sess.History.Reset()
		store.SeedAssistantHello(sess.History, "Board reset. What would you like to study next?")
		c.JSON(200, gin.H{"ok": true})
	})

	r.GET("/api/files", func(c *gin.Context) {
		files, err := s.files.List()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, internal.ListFilesResponse{Files: files})
	})

	r.POST("/api/files", s.handleUploadFile)

	return r
}

func (s *server) session(c *gin.Context) *session.Session {
	return s.sessions.Get(c.GetHeader(sessionHeader))
}

// handleSendMessage runs one blocking user turn. The user message is kept
// in history even when the remote turn fails; the assistant entry is only
// appended on success, so the user can simply retry.
func (s *server) handleSendMessage(c *gin.Context) {
	var req internal.SendMessageRequest
	if err := c.BindJSON(&req); err != nil || req.Content == "" {
		c.JSON(400, gin.H{"error": "content required"})
		return
	}

	sess := s.session(c)
	sess.Turn.Lock()
	defer sess.Turn.Unlock()

	sess.History.Append(internal.RoleUser, req.Content)

	replyText, citations, err := s.driver.Send(c.Request.Context(), sess, req.Content)
	if err != nil {
		s.log.Warn("turn failed", zap.String("session", sess.ID), zap.Error(err))
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}

	sess.History.AppendWithCitations(internal.RoleAssistant, replyText, citations)

	c.JSON(200, internal.SendMessageResponse{
		Reply: internal.Message{
			Role:      internal.RoleAssistant,
			Content:   replyText,
			Citations: citations,
			CreatedAt: time.Now(),
		},
		Model: s.svc.Model(),
	})
}

// handleUploadFile saves one multipart file into the local store and
// registers it with the remote service for attachment use. A repeated
// upload of the same name keeps the previously stored bytes.
func (s *server) handleUploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(400, gin.H{"error": "file required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	stored, existing, err := s.files.Save(fh.Filename, data)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	sess := s.session(c)
	if _, err := s.driver.RegisterUpload(c.Request.Context(), sess, stored.Name); err != nil {
		s.log.Warn("file registration failed", zap.String("name", stored.Name), zap.Error(err))
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, internal.UploadFileResponse{
		Name:     stored.Name,
		Path:     stored.Path,
		Existing: existing,
	})
}
