package ui

import (
	"fmt"
	"net/http"
	"time"

	"crmqc/domain/core"
	apperrors "crmqc/internal/errors"

	"github.com/gin-gonic/gin"
)

// SessionHeader carries the session id a client is editing. Requests that
// send it are rejected once another upload has replaced that session.
const SessionHeader = "X-QC-Session"

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())
	s.router.Use(s.sessionGuard())
}

// requestLogger logs each request with the session it ran against. Client
// errors log at WARN, server errors at ERROR, the rest at DEBUG.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		s.mu.Lock()
		session := s.controller.ID().String()
		s.mu.Unlock()
		if session == "" {
			session = "-"
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		latency := time.Since(start)

		switch {
		case status >= 500:
			s.logger.Error("[API] %s %s -> %d (%s) session=%s", c.Request.Method, path, status, latency, session)
		case status >= 400:
			s.logger.Warn("[API] %s %s -> %d (%s) session=%s", c.Request.Method, path, status, latency, session)
		default:
			s.logger.Debug("[API] %s %s -> %d (%s) session=%s", c.Request.Method, path, status, latency, session)
		}
	}
}

// sessionGuard checks SessionHeader against the loaded session. Uploads
// start a new session and are not checked.
func (s *Server) sessionGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(SessionHeader)
		if raw == "" || (c.Request.Method == http.MethodPost && c.FullPath() == "/api/session") {
			c.Next()
			return
		}

		want, err := core.ParseSessionID(raw)
		if err != nil {
			badRequest(c, err.Error())
			c.Abort()
			return
		}

		s.mu.Lock()
		current := s.controller.ID()
		s.mu.Unlock()
		if want != current {
			respondError(c, apperrors.New(apperrors.CodeSessionMismatch,
				fmt.Sprintf("session %s has been replaced by %s", want, orDash(current.String()))))
			c.Abort()
			return
		}
		c.Next()
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
