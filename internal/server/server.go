// Package server exposes rendering over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forPelevin/img2vid/internal/config"
	"github.com/forPelevin/img2vid/internal/logging"
	"github.com/forPelevin/img2vid/internal/types"
)

// RenderFunc performs one conversion.
type RenderFunc func(ctx context.Context, cfg config.ConversionConfig) (types.RenderResult, error)

type Server struct {
	render   RenderFunc
	defaults config.ConversionConfig
	logger   *slog.Logger

	// one render at a time
	mu sync.Mutex
}

// New builds a server. defaults supplies every field a request leaves out.
func New(render RenderFunc, defaults config.ConversionConfig, logger *slog.Logger) *Server {
	return &Server{render: render, defaults: defaults, logger: logging.Component(logger, "http")}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())
	r.GET("/health", handleHealth)
	r.POST("/render", s.handleRender)
	return r
}

type RenderRequest struct {
	InputDir        string  `json:"input_dir"`
	OutputVideo     string  `json:"output_video"`
	Audio           string  `json:"audio"`
	FrameDurationMS *int    `json:"frame_duration_ms"`
	TransitionMS    *int    `json:"transition_ms"`
	FrameRate       *int    `json:"frame_rate"`
	StartText       string  `json:"start_text"`
	EndText         string  `json:"end_text"`
	TextDurationMS  *int    `json:"text_duration_ms"`
	TextFont        string  `json:"text_font"`
	TextFontSize    *int    `json:"text_font_size"`
	TextColor       *string `json:"text_color"`
	TextBgColor     *string `json:"text_bg_color"`
}

// Config merges the request over defaults. It reports the first missing
// required field.
func (r RenderRequest) Config(defaults config.ConversionConfig) (config.ConversionConfig, error) {
	if strings.TrimSpace(r.InputDir) == "" {
		return config.ConversionConfig{}, errMissing("input_dir")
	}
	if strings.TrimSpace(r.OutputVideo) == "" {
		return config.ConversionConfig{}, errMissing("output_video")
	}
	c := defaults
	c.InputDir = r.InputDir
	c.OutputVideo = r.OutputVideo
	c.AudioPath = r.Audio
	c.StartText = r.StartText
	c.EndText = r.EndText
	if r.TextFont != "" {
		c.TextFont = r.TextFont
	}
	setInt(&c.FrameDurationMS, r.FrameDurationMS)
	setInt(&c.TransitionMS, r.TransitionMS)
	setInt(&c.FrameRate, r.FrameRate)
	setInt(&c.TextDurationMS, r.TextDurationMS)
	setInt(&c.TextFontSize, r.TextFontSize)
	if r.TextColor != nil {
		c.TextColor = *r.TextColor
	}
	if r.TextBgColor != nil {
		c.TextBgColor = *r.TextBgColor
	}
	return c, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

type missingFieldError string

func (e missingFieldError) Error() string { return "Missing required field: " + string(e) }

func errMissing(field string) error { return missingFieldError(field) }

func (s *Server) handleRender(c *gin.Context) {
	logger := s.logger.With("request_id", c.GetString(requestIDKey))

	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid render request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid JSON payload: " + err.Error()})
		return
	}
	cfg, err := req.Config(s.defaults)
	if err != nil {
		logger.Warn("invalid render request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	s.mu.Lock()
	res, err := s.render(c.Request.Context(), cfg)
	s.mu.Unlock()

	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "success", "output_video": res.Output})
	case types.IsConversionError(err):
		logger.Warn("conversion error", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	default:
		logger.Error("unexpected failure during rendering", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const requestIDKey = "request_id"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
