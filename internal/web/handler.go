package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shortreel/backend/config"
	"github.com/shortreel/backend/internal/auth"
	"github.com/shortreel/backend/internal/pipeline"
	"github.com/shortreel/backend/pkg/response"
)

//go:embed templates/*.html
var templateFS embed.FS

// Runner executes one synchronous ingestion run. Satisfied by
// *pipeline.Pipeline; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, youtubeURL string, numScreenshots int) (*pipeline.Result, error)
}

// pageConfig is the client-side configuration injected into the landing page.
type pageConfig struct {
	SiteURL      string
	ClientID     string
	CookieDomain string
}

// Handler serves the landing page, the processing endpoint and the auth
// redirect endpoints.
type Handler struct {
	runner    Runner
	states    *auth.StateService
	cfg       *config.Config
	templates *template.Template
	logger    *zap.Logger
}

// NewHandler creates the web handler with the embedded templates parsed.
func NewHandler(runner Runner, states *auth.StateService, cfg *config.Config, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		runner:    runner,
		states:    states,
		cfg:       cfg,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Index handles GET /.
func (h *Handler) Index(c *gin.Context) {
	h.renderIndex(c)
}

// Process handles POST /process. The endpoint always answers 200; success
// and failure are carried in the body's "success" field.
func (h *Handler) Process(c *gin.Context) {
	youtubeURL := strings.TrimSpace(c.PostForm("youtube_url"))
	if youtubeURL == "" {
		response.Failure(c, "youtube_url is required")
		return
	}

	numScreenshots := h.cfg.Pipeline.DefaultScreenshots
	if raw := c.PostForm("num_screenshots"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.Failure(c, "num_screenshots must be a positive integer")
			return
		}
		numScreenshots = n
	}

	result, err := h.runner.Run(c.Request.Context(), youtubeURL, numScreenshots)
	if err != nil {
		response.Failure(c, err.Error())
		return
	}
	response.Result(c, result)
}

// AuthCallback handles GET /auth/callback. A state parameter, when present,
// must carry a valid signature or the redirect is treated as forged.
// Token-bearing redirects signal via the fragment marker that the session
// lives in a URL fragment only the browser sees; the page is re-rendered so
// client script can pick it up. Plain visits go back to the site root.
func (h *Handler) AuthCallback(c *gin.Context) {
	if state := c.Query("state"); state != "" {
		if err := h.states.Validate(state); err != nil {
			h.logger.Warn("rejected oauth callback with invalid state", zap.Error(err))
			c.Redirect(http.StatusFound, h.cfg.Server.SiteURL)
			return
		}
	}
	if c.Query("fragment") != "" {
		h.renderIndex(c)
		return
	}
	c.Redirect(http.StatusFound, h.cfg.Server.SiteURL)
}

// Login handles GET /auth/login, redirecting to the provider with a signed
// state token.
func (h *Handler) Login(c *gin.Context) {
	state, err := h.states.Generate()
	if err != nil {
		h.logger.Error("failed to sign oauth state", zap.Error(err))
		response.Failure(c, "failed to start login")
		return
	}
	redirectURI := strings.TrimRight(h.cfg.Server.SiteURL, "/") + "/auth/callback"
	c.Redirect(http.StatusFound, auth.LoginURL(h.cfg.Google.ClientID, redirectURI, state))
}

// AuthDebug handles GET /auth/debug. Secrets are truncated.
func (h *Handler) AuthDebug(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site_url": h.cfg.Server.SiteURL,
		"auth_config": gin.H{
			"provider":     "google",
			"redirect_url": "/auth/callback",
		},
		"google_config": gin.H{
			"client_id": truncate(h.cfg.Google.ClientID, 20),
		},
	})
}

// Debug handles GET /debug.
func (h *Handler) Debug(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"base_url":          h.cfg.Server.SiteURL,
		"client_id":         truncate(h.cfg.Google.ClientID, 20),
		"metadata_provider": h.cfg.YouTube.MetadataProvider,
		"cookies_set":       h.cfg.YouTube.Cookies != "",
		"headers":           c.Request.Header,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) renderIndex(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := h.templates.ExecuteTemplate(c.Writer, "index.html", pageConfig{
		SiteURL:      h.cfg.Server.SiteURL,
		ClientID:     h.cfg.Google.ClientID,
		CookieDomain: h.cfg.Server.CookieDomain,
	})
	if err != nil {
		h.logger.Error("failed to render landing page", zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
