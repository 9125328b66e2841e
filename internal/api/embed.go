package api

import (
	"bytes"
	"html/template"
	"net/http"
	texttemplate "text/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// embedPageTemplate is the content frame document. It paints immediately
// from the query-parameter render hints, announces readiness to the parent
// frame, and forwards close clicks through the message protocol.
const embedPageTemplate = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>{{.Title}}</title>
    <style>
      html, body { margin: 0; height: 100%; font-family: system-ui, -apple-system, "Segoe UI", sans-serif; }
      .header { padding: 16px; color: #fff; background: linear-gradient(135deg, {{.PrimaryColor}}, {{.AccentColor}}); }
      .header h1 { margin: 0; font-size: 16px; }
      .header p { margin: 4px 0 0; font-size: 12px; opacity: 0.85; }
      .close { position: absolute; top: 12px; right: 12px; border: none; background: transparent; color: #fff; font-size: 18px; cursor: pointer; }
      .greeting { margin: 16px; padding: 12px; background: #f3f4f6; border-radius: 12px; font-size: 14px; }
    </style>
  </head>
  <body>
    <div class="header">
      <h1>{{.Title}}</h1>
      <p>{{.Subtitle}}</p>
      {{if not .AdminPreview}}<button class="close" id="embed-close" aria-label="Close">&times;</button>{{end}}
    </div>
    <div class="greeting">{{.Greeting}}</div>
    <script>
      (function() {
        var backendUrl = {{.BackendURL}};
        var chatbotId = {{.ChatbotID}};
        var close = document.getElementById('embed-close');
        if (close) {
          close.addEventListener('click', function() {
            window.parent.postMessage({ type: 'closeChat' }, '*');
          });
        }
        window.parent.postMessage({ type: 'chatforge-widget-loaded', chatbotId: chatbotId }, '*');
      })();
    </script>
  </body>
</html>
`

type embedPageData struct {
	Title        string
	Subtitle     string
	Greeting     string
	PrimaryColor string
	AccentColor  string
	BackendURL   string
	ChatbotID    string
	AdminPreview bool
}

// EmbedHandlers serves the embed route and the loader bootstrap script.
type EmbedHandlers struct {
	backendBase string
	logger      *zap.Logger
	embedTmpl   *template.Template
	scriptTmpl  *texttemplate.Template
}

// NewEmbedHandlers compiles the embed templates.
func NewEmbedHandlers(backendBase string, logger *zap.Logger) *EmbedHandlers {
	return &EmbedHandlers{
		backendBase: backendBase,
		logger:      logger,
		embedTmpl:   template.Must(template.New("embed_page").Parse(embedPageTemplate)),
		scriptTmpl:  texttemplate.Must(texttemplate.New("widget_script").Parse(widgetScriptTemplate)),
	}
}

// RegisterRoutes registers the embed page and bootstrap script routes.
func (h *EmbedHandlers) RegisterRoutes(r *gin.Engine) {
	r.GET("/embed", h.EmbedPage)
	r.GET("/widget.js", h.WidgetScript)
}

// EmbedPage renders the content frame from its query-parameter hints so it
// can paint before any script inside it runs its own fetch.
func (h *EmbedHandlers) EmbedPage(c *gin.Context) {
	data := embedPageData{
		Title:        queryOr(c, "title", "Chat with us"),
		Subtitle:     queryOr(c, "subtitle", ""),
		Greeting:     queryOr(c, "greeting", "Hi! How can I help you today?"),
		PrimaryColor: safeColor(c.Query("primaryColor"), "#4f46e5"),
		AccentColor:  safeColor(c.Query("accentColor"), "#7c3aed"),
		BackendURL:   queryOr(c, "backendUrl", h.backendBase),
		ChatbotID:    c.Query("chatbotId"),
		AdminPreview: c.Query("adminPreview") == "true",
	}

	var buf bytes.Buffer
	if err := h.embedTmpl.Execute(&buf, data); err != nil {
		h.logger.Error("render embed page failed", zap.Error(err))
		c.String(http.StatusInternalServerError, "render failed")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func queryOr(c *gin.Context, key, fallback string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return fallback
}

// safeColor admits only #rgb/#rrggbb values into inline CSS.
func safeColor(v, fallback string) string {
	if len(v) != 4 && len(v) != 7 {
		return fallback
	}
	if v[0] != '#' {
		return fallback
	}
	for _, r := range v[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return fallback
		}
	}
	return v
}
