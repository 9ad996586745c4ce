// internal/handlers/qr.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/msparth89/gscwordpress/internal/services"
)

type QRHandler struct {
	qrService *services.QRService
	homeURL   string
}

func NewQRHandler(qrService *services.QRService, homeURL string) *QRHandler {
	return &QRHandler{
		qrService: qrService,
		homeURL:   homeURL,
	}
}

// GET /?p=<payload>
// A missing payload falls through to the storefront home page; every other
// outcome is decided by the resolver.
func (h *QRHandler) Resolve(c *gin.Context) {
	payload := c.Query("p")
	if payload == "" {
		c.Redirect(http.StatusFound, h.homeURL)
		return
	}

	c.Redirect(http.StatusFound, h.qrService.Resolve(payload))
}
