package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"whatsflow/internal/entities"
	"whatsflow/internal/infrastructure"
	"whatsflow/internal/usecases"
)

// Handler serves the operator portal: device pairing, status and
// test-message injection.
type Handler struct {
	dispatcher *usecases.Dispatcher
	waClient   *infrastructure.WhatsAppClient
}

func NewHandler(dispatcher *usecases.Dispatcher, waClient *infrastructure.WhatsAppClient) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		waClient:   waClient,
	}
}

func SetupRoutes(r *gin.Engine, dispatcher *usecases.Dispatcher, auth *usecases.AuthUsecase,
	waClient *infrastructure.WhatsAppClient, middleware *Middleware) {
	h := NewHandler(dispatcher, waClient)

	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(1 << 20)) // 1MB max request size
	r.Use(middleware.CORSMiddleware())

	r.POST("/api/auth/login", func(c *gin.Context) {
		var loginReq struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&loginReq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !ValidUsername(loginReq.Username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid username"})
			return
		}
		token, err := auth.Login(loginReq.Username, loginReq.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	api.Use(middleware.RateLimitPerClient(5, 10))
	{
		api.GET("/whatsapp/qr", h.GetQRCode)
		api.GET("/whatsapp/status", h.GetStatus)
		api.POST("/whatsapp/logout", h.Logout)
		api.POST("/messages/test", h.InjectTestMessage)
	}
}

// GetQRCode returns the pairing QR as PNG
func (h *Handler) GetQRCode(c *gin.Context) {
	qrCodeString := h.waClient.GetQR()
	if qrCodeString == "" {
		if h.waClient.IsLoggedIn() {
			c.String(http.StatusOK, "Already logged in")
			return
		}
		c.String(http.StatusAccepted, "QR code not yet available. Please wait...")
		return
	}

	png, err := qrcode.Encode(qrCodeString, qrcode.Medium, 256)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// GetStatus returns the WhatsApp connection status
func (h *Handler) GetStatus(c *gin.Context) {
	phone, name := h.waClient.GetUserInfo()
	c.JSON(http.StatusOK, gin.H{
		"connected": h.waClient.IsConnected(),
		"loggedIn":  h.waClient.IsLoggedIn(),
		"phone":     phone,
		"name":      name,
		"hasQR":     h.waClient.GetQR() != "",
	})
}

// Logout clears the device session; a new QR is generated for re-pairing
func (h *Handler) Logout(c *gin.Context) {
	if err := h.waClient.Logout(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// InjectTestMessage runs an inbound message through the dispatcher without
// the WhatsApp transport, for verifying flows and prompts.
func (h *Handler) InjectTestMessage(c *gin.Context) {
	var payload struct {
		From    string `json:"from"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !ValidPhoneNumber(payload.From) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sender number"})
		return
	}

	msg := entities.Message{
		From:    payload.From,
		Content: TruncateString(SanitizeString(payload.Content), MaxBodyLength),
	}

	go h.dispatcher.HandleMessage(context.Background(), msg)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
