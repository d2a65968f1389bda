package handler

import (
	"context"
	"errors"
	"net/http"

	"digipiggy-hub/internal/onboarding"
	"digipiggy-hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OnboardingHandler exposes the mocked discovery collaborators used while
// pairing a new piggy bank. Both simulate latency and occasional failure.
type OnboardingHandler struct {
	ble  *onboarding.BleScanner
	wifi *onboarding.WifiScanner
}

func NewOnboardingHandler(ble *onboarding.BleScanner, wifi *onboarding.WifiScanner) *OnboardingHandler {
	return &OnboardingHandler{ble: ble, wifi: wifi}
}

func (h *OnboardingHandler) RegisterRoutes(router *gin.RouterGroup) {
	ob := router.Group("/onboarding")
	{
		ob.GET("/ble/scan", h.ScanBle)
		ob.POST("/ble/pair", h.PairBle)
		ob.GET("/wifi/scan", h.ScanWifi)
		ob.POST("/wifi/connect", h.ConnectWifi)
	}
}

type pairRequest struct {
	ID string `json:"id" binding:"required"`
}

type connectRequest struct {
	SSID     string `json:"ssid" binding:"required"`
	Password string `json:"password"`
}

func (h *OnboardingHandler) ScanBle(c *gin.Context) {
	devices, err := h.ble.Scan(c.Request.Context())
	if err != nil {
		respondOnboardingError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scan completed", devices)
}

func (h *OnboardingHandler) PairBle(c *gin.Context) {
	var req pairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.ble.Pair(c.Request.Context(), req.ID); err != nil {
		respondOnboardingError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device paired", gin.H{"success": true})
}

func (h *OnboardingHandler) ScanWifi(c *gin.Context) {
	networks, err := h.wifi.Scan(c.Request.Context())
	if err != nil {
		respondOnboardingError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Scan completed", networks)
}

func (h *OnboardingHandler) ConnectWifi(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.wifi.Connect(c.Request.Context(), req.SSID, req.Password); err != nil {
		respondOnboardingError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Connected", gin.H{"success": true})
}

// respondOnboardingError distinguishes client cancellation from the
// simulated radio failures, which surface as 502s for the app to retry.
func respondOnboardingError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.Status(http.StatusRequestTimeout)
		return
	}
	utils.ErrorResponse(c, http.StatusBadGateway, err.Error())
}
