package handler

import (
	"errors"
	"net/http"

	domainPiggy "digipiggy-hub/internal/domain/piggy"
	"digipiggy-hub/internal/usecase/piggy"
	appErrors "digipiggy-hub/pkg/errors"
	"digipiggy-hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	service *piggy.Service
}

func NewDeviceHandler(service *piggy.Service) *DeviceHandler {
	return &DeviceHandler{service: service}
}

func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.ListDevices)
		devices.POST("", h.CreateDevice)
		devices.GET("/:id", h.GetDevice)
		devices.PUT("/:id", h.UpdateDevice)
		devices.DELETE("/:id", h.DeleteDevice)
		devices.POST("/:id/balance", h.AdjustBalance)
	}
}

func (h *DeviceHandler) CreateDevice(c *gin.Context) {
	var req piggy.CreateDeviceRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	device, err := h.service.CreateDevice(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Device added successfully", device)
}

func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.service.GetDevice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device retrieved successfully", device)
}

func (h *DeviceHandler) ListDevices(c *gin.Context) {
	devices, err := h.service.ListDevices(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Devices retrieved successfully", devices)
}

func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var req piggy.UpdateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	device, err := h.service.UpdateDevice(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device updated successfully", device)
}

func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if err := h.service.DeleteDevice(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Device removed successfully", nil)
}

func (h *DeviceHandler) AdjustBalance(c *gin.Context) {
	var req piggy.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.service.AdjustBalance(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Balance adjusted successfully", result)
}

// respondServiceError maps service errors onto HTTP statuses: missing
// entities become 404, validation failures 400, everything else 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainPiggy.ErrDeviceNotFound), errors.Is(err, domainPiggy.ErrGoalNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) {
			utils.ErrorResponse(c, http.StatusBadRequest, appErr.Message)
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
