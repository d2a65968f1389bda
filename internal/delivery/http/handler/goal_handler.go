package handler

import (
	"net/http"

	"digipiggy-hub/internal/usecase/piggy"
	"digipiggy-hub/pkg/utils"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	service *piggy.Service
}

func NewGoalHandler(service *piggy.Service) *GoalHandler {
	return &GoalHandler{service: service}
}

func (h *GoalHandler) RegisterRoutes(router *gin.RouterGroup) {
	goals := router.Group("/goals")
	{
		goals.POST("", h.CreateGoal)
		goals.PUT("/:id", h.UpdateGoal)
	}
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req piggy.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.service.CreateGoal(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Goal created successfully", goal)
}

func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	var req piggy.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	goal, err := h.service.UpdateGoal(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Goal updated successfully", goal)
}
