package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"railway-backend/services"
	"railway-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateTrainRequest struct {
	Name                 string `json:"name" binding:"required"`
	TotalConfirmedBerths int    `json:"total_confirmed_berths" binding:"min=0"`
	TotalRACBerths       int    `json:"total_rac_berths" binding:"min=0"`
	TotalWaitingList     int    `json:"total_waiting_list" binding:"min=0"`
}

type TrainController struct {
	TrainSvc *services.TrainService
}

func NewTrainController(svc *services.TrainService) *TrainController {
	return &TrainController{TrainSvc: svc}
}

// GetTrains (GET /api/trains)
func (ctrl *TrainController) GetTrains(c *gin.Context) {
	pg := utils.GetPagination(c, 10)

	trains, err := ctrl.TrainSvc.GetTrains(pg.Page, pg.PageSize)
	if err != nil {
		log.Printf("GetTrains error: %v", err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to list trains")
		return
	}

	c.JSON(http.StatusOK, trains)
}

// GetTrain (GET /api/trains/:id)
func (ctrl *TrainController) GetTrain(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidTrainId", "train id must be a positive integer")
		return
	}

	train, err := ctrl.TrainSvc.GetTrain(uint(id))
	if err != nil {
		if errors.Is(err, services.ErrTrainNotFound) {
			utils.JSONError(c, http.StatusNotFound, "error.trainNotFound", "train not found")
			return
		}
		log.Printf("GetTrain error for train %d: %v", id, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to load train")
		return
	}

	c.JSON(http.StatusOK, train)
}

// CreateTrain (POST /api/trains). Also provisions the berth pool.
func (ctrl *TrainController) CreateTrain(c *gin.Context) {
	var payload CreateTrainRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONErrorWithDetails(c, http.StatusBadRequest, "error.invalidPayload",
			"name is required", err.Error())
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", "name is required")
		return
	}

	train, err := ctrl.TrainSvc.CreateTrain(services.CreateTrainInput{
		Name:                 payload.Name,
		TotalConfirmedBerths: payload.TotalConfirmedBerths,
		TotalRACBerths:       payload.TotalRACBerths,
		TotalWaitingList:     payload.TotalWaitingList,
	})
	if err != nil {
		log.Printf("CreateTrain error: %v", err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to create train")
		return
	}

	c.JSON(http.StatusCreated, train)
}

// DeleteTrain (DELETE /api/trains/:id)
func (ctrl *TrainController) DeleteTrain(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidTrainId", "train id must be a positive integer")
		return
	}

	if err := ctrl.TrainSvc.DeleteTrain(uint(id)); err != nil {
		if errors.Is(err, services.ErrTrainNotFound) {
			utils.JSONError(c, http.StatusNotFound, "error.trainNotFound", "train not found")
			return
		}
		log.Printf("DeleteTrain error for train %d: %v", id, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to delete train")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Train deleted"})
}
