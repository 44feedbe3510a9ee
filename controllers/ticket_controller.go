package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"railway-backend/models"
	"railway-backend/services"
	"railway-backend/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type PassengerPayload struct {
	Name   string `json:"name" binding:"required"`
	Age    int    `json:"age" binding:"min=0,max=130"`
	Gender string `json:"gender" binding:"required,oneof=male female other"`
}

type CreateBookingRequest struct {
	TrainID    uint               `json:"train_id" binding:"required"`
	Passengers []PassengerPayload `json:"passengers" binding:"required,min=1,dive"`
}

// ---------------------------
// Controller
// ---------------------------

type TicketController struct {
	TicketSvc *services.TicketService
}

func NewTicketController(svc *services.TicketService) *TicketController {
	return &TicketController{TicketSvc: svc}
}

func trainIDFromQuery(c *gin.Context) (uint, bool) {
	raw := c.Query("train_id")
	if raw == "" {
		utils.JSONError(c, http.StatusBadRequest, "error.missingTrainId", "train_id query parameter is required")
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidTrainId", "train_id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// GetAvailableTickets (GET /api/tickets/available?train_id=)
func (ctrl *TicketController) GetAvailableTickets(c *gin.Context) {
	trainID, ok := trainIDFromQuery(c)
	if !ok {
		return
	}

	availability, err := ctrl.TicketSvc.GetAvailableTickets(trainID)
	if err != nil {
		if errors.Is(err, services.ErrTrainNotFound) {
			utils.JSONError(c, http.StatusNotFound, "error.trainNotFound", "train not found")
			return
		}
		log.Printf("GetAvailableTickets error for train %d: %v", trainID, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to compute availability")
		return
	}

	c.JSON(http.StatusOK, availability)
}

// GetBookedTickets (GET /api/tickets/booked?train_id=&page=&page_size=)
func (ctrl *TicketController) GetBookedTickets(c *gin.Context) {
	trainID, ok := trainIDFromQuery(c)
	if !ok {
		return
	}

	pg := utils.GetPagination(c, 20)
	booked, err := ctrl.TicketSvc.GetBookedTickets(trainID, pg.Page, pg.PageSize)
	if err != nil {
		if errors.Is(err, services.ErrTrainNotFound) {
			utils.JSONError(c, http.StatusNotFound, "error.trainNotFound", "train not found")
			return
		}
		log.Printf("GetBookedTickets error for train %d: %v", trainID, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to list booked tickets")
		return
	}

	c.JSON(http.StatusOK, booked)
}

// BookTicket (POST /api/tickets/book)
func (ctrl *TicketController) BookTicket(c *gin.Context) {
	var payload CreateBookingRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONErrorWithDetails(c, http.StatusBadRequest, "error.invalidPayload",
			"train_id and at least one passenger are required", err.Error())
		return
	}

	passengers := make([]services.PassengerInput, 0, len(payload.Passengers))
	for _, p := range payload.Passengers {
		passengers = append(passengers, services.PassengerInput{
			Name:   p.Name,
			Age:    p.Age,
			Gender: models.Gender(p.Gender),
		})
	}

	ticket, err := ctrl.TicketSvc.BookTicket(payload.TrainID, passengers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoTicketsAvailable):
			utils.JSONError(c, http.StatusConflict, "error.noTicketsAvailable", "no tickets available")
		case errors.Is(err, services.ErrTrainNotFound):
			utils.JSONError(c, http.StatusNotFound, "error.trainNotFound", "train not found")
		case errors.Is(err, services.ErrInvalidPassenger):
			utils.JSONErrorWithDetails(c, http.StatusBadRequest, "error.invalidPassenger",
				"passenger data is invalid", err.Error())
		default:
			log.Printf("BookTicket error for train %d: %v", payload.TrainID, err)
			utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to book ticket")
		}
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// CancelTicket (PATCH /api/tickets/cancel/:ticket_id)
func (ctrl *TicketController) CancelTicket(c *gin.Context) {
	raw := c.Param("ticket_id")
	ticketID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || ticketID == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidTicketId", "ticket_id must be a positive integer")
		return
	}

	if err := ctrl.TicketSvc.CancelTicket(uint(ticketID)); err != nil {
		if errors.Is(err, services.ErrTicketNotFound) {
			utils.JSONError(c, http.StatusNotFound, "error.ticketNotFound", "ticket not found")
			return
		}
		log.Printf("CancelTicket error for ticket %d: %v", ticketID, err)
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", "failed to cancel ticket")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "Ticket cancelled successfully"})
}
