package http

import (
	"crypto/subtle"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/healthguardian/appointment-planner/internal/config"
	"github.com/healthguardian/appointment-planner/internal/core/domain"
	"github.com/healthguardian/appointment-planner/internal/core/ports/in"
	"github.com/healthguardian/appointment-planner/internal/core/services/schedule_service"
)

// Фотографии талонов после сжатия на клиенте весят сотни килобайт,
// 10 МБ - щедрый потолок
const maxImageSize = 10 << 20

type AppointmentController struct {
	useCase in.AppointmentUseCase
	cfg     *config.Config
}

func NewAppointmentController(useCase in.AppointmentUseCase, cfg *config.Config) *AppointmentController {
	return &AppointmentController{
		useCase: useCase,
		cfg:     cfg,
	}
}

func (c *AppointmentController) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.Use(c.basicAuth())
	{
		api.POST("/appointments/extract", c.extractAppointment)
		api.GET("/appointments", c.listAppointments)
		api.GET("/appointments/upcoming", c.upcomingAppointment)
		api.GET("/appointments/calendar", c.calendarFeed)
		api.POST("/appointments", c.saveAppointment)
		api.PUT("/appointments/:id", c.updateAppointment)
		api.DELETE("/appointments/:id", c.deleteAppointment)
		api.GET("/appointments/:id/schedule", c.getSchedule)
		api.GET("/appointments/:id/calendar.ics", c.downloadICS)
	}
}

type SaveAppointmentRequest struct {
	Title             string `json:"title"`
	Date              string `json:"date" binding:"required"`
	Time              string `json:"time"`
	Location          string `json:"location"`
	Doctor            string `json:"doctor"`
	Notes             string `json:"notes"`
	AppointmentNumber string `json:"appointmentNumber"`
}

func (r SaveAppointmentRequest) details() domain.AppointmentDetails {
	return domain.AppointmentDetails{
		Title:             r.Title,
		Date:              r.Date,
		Time:              r.Time,
		Location:          r.Location,
		Doctor:            r.Doctor,
		Notes:             r.Notes,
		AppointmentNumber: r.AppointmentNumber,
	}
}

func (c *AppointmentController) extractAppointment(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxImageSize {
		ctx.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details, err := c.useCase.ExtractAppointment(ctx.Request.Context(), image, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	// План считается сразу: пользователь видит три события ещё до сохранения
	schedule, links := c.useCase.Schedule(details)

	ctx.JSON(http.StatusOK, gin.H{
		"appointment":   details,
		"schedule":      schedule,
		"calendarLinks": links,
	})
}

func (c *AppointmentController) listAppointments(ctx *gin.Context) {
	appointments, err := c.useCase.ListAppointments(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointments": appointments})
}

func (c *AppointmentController) upcomingAppointment(ctx *gin.Context) {
	appointment, err := c.useCase.UpcomingAppointment(ctx.Request.Context(), time.Time{})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if appointment == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no upcoming appointment"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

func (c *AppointmentController) calendarFeed(ctx *gin.Context) {
	entries, err := c.useCase.CalendarFeed(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"events": entries})
}

func (c *AppointmentController) saveAppointment(ctx *gin.Context) {
	var req SaveAppointmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointment, err := c.useCase.SaveAppointment(ctx.Request.Context(), req.details(), "")
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	schedule, links := c.useCase.Schedule(appointment.AppointmentDetails)

	ctx.JSON(http.StatusCreated, gin.H{
		"appointment":   appointment,
		"schedule":      schedule,
		"calendarLinks": links,
	})
}

func (c *AppointmentController) updateAppointment(ctx *gin.Context) {
	id := ctx.Param("id")

	var req SaveAppointmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appointment, err := c.useCase.SaveAppointment(ctx.Request.Context(), req.details(), id)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"appointment": appointment})
}

func (c *AppointmentController) deleteAppointment(ctx *gin.Context) {
	if err := c.useCase.DeleteAppointment(ctx.Request.Context(), ctx.Param("id")); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (c *AppointmentController) getSchedule(ctx *gin.Context) {
	appointment, err := c.useCase.GetAppointment(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if appointment == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	}

	schedule, links := c.useCase.Schedule(appointment.AppointmentDetails)
	if schedule == nil {
		// Дата не разбирается - деградация, а не падение
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "appointment date is not parseable, cannot derive schedule",
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"appointment":   appointment,
		"schedule":      schedule,
		"calendarLinks": links,
	})
}

func (c *AppointmentController) downloadICS(ctx *gin.Context) {
	appointment, err := c.useCase.GetAppointment(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if appointment == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		return
	}

	schedule, _ := c.useCase.Schedule(appointment.AppointmentDetails)
	if schedule == nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "appointment date is not parseable, cannot derive schedule",
		})
		return
	}

	ics := schedule_service.BuildICS(*appointment, *schedule)

	ctx.Header("Content-Disposition", `attachment; filename="appointment-`+appointment.ID+`.ics"`)
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

func (c *AppointmentController) basicAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		username, password, hasAuth := ctx.Request.BasicAuth()
		if !hasAuth {
			ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		for _, client := range c.cfg.Auth.BasicClients {
			if subtle.ConstantTimeCompare([]byte(username), []byte(client.Username)) == 1 &&
				subtle.ConstantTimeCompare([]byte(password), []byte(client.Password)) == 1 {
				ctx.Next()
				return
			}
		}

		ctx.Header("WWW-Authenticate", "Basic realm=Authorization Required")
		ctx.AbortWithStatus(http.StatusUnauthorized)
	}
}
