package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"family_schedule_bot/internal/app"
	"family_schedule_bot/internal/domain/pet"
	"family_schedule_bot/internal/domain/schedule"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 15 * time.Second

type ScheduleService interface {
	UserSchedule(ctx context.Context, weekID, userID string) (*app.UserSchedule, error)
	WeekSchedule(ctx context.Context, weekID string) (*app.WeekSchedule, error)
	Submit(ctx context.Context, req *app.SubmitRequest, now time.Time) (*app.SubmitResult, error)
}

type HistoryService interface {
	GetHistory(ctx context.Context, now time.Time) (*app.History, error)
	ListTotals(ctx context.Context) ([]*schedule.UserPointsTotal, error)
}

type PetService interface {
	CreateRecord(ctx context.Context, req *app.RecordRequest, now time.Time) (*pet.DogRecord, error)
	RecordsForDate(ctx context.Context, date string) ([]*pet.DogRecord, error)
	RecordsInRange(ctx context.Context, start, end string) (*app.RecordRange, error)
	DeleteRecord(ctx context.Context, date, recordID string) error
	Medications(ctx context.Context, now time.Time) (*pet.MedicationSchedule, error)
	SaveMedications(ctx context.Context, meds []pet.Medication, now time.Time) error
	ListHitokoto(ctx context.Context) ([]*pet.Hitokoto, error)
	AddHitokoto(ctx context.Context, text string, now time.Time) (*pet.Hitokoto, error)
	DeleteHitokoto(ctx context.Context, id string) error
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) bool
}

// Handler serves the dashboard API.
type Handler struct {
	schedule ScheduleService
	history  HistoryService
	pets     PetService
	admin    AdminChecker
	now      func() time.Time
	logger   *logrus.Entry
}

func NewHandler(ss ScheduleService, hs HistoryService, ps PetService, admin AdminChecker, logger *logrus.Entry) *Handler {
	return &Handler{
		schedule: ss,
		history:  hs,
		pets:     ps,
		admin:    admin,
		now:      time.Now,
		logger:   logger.WithField("component", "http"),
	}
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// renderErr maps service errors onto status codes. Internal details stay in the log.
func (h *Handler) renderErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, pet.ErrRecordNotFound), errors.Is(err, pet.ErrHitokotoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

type userScheduleResponse struct {
	*app.UserSchedule
	IsAdmin bool `json:"isAdmin"`
}

func (h *Handler) HandleGetUserSchedule(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	userID := c.Query("userId")
	view, err := h.schedule.UserSchedule(ctx, c.Param("weekId"), userID)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, userScheduleResponse{UserSchedule: view, IsAdmin: h.admin.IsAdmin(ctx, userID)})
}

func (h *Handler) HandleGetWeekSchedule(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	view, err := h.schedule.WeekSchedule(ctx, c.Param("weekId"))
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) HandleSubmit(c *gin.Context) {
	var req app.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.schedule.Submit(ctx, &req, h.now())
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Success", "result": res})
}

func (h *Handler) HandleGetHistory(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	history, err := h.history.GetHistory(ctx, h.now())
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) HandleGetPoints(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	totals, err := h.history.ListTotals(ctx)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": totals})
}

func (h *Handler) HandleCreateRecord(c *gin.Context) {
	var req app.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	record, err := h.pets.CreateRecord(ctx, &req, h.now())
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "保存しました", "record": record})
}

func (h *Handler) HandleGetRecords(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	date := c.Param("date")
	records, err := h.pets.RecordsForDate(ctx, date)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "records": records})
}

func (h *Handler) HandleGetRecordRange(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		badRequest(c, "日付を指定してください")
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	rng, err := h.pets.RecordsInRange(ctx, start, end)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rng)
}

func (h *Handler) HandleDeleteRecord(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.pets.DeleteRecord(ctx, c.Param("date"), c.Param("recordId")); err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) HandleGetMedications(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	meds, err := h.pets.Medications(ctx, h.now())
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, meds)
}

type saveMedicationsRequest struct {
	Medications []pet.Medication `json:"medications"`
}

func (h *Handler) HandleSaveMedications(c *gin.Context) {
	var req saveMedicationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.pets.SaveMedications(ctx, req.Medications, h.now()); err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "保存しました"})
}

func (h *Handler) HandleListHitokoto(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	list, err := h.pets.ListHitokoto(ctx)
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hitokotoList": list})
}

type addHitokotoRequest struct {
	Text string `json:"text"`
}

func (h *Handler) HandleAddHitokoto(c *gin.Context) {
	var req addHitokotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()

	item, err := h.pets.AddHitokoto(ctx, req.Text, h.now())
	if err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hitokoto": item})
}

func (h *Handler) HandleDeleteHitokoto(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.pets.DeleteHitokoto(ctx, c.Param("id")); err != nil {
		h.renderErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
