package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hupe1980/schoolmate/agent"
	"github.com/hupe1980/schoolmate/logging"
	"github.com/hupe1980/schoolmate/service"
	"github.com/hupe1980/schoolmate/storage"
)

type handlers struct {
	svc    Services
	logger logging.Logger
}

type askRequest struct {
	Query     string `json:"query"`
	StudentID string `json:"student_id"`
}

type chatRequest struct {
	Prompt  string                `json:"prompt"`
	History []service.ChatMessage `json:"history"`
}

type secretSantaRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required,min=2"`
}

type studentRequest struct {
	Name  string `json:"name"  binding:"required"`
	Class string `json:"class"`
	Email string `json:"email"`
}

type gradeRequest struct {
	StudentID string   `json:"student_id" binding:"required"`
	Subject   string   `json:"subject"    binding:"required"`
	Topic     string   `json:"topic"`
	Score     *float64 `json:"score"      binding:"required"`
	GradeDate string   `json:"grade_date" binding:"required"`
}

type eventRequest struct {
	Title          string `json:"title"      binding:"required"`
	Description    string `json:"description"`
	Type           string `json:"type"       binding:"required"`
	EventDate      string `json:"event_date" binding:"required"`
	Location       string `json:"location"`
	InvitationLink string `json:"invitation_link"`
}

type examRequest struct {
	StudentID  string `json:"student_id"  binding:"required"`
	TestDate   string `json:"test_date"   binding:"required"`
	TotalScore *int   `json:"total_score" binding:"required"`
}

// pathID reads a UUID path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, name+" must be a valid UUID")
		return "", false
	}
	return id, true
}

// dateField parses a YYYY-MM-DD value, answering 400 when it is malformed.
func dateField(c *gin.Context, field, value string) (time.Time, bool) {
	d, err := storage.ParseDate(value)
	if err != nil {
		badRequest(c, field+" must be a date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return d, true
}

func (h *handlers) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query is required")
		return
	}
	if req.StudentID != "" {
		if _, err := uuid.Parse(req.StudentID); err != nil {
			badRequest(c, "student_id must be a valid UUID")
			return
		}
		if _, err := h.svc.Students.Get(c.Request.Context(), req.StudentID); err != nil {
			h.fail(c, err)
			return
		}
	}

	resp, err := h.svc.Agent.Run(c.Request.Context(), agent.OrchestrationRequest{
		Query:     req.Query,
		SubjectID: req.StudentID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	reply, err := h.svc.Chat.Chat(c.Request.Context(), req.Prompt, req.History)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *handlers) secretSanta(c *gin.Context) {
	var req secretSantaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "student_ids must be an array of at least 2 student IDs")
		return
	}
	for _, id := range req.StudentIDs {
		if _, err := uuid.Parse(id); err != nil {
			badRequest(c, "student_ids must contain valid UUIDs")
			return
		}
	}
	pairs, err := h.svc.SecretSanta.Generate(c.Request.Context(), req.StudentIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Secret Santa pairs generated successfully", "pairs": pairs})
}

func (h *handlers) createStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	st, err := h.svc.Students.Create(c.Request.Context(), storage.Student{Name: req.Name, Class: req.Class, Email: req.Email})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *handlers) listStudents(c *gin.Context) {
	students, err := h.svc.Students.List(c.Request.Context(), c.Query("class"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *handlers) getStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	st, err := h.svc.Students.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) updateStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	st, err := h.svc.Students.Update(c.Request.Context(), storage.Student{ID: id, Name: req.Name, Class: req.Class, Email: req.Email})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handlers) deleteStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Students.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) studentGrades(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	grades, err := h.svc.Grades.List(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grades)
}

func (h *handlers) createGrade(c *gin.Context) {
	var req gradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := uuid.Parse(req.StudentID); err != nil {
		badRequest(c, "student_id must be a valid UUID")
		return
	}
	day, ok := dateField(c, "grade_date", req.GradeDate)
	if !ok {
		return
	}
	grade, err := h.svc.Grades.Add(c.Request.Context(), storage.Grade{
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Topic:     req.Topic,
		Score:     *req.Score,
		GradeDate: day,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, grade)
}

func (h *handlers) getGrade(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	grade, err := h.svc.Grades.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, grade)
}

func (h *handlers) deleteGrade(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Grades.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) performance(c *gin.Context) {
	id, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	report, err := h.svc.Analytics.Performance(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handlers) dynamics(c *gin.Context) {
	id, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	points, err := h.svc.Analytics.Dynamics(c.Request.Context(), id, c.Query("subject"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

func (h *handlers) compareClass(c *gin.Context) {
	standings, err := h.svc.Analytics.CompareClass(c.Request.Context(), c.Param("className"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, standings)
}

func (h *handlers) eventFromRequest(c *gin.Context) (storage.Event, bool) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return storage.Event{}, false
	}
	day, ok := dateField(c, "event_date", req.EventDate)
	if !ok {
		return storage.Event{}, false
	}
	return storage.Event{
		Title:          req.Title,
		Description:    req.Description,
		Type:           req.Type,
		EventDate:      day,
		Location:       req.Location,
		InvitationLink: req.InvitationLink,
	}, true
}

func (h *handlers) createEvent(c *gin.Context) {
	ev, ok := h.eventFromRequest(c)
	if !ok {
		return
	}
	ev, err := h.svc.Events.Create(c.Request.Context(), ev)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

func (h *handlers) listEvents(c *gin.Context) {
	filter := storage.EventFilter{Type: c.Query("type")}
	if v := c.Query("start_date"); v != "" {
		d, ok := dateField(c, "start_date", v)
		if !ok {
			return
		}
		filter.From = d
	}
	if v := c.Query("end_date"); v != "" {
		d, ok := dateField(c, "end_date", v)
		if !ok {
			return
		}
		filter.To = d
	}
	events, err := h.svc.Events.Upcoming(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *handlers) getEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ev, err := h.svc.Events.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *handlers) updateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ev, ok := h.eventFromRequest(c)
	if !ok {
		return
	}
	ev.ID = id
	ev, err := h.svc.Events.Update(c.Request.Context(), ev)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (h *handlers) deleteEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Events.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) recordExam(c *gin.Context) {
	var req examRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, err := uuid.Parse(req.StudentID); err != nil {
		badRequest(c, "student_id must be a valid UUID")
		return
	}
	day, ok := dateField(c, "test_date", req.TestDate)
	if !ok {
		return
	}
	result, err := h.svc.Exams.Record(c.Request.Context(), storage.ExamResult{
		StudentID:  req.StudentID,
		TestDate:   day,
		TotalScore: *req.TotalScore,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *handlers) examHistory(c *gin.Context) {
	id, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	results, err := h.svc.Exams.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *handlers) latestExam(c *gin.Context) {
	id, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	result, err := h.svc.Exams.LatestPrediction(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if result == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "no exam results recorded for this student"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) recommendations(c *gin.Context) {
	id, ok := pathID(c, "studentId")
	if !ok {
		return
	}
	advice, err := h.svc.Advisor.Personalized(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, advice)
}
