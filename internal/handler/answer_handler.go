package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/codexam-backend/internal/model"
	"github.com/stemsi/codexam-backend/internal/response"
	"github.com/stemsi/codexam-backend/internal/service"
	"github.com/stemsi/codexam-backend/internal/validator"
)

// AnswerHandler handles exam-taking and answer review endpoints.
type AnswerHandler struct {
	answerService *service.AnswerService
	log           zerolog.Logger
}

// NewAnswerHandler creates a new AnswerHandler.
func NewAnswerHandler(answerService *service.AnswerService, log zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{
		answerService: answerService,
		log:           log.With().Str("component", "answer_handler").Logger(),
	}
}

// StartExam godoc
// POST /api/v1/student/exams/:exam_id/students/:student_id/start
// Opens the student's answer and starts the submission window.
func (h *AnswerHandler) StartExam(c *gin.Context) {
	examID, studentID, ok := examStudentParams(c)
	if !ok {
		return
	}

	answer, err := h.answerService.StartExam(c.Request.Context(), examID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyStarted) {
			response.Fail(c, http.StatusBadRequest, response.ErrAlreadyStarted)
			return
		}
		h.serverError(c, err, response.ErrStartFailed)
		return
	}

	response.SuccessMessage(c, http.StatusOK, "New exam successfully created.", answer)
}

// ListAnswers godoc
// GET /api/v1/admin/exams/:exam_id/answers
func (h *AnswerHandler) ListAnswers(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	answers, err := h.answerService.ListAnswers(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrExamNotFound)
			return
		}
		h.serverError(c, err, response.ErrListFailed)
		return
	}

	response.Success(c, http.StatusOK, answers)
}

// GetAnswer godoc
// GET /api/v1/admin/answers/:answer_id
// Returns one answer with its exam and student.
func (h *AnswerHandler) GetAnswer(c *gin.Context) {
	answerID, err := uuid.Parse(c.Param("answer_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.answerService.GetAnswer(c.Request.Context(), answerID)
	if err != nil {
		if errors.Is(err, service.ErrAnswerNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAnswerNotFound)
			return
		}
		h.serverError(c, err, response.ErrGetFailed)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// SubmitAnswer godoc
// POST /api/v1/student/exams/:exam_id/students/:student_id/answer
// Stores the student's code while the submission window is open.
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	examID, studentID, ok := examStudentParams(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrMissingField, fields)
		return
	}

	answer, err := h.answerService.SubmitAnswer(c.Request.Context(), examID, studentID, req.LineOfCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingField):
			response.Fail(c, http.StatusBadRequest, response.ErrMissingField)
		case errors.Is(err, service.ErrNotTakingExam):
			response.Fail(c, http.StatusBadRequest, response.ErrNotTakingExam)
		case errors.Is(err, service.ErrTimeUp):
			response.Fail(c, http.StatusBadRequest, response.ErrTimeUp)
		default:
			h.serverError(c, err, response.ErrSubmitFailed)
		}
		return
	}

	response.SuccessMessage(c, http.StatusOK, "New answer successfully created.", answer)
}

func (h *AnswerHandler) serverError(c *gin.Context, err error, code response.ErrCode) {
	h.log.Error().Err(err).
		Str("request_id", response.RequestID(c)).
		Str("code", string(code)).
		Msg("Answer request failed")
	response.Fail(c, http.StatusInternalServerError, code)
}

// examStudentParams parses :exam_id and :student_id, writing a 400 on failure.
func examStudentParams(c *gin.Context) (uuid.UUID, int, bool) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, 0, false
	}
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, 0, false
	}
	return examID, studentID, true
}
