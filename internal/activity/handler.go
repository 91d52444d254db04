package activity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/amazonia-research/academy-backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func identityFrom(r *http.Request) (models.Identity, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	if !ok {
		return models.Identity{}, false
	}
	email, _ := r.Context().Value("user_email").(string)
	name, _ := r.Context().Value("user_name").(string)
	return models.Identity{UserID: uid, Email: email, Name: name}, true
}

func pathID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	lessonID, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid lesson ID"})
		return
	}

	result, err := h.service.CompleteLesson(ident, lessonID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record completion"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CompleteQuiz(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	quizID, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid quiz ID"})
		return
	}

	var req models.CompleteQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Score < 0 || req.Score > 100 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Score must be between 0 and 100"})
		return
	}

	result, err := h.service.CompleteQuiz(ident, quizID, req.Score)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record quiz"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CompleteModule(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	moduleID, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid module ID"})
		return
	}

	result, err := h.service.CompleteModule(ident, moduleID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record completion"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) CompleteCourse(w http.ResponseWriter, r *http.Request) {
	ident, ok := identityFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	courseID, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid course ID"})
		return
	}

	result, err := h.service.CompleteCourse(ident, courseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to record completion"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
