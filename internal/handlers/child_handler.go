package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"satsjar/internal/models"
	"satsjar/internal/service"
)

// ChildHandler handles the child-facing API
type ChildHandler struct {
	familyService *service.FamilyService
	goalService   *service.GoalService
	lessonService *service.LessonService
	ratesService  *service.RatesService
}

// NewChildHandler creates a new child handler
func NewChildHandler(familyService *service.FamilyService, goalService *service.GoalService, lessonService *service.LessonService, ratesService *service.RatesService) *ChildHandler {
	return &ChildHandler{
		familyService: familyService,
		goalService:   goalService,
		lessonService: lessonService,
		ratesService:  ratesService,
	}
}

// Login handles POST /api/child/login
func (h *ChildHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JarID string `json:"jar_id"`
		PIN   string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	session, child, err := h.familyService.ChildLogin(req.JarID, req.PIN)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
		Name      string    `json:"name"`
		JarID     string    `json:"jar_id"`
	}{session.ID, session.ExpiresAt, child.Name, child.JarID})
}

// Me handles GET /api/child/me. An optional ?currency= parameter adds the
// fiat value of the jar.
func (h *ChildHandler) Me(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())

	resp := map[string]interface{}{
		"name":         child.Name,
		"jar_id":       child.JarID,
		"age":          child.Age,
		"balance_sats": child.BalanceSats,
	}

	if count, err := h.lessonService.CompletedCount(child.ChildID); err == nil {
		resp["lessons_completed"] = count
	}

	if currency := r.URL.Query().Get("currency"); currency != "" {
		value, err := h.ratesService.FiatValue(r.Context(), child.BalanceSats, currency)
		if err == nil {
			resp["currency"] = currency
			resp["fiat_value"] = value
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// ListGoals handles GET /api/child/goals
func (h *ChildHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())

	goals, err := h.goalService.ListGoalsForChild(child.ChildID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toGoalResponses(goals))
}

type lessonResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	Ordinal   int    `json:"ordinal"`
	Completed bool   `json:"completed"`
}

func toLessonResponse(l *models.Lesson, completed bool) lessonResponse {
	return lessonResponse{
		ID:        l.ID,
		Title:     l.Title,
		Summary:   l.Summary,
		Content:   l.Content,
		Ordinal:   l.Ordinal,
		Completed: completed,
	}
}

// ListLessons handles GET /api/child/lessons
func (h *ChildHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())

	lessons, err := h.lessonService.ListLessonsForChild(child.ChildID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]lessonResponse, 0, len(lessons))
	for i := range lessons {
		out = append(out, toLessonResponse(&lessons[i].Lesson, lessons[i].Completed))
	}

	respondJSON(w, http.StatusOK, out)
}

// CompleteLesson handles POST /api/child/lessons/{lessonID}/complete
func (h *ChildHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	child := GetChildFromContext(r.Context())

	lessonID, err := strconv.ParseInt(r.PathValue("lessonID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lesson id", "", nil)
		return
	}

	if err := h.lessonService.CompleteLesson(child.ChildID, lessonID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"completed": true})
}

// Logout handles POST /api/child/logout
func (h *ChildHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		if err := h.familyService.LogoutChild(token); err != nil {
			log.Printf("failed to delete child session: %v", err)
		}
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
