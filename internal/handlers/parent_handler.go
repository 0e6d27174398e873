package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"satsjar/internal/models"
	"satsjar/internal/service"
)

// ParentHandler handles the parent-facing API
type ParentHandler struct {
	authService   *service.AuthService
	familyService *service.FamilyService
	goalService   *service.GoalService
	lessonService *service.LessonService
	ratesService  *service.RatesService
	emailService  *service.EmailService
}

// NewParentHandler creates a new parent handler
func NewParentHandler(authService *service.AuthService, familyService *service.FamilyService, goalService *service.GoalService, lessonService *service.LessonService, ratesService *service.RatesService, emailService *service.EmailService) *ParentHandler {
	return &ParentHandler{
		authService:   authService,
		familyService: familyService,
		goalService:   goalService,
		lessonService: lessonService,
		ratesService:  ratesService,
		emailService:  emailService,
	}
}

type childResponse struct {
	ChildID     string    `json:"child_id"`
	JarID       string    `json:"jar_id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	BalanceSats int64     `json:"balance_sats"`
	CreatedAt   time.Time `json:"created_at"`
}

func toChildResponse(c *models.Child) childResponse {
	return childResponse{
		ChildID:     c.ChildID,
		JarID:       c.JarID,
		Name:        c.Name,
		Age:         c.Age,
		BalanceSats: c.BalanceSats,
		CreatedAt:   c.CreatedAt,
	}
}

type childWithProgressResponse struct {
	childResponse
	GoalCount        int `json:"goal_count"`
	AchievedGoals    int `json:"achieved_goals"`
	CompletedLessons int `json:"completed_lessons"`
}

// CreateChild handles POST /api/parent/children. The PIN may be supplied by
// the parent or left empty to have one generated; either way the response is
// the only place the plaintext PIN appears, only its hash is stored.
func (h *ParentHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
		PIN  string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	child, pin, err := h.familyService.ProvisionChild(parent.ID, req.Name, req.Age, req.PIN)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Credential email failures are logged but never block provisioning
	if h.emailService != nil && h.emailService.IsEnabled() {
		if err := h.emailService.SendChildCredentialsEmail(r.Context(), parent.Email, parent.Name, child.Name, child.JarID, pin); err != nil {
			log.Printf("failed to send child credentials email to %s: %v", parent.Email, err)
		}
	}

	respondJSON(w, http.StatusCreated, struct {
		childResponse
		PIN string `json:"pin"`
	}{toChildResponse(child), pin})
}

// ListChildren handles GET /api/parent/children
func (h *ParentHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	children, err := h.familyService.ListChildren(parent.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]childWithProgressResponse, 0, len(children))
	for i := range children {
		c := &children[i]
		out = append(out, childWithProgressResponse{
			childResponse:    toChildResponse(&c.Child),
			GoalCount:        c.GoalCount,
			AchievedGoals:    c.AchievedGoals,
			CompletedLessons: c.CompletedLessons,
		})
	}

	respondJSON(w, http.StatusOK, out)
}

// GetChild handles GET /api/parent/children/{childID}
func (h *ParentHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	child, err := h.familyService.GetChild(parent.ID, r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toChildResponse(child))
}

// GetChildBalance handles GET /api/parent/children/{childID}/balance. An
// optional ?currency= parameter adds the fiat value of the jar.
func (h *ParentHandler) GetChildBalance(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	child, err := h.familyService.GetChild(parent.ID, r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := map[string]interface{}{
		"balance_sats": child.BalanceSats,
	}

	if currency := r.URL.Query().Get("currency"); currency != "" {
		value, err := h.ratesService.FiatValue(r.Context(), child.BalanceSats, currency)
		if err != nil {
			respondWithError(w, http.StatusBadGateway, "exchange rate unavailable", "failed to get fiat value", err)
			return
		}
		resp["currency"] = currency
		resp["fiat_value"] = value
	}

	respondJSON(w, http.StatusOK, resp)
}

// RenameChild handles PUT /api/parent/children/{childID}
func (h *ParentHandler) RenameChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.familyService.RenameChild(parent.ID, r.PathValue("childID"), req.Name); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RegenerateChildPIN handles POST /api/parent/children/{childID}/regenerate-pin
func (h *ParentHandler) RegenerateChildPIN(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	pin, err := h.familyService.RegenerateChildPIN(parent.ID, r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"pin": pin})
}

// DeleteChild handles DELETE /api/parent/children/{childID}. Parents with a
// savings PIN set must present it.
func (h *ParentHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	if parent.HasSavingsPIN() {
		var req struct {
			PIN string `json:"pin"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := h.authService.VerifySavingsPIN(parent.ID, req.PIN); err != nil {
			respondServiceError(w, err)
			return
		}
	}

	if err := h.familyService.DeleteChild(parent.ID, r.PathValue("childID")); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type goalResponse struct {
	ID         int64   `json:"id"`
	ChildID    string  `json:"child_id"`
	Title      string  `json:"title"`
	TargetSats int64   `json:"target_sats"`
	SavedSats  int64   `json:"saved_sats"`
	Achieved   bool    `json:"achieved"`
	Progress   float64 `json:"progress"`
}

func toGoalResponse(g *models.SavingsGoal) goalResponse {
	return goalResponse{
		ID:         g.ID,
		ChildID:    g.ChildID,
		Title:      g.Title,
		TargetSats: g.TargetSats,
		SavedSats:  g.SavedSats,
		Achieved:   g.Achieved,
		Progress:   g.Progress(),
	}
}

func toGoalResponses(goals []models.SavingsGoal) []goalResponse {
	out := make([]goalResponse, 0, len(goals))
	for i := range goals {
		out = append(out, toGoalResponse(&goals[i]))
	}
	return out
}

func parseGoalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	goalID, err := strconv.ParseInt(r.PathValue("goalID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid goal id", "", nil)
		return 0, false
	}
	return goalID, true
}

// CreateGoal handles POST /api/parent/children/{childID}/goals
func (h *ParentHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	var req struct {
		Title      string `json:"title"`
		TargetSats int64  `json:"target_sats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalService.CreateGoal(parent.ID, r.PathValue("childID"), req.Title, req.TargetSats)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toGoalResponse(goal))
}

// ListGoals handles GET /api/parent/children/{childID}/goals
func (h *ParentHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())

	goals, err := h.goalService.ListGoals(parent.ID, r.PathValue("childID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toGoalResponses(goals))
}

// UpdateGoal handles PUT /api/parent/children/{childID}/goals/{goalID}
func (h *ParentHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	goalID, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title      string `json:"title"`
		TargetSats int64  `json:"target_sats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.goalService.UpdateGoal(parent.ID, r.PathValue("childID"), goalID, req.Title, req.TargetSats); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RecordGoalSaved handles PUT /api/parent/children/{childID}/goals/{goalID}/saved
func (h *ParentHandler) RecordGoalSaved(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	goalID, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	var req struct {
		SavedSats int64 `json:"saved_sats"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalService.RecordSaved(parent.ID, r.PathValue("childID"), goalID, req.SavedSats)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toGoalResponse(goal))
}

// ListLessons handles GET /api/parent/lessons so parents can preview the
// lesson content their children see.
func (h *ParentHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := h.lessonService.ListLessons()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	type lesson struct {
		ID      int64  `json:"id"`
		Title   string `json:"title"`
		Summary string `json:"summary"`
		Content string `json:"content"`
		Ordinal int    `json:"ordinal"`
	}
	out := make([]lesson, 0, len(lessons))
	for _, l := range lessons {
		out = append(out, lesson{ID: l.ID, Title: l.Title, Summary: l.Summary, Content: l.Content, Ordinal: l.Ordinal})
	}

	respondJSON(w, http.StatusOK, out)
}

// DeleteGoal handles DELETE /api/parent/children/{childID}/goals/{goalID}
func (h *ParentHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	parent := GetParentFromContext(r.Context())
	goalID, ok := parseGoalID(w, r)
	if !ok {
		return
	}

	if err := h.goalService.DeleteGoal(parent.ID, r.PathValue("childID"), goalID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
