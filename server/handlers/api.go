package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencivics/civicassist/pkg/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error: Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// AskAPI answers a chat question and records the exchange. Wrap with
// RequireAuth.
func (h *Handlers) AskAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	start := time.Now()
	response := h.assistant.GenerateResponse(question)
	durationMs := time.Since(start).Milliseconds()

	username := h.auth.GetUsername(r)
	if _, err := h.db.AddChatMessage(username, question, response); err != nil {
		log.Printf("Warning: Failed to store chat message: %v", err)
	}
	if h.journal != nil {
		h.journal.Record(username, question, response, durationMs)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"response":    response,
		"duration_ms": durationMs,
	})
}

// FeedbackAPI scores a feedback submission and stores it.
func (h *Handlers) FeedbackAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	sentiment := h.assistant.AnalyzeSentiment(text)
	if _, err := h.db.AddFeedback(text, sentiment); err != nil {
		log.Printf("Error: Failed to store feedback: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"sentiment": sentiment})
}

// ConcernsAPI files a new citizen concern and returns its reference.
func (h *Handlers) ConcernsAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Subject string `json:"subject"`
		Detail  string `json:"detail"`
		Contact string `json:"contact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	subject := strings.TrimSpace(req.Subject)
	detail := strings.TrimSpace(req.Detail)
	if subject == "" || detail == "" {
		writeError(w, http.StatusBadRequest, "subject and detail are required")
		return
	}

	concern := &models.Concern{
		Reference: newConcernReference(),
		Subject:   subject,
		Detail:    detail,
		Contact:   strings.TrimSpace(req.Contact),
	}
	if err := h.db.AddConcern(concern); err != nil {
		log.Printf("Error: Failed to store concern: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record concern")
		return
	}

	writeJSON(w, http.StatusCreated, concern)
}

// ConcernByReference routes /api/concerns/{reference} lookups and
// /api/concerns/{reference}/status updates.
func (h *Handlers) ConcernByReference(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/concerns/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] != "" && r.Method == http.MethodGet:
		h.getConcern(w, parts[0])
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		h.updateConcernStatus(w, r, parts[0])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handlers) getConcern(w http.ResponseWriter, reference string) {
	concern, err := h.db.GetConcern(reference)
	if err != nil {
		log.Printf("Error: Failed to look up concern %s: %v", reference, err)
		writeError(w, http.StatusInternalServerError, "failed to look up concern")
		return
	}
	if concern == nil {
		writeError(w, http.StatusNotFound, "concern not found")
		return
	}

	writeJSON(w, http.StatusOK, concern)
}

func (h *Handlers) updateConcernStatus(w http.ResponseWriter, r *http.Request, reference string) {
	if !h.auth.IsAdmin(r) {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validConcernStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "status must be one of: Open, In Review, Resolved")
		return
	}

	if err := h.db.UpdateConcernStatus(reference, req.Status); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "concern not found")
			return
		}
		log.Printf("Error: Failed to update concern %s: %v", reference, err)
		writeError(w, http.StatusInternalServerError, "failed to update concern")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"reference": reference,
		"status":    req.Status,
	})
}

func validConcernStatus(status string) bool {
	switch status {
	case models.ConcernOpen, models.ConcernInReview, models.ConcernResolved:
		return true
	}
	return false
}

// ServicesAPI searches the services directory, or lists everything
// when no query is given.
func (h *Handlers) ServicesAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 50 {
			limit = n
		}
	}

	var services []models.Service
	if query := r.URL.Query().Get("q"); query != "" {
		services = h.search.Search(query, limit)
	} else {
		var err error
		services, err = h.db.ListServices()
		if err != nil {
			log.Printf("Error: Failed to list services: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to list services")
			return
		}
	}
	if services == nil {
		services = []models.Service{}
	}

	writeJSON(w, http.StatusOK, services)
}

// HealthAPI reports liveness and the resolved model state.
func (h *Handlers) HealthAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"model":  h.assistant.Status(),
	})
}

// newConcernReference builds the public ID a citizen quotes when
// following up, e.g. CA-3F2A9C41.
func newConcernReference() string {
	id := uuid.New()
	return "CA-" + strings.ToUpper(id.String()[:8])
}
