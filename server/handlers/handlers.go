package handlers

import (
	"crypto/rand"
	"embed"
	"encoding/base64"
	"html/template"
	"log"
	"net/http"
	"path/filepath"

	"github.com/opencivics/civicassist/internal/db"
	"github.com/opencivics/civicassist/internal/interfaces"
	"github.com/opencivics/civicassist/pkg/models"
	"github.com/opencivics/civicassist/server/auth"
)

//go:embed templates/*.html
var templateFS embed.FS

// Config holds everything the web tier depends on.
type Config struct {
	DB        *db.DB
	Auth      *auth.Manager
	Assistant interfaces.AssistantService
	Search    interfaces.ServiceSearcher
	Journal   interfaces.InteractionJournal

	// TemplateDir overrides the embedded templates, for development.
	TemplateDir string
}

// Handlers serves the portal pages and the JSON API.
type Handlers struct {
	db        *db.DB
	auth      *auth.Manager
	assistant interfaces.AssistantService
	search    interfaces.ServiceSearcher
	journal   interfaces.InteractionJournal
	templates *template.Template
}

// New creates the handler set, parsing page templates up front.
func New(cfg Config) *Handlers {
	var templates *template.Template
	var err error
	if cfg.TemplateDir != "" {
		templates, err = template.ParseGlob(filepath.Join(cfg.TemplateDir, "*.html"))
	} else {
		templates, err = template.ParseFS(templateFS, "templates/*.html")
	}
	if err != nil {
		log.Printf("Warning: Could not parse templates: %v", err)
		templates = template.New("empty")
	}

	return &Handlers{
		db:        cfg.DB,
		auth:      cfg.Auth,
		assistant: cfg.Assistant,
		search:    cfg.Search,
		journal:   cfg.Journal,
		templates: templates,
	}
}

// Routes wires every page and API endpoint onto a fresh mux.
func (h *Handlers) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Public pages
	mux.HandleFunc("/", h.HomePage)
	mux.HandleFunc("/about", h.AboutPage)
	mux.HandleFunc("/services", h.ServicesPage)
	mux.HandleFunc("/feedback", h.FeedbackPage)
	mux.HandleFunc("/concern", h.ConcernPage)

	// Auth routes
	mux.HandleFunc("/login", h.LoginPage)
	mux.HandleFunc("/logout", h.Logout)
	mux.HandleFunc("/auth/github", h.GitHubLogin)
	mux.HandleFunc("/auth/github/callback", h.GitHubCallback)

	// Protected pages
	mux.HandleFunc("/chat", h.RequireAuth(h.ChatPage))
	mux.HandleFunc("/dashboard", h.RequireAdmin(h.DashboardPage))

	// JSON API
	mux.HandleFunc("/api/ask", h.RequireAuth(h.AskAPI))
	mux.HandleFunc("/api/feedback", h.FeedbackAPI)
	mux.HandleFunc("/api/concerns", h.ConcernsAPI)
	mux.HandleFunc("/api/concerns/", h.ConcernByReference)
	mux.HandleFunc("/api/services", h.ServicesAPI)
	mux.HandleFunc("/api/health", h.HealthAPI)
	mux.HandleFunc("/health", h.HealthAPI)

	return mux
}

// RequireAuth redirects unauthenticated requests to the login page.
func (h *Handlers) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.IsAuthenticated(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RequireAdmin limits a page to the configured admin account.
func (h *Handlers) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.IsAuthenticated(r) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if !h.auth.IsAdmin(r) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (h *Handlers) pageData(r *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"Authenticated": h.auth.IsAuthenticated(r),
		"Username":      h.auth.GetUsername(r),
	}
}

// HomePage renders the portal landing page.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := h.pageData(r)
	data["Model"] = h.assistant.Status()

	if err := h.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// AboutPage renders the static about page.
func (h *Handlers) AboutPage(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.ExecuteTemplate(w, "about.html", h.pageData(r)); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ServicesPage renders the service directory, filtered when a search
// query is present.
func (h *Handlers) ServicesPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var services []models.Service
	if query != "" {
		services = h.search.Search(query, 10)
	} else {
		var err error
		services, err = h.db.ListServices()
		if err != nil {
			log.Printf("Error: Failed to list services: %v", err)
		}
	}

	data := h.pageData(r)
	data["Services"] = services
	data["Query"] = query

	if err := h.templates.ExecuteTemplate(w, "services.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ChatPage renders the assistant chat page. Wrap with RequireAuth.
func (h *Handlers) ChatPage(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r)
	data["Model"] = h.assistant.Status()

	if err := h.templates.ExecuteTemplate(w, "chat.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// FeedbackPage renders the feedback form.
func (h *Handlers) FeedbackPage(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.ExecuteTemplate(w, "feedback.html", h.pageData(r)); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// ConcernPage renders the concern form, plus a status lookup when a
// reference is quoted in the query string.
func (h *Handlers) ConcernPage(w http.ResponseWriter, r *http.Request) {
	data := h.pageData(r)

	if ref := r.URL.Query().Get("ref"); ref != "" {
		data["Reference"] = ref
		concern, err := h.db.GetConcern(ref)
		if err != nil {
			log.Printf("Error: Failed to look up concern %s: %v", ref, err)
		}
		if concern != nil {
			data["Concern"] = concern
		} else {
			data["NotFound"] = true
		}
	}

	if err := h.templates.ExecuteTemplate(w, "concern.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// DashboardPage renders operational stats. Wrap with RequireAdmin.
func (h *Handlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	stats := models.DashboardStats{
		Model: h.assistant.Status(),
	}

	var err error
	if stats.TotalInteractions, err = h.db.CountChatMessages(); err != nil {
		log.Printf("Error: Failed to count chats: %v", err)
	}
	if stats.Sentiment, err = h.db.SentimentCounts(); err != nil {
		log.Printf("Error: Failed to count sentiment: %v", err)
	}
	if stats.RecentConcerns, err = h.db.RecentConcerns(10); err != nil {
		log.Printf("Error: Failed to list concerns: %v", err)
	}
	if stats.RecentChats, err = h.db.RecentChats(10); err != nil {
		log.Printf("Error: Failed to list chats: %v", err)
	}
	if stats.OpenConcerns, err = h.db.CountConcernsByStatus(models.ConcernOpen); err != nil {
		log.Printf("Error: Failed to count open concerns: %v", err)
	}

	data := h.pageData(r)
	data["Stats"] = stats

	if err := h.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// LoginPage renders the login form and handles password submissions.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		username := r.FormValue("username")
		password := r.FormValue("password")

		if h.auth.Authenticate(username, password) {
			h.auth.SetSession(w, username, auth.SourcePassword)
			http.Redirect(w, r, "/chat", http.StatusSeeOther)
			return
		}

		data := h.pageData(r)
		data["Error"] = "Invalid username or password"
		data["GitHubEnabled"] = h.auth.GitHubEnabled()
		if err := h.templates.ExecuteTemplate(w, "login.html", data); err != nil {
			log.Printf("Template error: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	data := h.pageData(r)
	data["GitHubEnabled"] = h.auth.GitHubEnabled()
	if r.URL.Query().Get("error") == "github" {
		data["Error"] = "GitHub sign-in failed, please try again"
	}

	if err := h.templates.ExecuteTemplate(w, "login.html", data); err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// Logout clears the session and returns to the landing page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearSession(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

const stateCookie = "oauth_state"

// GitHubLogin starts the OAuth flow with a fresh CSRF state.
func (h *Handlers) GitHubLogin(w http.ResponseWriter, r *http.Request) {
	if !h.auth.GitHubEnabled() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	state := generateState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   600,
	})

	http.Redirect(w, r, h.auth.GitHubLoginURL(state), http.StatusTemporaryRedirect)
}

// GitHubCallback completes the OAuth flow and opens a session.
func (h *Handlers) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	user, err := h.auth.CompleteGitHub(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("Warning: GitHub login failed: %v", err)
		http.Redirect(w, r, "/login?error=github", http.StatusSeeOther)
		return
	}

	h.auth.SetSession(w, user.Login, auth.SourceGitHub)
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
