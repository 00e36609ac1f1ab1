package review

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// labelHelp is shown beside each radio option on the form.
var labelHelp = map[model.Label]string{
	model.LabelA0: "Non-Actionable - general sadness or frustration, no death mentions. No immediate response needed.",
	model.LabelA1: "Monitoring - passive distress, fleeting thoughts without intent, protective factors present.",
	model.LabelA2: "Prompt Action - repeated desire to die, worthlessness, past attempts without current plan.",
	model.LabelA3: "Critical/Imminent - explicit plan, means, method or timing mentioned. Immediate escalation.",
}

// Server renders the review form over a Session. All state lives in the
// session object; handlers receive it through the struct, never through
// package globals.
type Server struct {
	session *Session
	tmpl    *template.Template
}

// NewServer builds a Server and parses the embedded templates.
func NewServer(session *Session) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{session: session, tmpl: tmpl}, nil
}

// Router wires the chi routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/", s.handleReview)
	r.Post("/review", s.handleSave)
	r.Get("/browse", s.handleBrowse)
	r.Get("/browse/{index}", s.handleEdit)
	r.Post("/browse/{index}", s.handleEditSave)
	r.Post("/reset", s.handleReset)

	r.Get("/api/progress", s.handleProgress)
	r.Get("/api/items", s.handleItems)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// reviewPage is the data handed to the review template.
type reviewPage struct {
	Done      bool
	Index     int
	Row       model.Row
	Total     int
	Completed int
	Labels    []model.Label
	Help      map[model.Label]string
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	total, completed := s.session.Progress()

	idx, row, ok := s.session.Next()
	page := reviewPage{
		Done:      !ok,
		Index:     idx,
		Row:       row,
		Total:     total,
		Completed: completed,
		Labels:    model.AllLabels(),
		Help:      labelHelp,
	}
	s.render(w, "review.html", page)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if r.PostFormValue("action") == "skip" {
		// Skip presents the same item again on reload; the original
		// form behaves identically.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	idx, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}

	label := r.PostFormValue("human_label")
	notes := r.PostFormValue("annotator_notes")
	if err := s.session.Save(idx, label, notes); err != nil {
		zap.L().Error("review save failed", zap.Int("index", idx), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	zap.L().Info("review saved", zap.Int("index", idx), zap.String("human_label", label))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// browsePage is the data handed to the browse template.
type browsePage struct {
	Items     []IndexedRow
	Filter    Filter
	Total     int
	Completed int
	Reasons   []string
	Labels    []model.Label
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Status:     q.Get("status"),
		Reason:     q.Get("reason"),
		ModelLabel: q.Get("label"),
		HumanLabel: q.Get("human_label"),
	}
	f.MinConf, _ = strconv.ParseFloat(q.Get("min_conf"), 64)
	if v := q.Get("max_conf"); v != "" {
		f.MaxConf, _ = strconv.ParseFloat(v, 64)
	}

	total, completed := s.session.Progress()
	page := browsePage{
		Items:     s.session.Items(f),
		Filter:    f,
		Total:     total,
		Completed: completed,
		Reasons:   s.reviewReasons(),
		Labels:    model.AllLabels(),
	}
	s.render(w, "browse.html", page)
}

// editPage is the data handed to the edit template.
type editPage struct {
	Index  int
	Row    model.Row
	Labels []model.Label
	Help   map[model.Label]string
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	row, err := s.session.Item(idx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.render(w, "edit.html", editPage{Index: idx, Row: row, Labels: model.AllLabels(), Help: labelHelp})
}

func (s *Server) handleEditSave(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid index", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	label := r.PostFormValue("human_label")
	notes := r.PostFormValue("annotator_notes")
	if err := s.session.Save(idx, label, notes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/browse", http.StatusSeeOther)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Reset(); err != nil {
		zap.L().Error("review reset failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	zap.L().Warn("all reviews reset")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProgress(w http.ResponseWriter, _ *http.Request) {
	total, completed := s.session.Progress()
	writeJSON(w, http.StatusOK, map[string]int{
		"total":     total,
		"completed": completed,
		"pending":   total - completed,
	})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Status:     q.Get("status"),
		Reason:     q.Get("reason"),
		ModelLabel: q.Get("label"),
		HumanLabel: q.Get("human_label"),
	}
	items := s.session.Items(f)
	if items == nil {
		items = []IndexedRow{}
	}
	writeJSON(w, http.StatusOK, items)
}

// reviewReasons collects the distinct review_reason values for the
// browse filter dropdown.
func (s *Server) reviewReasons() []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range s.session.Items(Filter{}) {
		reason := item.Row.ReviewReason
		if reason == "" || seen[reason] {
			continue
		}
		seen[reason] = true
		out = append(out, reason)
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		zap.L().Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
