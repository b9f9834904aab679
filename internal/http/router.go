package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kisan-voice-client/internal/locale"
)

// Diagnostics is the application state the router reports on.
type Diagnostics interface {
	ResolveLabel(lang locale.Code, backendValue, key, hardDefault string) string
	Languages() []locale.Entry
	Language() locale.Code
	Ready() bool
}

type languageView struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	SpeechTag  string `json:"speechTag"`
}

type languagesView struct {
	Current   string         `json:"current"`
	Languages []languageView `json:"languages"`
}

type resolveView struct {
	Language string `json:"language"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// NewRouter constructs the diagnostics router.
func NewRouter(d Diagnostics) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !d.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("starting"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/languages", func(w http.ResponseWriter, _ *http.Request) {
			out := languagesView{Current: string(d.Language())}
			for _, e := range d.Languages() {
				out.Languages = append(out.Languages, languageView{
					Code:       string(e.Code),
					Name:       e.Name,
					NativeName: e.NativeName,
					SpeechTag:  locale.SpeechTag(e.Code),
				})
			}
			writeJSON(w, http.StatusOK, out)
		})

		r.Get("/resolve", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			key := strings.TrimSpace(q.Get("key"))
			if key == "" {
				http.Error(w, "key is required", http.StatusBadRequest)
				return
			}
			lang := d.Language()
			if raw := q.Get("lang"); raw != "" {
				code, err := locale.Parse(raw)
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				lang = code
			}
			writeJSON(w, http.StatusOK, resolveView{
				Language: string(lang),
				Key:      key,
				Value:    d.ResolveLabel(lang, q.Get("value"), key, q.Get("default")),
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
