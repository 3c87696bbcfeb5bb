// templates/render.go
package templates

import (
	"net/http"

	"go.uber.org/zap"
)

// Renderer writes Engine output to HTTP responses and turns template
// failures into a logged 500.
type Renderer struct {
	Engine *Engine
	Logger *zap.Logger
}

// Page renders a full page with the given status.
func (rr Renderer) Page(w http.ResponseWriter, status int, page string, data any) {
	rr.write(w, status, page, func(w http.ResponseWriter) error {
		return rr.Engine.Execute(w, page, data)
	})
}

// Snippet renders a partial with the given status.
func (rr Renderer) Snippet(w http.ResponseWriter, status int, name string, data any) {
	rr.write(w, status, name, func(w http.ResponseWriter) error {
		return rr.Engine.Execute(w, name, data)
	})
}

// Auto picks what to render from the HTMX headers. An HTMX request whose
// HX-Target is a key of targets gets that snippet; HX-Target "content" gets
// the page's content block; anything else gets the full page.
func (rr Renderer) Auto(w http.ResponseWriter, r *http.Request, status int, page string, targets map[string]string, data any) {
	if r.Header.Get("HX-Request") != "" {
		target := r.Header.Get("HX-Target")
		if snip, ok := targets[target]; ok && snip != "" {
			rr.Snippet(w, status, snip, data)
			return
		}
		if target == "content" {
			rr.write(w, status, page, func(w http.ResponseWriter) error {
				return rr.Engine.ExecuteContent(w, page, data)
			})
			return
		}
	}
	rr.Page(w, status, page, data)
}

// write buffers through the engine, so on error nothing has been sent yet.
func (rr Renderer) write(w http.ResponseWriter, status int, name string, run func(http.ResponseWriter) error) {
	logger := rr.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if rr.Engine == nil {
		logger.Error("render called without an engine", zap.String("name", name))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	hw := &headerWriter{ResponseWriter: w, status: status}
	if err := run(hw); err != nil {
		logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		if !hw.wrote {
			http.Error(w, "template exec error", http.StatusInternalServerError)
		}
	}
}

// headerWriter sets the HTML content type and status on first write.
type headerWriter struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (h *headerWriter) Write(b []byte) (int, error) {
	if !h.wrote {
		h.wrote = true
		h.Header().Set("Content-Type", "text/html; charset=utf-8")
		h.WriteHeader(h.status)
	}
	return h.ResponseWriter.Write(b)
}
