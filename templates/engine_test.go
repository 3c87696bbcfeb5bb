package templates

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

var sharedFS = fstest.MapFS{
	"templates/layout.gohtml": {Data: []byte(
		`{{ define "layout" }}<html><body><main id="content">{{ template "content" . }}</main></body></html>{{ end }}`)},
}

var pagesFS = fstest.MapFS{
	"templates/a.gohtml": {Data: []byte(
		`{{ define "page_a" }}{{ template "layout" . }}{{ end }}` +
			`{{ define "content" }}A:{{ template "widget" . }}{{ end }}` +
			`{{ define "widget" }}<b>{{ .Name }}</b>{{ end }}`)},
	"templates/b.gohtml": {Data: []byte(
		`{{ define "page_b" }}{{ template "layout" . }}{{ end }}` +
			`{{ define "content" }}B:<a href="{{ trustedURL .Href }}">call</a>{{ end }}`)},
}

func bootTest(t *testing.T) *Engine {
	t.Helper()
	e, err := Boot(nil,
		Set{Name: SharedSet, FS: sharedFS, Patterns: []string{"templates/*.gohtml"}},
		Set{Name: "pages", FS: pagesFS, Patterns: []string{"templates/*.gohtml"}},
	)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}
	return e
}

func TestBoot_RequiresShared(t *testing.T) {
	if _, err := Boot(nil, Set{Name: "pages", FS: pagesFS, Patterns: []string{"templates/*.gohtml"}}); err == nil {
		t.Error("expected error without shared set")
	}
}

func TestEngine_PagesKeepTheirOwnContent(t *testing.T) {
	e := bootTest(t)
	data := map[string]string{"Name": "Ada", "Href": "tel:+910000000000"}

	var a strings.Builder
	if err := e.Execute(&a, "page_a", data); err != nil {
		t.Fatalf("page_a: %v", err)
	}
	if !strings.Contains(a.String(), "A:<b>Ada</b>") || strings.Contains(a.String(), "B:") {
		t.Errorf("page_a = %q", a.String())
	}

	var b strings.Builder
	if err := e.Execute(&b, "page_b", data); err != nil {
		t.Fatalf("page_b: %v", err)
	}
	if !strings.Contains(b.String(), `href="tel:+910000000000"`) {
		t.Errorf("page_b lost tel: href: %q", b.String())
	}
}

func TestEngine_SnippetAndContent(t *testing.T) {
	e := bootTest(t)
	if !e.Has("widget") || e.Has("content") {
		t.Fatal("index should hold widget but not content")
	}

	var sb strings.Builder
	if err := e.Execute(&sb, "widget", map[string]string{"Name": "<x>"}); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "<b>&lt;x&gt;</b>" {
		t.Errorf("widget = %q", sb.String())
	}

	sb.Reset()
	if err := e.ExecuteContent(&sb, "page_a", map[string]string{"Name": "n"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(sb.String(), "<html>") {
		t.Errorf("content block rendered layout: %q", sb.String())
	}
}

func TestRenderer_Auto(t *testing.T) {
	rr := Renderer{Engine: bootTest(t)}
	data := map[string]string{"Name": "Ada"}
	targets := map[string]string{"widget-slot": "widget"}

	tests := []struct {
		name    string
		headers map[string]string
		want    string
		notWant string
	}{
		{"full page", nil, "<html>", ""},
		{"htmx snippet", map[string]string{"HX-Request": "true", "HX-Target": "widget-slot"}, "<b>Ada</b>", "<html>"},
		{"htmx content", map[string]string{"HX-Request": "true", "HX-Target": "content"}, "A:", "<html>"},
		{"htmx other target", map[string]string{"HX-Request": "true", "HX-Target": "x"}, "<html>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			rr.Auto(rec, req, http.StatusAccepted, "page_a", targets, data)
			if rec.Code != http.StatusAccepted {
				t.Errorf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("body %q missing %q", body, tt.want)
			}
			if tt.notWant != "" && strings.Contains(body, tt.notWant) {
				t.Errorf("body %q should not contain %q", body, tt.notWant)
			}
		})
	}
}

func TestRenderer_MissingTemplate(t *testing.T) {
	rr := Renderer{Engine: bootTest(t)}
	rec := httptest.NewRecorder()
	rr.Page(rec, http.StatusOK, "nope", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
