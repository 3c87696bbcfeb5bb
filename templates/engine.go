// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SharedSet is the name of the set holding the layout every page uses.
const SharedSet = "shared"

// Set is one embedded group of templates.
type Set struct {
	// Name is used in logs and errors; SharedSet marks the layout set.
	Name string
	// FS is usually an embed.FS from the owning package.
	FS fs.FS
	// Patterns are fs.Glob patterns, e.g. "templates/*.gohtml".
	Patterns []string
}

// Engine holds the compiled templates. Each page file is compiled into its
// own clone of the shared layout so every page can define "content"
// without colliding with its siblings.
type Engine struct {
	funcs  template.FuncMap
	base   *template.Template
	byName map[string]*template.Template
	logger *zap.Logger
}

// Boot compiles sets. Exactly one set must be named SharedSet.
func Boot(logger *zap.Logger, sets ...Set) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		funcs:  Funcs(),
		byName: map[string]*template.Template{},
		logger: logger,
	}

	var pages []Set
	for _, s := range sets {
		if s.Name != SharedSet {
			pages = append(pages, s)
			continue
		}
		if e.base != nil {
			return nil, fmt.Errorf("template set %q registered twice", SharedSet)
		}
		files, err := globAll(s.FS, s.Patterns)
		if err != nil {
			return nil, fmt.Errorf("glob shared: %w", err)
		}
		root := template.New("root").Funcs(e.funcs)
		for _, p := range files {
			if err := parseFile(root, s.FS, p, ""); err != nil {
				return nil, fmt.Errorf("parse shared: %w", err)
			}
		}
		e.base = root
	}
	if e.base == nil {
		return nil, fmt.Errorf("template set %q not registered", SharedSet)
	}

	for _, s := range pages {
		if err := e.compilePages(s); err != nil {
			return nil, fmt.Errorf("compile set %q: %w", s.Name, err)
		}
	}
	return e, nil
}

// compilePages builds one clone per file. In each clone only the target
// file keeps its "content" definition; the others are renamed out of the way.
// A name is indexed to the clone of the file that defines it.
func (e *Engine) compilePages(s Set) error {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		e.logger.Warn("no templates matched", zap.String("set", s.Name))
		return nil
	}

	for _, page := range files {
		src, err := fs.ReadFile(s.FS, page)
		if err != nil {
			return fmt.Errorf("read %s: %w", page, err)
		}
		clone, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}
		for _, p := range files {
			rename := ""
			if p != page {
				rename = ignoredContentName(p)
			}
			if err := parseFile(clone, s.FS, p, rename); err != nil {
				return fmt.Errorf("%w (for %s)", err, page)
			}
		}
		for name := range defineNames(string(src)) {
			if name == "content" {
				continue
			}
			e.byName[name] = clone
		}
		e.logger.Debug("template page compiled",
			zap.String("set", s.Name), zap.String("page", filepath.Base(page)))
	}
	return nil
}

var (
	reContentDefine = regexp.MustCompile(`{{-?\s*define\s+"content"\s*-?}}`)
	reDefineName    = regexp.MustCompile(`{{-?\s*define\s+"([^"]+)"`)
)

func parseFile(t *template.Template, fsys fs.FS, path, renameContent string) error {
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	text := string(b)
	if renameContent != "" {
		text = reContentDefine.ReplaceAllString(text, fmt.Sprintf(`{{ define %q }}`, renameContent))
	}
	if _, err := t.Parse(text); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func ignoredContentName(path string) string {
	base := filepath.Base(path)
	return "_content_ignored_" + strings.TrimSuffix(base, filepath.Ext(base))
}

func defineNames(src string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range reDefineName.FindAllStringSubmatch(src, -1) {
		out[g[1]] = struct{}{}
	}
	return out
}

func globAll(fsys fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(fsys, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Has reports whether name is an indexed page or partial.
func (e *Engine) Has(name string) bool {
	_, ok := e.byName[name]
	return ok
}

// Execute runs the named page or partial into w. Output is buffered so a
// failing template writes nothing.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	t, ok := e.byName[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return execute(w, t, name, data)
}

// ExecuteContent runs the "content" block that belongs to page.
func (e *Engine) ExecuteContent(w io.Writer, page string, data any) error {
	t, ok := e.byName[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return execute(w, t, "content", data)
}

func execute(w io.Writer, t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
