package email

import (
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"sort"
	"strings"
	"sync"
	texttemplate "text/template"
)

// ErrUnknownTemplate is returned by Render for a name never registered.
var ErrUnknownTemplate = errors.New("email: unknown template")

// EmailTemplate is a subject plus text and/or HTML body, executed against
// the request's Params map ({{.from_name}}). Missing keys render empty.
type EmailTemplate struct {
	Name     string
	Subject  string
	TextBody string
	HTMLBody string
}

// executor is the part of text/template and html/template that Render uses.
type executor interface {
	Execute(w io.Writer, data any) error
}

type compiledTemplate struct {
	subject, text, html executor
}

// TemplateStore holds compiled templates by name. It is safe for concurrent
// use.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]compiledTemplate
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{templates: make(map[string]compiledTemplate)}
}

// Register compiles tpl and stores it under tpl.Name, replacing any previous
// template of that name.
func (s *TemplateStore) Register(tpl EmailTemplate) error {
	if tpl.Name == "" {
		return errors.New("email: template name is required")
	}

	var c compiledTemplate
	var err error
	if c.subject, err = parseText(tpl.Name+".subject", tpl.Subject); err != nil {
		return err
	}
	if c.text, err = parseText(tpl.Name+".text", tpl.TextBody); err != nil {
		return err
	}
	if tpl.HTMLBody != "" {
		h, err := htmltemplate.New(tpl.Name + ".html").Option("missingkey=zero").Parse(tpl.HTMLBody)
		if err != nil {
			return fmt.Errorf("email: parse %s: %w", tpl.Name+".html", err)
		}
		c.html = h
	}

	s.mu.Lock()
	s.templates[tpl.Name] = c
	s.mu.Unlock()
	return nil
}

func parseText(name, src string) (executor, error) {
	if src == "" {
		return nil, nil
	}
	t, err := texttemplate.New(name).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("email: parse %s: %w", name, err)
	}
	return t, nil
}

// Render executes the named template. The subject is collapsed onto one
// line, since submitted names end up in it.
func (s *TemplateStore) Render(name string, data any) (*Message, error) {
	s.mu.RLock()
	c, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTemplate, name)
	}

	msg := &Message{}
	parts := []struct {
		part string
		t    executor
		dst  *string
	}{
		{"subject", c.subject, &msg.Subject},
		{"text body", c.text, &msg.TextBody},
		{"HTML body", c.html, &msg.HTMLBody},
	}
	for _, p := range parts {
		if p.t == nil {
			continue
		}
		var b strings.Builder
		if err := p.t.Execute(&b, data); err != nil {
			return nil, fmt.Errorf("email: render %s of %q: %w", p.part, name, err)
		}
		*p.dst = b.String()
	}
	msg.Subject = strings.Join(strings.Fields(msg.Subject), " ")
	return msg, nil
}

// Has reports whether name is registered.
func (s *TemplateStore) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[name]
	return ok
}

// List returns the registered names, sorted.
func (s *TemplateStore) List() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// ContactTemplate is what the site owner receives for one submission.
var ContactTemplate = EmailTemplate{
	Name:    "contact",
	Subject: "New message from {{.from_name}}",
	TextBody: `You have a new message from your portfolio contact form.

Name:  {{.from_name}}
Email: {{.from_email}}

{{.message}}
`,
	HTMLBody: `<!DOCTYPE html>
<html>
<body>
<p>You have a new message from your portfolio contact form.</p>
<p><strong>Name:</strong> {{.from_name}}<br>
<strong>Email:</strong> <a href="mailto:{{.from_email}}">{{.from_email}}</a></p>
<p style="white-space: pre-wrap;">{{.message}}</p>
</body>
</html>`,
}

// NewContactStore registers ContactTemplate under each name, or under
// "contact" when none is given. Local transports look templates up by the
// routing template ID, so that is the name callers pass.
func NewContactStore(names ...string) (*TemplateStore, error) {
	if len(names) == 0 {
		names = []string{ContactTemplate.Name}
	}
	s := NewTemplateStore()
	for _, n := range names {
		tpl := ContactTemplate
		tpl.Name = n
		if err := s.Register(tpl); err != nil {
			return nil, err
		}
	}
	return s, nil
}
