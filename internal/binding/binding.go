// Package binding defines the binding language: the collaborator that turns
// declarative view markup plus a model into a view. No view can be created
// until a Language is registered in the container.
package binding

import (
	"errors"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/dshills/apphost/internal/di"
	"github.com/dshills/apphost/internal/view"
)

// ErrNoLanguage is returned when a view is requested before a binding
// language has been registered.
var ErrNoLanguage = errors.New("no binding language registered")

// LanguageKey is the container key of the binding language singleton.
var LanguageKey = di.KeyOf[Language]()

// Language creates views from markup.
type Language interface {
	CreateView(markup string, model any) (view.View, error)
}

// Resolve returns the Language registered in c.
func Resolve(c di.Container) (Language, error) {
	if !c.HasHandler(LanguageKey) {
		return nil, ErrNoLanguage
	}
	return di.Get[Language](c, LanguageKey)
}

// HTMLTemplate is a Language that evaluates markup as an html/template
// against the model. Parsed templates are cached by markup.
type HTMLTemplate struct {
	mu    sync.Mutex
	cache map[string]*template.Template
	funcs template.FuncMap
}

// NewHTMLTemplate creates the html/template binding language.
func NewHTMLTemplate(funcs template.FuncMap) *HTMLTemplate {
	return &HTMLTemplate{
		cache: make(map[string]*template.Template),
		funcs: funcs,
	}
}

// Factory registers NewHTMLTemplate as a container singleton.
func Factory(funcs template.FuncMap) di.Factory {
	return func(di.Container) (any, error) {
		return NewHTMLTemplate(funcs), nil
	}
}

// CreateView renders markup with model and parses the result into a view.
func (l *HTMLTemplate) CreateView(markup string, model any) (view.View, error) {
	tmpl, err := l.compile(markup)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, model); err != nil {
		return nil, fmt.Errorf("render view: %w", err)
	}

	return view.ParseFragment(out.String())
}

func (l *HTMLTemplate) compile(markup string) (*template.Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.cache[markup]; ok {
		return t, nil
	}

	t, err := template.New("view").Funcs(l.funcs).Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("compile view: %w", err)
	}
	l.cache[markup] = t
	return t, nil
}
