package rest

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/searchgate/searchgate/internal/api_server/versioning"
)

// MethodHandlers is the handler table of one path: method, then version.
type MethodHandlers struct {
	path     string
	handlers map[string]map[versioning.Version]Handler
}

func NewMethodHandlers(path string) *MethodHandlers {
	return &MethodHandlers{
		path:     path,
		handlers: map[string]map[versioning.Version]Handler{},
	}
}

func (m *MethodHandlers) Path() string {
	return m.path
}

// AddMethods registers h for each method at version. A method that already
// has a handler for version is an error.
func (m *MethodHandlers) AddMethods(h Handler, version versioning.Version, methods ...string) error {
	if !version.IsValid() {
		return fmt.Errorf("cannot register handler for [%s]: version %s is not served", m.path, version)
	}
	for _, method := range methods {
		if _, taken := m.handlers[method][version]; taken {
			return fmt.Errorf("cannot replace existing handler for [%s] for method [%s] and version [%s]", m.path, method, version)
		}
	}
	for _, method := range methods {
		if m.handlers[method] == nil {
			m.handlers[method] = map[versioning.Version]Handler{}
		}
		m.handlers[method][version] = h
	}
	return nil
}

// Get returns the handler for method at version. A version other than
// Current falls back to the Current handler when it has none of its own.
func (m *MethodHandlers) Get(method string, version versioning.Version) Handler {
	byVersion, ok := m.handlers[method]
	if !ok {
		return nil
	}
	if h, ok := byVersion[version]; ok {
		return h
	}
	if version != versioning.Current {
		return byVersion[versioning.Current]
	}
	return nil
}

// ValidMethods lists every method with a handler at any version.
func (m *MethodHandlers) ValidMethods() []string {
	methods := lo.Keys(m.handlers)
	sort.Strings(methods)
	return methods
}
