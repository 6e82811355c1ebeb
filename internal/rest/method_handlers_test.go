package rest

import (
	"net/http"
	"testing"

	"github.com/searchgate/searchgate/internal/api_server/versioning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodHandlers(t *testing.T) {
	current := &recordingHandler{}
	compatible := &recordingHandler{}
	m := NewMethodHandlers("/_search")

	require.NoError(t, m.AddMethods(current, versioning.Current, http.MethodGet, http.MethodPost))
	require.NoError(t, m.AddMethods(compatible, versioning.Compatible, http.MethodGet))

	assert.Same(t, current, m.Get(http.MethodGet, versioning.Current))
	assert.Same(t, compatible, m.Get(http.MethodGet, versioning.Compatible))
	assert.Same(t, current, m.Get(http.MethodPost, versioning.Compatible))
	assert.Nil(t, m.Get(http.MethodDelete, versioning.Current))
	assert.Nil(t, m.Get(http.MethodDelete, versioning.Compatible))
	assert.Equal(t, []string{http.MethodGet, http.MethodPost}, m.ValidMethods())
	assert.Equal(t, "/_search", m.Path())
}

func TestMethodHandlersDuplicateRegistration(t *testing.T) {
	m := NewMethodHandlers("/test")
	require.NoError(t, m.AddMethods(&recordingHandler{}, versioning.Current, http.MethodGet))

	err := m.AddMethods(&recordingHandler{}, versioning.Current, http.MethodPost, http.MethodGet)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot replace existing handler for [/test] for method [GET] and version [8]")
	assert.Nil(t, m.Get(http.MethodPost, versioning.Current), "a failed registration must not be applied partially")

	require.NoError(t, m.AddMethods(&recordingHandler{}, versioning.Compatible, http.MethodGet))
}

func TestMethodHandlersRejectsUnservedVersion(t *testing.T) {
	m := NewMethodHandlers("/test")
	require.Error(t, m.AddMethods(&recordingHandler{}, versioning.Current-2, http.MethodGet))
	require.Error(t, m.AddMethods(&recordingHandler{}, 0, http.MethodGet))
}

func TestMethodHandlersFallbackNeverLosesCurrent(t *testing.T) {
	setups := map[string]func(m *MethodHandlers){
		"current only": func(m *MethodHandlers) {
			_ = m.AddMethods(&recordingHandler{}, versioning.Current, http.MethodGet)
		},
		"compatible only": func(m *MethodHandlers) {
			_ = m.AddMethods(&recordingHandler{}, versioning.Compatible, http.MethodGet)
		},
		"both": func(m *MethodHandlers) {
			_ = m.AddMethods(&recordingHandler{}, versioning.Current, http.MethodGet)
			_ = m.AddMethods(&recordingHandler{}, versioning.Compatible, http.MethodGet)
		},
		"none": func(m *MethodHandlers) {},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			m := NewMethodHandlers("/test")
			setup(m)
			for _, v := range versioning.Served() {
				if v == versioning.Current {
					continue
				}
				if m.Get(http.MethodGet, versioning.Current) != nil {
					assert.NotNil(t, m.Get(http.MethodGet, v))
				}
			}
		})
	}
}
