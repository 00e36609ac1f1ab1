package review

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *Session) {
	t.Helper()
	session, _ := newTestSession(t, testQueue())
	server, err := NewServer(session)
	require.NoError(t, err)
	return server, session
}

func TestServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_ReviewPageShowsNextItem(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "first")
	assert.Contains(t, body, "0 / 3 reviewed")
	assert.Contains(t, body, `name="human_label"`)
}

func TestServer_SaveAdvancesQueue(t *testing.T) {
	server, session := newTestServer(t)

	form := url.Values{
		"index":           {"0"},
		"human_label":     {"A2"},
		"annotator_notes": {"model overcalled"},
		"action":          {"save"},
	}
	req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)

	row, err := session.Item(0)
	require.NoError(t, err)
	assert.Equal(t, "A2", row.HumanLabel)
	assert.Equal(t, "model overcalled", row.AnnotatorNotes)

	// The next GET serves the following item.
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "second")
}

func TestServer_SaveRejectsInvalidLabel(t *testing.T) {
	server, _ := newTestServer(t)

	form := url.Values{
		"index":       {"0"},
		"human_label": {"A7"},
		"action":      {"save"},
	}
	req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_DonePage(t *testing.T) {
	server, session := newTestServer(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, session.Save(i, "A1", ""))
	}

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, rec.Body.String(), "All items reviewed")
}

func TestServer_EditPage(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/browse/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "third")

	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/browse/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_APIProgress(t *testing.T) {
	server, session := newTestServer(t)
	require.NoError(t, session.Save(0, "A1", ""))

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var progress map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, 3, progress["total"])
	assert.Equal(t, 1, progress["completed"])
	assert.Equal(t, 2, progress["pending"])
}

func TestServer_APIItemsFiltered(t *testing.T) {
	server, session := newTestServer(t)
	require.NoError(t, session.Save(0, "A1", ""))

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items?status=pending", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var items []IndexedRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Index)
}

func TestServer_Reset(t *testing.T) {
	server, session := newTestServer(t)
	require.NoError(t, session.Save(0, "A1", ""))

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	_, completed := session.Progress()
	assert.Equal(t, 0, completed)
}
