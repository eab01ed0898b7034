package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/confessly/internal/config"
	"github.com/sujalbistaa/confessly/internal/confession"
	"github.com/sujalbistaa/confessly/internal/store"
	"github.com/sujalbistaa/confessly/internal/ws"
)

func testConfig() *config.Config {
	return &config.Config{
		AdminPath:     "admin",
		AdminUser:     "admin",
		AdminPassword: "hunter2",
		CORSOrigin:    "*",
		PostLimit:     100,
		PostWindow:    time.Hour,
		VoteLimit:     100,
		VoteWindow:    time.Hour,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *confession.Service, store.ConfessionStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, store.Migrate(gdb))

	st := store.New(gdb)
	svc := confession.NewService(st)

	hub := ws.NewHub()
	go hub.Run()

	router := gin.New()
	router.LoadHTMLGlob("../../web/templates/*.html")
	SetupRoutes(router, svc, hub, cfg)
	return router, svc, st
}

func postForm(router *gin.Engine, path string, form url.Values, auth bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.9:51234"
	if auth {
		req.SetBasicAuth("admin", "hunter2")
	}
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, auth bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "203.0.113.9:51234"
	if auth {
		req.SetBasicAuth("admin", "hunter2")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitConfession(t *testing.T) {
	router, svc, _ := newTestRouter(t, testConfig())

	w := postForm(router, "/confess", url.Values{"confession": {"I read my sister's diary once."}}, false)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/confessions", w.Header().Get("Location"))

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "I read my sister's diary once.", all[0].Text)
	assert.Equal(t, 1, all[0].Score)
	assert.Equal(t, "203.0.113.9", all[0].IPAddress)
}

func TestSubmitConfessionTooShort(t *testing.T) {
	router, svc, _ := newTestRouter(t, testConfig())

	w := postForm(router, "/confess", url.Values{"confession": {"too short"}}, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "between 10 and 255")

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSubmitRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.PostLimit = 2
	router, _, _ := newTestRouter(t, cfg)

	form := url.Values{"confession": {"Rate limited confession text."}}
	assert.Equal(t, http.StatusSeeOther, postForm(router, "/confess", form, false).Code)
	assert.Equal(t, http.StatusSeeOther, postForm(router, "/confess", form, false).Code)
	assert.Equal(t, http.StatusTooManyRequests, postForm(router, "/confess", form, false).Code)
}

func TestVoteRoutes(t *testing.T) {
	router, svc, _ := newTestRouter(t, testConfig())
	ctx := context.Background()

	c, err := svc.Submit(ctx, "Voting target confession here.", "", "")
	require.NoError(t, err)

	w := postForm(router, fmt.Sprintf("/confess/vote/%d/1", c.ID), nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Vote Successful", w.Body.String())

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Score)

	w = postForm(router, fmt.Sprintf("/confess/vote/%d/-1", c.ID), nil, false)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postForm(router, fmt.Sprintf("/confess/vote/%d/5", c.ID), nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(router, "/confess/vote/99999/1", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// A malformed vote token wins over a malformed id.
	w = postForm(router, "/confess/vote/notanid/up", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, err = svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Score, "only the two accepted votes count")
}

func TestPublicDetail(t *testing.T) {
	router, svc, st := newTestRouter(t, testConfig())
	ctx := context.Background()

	live, err := svc.Submit(ctx, "A confession anyone can read.", "", "")
	require.NoError(t, err)
	hidden, err := svc.Submit(ctx, "A confession nobody can read.", "", "")
	require.NoError(t, err)
	require.NoError(t, st.SetArchived(ctx, hidden.ID, true))

	w := get(router, fmt.Sprintf("/confession/%d", live.ID), false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A confession anyone can read.")

	// Archived and missing read identically on the public path, and as
	// a message rather than an error status.
	for _, path := range []string{fmt.Sprintf("/confession/%d", hidden.ID), "/confession/424242", "/confession/junk"} {
		w = get(router, path, false)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "Confession was not found", path)
	}
}

func TestPublicListExcludesArchived(t *testing.T) {
	router, svc, st := newTestRouter(t, testConfig())
	ctx := context.Background()

	_, err := svc.Submit(ctx, "Everyone gets to see this one.", "", "")
	require.NoError(t, err)
	hidden, err := svc.Submit(ctx, "Nobody gets to see this one.", "", "")
	require.NoError(t, err)
	require.NoError(t, st.SetArchived(ctx, hidden.ID, true))

	w := get(router, "/confessions", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Everyone gets to see this one.")
	assert.NotContains(t, w.Body.String(), "Nobody gets to see this one.")
}

func TestAdminListSeesEverything(t *testing.T) {
	router, svc, st := newTestRouter(t, testConfig())
	ctx := context.Background()

	_, err := svc.Submit(ctx, "Everyone gets to see this one.", "", "")
	require.NoError(t, err)
	hidden, err := svc.Submit(ctx, "Only the admin sees this one.", "", "")
	require.NoError(t, err)
	require.NoError(t, st.SetArchived(ctx, hidden.ID, true))

	assert.Equal(t, http.StatusUnauthorized, get(router, "/admin", false).Code)

	w := get(router, "/admin", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Everyone gets to see this one.")
	assert.Contains(t, w.Body.String(), "Only the admin sees this one.")
}

func TestAdminUpdate(t *testing.T) {
	router, svc, st := newTestRouter(t, testConfig())
	ctx := context.Background()

	c, err := svc.Submit(ctx, "Original admin-editable text.", "", "")
	require.NoError(t, err)
	require.NoError(t, st.SetArchived(ctx, c.ID, true))

	// No archived field in the form: the record comes back unarchived.
	w := postForm(router, "/admin/update", url.Values{
		"id":    {fmt.Sprint(c.ID)},
		"text":  {"Updated"},
		"score": {"5"},
	}, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Text)
	assert.Equal(t, 5, got.Score)
	assert.False(t, got.Archived)

	w = postForm(router, "/admin/update", url.Values{"id": {"99999"}, "text": {"nope"}}, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDelete(t *testing.T) {
	router, svc, _ := newTestRouter(t, testConfig())
	ctx := context.Background()

	c, err := svc.Submit(ctx, "Goodbye forever, confession.", "", "")
	require.NoError(t, err)

	path := fmt.Sprintf("/admin/delete/%d", c.ID)
	w := postForm(router, path, nil, true)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	_, err = svc.Get(ctx, c.ID)
	assert.ErrorIs(t, err, confession.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, postForm(router, path, nil, true).Code)
}

func TestAdminEditForm(t *testing.T) {
	router, svc, _ := newTestRouter(t, testConfig())

	c, err := svc.Submit(context.Background(), "Editable from the back room.", "", "")
	require.NoError(t, err)

	w := get(router, fmt.Sprintf("/admin/edit/%d", c.ID), true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Editable from the back room.")

	assert.Equal(t, http.StatusNotFound, get(router, "/admin/edit/99999", true).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := newTestRouter(t, testConfig())

	w := get(router, "/metrics", false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "confessly_board_submissions_total")
}
