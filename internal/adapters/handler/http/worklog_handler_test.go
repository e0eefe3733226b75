package http_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/devlog-engine/internal/core/domain"
	"github.com/comitanigiacomo/devlog-engine/internal/core/services"
)

func TestWorkLogHandler_Create(t *testing.T) {
	env := newTestEnv(t)
	mgr, mgrToken := env.seedUser(t, domain.RoleManager, "")
	_, devToken := env.seedUser(t, domain.RoleDeveloper, mgr.ID)

	w := env.do(t, http.MethodPost, "/api/v1/logs", devToken, logPayload("", ""))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	wl := decode[domain.WorkLog](t, w)
	assert.Equal(t, 165, wl.TotalMinutes())
	assert.Equal(t, "🙂", wl.Mood.Emoji)
	assert.Equal(t, domain.ReviewPending, wl.Status)
	assert.Equal(t, 1, wl.Version)
	assert.Equal(t, []services.NotificationType{services.NotifyNewLog}, env.notifier.types(mgr.ID))

	t.Run("second log on the same day conflicts", func(t *testing.T) {
		w := env.do(t, http.MethodPost, "/api/v1/logs", devToken, logPayload("", ""))
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("past day is allowed", func(t *testing.T) {
		yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(domain.DateLayout)
		w := env.do(t, http.MethodPost, "/api/v1/logs", devToken, logPayload(yesterday, ""))
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	tests := []struct {
		name    string
		token   string
		payload map[string]any
		want    int
	}{
		{"manager cannot log", mgrToken, logPayload("", ""), http.StatusForbidden},
		{"future date", devToken, logPayload(time.Now().UTC().AddDate(0, 0, 2).Format(domain.DateLayout), ""), http.StatusBadRequest},
		{"bad date format", devToken, logPayload("03/07/2024", ""), http.StatusBadRequest},
		{"no tasks", devToken, map[string]any{"tasks": []any{}, "mood": map[string]any{"score": 3}}, http.StatusBadRequest},
		{"mood out of range", devToken, map[string]any{
			"tasks": []map[string]any{{"description": "x"}},
			"mood":  map[string]any{"score": 9},
		}, http.StatusBadRequest},
		{"emoji does not match table", devToken, map[string]any{
			"date":  "2024-01-02",
			"tasks": []map[string]any{{"description": "x"}},
			"mood":  map[string]any{"score": 3, "emoji": "🚀"},
		}, http.StatusBadRequest},
		{"unknown task status", devToken, map[string]any{
			"date":  "2024-01-03",
			"tasks": []map[string]any{{"description": "x", "status": "done"}},
			"mood":  map[string]any{"score": 3},
		}, http.StatusBadRequest},
		{"blockers too long", devToken, logPayload("2024-01-04", "a"+strings.Repeat("😢", 2000)), http.StatusBadRequest},
		{"no token", "", logPayload("", ""), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/logs", tt.token, tt.payload)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestWorkLogHandler_VisibilityAndReview(t *testing.T) {
	env := newTestEnv(t)
	mgr, mgrToken := env.seedUser(t, domain.RoleManager, "")
	_, otherMgrToken := env.seedUser(t, domain.RoleManager, "")
	dev, devToken := env.seedUser(t, domain.RoleDeveloper, mgr.ID)
	_, peerToken := env.seedUser(t, domain.RoleDeveloper, mgr.ID)

	w := env.do(t, http.MethodPost, "/api/v1/logs", devToken, logPayload("", "Waiting on infra"))
	require.Equal(t, http.StatusCreated, w.Code)
	wl := decode[domain.WorkLog](t, w)
	path := "/api/v1/logs/" + wl.ID

	t.Run("owner and manager can read, others cannot", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, devToken, nil).Code)
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, mgrToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, peerToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, otherMgrToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/logs/missing", devToken, nil).Code)
	})

	t.Run("listing is scoped", func(t *testing.T) {
		page := decode[services.LogPage](t, env.do(t, http.MethodGet, "/api/v1/logs", mgrToken, nil))
		assert.Equal(t, 1, page.Total)

		page = decode[services.LogPage](t, env.do(t, http.MethodGet, "/api/v1/logs?has_blockers=true&user_id="+dev.ID, mgrToken, nil))
		assert.Equal(t, 1, page.Total)

		page = decode[services.LogPage](t, env.do(t, http.MethodGet, "/api/v1/logs", peerToken, nil))
		assert.Equal(t, 0, page.Total)
		assert.NotNil(t, page.Logs)

		page = decode[services.LogPage](t, env.do(t, http.MethodGet, "/api/v1/logs", otherMgrToken, nil))
		assert.Equal(t, 0, page.Total)

		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/logs?user_id="+dev.ID, otherMgrToken, nil).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/logs?user_id="+dev.ID, peerToken, nil).Code)
	})

	t.Run("bad paging", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/logs?limit=500", devToken, nil).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/logs?page=-1", devToken, nil).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/logs?page=abc", devToken, nil).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/logs?from=2024-03-10&to=2024-03-01", devToken, nil).Code)
	})

	t.Run("feedback", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path+"/feedback", mgrToken, map[string]string{"comment": "Ping infra on Slack"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		got := decode[domain.WorkLog](t, w)
		require.Len(t, got.Feedback, 1)

		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, path+"/feedback", mgrToken, map[string]string{"comment": ""}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, path+"/feedback", devToken, map[string]string{"comment": "self"}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, path+"/feedback", otherMgrToken, map[string]string{"comment": "hi"}).Code)
	})

	t.Run("task feedback and status", func(t *testing.T) {
		taskPath := path + "/tasks/" + wl.Tasks[0].ID

		w := env.do(t, http.MethodPost, taskPath+"/feedback", mgrToken, map[string]string{"comment": "Link the PR"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		got := decode[domain.WorkLog](t, w)
		require.Len(t, got.Tasks[0].Feedback, 1)
		assert.Empty(t, got.Tasks[1].Feedback)

		w = env.do(t, http.MethodPatch, taskPath+"/status", mgrToken, map[string]string{"status": "Approved"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got = decode[domain.WorkLog](t, w)
		assert.Equal(t, domain.ReviewApproved, got.Tasks[0].ReviewStatus)
		assert.Equal(t, domain.ReviewPending, got.Tasks[1].ReviewStatus)

		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, taskPath+"/status", mgrToken, map[string]string{"status": "Done"}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, taskPath+"/feedback", mgrToken, map[string]string{"comment": ""}).Code)
		assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, path+"/tasks/missing/feedback", mgrToken, map[string]string{"comment": "hi"}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, taskPath+"/status", devToken, map[string]string{"status": "Approved"}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, taskPath+"/status", otherMgrToken, map[string]string{"status": "Approved"}).Code)
	})

	t.Run("review through both routes", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path+"/review", mgrToken, map[string]string{"status": "Needs Clarification"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do(t, http.MethodPatch, path, mgrToken, map[string]string{"status": "Approved"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[domain.WorkLog](t, w)
		assert.Equal(t, domain.ReviewApproved, got.Status)
		require.NotNil(t, got.ReviewedBy)
		assert.Equal(t, mgr.ID, *got.ReviewedBy)

		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, path, mgrToken, map[string]string{"status": "Done"}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPatch, path, mgrToken, map[string]string{"summary": "x"}).Code)

		types := env.notifier.types(dev.ID)
		assert.Contains(t, types, services.NotifyLogFeedback)
		assert.Contains(t, types, services.NotifyLogReviewed)
	})
}

func TestWorkLogHandler_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	mgr, _ := env.seedUser(t, domain.RoleManager, "")
	_, devToken := env.seedUser(t, domain.RoleDeveloper, mgr.ID)
	_, peerToken := env.seedUser(t, domain.RoleDeveloper, mgr.ID)

	w := env.do(t, http.MethodPost, "/api/v1/logs", devToken, logPayload("", ""))
	require.Equal(t, http.StatusCreated, w.Code)
	wl := decode[domain.WorkLog](t, w)
	path := "/api/v1/logs/" + wl.ID

	w = env.do(t, http.MethodPatch, path, devToken, map[string]any{
		"summary": "Shipped pagination",
		"mood":    map[string]any{"score": 5},
		"version": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.WorkLog](t, w)
	assert.Equal(t, "Shipped pagination", updated.Summary)
	assert.Equal(t, 5, updated.Mood.Score)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.Tasks, 2, "tasks are kept when omitted")

	t.Run("stale version", func(t *testing.T) {
		w := env.do(t, http.MethodPatch, path, devToken, map[string]any{"summary": "again", "version": 1})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "version conflict")
	})

	t.Run("not the owner", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPatch, path, peerToken, map[string]any{"summary": "mine now"}).Code)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, path, peerToken, nil).Code)
	})

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, devToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, devToken, nil).Code)

	_, err := env.logs.GetByID(context.Background(), wl.ID)
	assert.ErrorIs(t, err, domain.ErrWorkLogNotFound)
}
