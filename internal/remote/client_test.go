package remote

import (
	"context"
	"encoding/json"
	"errors"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/progress"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ progress.Remote = (*Client)(nil)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", 2*time.Second)
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_SaveProgress(t *testing.T) {
	var got progressBody
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/simulation-progress", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	err := client.SaveProgress(context.Background(), model.SimulationMode, "42", model.Progress{
		Block: "Block 1", Answers: model.AnswerSets{{"A"}, nil}, Cursor: 1, UpdatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "42", got.UserID)
	assert.Equal(t, "Block 1", got.Block)
	assert.Equal(t, model.AnswerSets{{"A"}, nil}, got.Answers)
	assert.True(t, at.Equal(got.UpdatedAt))
}

func TestClient_GetProgressEscapesBlock(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trainer-progress/42/Block%201%2F2", r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"progress": map[string]interface{}{"block": "Block 1/2", "answers": []interface{}{[]string{"B"}}, "cursor": 0},
		})
	})

	p, err := client.GetProgress(context.Background(), model.TrainerMode, "42", "Block 1/2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, model.AnswerSets{{"B"}}, p.Answers)
}

func TestClient_GetProgressMissing(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "progress": nil})
	})

	p, err := client.GetProgress(context.Background(), model.TrainerMode, "42", "Block 1")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "error": "boom"})
		}},
		{"success false on 200", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false})
		}},
		{"missing success", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": []interface{}{}})
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>"))
		}},
		{"html error page", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			_, err := client.GetExamAttempts(context.Background(), "42")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRemote), err.Error())
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := New(srv.URL, time.Second)

	err := client.DeleteExamAttempt(context.Background(), "42", "7")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRemote))
}

func TestClient_SaveExamAttemptReturnsServerID(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body attemptBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body.UserID)
		assert.True(t, model.IsLocalID(body.Attempt.ID))

		stored := body.Attempt
		stored.ID = "17"
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "attempt": stored})
	})

	a := model.NewExamAttempt("Block 1", 24, 30, 900, nil, nil, time.Now())
	stored, err := client.SaveExamAttempt(context.Background(), "42", a)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "17", stored.ID)
	assert.Equal(t, 80.0, stored.Percentage)
}

func TestClient_GuestLogin(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/guest", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"user":    map[string]string{"id": "5", "name": "guest-5", "kind": "guest"},
		})
	})

	u, err := client.GuestLogin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5", u.ID)
	assert.Equal(t, model.Guest, u.Kind)
}

func TestClient_DeletePaths(t *testing.T) {
	var paths []string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})
	ctx := context.Background()

	require.NoError(t, client.DeleteProgress(ctx, model.TrainerMode, "42", ""))
	require.NoError(t, client.DeleteProgress(ctx, model.SimulationMode, "42", "Block 2"))
	require.NoError(t, client.DeleteExamAttempt(ctx, "42", "9"))
	assert.Equal(t, []string{
		"/api/trainer-progress/42",
		"/api/simulation-progress/42/Block 2",
		"/api/exam-attempts/42/9",
	}, paths)
}

func TestClient_DeleteAlreadyGone(t *testing.T) {
	t.Run("service answers 404", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Resource not found"})
		})
		ctx := context.Background()

		assert.NoError(t, client.DeleteExamAttempt(ctx, "42", "9"))
		assert.NoError(t, client.DeleteProgress(ctx, model.TrainerMode, "42", "Block 1"))

		_, err := client.GetExamAttempts(ctx, "42")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrRemote)
	})

	t.Run("missing route is still a failure", func(t *testing.T) {
		client := newTestServer(t, http.NotFound)

		err := client.DeleteExamAttempt(context.Background(), "42", "9")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRemote)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
