package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenvahq/zenva/server/assistant"
	apperr "github.com/zenvahq/zenva/server/internal/errors"
	"github.com/zenvahq/zenva/store"
)

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", extractBearerToken("Bearer abc123"))
	assert.Equal(t, "", extractBearerToken("abc123"))
	assert.Equal(t, "", extractBearerToken(""))
	assert.Equal(t, "", extractBearerToken("Basic abc123"))
}

func TestTaskPriorityFromString(t *testing.T) {
	tests := []struct {
		input string
		want  store.TaskPriority
		ok    bool
	}{
		{"", store.TaskPriorityMedium, true},
		{"low", store.TaskPriorityLow, true},
		{"HIGH", store.TaskPriorityHigh, true},
		{"Medium", store.TaskPriorityMedium, true},
		{"urgent", "", false},
	}
	for _, tt := range tests {
		got, ok := taskPriorityFromString(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		if ok {
			assert.Equal(t, tt.want, got, "input %q", tt.input)
		}
	}
}

func TestFocusSessionKindFromString(t *testing.T) {
	kind, ok := focusSessionKindFromString("")
	require.True(t, ok)
	assert.Equal(t, store.FocusSessionFocus, kind)

	kind, ok = focusSessionKindFromString("short_break")
	require.True(t, ok)
	assert.Equal(t, store.FocusSessionShortBreak, kind)

	_, ok = focusSessionKindFromString("NAP")
	assert.False(t, ok)
}

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAssistantErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unauthenticated", apperr.Unauthenticated("no user"), http.StatusUnauthorized},
		{"busy", apperr.Busy(), http.StatusConflict},
		{"invalid argument", apperr.InvalidArgument("bad conversation"), http.StatusBadRequest},
		{"transcription timeout", apperr.TranscriptionTimeout(nil), http.StatusGatewayTimeout},
		{"transcription failed", apperr.TranscriptionFailed(nil), http.StatusUnprocessableEntity},
		{"interpreter unavailable", apperr.InterpreterUnavailable(nil), http.StatusServiceUnavailable},
		{"rate limited", apperr.RateLimitExceeded("slow down"), http.StatusTooManyRequests},
		{"unclassified", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, assistantError(c, tt.err))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestConvertTurnResult(t *testing.T) {
	result := &assistant.TurnResult{
		ConversationID: 7,
		Transcript:     "add milk to my list",
		Reply:          "Task added.",
		Action: &assistant.Action{
			Type:       assistant.ActionCreateTask,
			CreateTask: &assistant.CreateTaskArgs{Title: "add milk to my list"},
		},
		Audio: []byte{0x52, 0x49, 0x46, 0x46},
	}

	response := convertTurnResult(result)
	assert.Equal(t, int32(7), response.ConversationID)
	assert.Equal(t, "Task added.", response.Reply)
	assert.Equal(t, string(assistant.ActionCreateTask), response.Action)
	assert.Equal(t, "UklGRg==", response.Audio)
	assert.Empty(t, response.ActionError)
}

func TestConvertTurnResultWithoutAction(t *testing.T) {
	response := convertTurnResult(&assistant.TurnResult{
		ConversationID: 1,
		Reply:          "I didn't catch that.",
	})
	assert.Empty(t, response.Action)
	assert.Empty(t, response.Audio)
}
