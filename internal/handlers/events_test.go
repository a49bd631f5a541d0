package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"session_auth/internal/models"
	"session_auth/internal/service"

	"github.com/gin-gonic/gin"
)

// loginCookie logs in through the router and returns the session cookie.
func loginCookie(t *testing.T, r *gin.Engine, username string) *http.Cookie {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/login", `{"username":"`+username+`","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}
	c := sessionCookie(w.Result())
	if c == nil {
		t.Fatalf("login did not set a cookie")
	}
	return c
}

func TestEventsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.AuthEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventLogin, Username: "alice"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventLogout, Username: "alice"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{loginSID: "sid-1"}, EventLog: logs})
	cookie := loginCookie(t, r, "alice")

	w := doJSON(r, http.MethodGet, "/events?from=notatime", "", cookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	q := "/events?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&type=logout"
	w = doJSON(r, http.MethodGet, q, "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("events status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                `json:"count"`
		Events []models.AuthEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastF.Username != "alice" {
		t.Fatalf("events must be scoped to the caller, got %q", logs.lastF.Username)
	}
	if logs.lastF.Type != "logout" {
		t.Fatalf("type passed through for normalization, got %q", logs.lastF.Type)
	}
	if !logs.lastF.From.Equal(now) {
		t.Fatalf("from=%v want %v", logs.lastF.From, now)
	}
}

func TestEventsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{loginSID: "sid-1"}, EventLog: logs})
	cookie := loginCookie(t, r, "alice")

	w := doJSON(r, http.MethodGet, "/events?to=2025-08-31", "", cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2025, 8, 31, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastF.To.Equal(want) {
		t.Fatalf("to=%v want %v", logs.lastF.To, want)
	}
}

func TestEventsHandler_Errors(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		logs := &mockEventLog{}
		r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})
		w := doJSON(r, http.MethodGet, "/events", "")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status=%d", w.Code)
		}
		if logs.calls != 0 {
			t.Fatalf("event log should not be queried")
		}
	})

	t.Run("invalid range", func(t *testing.T) {
		logs := &mockEventLog{}
		r := newTestRouter(&service.Service{Authorization: &mockAuth{loginSID: "sid-1"}, EventLog: logs})
		cookie := loginCookie(t, r, "alice")
		w := doJSON(r, http.MethodGet, "/events?from=2025-02-01&to=2025-01-01", "", cookie)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		if got := errorField(t, w); got != errRangeInvalid {
			t.Fatalf("error=%q", got)
		}
		if logs.calls != 0 {
			t.Fatalf("event log should not be queried")
		}
	})

	t.Run("repo failure", func(t *testing.T) {
		logs := &mockEventLog{err: errors.New("db down")}
		r := newTestRouter(&service.Service{Authorization: &mockAuth{loginSID: "sid-1"}, EventLog: logs})
		cookie := loginCookie(t, r, "alice")
		w := doJSON(r, http.MethodGet, "/events", "", cookie)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status=%d", w.Code)
		}
	})
}

func TestParseQueryTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-08-27T15:04:05Z", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27T15:04:05+02:00", time.Date(2025, 8, 27, 13, 4, 5, 0, time.UTC), true},
		{"2025-08-27 15:04:05", time.Date(2025, 8, 27, 15, 4, 5, 0, time.UTC), true},
		{"2025-08-27", time.Date(2025, 8, 27, 0, 0, 0, 0, time.UTC), true},
		{"27/08/2025", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseQueryTime(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("parseQueryTime(%q) err=%v", tc.in, err)
		}
		if tc.ok && !got.Equal(tc.want) {
			t.Fatalf("parseQueryTime(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}
