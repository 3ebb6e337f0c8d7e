package survey_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GeoControl/GC-Backend/internal/auth"
	"github.com/GeoControl/GC-Backend/internal/db"
	"github.com/GeoControl/GC-Backend/internal/survey"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// newSurveyServer mounts the survey routes the way main.go does and returns
// the test server plus a session cookie for a fresh operator user.
func newSurveyServer(t *testing.T) (*httptest.Server, *http.Cookie) {
	t.Helper()
	if !dbAvailable {
		t.Skip("skipping integration test (requires DATABASE_URL)")
	}

	user := auth.User{
		UserID:         uuid.NewString(),
		Username:       "testop_" + uuid.New().String()[:8],
		HashedPassword: "not-a-real-hash",
		Role:           "operator",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	session := auth.Session{
		SessionID: uuid.NewString(),
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.DB.Create(&session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}

	t.Cleanup(func() {
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.Session{})
		db.DB.Where("user_id = ?", user.UserID).Delete(&auth.User{})
	})

	r := chi.NewRouter()
	r.Mount("/survey", survey.SetupRoutes())
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return server, &http.Cookie{Name: "session_id", Value: session.SessionID}
}

func multipartCSV(t *testing.T, field, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, "puntos.csv")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func postUpload(t *testing.T, server *httptest.Server, cookie *http.Cookie, projectID string, body *bytes.Buffer, contentType string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, server.URL+"/survey/projects/"+projectID+"/upload", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("invalid JSON body: %s", raw)
	}
	return resp.StatusCode, payload
}

// TestUploadEndpoint verifies the full HTTP path: multipart upload in, run
// summary envelope out.
func TestUploadEndpoint(t *testing.T) {
	server, cookie := newSurveyServer(t)
	project := createTestProject(t)

	body, contentType := multipartCSV(t, "csv_file", "P1,100.123,200.456,10.0,2023/07/31\nP1,100.200,200.500,10.1,2023/08/04\n")
	code, payload := postUpload(t, server, cookie, project.ID, body, contentType)

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d; payload: %v", code, payload)
	}
	if payload["status"] != "success" {
		t.Fatalf("expected success envelope, got %v", payload)
	}
	if payload["count"] != float64(2) {
		t.Errorf("expected count 2, got %v", payload["count"])
	}
	if payload["campaigns"] != float64(2) {
		t.Errorf("expected campaigns 2, got %v", payload["campaigns"])
	}
	dates, ok := payload["dates_processed"].([]any)
	if !ok || len(dates) != 2 || dates[0] != "2023-07-31" || dates[1] != "2023-08-04" {
		t.Errorf("expected ascending dates_processed, got %v", payload["dates_processed"])
	}
}

// TestUploadEndpoint_MissingFile verifies the no-file case reports through
// the error envelope without touching storage.
func TestUploadEndpoint_MissingFile(t *testing.T) {
	server, cookie := newSurveyServer(t)
	project := createTestProject(t)

	body, contentType := multipartCSV(t, "", "")
	code, payload := postUpload(t, server, cookie, project.ID, body, contentType)

	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
	if payload["status"] != "error" {
		t.Errorf("expected error envelope, got %v", payload)
	}
	if n := measurementCount(t, project.ID); n != 0 {
		t.Errorf("expected no measurements written, got %d", n)
	}
}

// TestUploadEndpoint_RequiresSession verifies the route sits behind the
// session middleware.
func TestUploadEndpoint_RequiresSession(t *testing.T) {
	server, _ := newSurveyServer(t)
	project := createTestProject(t)

	body, contentType := multipartCSV(t, "csv_file", "P1,1.0,2.0,3.0,2023-07-31\n")
	req, err := http.NewRequest(http.MethodPost, server.URL+"/survey/projects/"+project.ID+"/upload", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without session cookie, got %d", resp.StatusCode)
	}
}
