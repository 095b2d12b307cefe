//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type session struct {
	User struct {
		ID   int    `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func TestHiringFlow(t *testing.T) {
	suffix := time.Now().UnixNano()
	recruiter := register(t, fmt.Sprintf("rec_%d@example.com", suffix), "RECRUITER")
	seeker := register(t, fmt.Sprintf("seek_%d@example.com", suffix), "USER")

	status, env := call(t, http.MethodPost, "/api/jobs", seeker.AccessToken, map[string]any{
		"title": "Go Engineer", "description": "x", "company": "Acme", "location": "Remote",
	})
	assert.Equal(t, http.StatusForbidden, status, env.Message)

	status, env = call(t, http.MethodPost, "/api/jobs", recruiter.AccessToken, map[string]any{
		"title":       "Go Engineer",
		"description": "Build services",
		"company":     "Acme",
		"location":    "Remote",
		"skills":      []string{"Go", "go", "SQL"},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var job struct {
		ID     int      `json:"id"`
		Skills []string `json:"skills"`
		Status string   `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &job))
	assert.Equal(t, "OPEN", job.Status)
	assert.Equal(t, []string{"Go", "SQL"}, job.Skills)

	status, env = upload(t, fmt.Sprintf("/api/jobs/%d/apply", job.ID), seeker.AccessToken, minimalPDF())
	require.Equal(t, http.StatusCreated, status, env.Message)
	var app struct {
		ID         int    `json:"id"`
		ResumeFile string `json:"resumeFile"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &app))
	require.NotEmpty(t, app.ResumeFile)

	status, env = call(t, http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply", job.ID), seeker.AccessToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already applied for this job.", env.Message)

	status, env = call(t, http.MethodPatch, fmt.Sprintf("/api/jobs/applications/%d/status", app.ID), recruiter.AccessToken, map[string]any{"status": "REVIEWED"})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, http.MethodGet, "/api/users/applications", seeker.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var mine []struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "REVIEWED", mine[0].Status)

	status, env = call(t, http.MethodGet, "/api/uploads/"+app.ResumeFile, recruiter.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status, env.Message)
}

func TestChatHistory(t *testing.T) {
	suffix := time.Now().UnixNano()
	alice := register(t, fmt.Sprintf("alice_%d@example.com", suffix), "USER")
	bob := register(t, fmt.Sprintf("bob_%d@example.com", suffix), "RECRUITER")

	for _, text := range []string{"hi", "are you hiring?"} {
		status, env := call(t, http.MethodPost, "/api/chat/send", alice.AccessToken, map[string]any{
			"receiverId": bob.User.ID, "message": text,
		})
		require.Equal(t, http.StatusCreated, status, env.Message)
	}

	status, env := call(t, http.MethodGet, fmt.Sprintf("/api/chat/history/%d", alice.User.ID), bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var history struct {
		Messages []struct {
			Message string `json:"message"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "hi", history.Messages[0].Message)

	status, env = call(t, http.MethodGet, "/api/chat/conversations", bob.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
	var conversations []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &conversations))
	assert.Len(t, conversations, 1)
}

func TestRefreshAndResumes(t *testing.T) {
	user := register(t, fmt.Sprintf("res_%d@example.com", time.Now().UnixNano()), "USER")

	status, env := call(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": user.RefreshToken})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, http.MethodPost, "/api/auth/refresh", "", map[string]any{"refreshToken": user.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = call(t, http.MethodPost, "/api/resumes", user.AccessToken, map[string]any{
		"title":   "Backend",
		"content": map[string]any{"personalInfo": map[string]any{"fullName": "Ada"}},
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var resume struct {
		ID int `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resume))

	other := register(t, fmt.Sprintf("res2_%d@example.com", time.Now().UnixNano()), "USER")
	status, _ = call(t, http.MethodGet, fmt.Sprintf("/api/resumes/%d", resume.ID), other.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, http.MethodDelete, fmt.Sprintf("/api/resumes/%d", resume.ID), user.AccessToken, nil)
	require.Equal(t, http.StatusOK, status, env.Message)
}

func register(t *testing.T, email, role string) session {
	t.Helper()
	status, env := call(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Test User", "email": email, "password": "secret123", "role": role,
	})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var s session
	require.NoError(t, json.Unmarshal(env.Data, &s))
	require.NotEmpty(t, s.AccessToken)
	return s
}

func call(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, baseURL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, req, token)
}

func upload(t *testing.T, path, token string, pdf []byte) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("resume", "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write(pdf)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return send(t, req, token)
}

func send(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, env
}

// minimalPDF builds a one-page document with a correct xref table.
func minimalPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
