package integration

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func avatarUpload(t *testing.T, client *http.Client, url, access string, payload []byte) (*http.Response, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "avatar.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+access)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

func TestProfileUpdateAndDelete(t *testing.T) {
	baseURL, client, notifier, closeFn := newAuthTestServer(t)
	defer closeFn()

	_, access := registerAndVerify(t, client, notifier, baseURL, "profile@example.com")
	auth := map[string]string{"Authorization": "Bearer " + access}

	resp, body := doJSON(t, client, http.MethodPatch, baseURL+"/users/me", map[string]any{
		"full_name": "Updated Name",
		"phone":     "+15551234567",
	}, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update failed: status=%d body=%s", resp.StatusCode, body)
	}
	var updated struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
	}
	mustDecode(t, body, &updated)
	if updated.FullName != "Updated Name" || updated.Phone != "+15551234567" {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}
	// Fields absent from the request stay untouched.
	if updated.Username != "profile" {
		t.Fatalf("username should be unchanged, got %q", updated.Username)
	}

	resp, _ = doJSON(t, client, http.MethodDelete, baseURL+"/users/me", nil, auth)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete failed: status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodGet, baseURL+"/users/me", nil, auth)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted account, got %d", resp.StatusCode)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	baseURL, client, _, closeFn := newAuthTestServer(t)
	defer closeFn()

	resp, body := doJSON(t, client, http.MethodGet, baseURL+"/users/me", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if errorDetail(t, body) != "missing access token" {
		t.Fatalf("unexpected detail: %s", body)
	}

	resp, _ = doJSON(t, client, http.MethodGet, baseURL+"/users/me", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a bad token, got %d", resp.StatusCode)
	}
}

func TestAvatarUploadAndDelete(t *testing.T) {
	baseURL, client, notifier, closeFn := newAuthTestServer(t)
	defer closeFn()

	_, access := registerAndVerify(t, client, notifier, baseURL, "avatar@example.com")
	auth := map[string]string{"Authorization": "Bearer " + access}

	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 128)...)
	resp, body := avatarUpload(t, client, baseURL+"/users/me/avatar", access, payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload failed: status=%d body=%s", resp.StatusCode, body)
	}
	var uploaded struct {
		AvatarURL string `json:"avatar_url"`
	}
	mustDecode(t, body, &uploaded)
	if uploaded.AvatarURL == "" {
		t.Fatal("expected avatar url after upload")
	}

	// The profile read resolves the stored key to a URL.
	resp, body = doJSON(t, client, http.MethodGet, baseURL+"/users/me", nil, auth)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me failed: status=%d body=%s", resp.StatusCode, body)
	}
	var me struct {
		AvatarURL string `json:"avatar_url"`
	}
	mustDecode(t, body, &me)
	if !strings.HasPrefix(me.AvatarURL, "http://") {
		t.Fatalf("expected resolved avatar url, got %q", me.AvatarURL)
	}

	resp, _ = doJSON(t, client, http.MethodDelete, baseURL+"/users/me/avatar", nil, auth)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("avatar delete failed: status=%d", resp.StatusCode)
	}

	// Deleting an already absent avatar stays a no-op.
	resp, _ = doJSON(t, client, http.MethodDelete, baseURL+"/users/me/avatar", nil, auth)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second avatar delete should succeed, got %d", resp.StatusCode)
	}
}

func TestAvatarUploadRejectsWrongType(t *testing.T) {
	baseURL, client, notifier, closeFn := newAuthTestServer(t)
	defer closeFn()

	_, access := registerAndVerify(t, client, notifier, baseURL, "badavatar@example.com")

	resp, body := avatarUpload(t, client, baseURL+"/users/me/avatar", access, []byte("plain text, not an image"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-image upload, got %d body=%s", resp.StatusCode, body)
	}
	if errorDetail(t, body) != "unsupported avatar file type" {
		t.Fatalf("unexpected detail: %s", body)
	}
}
