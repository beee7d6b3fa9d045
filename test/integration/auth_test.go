package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/plume-dev/plume/pkg/api"
)

func TestSignupAndLogin(t *testing.T) {
	user, password := signupUser(t)
	if user.ID == 0 {
		t.Fatal("signup did not assign an ID")
	}

	token := loginUser(t, user.Email, password)

	// The token works against a protected route.
	resp := authedJSON(t, http.MethodPost, testEnv.BaseURL()+"/api/v1/posts", token, map[string]any{
		"title": "First", "body": "post", "user_id": user.ID,
	})
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSignupDoesNotLeakDigest(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/v1/users", map[string]any{
		"name":     "Leak Check",
		"username": "leakcheck",
		"email":    "leakcheck@example.com",
		"password": "super-secret",
	})
	wantStatus(t, resp, http.StatusOK)

	body := readBody(t, resp)
	if strings.Contains(body, "password") || strings.Contains(body, "$2a$") {
		t.Errorf("signup response leaks credential material: %s", body)
	}
}

func TestLoginViaForm(t *testing.T) {
	user, password := signupUser(t)

	resp := loginForm(t, user.Email, password)
	wantStatus(t, resp, http.StatusOK)

	var login api.LoginResponse
	decodeJSON(t, resp, &login)
	if login.Token == "" {
		t.Fatal("form login returned an empty token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user, _ := signupUser(t)

	resp := postJSON(t, testEnv.BaseURL()+"/api/v1/login", map[string]any{
		"email": user.Email, "password": "wrong",
	})
	wantEnvelope(t, resp, http.StatusUnauthorized, "not_authorized")
}

func TestLoginUnknownAccount(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/v1/login", map[string]any{
		"email": "nobody@example.com", "password": "whatever",
	})
	wantEnvelope(t, resp, http.StatusUnauthorized, "not_authorized")
}

func TestLoginMissingFields(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/v1/login", map[string]any{
		"email": "nobody@example.com",
	})
	wantEnvelope(t, resp, http.StatusBadRequest, "bad_request")
}

func TestProtectedRouteWithoutHeader(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/api/v1/posts", map[string]any{
		"title": "t", "body": "b",
	})
	wantEnvelope(t, resp, http.StatusBadRequest, "bad_request")
}

func TestProtectedRouteUnknownScheme(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/api/v1/posts", nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Authorization", "Digest abc123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	wantEnvelope(t, resp, http.StatusBadRequest, "bad_request")
}

func TestProtectedRouteBadToken(t *testing.T) {
	resp := authedJSON(t, http.MethodPost, testEnv.BaseURL()+"/api/v1/posts", "not-a-jwt", map[string]any{
		"title": "t", "body": "b",
	})
	wantEnvelope(t, resp, http.StatusUnauthorized, "not_authorized")
}

func TestTokenDiesWithAccount(t *testing.T) {
	user, password := signupUser(t)
	token := loginUser(t, user.Email, password)

	resp := authedJSON(t, http.MethodDelete,
		testEnv.BaseURL()+"/api/v1/users/"+itoa(user.ID), token, nil)
	wantStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = authedJSON(t, http.MethodPost, testEnv.BaseURL()+"/api/v1/posts", token, map[string]any{
		"title": "t", "body": "b",
	})
	wantEnvelope(t, resp, http.StatusUnauthorized, "not_authorized")
}

func TestBasicCredentialsOnProtectedRoute(t *testing.T) {
	user, password := signupUser(t)

	req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/api/v1/posts", strings.NewReader(
		`{"title":"basic","body":"auth","user_id":`+itoa(user.ID)+`}`))
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.SetBasicAuth(user.Email, password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
