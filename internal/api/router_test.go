package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-api/internal/core/service"
	"github.com/carelink/healthcare-api/internal/infrastructure/db/memory"
	"github.com/carelink/healthcare-api/internal/infrastructure/http/handlers"
)

func newTestRouter(t *testing.T, checks ...handlers.Check) *echo.Echo {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	tokens := service.NewTokenIssuer("test-secret", time.Minute, time.Hour)

	return NewRouter(Dependencies{
		Auth:     service.NewAuthService(store.Users(), tokens, store.Tokens(), log),
		Verifier: tokens,
		Patients: service.NewPatientService(store.Patients(), store.Mappings(), store, log),
		Doctors:  service.NewDoctorService(store.Doctors(), store.Mappings(), store, log),
		Mappings: service.NewMappingService(store.Mappings(), store.Patients(), store.Doctors(), store, log),
		Checks:   checks,
		Logger:   log,
	})
}

type client struct {
	t     *testing.T
	e     *echo.Echo
	token string
}

func (c *client) do(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if c.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func (c *client) expect(method, path, body string, code int, out any) {
	c.t.Helper()
	rec := c.do(method, path, body)
	if rec.Code != code {
		c.t.Fatalf("%s %s: expected %d, got %d: %s", method, path, code, rec.Code, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			c.t.Fatalf("%s %s: invalid json: %v", method, path, err)
		}
	}
}

// signup registers username and returns a client holding its access token
// and the refresh token.
func signup(t *testing.T, e *echo.Echo, username string) (*client, string) {
	t.Helper()
	anon := &client{t: t, e: e}
	anon.expect(http.MethodPost, "/auth/register",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"pw-`+username+`"}`,
		http.StatusCreated, nil)

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	anon.expect(http.MethodPost, "/auth/login",
		`{"username":"`+username+`","password":"pw-`+username+`"}`, http.StatusOK, &tokens)
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Fatalf("login returned no tokens: %+v", tokens)
	}
	return &client{t: t, e: e, token: tokens.Access}, tokens.Refresh
}

type idBody struct {
	ID string `json:"id"`
}

type listBody struct {
	Data []struct {
		ID        string `json:"id"`
		PatientID string `json:"patient_id"`
		DoctorID  string `json:"doctor_id"`
	} `json:"data"`
	Pagination struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int   `json:"total_pages"`
	} `json:"pagination"`
}

func TestRouter_EndToEndMappingScoping(t *testing.T) {
	e := newTestRouter(t)
	u1, _ := signup(t, e, "u1")
	u2, _ := signup(t, e, "u2")

	var p1, d1, m1 idBody
	u1.expect(http.MethodPost, "/v1/patients", `{"name":"P1","age":30}`, http.StatusCreated, &p1)
	u1.expect(http.MethodPost, "/v1/doctors",
		`{"name":"D1","specialization":"Cardiology","email":"d1@example.com"}`, http.StatusCreated, &d1)
	u1.expect(http.MethodPost, "/v1/mappings",
		`{"patient_id":"`+p1.ID+`","doctor_id":"`+d1.ID+`"}`, http.StatusCreated, &m1)

	var own listBody
	u1.expect(http.MethodGet, "/v1/mappings?patient_id="+p1.ID, "", http.StatusOK, &own)
	if len(own.Data) != 1 || own.Data[0].ID != m1.ID {
		t.Fatalf("u1 expected exactly one mapping, got %+v", own.Data)
	}
	if own.Data[0].PatientID != p1.ID || own.Data[0].DoctorID != d1.ID {
		t.Errorf("unexpected mapping: %+v", own.Data[0])
	}

	var other listBody
	u2.expect(http.MethodGet, "/v1/mappings?patient_id="+p1.ID, "", http.StatusOK, &other)
	if len(other.Data) != 0 || other.Pagination.Total != 0 {
		t.Fatalf("u2 expected no mappings, got %+v", other)
	}

	// u2 sees the doctor but not the patient.
	u2.expect(http.MethodGet, "/v1/doctors/"+d1.ID, "", http.StatusOK, nil)
	u2.expect(http.MethodGet, "/v1/patients/"+p1.ID, "", http.StatusNotFound, nil)
	u2.expect(http.MethodGet, "/v1/mappings/"+m1.ID, "", http.StatusNotFound, nil)
	u2.expect(http.MethodPost, "/v1/mappings",
		`{"patient_id":"`+p1.ID+`","doctor_id":"`+d1.ID+`"}`, http.StatusUnprocessableEntity, nil)

	// Duplicate assignment is a conflict.
	u1.expect(http.MethodPost, "/v1/mappings",
		`{"patient_id":"`+p1.ID+`","doctor_id":"`+d1.ID+`"}`, http.StatusConflict, nil)

	// Deleting the patient removes its mappings.
	u1.expect(http.MethodDelete, "/v1/patients/"+p1.ID, "", http.StatusNoContent, nil)
	var after listBody
	u1.expect(http.MethodGet, "/v1/mappings", "", http.StatusOK, &after)
	if len(after.Data) != 0 {
		t.Fatalf("mappings survived patient delete: %+v", after.Data)
	}
	u1.expect(http.MethodGet, "/v1/mappings/"+m1.ID, "", http.StatusNotFound, nil)
}

func TestRouter_PatientListIsolation(t *testing.T) {
	e := newTestRouter(t)
	a, _ := signup(t, e, "alice")
	b, _ := signup(t, e, "bob")

	a.expect(http.MethodPost, "/v1/patients", `{"name":"A1","age":1}`, http.StatusCreated, nil)
	a.expect(http.MethodPost, "/v1/patients", `{"name":"A2","age":2}`, http.StatusCreated, nil)
	b.expect(http.MethodPost, "/v1/patients", `{"name":"B1","age":3}`, http.StatusCreated, nil)

	var la, lb listBody
	a.expect(http.MethodGet, "/v1/patients", "", http.StatusOK, &la)
	b.expect(http.MethodGet, "/v1/patients?limit=500", "", http.StatusOK, &lb)

	if la.Pagination.Total != 2 || len(la.Data) != 2 {
		t.Errorf("alice expected 2 patients, got %+v", la.Pagination)
	}
	if lb.Pagination.Total != 1 || lb.Pagination.Limit != 100 {
		t.Errorf("bob expected 1 patient with capped limit, got %+v", lb.Pagination)
	}
}

func TestRouter_Unauthenticated(t *testing.T) {
	e := newTestRouter(t)
	anon := &client{t: t, e: e}

	for _, path := range []string{"/v1/patients", "/v1/doctors", "/v1/mappings", "/auth/me"} {
		rec := anon.do(http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
			t.Errorf("GET %s: expected error envelope, got %q", path, rec.Body.String())
		}
	}

	bogus := &client{t: t, e: e, token: "not-a-jwt"}
	bogus.expect(http.MethodGet, "/v1/patients", "", http.StatusUnauthorized, nil)
}

func TestRouter_RefreshTokenIsNotABearerCredential(t *testing.T) {
	e := newTestRouter(t)
	_, refresh := signup(t, e, "carol")

	withRefresh := &client{t: t, e: e, token: refresh}
	withRefresh.expect(http.MethodGet, "/v1/patients", "", http.StatusUnauthorized, nil)
}

func TestRouter_RefreshAndLogout(t *testing.T) {
	e := newTestRouter(t)
	c, refresh := signup(t, e, "dave")
	anon := &client{t: t, e: e}

	var refreshed struct {
		Access string `json:"access"`
	}
	anon.expect(http.MethodPost, "/auth/refresh", `{"refresh":"`+refresh+`"}`, http.StatusOK, &refreshed)
	if refreshed.Access == "" {
		t.Fatal("expected a new access token")
	}
	(&client{t: t, e: e, token: refreshed.Access}).expect(http.MethodGet, "/auth/me", "", http.StatusOK, nil)

	c.expect(http.MethodPost, "/auth/logout", `{"refresh":"`+refresh+`"}`, http.StatusNoContent, nil)
	anon.expect(http.MethodPost, "/auth/refresh", `{"refresh":"`+refresh+`"}`, http.StatusUnauthorized, nil)
}

func TestRouter_AuthErrors(t *testing.T) {
	e := newTestRouter(t)
	signup(t, e, "erin")
	anon := &client{t: t, e: e}

	anon.expect(http.MethodPost, "/auth/register",
		`{"username":"erin","email":"erin@example.com","password":"x"}`, http.StatusConflict, nil)
	anon.expect(http.MethodPost, "/auth/login", `{"username":"erin","password":"wrong"}`, http.StatusUnauthorized, nil)
	anon.expect(http.MethodPost, "/auth/login", `{"username":"nobody","password":"x"}`, http.StatusUnauthorized, nil)
	anon.expect(http.MethodPost, "/auth/login", `{"username":`, http.StatusBadRequest, nil)
	anon.expect(http.MethodPost, "/auth/register", `{"username":"frank"}`, http.StatusUnprocessableEntity, nil)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	down := handlers.PingFunc(func(context.Context) error { return errors.New("unreachable") })
	e := newTestRouter(t, handlers.Check{Name: "redis", Pinger: down})
	anon := &client{t: t, e: e}

	anon.expect(http.MethodGet, "/health", "", http.StatusOK, nil)
	anon.expect(http.MethodGet, "/health/ready", "", http.StatusServiceUnavailable, nil)

	rec := anon.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthcare_http_requests_total") {
		t.Error("expected request counter in exposition")
	}
}
