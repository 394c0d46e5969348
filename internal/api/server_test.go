package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"parceldesk/internal/models"
	"parceldesk/internal/repository/memory"
	"parceldesk/internal/service"
	"parceldesk/pkg/logger"
)

type testNotifier struct {
	sent map[int64][]string
}

func (n *testNotifier) SendMessage(chatID int64, text string) error {
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

// Helper to create a test server backed by the in-memory store.
func newTestServer(t *testing.T) (*Server, *memory.Store, *testNotifier) {
	t.Helper()

	store := memory.NewStore()
	store.SeedAdmin("frontdesk", "OpenSesame1!")

	log := logger.New("fatal", "text")
	svc := service.New(log, store.Packages(), store.Residents(), store.Admins(), service.Options{})
	notifier := &testNotifier{sent: make(map[int64][]string)}
	svc.SetNotifier(notifier)

	srv := NewServer(svc, nil, nil, log, Options{JWTSecret: "test-secret"})
	return srv, store, notifier
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server) string {
	t.Helper()

	rec := doRequest(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"username": "frontdesk",
		"password": "OpenSesame1!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return resp.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response %q: %v", rec.Body.String(), err)
	}
	return resp.Error.Code
}

func TestLoginAndAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"username": "frontdesk",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "bad_credentials" {
		t.Errorf("expected bad_credentials, got %q", code)
	}

	token := login(t, srv)

	rec = doRequest(t, srv, http.MethodGet, "/api/packages", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/packages", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a token, got %d: %s", rec.Code, rec.Body.String())
	}

	// GET requests may carry the token as a query parameter instead.
	rec = doRequest(t, srv, http.MethodGet, "/api/packages?token="+token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a query token, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/packages", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a garbage token, got %d", rec.Code)
	}
}

func TestPackageLifecycleOverHTTP(t *testing.T) {
	srv, _, _ := newTestServer(t)
	token := login(t, srv)

	// Invalid household IDs never reach the sheet.
	rec := doRequest(t, srv, http.MethodPost, "/api/packages", token, logPackageRequest{
		Barcode:     "JD9001",
		HouseholdID: "25-A-1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid household, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_household" {
		t.Errorf("expected invalid_household, got %q", code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/packages", token, logPackageRequest{
		Barcode:     "JD9001",
		HouseholdID: "12-B-3",
		Recipient:   "Mrs. Tan",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var pkg models.Package
	if err := json.NewDecoder(rec.Body).Decode(&pkg); err != nil {
		t.Fatalf("decode package: %v", err)
	}
	if pkg.ID == "" || pkg.Status != models.PackageStatusPending {
		t.Fatalf("unexpected package: %+v", pkg)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/packages", token, logPackageRequest{
		Barcode:     "JD9001",
		HouseholdID: "3-A-1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate barcode, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/packages?household_id=12-B-3&status=pending", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed []models.Package
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode package list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 package, got %d", len(listed))
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/packages/"+pkg.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/packages/no-such-id", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestPickupFlowOverHTTP(t *testing.T) {
	srv, store, notifier := newTestServer(t)
	ctx := context.Background()
	token := login(t, srv)

	rec := doRequest(t, srv, http.MethodPost, "/api/packages", token, logPackageRequest{
		Barcode:     "JD9002",
		HouseholdID: "12-B-3",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var pkg models.Package
	if err := json.NewDecoder(rec.Body).Decode(&pkg); err != nil {
		t.Fatalf("decode package: %v", err)
	}

	// No resident is linked to the household yet.
	rec = doRequest(t, srv, http.MethodPost, "/api/packages/"+pkg.ID+"/code", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without residents, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != "no_linked_resident" {
		t.Errorf("expected no_linked_resident, got %q", code)
	}

	if _, err := store.Residents().Upsert(ctx, &models.Resident{
		ChatID:      100,
		HouseholdID: "12-B-3",
		Name:        "Alice",
		JoinedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed resident: %v", err)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/packages/"+pkg.ID+"/code", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var issued map[string]time.Time
	if err := json.NewDecoder(rec.Body).Decode(&issued); err != nil {
		t.Fatalf("decode issue response: %v", err)
	}
	if issued["expires_at"].IsZero() {
		t.Fatal("expected an expiry timestamp")
	}
	if len(notifier.sent[100]) == 0 {
		t.Fatal("resident never received the code")
	}

	// The issue response must not leak the code.
	stored, err := store.Packages().GetByID(ctx, pkg.ID)
	if err != nil {
		t.Fatalf("load package: %v", err)
	}
	code, _, ok := stored.PickupCodeParts()
	if !ok {
		t.Fatal("no code stored on the package")
	}
	if strings.Contains(fmt.Sprintf("%v", issued), code) {
		t.Fatal("issue response leaked the pickup code")
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	rec = doRequest(t, srv, http.MethodPost, "/api/packages/"+pkg.ID+"/pickup", token, confirmPickupRequest{
		Code:      wrong,
		Signature: "data:image/png;base64,aGk=",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a wrong code, got %d", rec.Code)
	}
	if got := errorCode(t, rec); got != "code_mismatch" {
		t.Errorf("expected code_mismatch, got %q", got)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/packages/"+pkg.ID+"/pickup", token, confirmPickupRequest{
		Code:      code,
		Signature: "data:image/png;base64,aGk=",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var picked models.Package
	if err := json.NewDecoder(rec.Body).Decode(&picked); err != nil {
		t.Fatalf("decode picked package: %v", err)
	}
	if picked.Status != models.PackageStatusPickedUp || picked.PickedUpAt == nil {
		t.Fatalf("unexpected state after pickup: %+v", picked)
	}

	// The pickup record is permanent.
	rec = doRequest(t, srv, http.MethodDelete, "/api/packages/"+pkg.ID, token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 deleting a picked-up package, got %d", rec.Code)
	}
}

func TestResidentAndHouseholdEndpoints(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()
	token := login(t, srv)

	for chatID, household := range map[int64]string{100: "12-B-3", 200: "12-B-3", 300: "3-A-1"} {
		if _, err := store.Residents().Upsert(ctx, &models.Resident{
			ChatID:      chatID,
			HouseholdID: household,
			JoinedAt:    time.Now().UTC(),
		}); err != nil {
			t.Fatalf("seed resident: %v", err)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/residents?household_id=12-B-3", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var residents []models.Resident
	if err := json.NewDecoder(rec.Body).Decode(&residents); err != nil {
		t.Fatalf("decode residents: %v", err)
	}
	if len(residents) != 2 {
		t.Fatalf("expected 2 residents, got %d", len(residents))
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/residents/300", token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/residents/300", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown resident, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/residents/abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non-numeric chat id, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/households", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var households []service.HouseholdStats
	if err := json.NewDecoder(rec.Body).Decode(&households); err != nil {
		t.Fatalf("decode households: %v", err)
	}
	if len(households) != 1 {
		t.Fatalf("expected 1 household left, got %d", len(households))
	}
	if households[0].Residents != 2 {
		t.Errorf("expected 2 residents in %s, got %d", households[0].HouseholdID, households[0].Residents)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/households/12-G-3", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed household id, got %d", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/households/12-B-3", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOpenAndGuardedEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
	var health map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if health["ok"] != true {
		t.Errorf("unexpected healthz body: %v", health)
	}

	rec = doRequest(t, srv, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", rec.Code)
	}

	// No bot is attached in tests.
	rec = doRequest(t, srv, http.MethodPost, "/telegram/webhook", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from the webhook without a bot, got %d", rec.Code)
	}

	// No hub is attached either; auth must still run first.
	rec = doRequest(t, srv, http.MethodGet, "/api/ws", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 from /api/ws without a token, got %d", rec.Code)
	}
	token := login(t, srv)
	rec = doRequest(t, srv, http.MethodGet, "/api/ws?token="+token, "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from /api/ws without a hub, got %d", rec.Code)
	}
}

func TestWebhookSecretCheck(t *testing.T) {
	store := memory.NewStore()
	log := logger.New("fatal", "text")
	svc := service.New(log, store.Packages(), store.Residents(), store.Admins(), service.Options{})

	received := false
	bot := webhookFunc(func(w http.ResponseWriter, r *http.Request) {
		received = true
		w.WriteHeader(http.StatusOK)
	})
	srv := NewServer(svc, nil, bot, log, Options{JWTSecret: "test-secret", WebhookSecret: "hook-secret"})

	req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without the secret header, got %d", rec.Code)
	}
	if received {
		t.Fatal("update reached the bot without the secret")
	}

	req = httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader("{}"))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "hook-secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with the secret header, got %d", rec.Code)
	}
	if !received {
		t.Fatal("update never reached the bot")
	}
}

type webhookFunc func(w http.ResponseWriter, r *http.Request)

func (f webhookFunc) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	f(w, r)
}
