package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/radieske/ova-3d-platform/internal/lottery-service/auth"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/repo"
	"github.com/radieske/ova-3d-platform/internal/lottery-service/service"
)

type harness struct {
	t       *testing.T
	h       http.Handler
	metrics *Metrics
	store   *repo.Memory
	tokens  auth.JWT
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repo.NewMemory()
	tokens := auth.JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}
	svc := service.New(zap.NewNop(), store, nil, nil, nil, tokens)
	m := NewMetrics(prometheus.NewRegistry())
	return &harness{t: t, h: NewServer(zap.NewNop(), svc, tokens, m).Router(), metrics: m, store: store, tokens: tokens}
}

func (h *harness) user(username, password, role string) repo.User {
	h.t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		h.t.Fatal(err)
	}
	u, err := h.store.CreateUser(context.Background(), username, hash, role)
	if err != nil {
		h.t.Fatal(err)
	}
	return u
}

func (h *harness) token(u repo.User) string {
	h.t.Helper()
	tok, _, err := h.tokens.Sign(auth.Principal{UserID: u.ID, Username: u.Username, Role: u.Role})
	if err != nil {
		h.t.Fatal(err)
	}
	return tok
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type phaseEnvelope struct {
	Phase struct {
		ID          string `json:"id"`
		State       string `json:"state"`
		TotalBets   int    `json:"totalBets"`
		TotalVolume string `json:"totalVolume"`
	} `json:"phase"`
}

func (h *harness) createPhase(token, name string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/phases", token, map[string]any{"name": name})
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("create phase: status=%d body=%s", rec.Code, rec.Body)
	}
	return decodeBody[phaseEnvelope](h.t, rec).Phase.ID
}

func TestLoginAndMe(t *testing.T) {
	h := newHarness(t)
	h.user("admin", "secret", repo.RoleAdmin)

	rec := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	sess := decodeBody[struct {
		Token string `json:"token"`
	}](t, rec)

	rec = h.do(http.MethodGet, "/api/auth/me", sess.Token, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"admin"`) {
		t.Fatalf("me: status=%d body=%s", rec.Code, rec.Body)
	}
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	if rec := h.do(http.MethodGet, "/api/phases", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/phases", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", rec.Code)
	}
}

func TestCollectorCannotUseAdminRoutes(t *testing.T) {
	h := newHarness(t)
	col := h.token(h.user("ana", "pw12", repo.RoleCollector))
	if rec := h.do(http.MethodPost, "/api/phases", col, map[string]any{"name": "P1"}); rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/ledger", col, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403", rec.Code)
	}
}

func TestTextSubmissionFlow(t *testing.T) {
	h := newHarness(t)
	adm := h.token(h.user("admin", "secret", repo.RoleAdmin))
	col := h.token(h.user("ana", "pw12", repo.RoleCollector))
	id := h.createPhase(adm, "P1")

	rec := h.do(http.MethodPost, "/api/bets/text", col, map[string]string{"phaseId": id, "text": "123R1000\n456-500"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	out := decodeBody[struct {
		Entries []json.RawMessage `json:"entries"`
		Bets    []json.RawMessage `json:"bets"`
	}](t, rec)
	if len(out.Entries) != 7 || len(out.Bets) != 7 {
		t.Fatalf("entries=%d bets=%d want 7", len(out.Entries), len(out.Bets))
	}
	if got := testutil.ToFloat64(h.metrics.BetsAccepted); got != 7 {
		t.Fatalf("bets accepted metric=%v want 7", got)
	}

	ph := decodeBody[phaseEnvelope](t, h.do(http.MethodGet, "/api/phases/"+id, col, nil))
	if ph.Phase.TotalBets != 7 || ph.Phase.State != "ACTIVE" {
		t.Fatalf("phase=%+v", ph.Phase)
	}

	rec = h.do(http.MethodPost, "/api/bets/text", col, map[string]string{"phaseId": id, "text": "nothing here"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d want 422", rec.Code)
	}

	mine := decodeBody[struct {
		Bets []json.RawMessage `json:"bets"`
	}](t, h.do(http.MethodGet, "/api/bets/phase/"+id+"/my", col, nil))
	if len(mine.Bets) != 7 {
		t.Fatalf("my bets=%d want 7", len(mine.Bets))
	}
}

func TestParseDoesNotPersist(t *testing.T) {
	h := newHarness(t)
	col := h.token(h.user("ana", "pw12", repo.RoleCollector))
	rec := h.do(http.MethodPost, "/api/bets/parse", col, map[string]string{"text": "123-1000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	out := decodeBody[struct {
		Entries []json.RawMessage `json:"entries"`
		Total   string            `json:"total"`
	}](t, rec)
	if len(out.Entries) != 1 || out.Total != "1000" {
		t.Fatalf("parse=%+v", out)
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	h := newHarness(t)
	col := h.token(h.user("ana", "pw12", repo.RoleCollector))
	rec := h.do(http.MethodPost, "/api/bets", col, map[string]any{"phaseId": "not-a-uuid", "number": "1234", "amount": 10})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rec.Code)
	}
	out := decodeBody[struct {
		Fields map[string]string `json:"fields"`
	}](t, rec)
	if out.Fields["PhaseID"] != "uuid" || out.Fields["Number"] != "max" {
		t.Fatalf("fields=%v", out.Fields)
	}
}

func TestCollectorCannotSubmitNegativeAmounts(t *testing.T) {
	h := newHarness(t)
	adm := h.token(h.user("admin", "secret", repo.RoleAdmin))
	col := h.token(h.user("ana", "pw12", repo.RoleCollector))
	id := h.createPhase(adm, "P1")

	rec := h.do(http.MethodPost, "/api/bets", col, map[string]any{"phaseId": id, "number": "123", "amount": -10})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status=%d want 403", rec.Code)
	}
	rec = h.do(http.MethodPost, "/api/bets", adm, map[string]any{"phaseId": id, "number": "ADJ", "amount": 50})
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin ADJ: status=%d body=%s", rec.Code, rec.Body)
	}
}

func TestClearExcessAndExport(t *testing.T) {
	h := newHarness(t)
	adm := h.token(h.user("admin", "secret", repo.RoleAdmin))
	id := h.createPhase(adm, "P1")

	rec := h.do(http.MethodPost, "/api/risk/phase/"+id+"/clear-excess", adm, nil)
	out := decodeBody[struct {
		Cleared bool   `json:"cleared"`
		Message string `json:"message"`
	}](t, rec)
	if rec.Code != http.StatusOK || out.Cleared || out.Message != "no excess volume found" {
		t.Fatalf("empty clear: status=%d body=%s", rec.Code, rec.Body)
	}

	h.do(http.MethodPost, "/api/bets/bulk", adm, map[string]any{"phaseId": id, "bets": []map[string]any{
		{"number": "123", "amount": 1500},
		{"number": "7", "amount": 200},
	}})
	if rec := h.do(http.MethodPost, "/api/risk/limits", adm, map[string]any{"phaseId": id, "number": "123", "maxAmount": 1000}); rec.Code != http.StatusOK {
		t.Fatalf("set limit: status=%d body=%s", rec.Code, rec.Body)
	}

	exc := decodeBody[struct {
		Rows        []json.RawMessage `json:"rows"`
		TotalExcess string            `json:"totalExcess"`
	}](t, h.do(http.MethodGet, "/api/risk/phase/"+id+"/excess?sort=excess", adm, nil))
	if len(exc.Rows) != 1 || exc.TotalExcess != "500" {
		t.Fatalf("excess=%+v", exc)
	}

	rec = h.do(http.MethodGet, "/api/risk/phase/"+id+"/export", adm, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Header().Get("Content-Disposition"), ".xlsx") {
		t.Fatalf("export: status=%d headers=%v", rec.Code, rec.Header())
	}

	rec = h.do(http.MethodPost, "/api/risk/phase/"+id+"/clear-excess", adm, nil)
	cleared := decodeBody[struct {
		Cleared        bool   `json:"cleared"`
		TotalReduction string `json:"totalReduction"`
	}](t, rec)
	if !cleared.Cleared || cleared.TotalReduction != "500" {
		t.Fatalf("clear: body=%s", rec.Body)
	}
	if got := testutil.ToFloat64(h.metrics.ExcessCleared); got != 1 {
		t.Fatalf("excess cleared metric=%v want 1", got)
	}

	if rec := h.do(http.MethodGet, "/api/risk/phase/"+id+"/excess?sort=weird", adm, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rec.Code)
	}
}

func TestCloseSettlesAndLocksPhase(t *testing.T) {
	h := newHarness(t)
	adm := h.token(h.user("admin", "secret", repo.RoleAdmin))
	id := h.createPhase(adm, "P1")
	h.do(http.MethodPost, "/api/bets", adm, map[string]any{"phaseId": id, "number": "123", "amount": 1000})

	rec := h.do(http.MethodPost, "/api/phases/"+id+"/close", adm, map[string]string{"winningNumber": "123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("close: status=%d body=%s", rec.Code, rec.Body)
	}
	out := decodeBody[struct {
		Settlement struct {
			TotalOut string `json:"totalOut"`
			Profit   string `json:"profit"`
		} `json:"settlement"`
	}](t, rec)
	if out.Settlement.TotalOut != "80000" || out.Settlement.Profit != "-79000" {
		t.Fatalf("settlement=%+v", out.Settlement)
	}

	if rec := h.do(http.MethodPost, "/api/phases/"+id+"/close", adm, nil); rec.Code != http.StatusConflict {
		t.Fatalf("second close status=%d want 409", rec.Code)
	}
	if rec := h.do(http.MethodPost, "/api/bets", adm, map[string]any{"phaseId": id, "number": "1", "amount": 5}); rec.Code != http.StatusConflict {
		t.Fatalf("bet on settled status=%d want 409", rec.Code)
	}

	sum := decodeBody[struct {
		Phases int `json:"phases"`
	}](t, h.do(http.MethodGet, "/api/ledger/summary", adm, nil))
	if sum.Phases != 1 {
		t.Fatalf("ledger phases=%d want 1", sum.Phases)
	}
}

func TestDeleteSettledPhase(t *testing.T) {
	h := newHarness(t)
	adm := h.token(h.user("admin", "secret", repo.RoleAdmin))
	id := h.createPhase(adm, "P1")
	h.do(http.MethodPost, "/api/bets", adm, map[string]any{"phaseId": id, "number": "123", "amount": 1000})
	if rec := h.do(http.MethodPost, "/api/phases/"+id+"/close", adm, map[string]string{"winningNumber": "7"}); rec.Code != http.StatusOK {
		t.Fatalf("close: status=%d body=%s", rec.Code, rec.Body)
	}

	if rec := h.do(http.MethodDelete, "/api/phases/"+id, adm, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status=%d body=%s", rec.Code, rec.Body)
	}
	if rec := h.do(http.MethodGet, "/api/phases/"+id, adm, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d want 404", rec.Code)
	}
	sum := decodeBody[struct {
		Phases int `json:"phases"`
	}](t, h.do(http.MethodGet, "/api/ledger/summary", adm, nil))
	if sum.Phases != 0 {
		t.Fatalf("ledger phases=%d want 0", sum.Phases)
	}
}

func TestUserHistoryIsSelfOrAdmin(t *testing.T) {
	h := newHarness(t)
	h.user("admin", "secret", repo.RoleAdmin)
	ana := h.user("ana", "pw12", repo.RoleCollector)
	bob := h.user("bob", "pw12", repo.RoleCollector)

	if rec := h.do(http.MethodGet, "/api/users/"+ana.ID+"/history", h.token(ana), nil); rec.Code != http.StatusOK {
		t.Fatalf("self status=%d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/api/users/"+ana.ID+"/history", h.token(bob), nil); rec.Code != http.StatusForbidden {
		t.Fatalf("other status=%d want 403", rec.Code)
	}
}

func TestRequestMetricsUseRoutePattern(t *testing.T) {
	h := newHarness(t)
	adm := h.token(h.user("admin", "secret", repo.RoleAdmin))
	h.do(http.MethodGet, "/api/phases/does-not-exist", adm, nil)
	got := testutil.ToFloat64(h.metrics.Requests.WithLabelValues(http.MethodGet, "/api/phases/{id}", "404"))
	if got != 1 {
		t.Fatalf("requests metric=%v want 1", got)
	}
}
