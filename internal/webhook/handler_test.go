package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/internal/leads/domain"
	"medcrm_backend/internal/leads/intake"
	"medcrm_backend/internal/leads/transport"
	"medcrm_backend/platform/logger"
)

type fakeIntake struct {
	payloads []transport.LeadPayload
	result   intake.Result
	err      error
}

func (f *fakeIntake) Intake(_ context.Context, p transport.LeadPayload, _ domain.Source) (intake.Result, error) {
	f.payloads = append(f.payloads, p)
	return f.result, f.err
}

type fakeStorage struct {
	uploads map[string][]byte
	fail    bool
}

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, r io.Reader, _ int64) (string, error) {
	if f.fail {
		return "", errors.New("minio unavailable")
	}
	data, _ := io.ReadAll(r)
	key := folder + "/" + fileName
	f.uploads[key] = data
	return key, nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }
func (f *fakeStorage) ValidateContentType(string) error                 { return nil }
func (f *fakeStorage) ValidateFileSize(int64) error                     { return nil }

func newTestRouter(t *testing.T, li LeadIntake, store *fakeStorage, apiKey string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	v1 := engine.Group("/api/v1")

	log := logger.Nop()
	archiver := NewArchiver(store, "webhook-payloads", log)
	archiver.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }

	m := NewModule(li, archiver, apiKey, log)
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: v1, Webhook: v1.Group("/webhook")})
	return engine
}

func post(engine *gin.Engine, path, key string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(headerAPIKey, key)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHandleLeadRequiresAPIKey(t *testing.T) {
	li := &fakeIntake{}
	engine := newTestRouter(t, li, &fakeStorage{uploads: map[string][]byte{}}, "secret")

	rec := post(engine, "/api/v1/webhook/leads", "", []byte(`{"name":"Ana","phone":"05321234567"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(engine, "/api/v1/webhook/leads", "wrong", []byte(`{"name":"Ana","phone":"05321234567"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, li.payloads)
}

func TestHandleLeadCreatesAndArchives(t *testing.T) {
	li := &fakeIntake{result: intake.Result{Outcome: intake.OutcomeCreated, Customer: domain.Customer{ID: "c-1", Name: "Ana"}}}
	store := &fakeStorage{uploads: map[string][]byte{}}
	engine := newTestRouter(t, li, store, "secret")

	body := []byte(`{"full_name":"Ana","phone_number":"05321234567","form_id":"F123"}`)
	rec := post(engine, "/api/v1/webhook/leads", "secret", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got domain.Customer
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "c-1", got.ID)

	require.Len(t, li.payloads, 1)
	assert.Equal(t, "F123", li.payloads[0].FormID)
	assert.Equal(t, body, store.uploads["leads/2026/10/17/payload.json"])
}

func TestHandleLeadArchiveFailureDoesNotBlockIntake(t *testing.T) {
	li := &fakeIntake{result: intake.Result{Outcome: intake.OutcomeCreated, Customer: domain.Customer{ID: "c-1"}}}
	engine := newTestRouter(t, li, &fakeStorage{fail: true}, "secret")

	rec := post(engine, "/api/v1/webhook/leads", "secret", []byte(`{"name":"Ana","email":"ana@example.com"}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandleLeadDuplicateReturnsConflict(t *testing.T) {
	existing := &domain.Customer{ID: "old", Name: "Ana", Phone: "905321234567"}
	li := &fakeIntake{result: intake.Result{Outcome: intake.OutcomeDuplicateSkipped, Existing: existing}}
	engine := newTestRouter(t, li, &fakeStorage{uploads: map[string][]byte{}}, "secret")

	rec := post(engine, "/api/v1/webhook/leads", "secret", []byte(`{"name":"Ana","phone":"05321234567"}`))
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp transport.DuplicateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Automated)
	assert.Equal(t, "old", resp.Existing.ID)
}

func TestHandleLeadRejectsMalformedBody(t *testing.T) {
	li := &fakeIntake{}
	engine := newTestRouter(t, li, &fakeStorage{uploads: map[string][]byte{}}, "")

	rec := post(engine, "/api/v1/webhook/leads", "", []byte(`{"name":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, li.payloads)
}

func TestHandleGoogleLead(t *testing.T) {
	li := &fakeIntake{result: intake.Result{Outcome: intake.OutcomeCreated, Customer: domain.Customer{ID: "c-9"}}}
	engine := newTestRouter(t, li, &fakeStorage{uploads: map[string][]byte{}}, "secret")

	rec := post(engine, "/api/v1/webhook/google-leads", "", []byte(`{"google_key":"bad","form_id":1}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(engine, "/api/v1/webhook/google-leads", "", []byte(`{"google_key":"secret","is_test":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, li.payloads)

	rec = post(engine, "/api/v1/webhook/google-leads", "", []byte(`{
		"google_key":"secret","form_id":42,
		"user_column_data":[{"column_id":"FULL_NAME","string_value":"Jonas"},{"column_id":"EMAIL","string_value":"jonas@example.de"}]
	}`))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, li.payloads, 1)
	assert.Equal(t, "42", li.payloads[0].LeadFormID)

	var resp GoogleLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c-9", resp.CustomerID)
}
