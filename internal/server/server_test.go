package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Veraticus/customs-ai/internal/common"
	"github.com/Veraticus/customs-ai/internal/embedding"
	"github.com/Veraticus/customs-ai/internal/engine"
	"github.com/Veraticus/customs-ai/internal/feedback"
	"github.com/Veraticus/customs-ai/internal/llm"
	"github.com/Veraticus/customs-ai/internal/model"
	"github.com/Veraticus/customs-ai/internal/vectorstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router   *gin.Engine
	embedder *embedding.MockEmbedder
	client   *llm.MockClient
	feedback *feedback.Log
	snapshot string
}

func newFixture(t *testing.T, gate *PasswordGate, responses ...llm.Response) *fixture {
	t.Helper()

	store := vectorstore.NewMemory()
	require.NoError(t, store.Upsert(context.Background(), "N312345", []float32{1, 0, 0}, map[string]string{
		model.MetaRulingNumber: "N312345",
		model.MetaText:         "The merchandise is a cotton t-shirt.",
		model.MetaURL:          "https://rulings.cbp.gov/ruling/N312345",
	}))

	f := &fixture{
		embedder: &embedding.MockEmbedder{},
		client:   &llm.MockClient{Responses: responses},
		feedback: feedback.NewLog(filepath.Join(t.TempDir(), "feedback.csv")),
		snapshot: filepath.Join(t.TempDir(), "tariff_updates.json"),
	}
	eng := engine.New(f.embedder, store, f.client, engine.DefaultOptions(), nil)
	f.router = SetupRouter(NewHandler(eng, f.feedback, gate, f.snapshot, "test", nil), []string{"http://localhost:*"})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func testGate(t *testing.T, password string) *PasswordGate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	gate, err := NewPasswordGate("", string(hash))
	require.NoError(t, err)
	return gate
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"customs-ai","version":"test"}`, w.Body.String())
}

func TestClassify(t *testing.T) {
	f := newFixture(t, nil, llm.Response{Text: "1. HTS Code: 6109.10.00.12\n2. Confidence Level: High"})
	img := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})

	w := f.do(t, http.MethodPost, "/api/v1/classify", ClassifyRequest{
		Description: "cotton t-shirt",
		Country:     "Vietnam",
		ImageBase64: "data:image/jpeg;base64," + img,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "6109.10.00.12", resp.HTSCode)
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "N312345", resp.Matches[0].RulingNumber)
	assert.True(t, f.client.LastRequest().Messages[0].HasImage())
	assert.Equal(t, 800, f.client.LastRequest().MaxTokens)
}

func TestClassify_EmptyDescriptionMakesNoCalls(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(t, http.MethodPost, "/api/v1/classify", ClassifyRequest{Description: "  "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "product description is required")
	assert.Zero(t, f.embedder.Calls())
	assert.Zero(t, f.client.Calls())
}

func TestClassify_BadInput(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodPost, "/api/v1/classify", ClassifyRequest{Description: "mug", ImageBase64: "%%%"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.embedder.Calls())
}

func TestClassify_UpstreamFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.embedder.Err = common.UpstreamError("openai embeddings", errors.New("connection reset"))

	w := f.do(t, http.MethodPost, "/api/v1/classify", ClassifyRequest{Description: "mug"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, f.client.Calls())
}

func TestFollowUp_PasswordGate(t *testing.T) {
	gate := testGate(t, "s3cret")

	tests := []struct {
		name       string
		gate       *PasswordGate
		password   string
		question   string
		wantStatus int
		wantCalls  int
	}{
		{name: "correct password", gate: gate, password: "s3cret", question: "Does Section 301 apply?", wantStatus: http.StatusOK, wantCalls: 1},
		{name: "wrong password", gate: gate, password: "guess", question: "Does Section 301 apply?", wantStatus: http.StatusUnauthorized},
		{name: "empty question", gate: gate, password: "s3cret", question: " ", wantStatus: http.StatusBadRequest},
		{name: "disabled", gate: nil, password: "anything", question: "Does Section 301 apply?", wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.gate, llm.Response{Text: "Section 301 duties may apply to goods from China."})
			w := f.do(t, http.MethodPost, "/api/v1/followup", FollowUpRequest{
				Password:       tt.password,
				Classification: "6109.10.00.12",
				Description:    "cotton t-shirt",
				Country:        "China",
				Question:       tt.question,
			})
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCalls, f.client.Calls())
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, w.Body.String(), "Section 301 duties")
				assert.Equal(t, 500, f.client.LastRequest().MaxTokens)
			}
		})
	}
}

func TestFeedback(t *testing.T) {
	f := newFixture(t, nil)
	correct := true

	w := f.do(t, http.MethodPost, "/api/v1/feedback", FeedbackRequest{
		Description:    "cotton t-shirt",
		Country:        "Vietnam",
		Classification: "6109.10.00.12",
		Correct:        &correct,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/feedback", FeedbackRequest{Description: "missing vote"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	n, err := f.feedback.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTariffUpdates(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/api/v1/tariff-updates", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	snap := model.Snapshot{
		LastChecked:        "2026-04-02T15:04:00Z",
		LastCheckedDisplay: "April 02, 2026 at 03:04 PM",
		SignificantActions: []model.TariffAction{{Summary: "New duty", Type: model.ActionNew, Significant: true}},
		RawDocuments:       []model.TariffDocument{},
	}
	require.NoError(t, common.WriteJSONAtomic(f.snapshot, snap))

	w = f.do(t, http.MethodGet, "/api/v1/tariff-updates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, snap, got)
}

func TestCORS(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/classify", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewPasswordGate(t *testing.T) {
	gate, err := NewPasswordGate("", "")
	require.NoError(t, err)
	assert.Nil(t, gate)
	assert.ErrorIs(t, gate.Check("x"), common.ErrFollowUpDisabled)

	_, err = NewPasswordGate("", "not-a-hash")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	gate, err = NewPasswordGate("plain", "")
	require.NoError(t, err)
	assert.NoError(t, gate.Check("plain"))
	assert.ErrorIs(t, gate.Check("other"), common.ErrUnauthorized)
}
