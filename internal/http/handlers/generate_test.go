package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isabelleeeesv/tiktok-genius-app/internal/domain"
)

func generateBody(feature string) *strings.Reader {
	return strings.NewReader(fmt.Sprintf(`{"feature":%q,"product":"glow serum","tone":"playful","count":3}`, feature))
}

func decodeGenerate(t *testing.T, w *httptest.ResponseRecorder) generateResponse {
	t.Helper()
	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeDenied(t *testing.T, w *httptest.ResponseRecorder) deniedResponse {
	t.Helper()
	var resp deniedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGenerateGuestConsumesDailyLimit(t *testing.T) {
	fx := newTestFixture(t)
	const guestID = "guest-abc"

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
		r.Header.Set("X-Guest-ID", guestID)
		w := do(fx.app.Generate, r)
		require.Equal(t, http.StatusOK, w.Code, "generation %d", i+1)
		resp := decodeGenerate(t, w)
		assert.Equal(t, "guest", resp.Actor)
		assert.Equal(t, 2-i, resp.Remaining)
		assert.Equal(t, guestID, w.Header().Get("X-Guest-ID"))
	}

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
	r.Header.Set("X-Guest-ID", guestID)
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusForbidden, w.Code)
	denied := decodeDenied(t, w)
	assert.Equal(t, "quota_exceeded", denied.Error.Code)
	assert.Equal(t, "guest", denied.Actor)
	// The fourth attempt was refused before any provider traffic.
	assert.Equal(t, 3, fx.generator.callCount())
}

func TestGenerateIssuesGuestID(t *testing.T) {
	fx := newTestFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("captions"))
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Guest-ID"))
}

func TestGenerateGuestsAreIndependent(t *testing.T) {
	fx := newTestFixture(t)

	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
		r.Header.Set("X-Guest-ID", "guest-one")
		require.Equal(t, http.StatusOK, do(fx.app.Generate, r).Code)
	}

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
	r.Header.Set("X-Guest-ID", "guest-two")
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeGenerate(t, w).Remaining)
}

func TestGeneratePremiumDeniedForGuest(t *testing.T) {
	fx := newTestFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("video_script"))
	r.Header.Set("X-Guest-ID", "guest-abc")
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusForbidden, w.Code)
	denied := decodeDenied(t, w)
	assert.Equal(t, "upgrade_required", denied.Error.Code)
	assert.Equal(t, 0, fx.generator.callCount())
}

func TestGeneratePremiumDeniedForFreeAccount(t *testing.T) {
	fx := newTestFixture(t)
	account := fx.seedAccount(t, "free@example.com", domain.SubscriptionFree)

	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("ad_copy")), account.ID)
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusForbidden, w.Code)
	denied := decodeDenied(t, w)
	assert.Equal(t, "upgrade_required", denied.Error.Code)
	assert.Equal(t, "account", denied.Actor)
}

func TestGenerateActiveAccountIsUnlimited(t *testing.T) {
	fx := newTestFixture(t)
	account := fx.seedAccount(t, "pro@example.com", domain.SubscriptionActive)

	for i := 0; i < 6; i++ {
		r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("video_script")), account.ID)
		w := do(fx.app.Generate, r)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeGenerate(t, w)
		assert.True(t, resp.Unlimited)
		assert.Equal(t, "account", resp.Actor)
	}

	// Unlimited actors are never metered.
	usage, err := fx.gate.Snapshot(context.Background(), account.Actor())
	require.NoError(t, err)
	for _, rec := range usage {
		assert.Zero(t, rec.Count)
	}
}

func TestGenerateAccountQuotaIsSeparateFromGuests(t *testing.T) {
	fx := newTestFixture(t)
	account := fx.seedAccount(t, "free@example.com", domain.SubscriptionFree)

	// A guest exhausts its own allowance under the same counter key.
	for i := 0; i < 3; i++ {
		r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
		r.Header.Set("X-Guest-ID", account.ID)
		require.Equal(t, http.StatusOK, do(fx.app.Generate, r).Code)
	}

	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks")), account.ID)
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeGenerate(t, w).Remaining)
}

func TestGenerateRejectsUnknownFeature(t *testing.T) {
	fx := newTestFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("poetry"))
	w := do(fx.app.Generate, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateRequiresProduct(t *testing.T) {
	fx := newTestFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(`{"feature":"hooks","product":"  "}`))
	w := do(fx.app.Generate, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateProviderFailureDoesNotConsumeQuota(t *testing.T) {
	fx := newTestFixture(t)
	fx.generator.err = domain.ErrProviderFailure

	r := httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
	r.Header.Set("X-Guest-ID", "guest-abc")
	w := do(fx.app.Generate, r)
	require.Equal(t, http.StatusBadGateway, w.Code)

	// The failed attempt must not count against the allowance.
	fx.generator.err = nil
	r = httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks"))
	r.Header.Set("X-Guest-ID", "guest-abc")
	w = do(fx.app.Generate, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeGenerate(t, w).Remaining)
}

func TestGeneratePublishesAccountDocument(t *testing.T) {
	fx := newTestFixture(t)
	account := fx.seedAccount(t, "free@example.com", domain.SubscriptionFree)

	stream, cancel := fx.app.Hub.Subscribe(account.ID)
	defer cancel()

	r := asAccount(httptest.NewRequest(http.MethodPost, "/v1/generate", generateBody("hooks")), account.ID)
	require.Equal(t, http.StatusOK, do(fx.app.Generate, r).Code)

	select {
	case data := <-stream:
		var doc accountDocument
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, account.ID, doc.ID)
		for _, u := range doc.Usage {
			if u.Feature == "hooks" {
				assert.Equal(t, 1, u.Used)
			}
		}
	default:
		t.Fatal("no account document published")
	}
}
