package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	pkgcrypto "github.com/and161185/goods-ledger/internal/crypto"
	"github.com/and161185/goods-ledger/internal/ledger"
	"github.com/and161185/goods-ledger/internal/limiter"
	"github.com/and161185/goods-ledger/internal/metrics"
	"github.com/and161185/goods-ledger/internal/model"
	"github.com/and161185/goods-ledger/internal/repository/memory"
	"github.com/and161185/goods-ledger/internal/service"
)

type testEnv struct {
	srv    *Server
	ts     *httptest.Server
	tokens *pkgcrypto.Tokens
	reg    *prometheus.Registry
}

func newEnv(t *testing.T, cfg Config, policy limiter.Policy) *testEnv {
	t.Helper()
	tokens, err := pkgcrypto.NewTokens([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	log := zaptest.NewLogger(t)
	reg := service.NewRegistry(ledger.NewMemory(), memory.NewClaims(), tokens, limiter.NewMemory(policy), m, log)

	srv := New(cfg, reg, tokens, m, promReg, log)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, tokens: tokens, reg: promReg}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any, header ...string) (int, http.Header, []byte) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	return e.do(t, req)
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) (int, http.Header, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req)
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, http.Header, []byte) {
	t.Helper()
	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, b
}

func aliceBody() map[string]string {
	return map[string]string{
		"accountType":              "individual",
		"accountName":              "Alice",
		"accountUsername":          "alice1",
		"accountEmail":             "a@x.com",
		"accountPassword":          "p",
		"accountConfirmedPassword": "p",
	}
}

func errorKind(t *testing.T, body []byte) string {
	t.Helper()
	var e errorBody
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	require.NotEmpty(t, e.Message)
	return e.Error
}

func TestRegisterLoginQuery(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)

	code, _, body := env.postJSON(t, "/registerAccount", aliceBody())
	require.Equal(t, http.StatusOK, code, string(body))
	require.NotContains(t, strings.ToLower(string(body)), "password")

	var reg model.AccountView
	require.NoError(t, json.Unmarshal(body, &reg))
	require.NotEmpty(t, reg.Key)

	code, _, body = env.postForm(t, "/loginAccount", url.Values{
		"accountUsername": {"alice1"},
		"accountPassword": {"p"},
	})
	require.Equal(t, http.StatusOK, code, string(body))
	var login model.AccountView
	require.NoError(t, json.Unmarshal(body, &login))
	require.Equal(t, reg.Key, login.Key)
	require.NotEqual(t, reg.Token, login.Token)

	code, _, body = env.postJSON(t, "/queryAccountbyToken", map[string]string{"accountToken": login.Token})
	require.Equal(t, http.StatusOK, code, string(body))
	var byToken model.AccountView
	require.NoError(t, json.Unmarshal(body, &byToken))
	require.Equal(t, "alice1", byToken.Username)
	require.Equal(t, login.Token, byToken.Token)
}

func TestErrorMapping(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)
	code, _, _ := env.postJSON(t, "/registerAccount", aliceBody())
	require.Equal(t, http.StatusOK, code)

	cases := []struct {
		name     string
		path     string
		body     any
		wantCode int
		wantKind string
	}{
		{"missing fields", "/registerAccount", map[string]string{"accountName": "x"}, http.StatusBadRequest, "invalid_argument"},
		{"empty query field", "/queryProductbyID", map[string]string{}, http.StatusBadRequest, "invalid_argument"},
		{"duplicate username", "/registerAccount", aliceBody(), http.StatusConflict, "conflict"},
		{"unknown user", "/loginAccount", map[string]string{"accountUsername": "bob", "accountPassword": "p"}, http.StatusNotFound, "not_found"},
		{"wrong password", "/loginAccount", map[string]string{"accountUsername": "alice1", "accountPassword": "nope"}, http.StatusUnauthorized, "unauthorized"},
		{"garbage token", "/queryAccountbyToken", map[string]string{"accountToken": "garbage"}, http.StatusUnauthorized, "invalid_token"},
		{"unknown manufacturer", "/queryManufacturerbyAccountID", map[string]string{"manufacturerAccountID": "nobody"}, http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _, body := env.postJSON(t, tc.path, tc.body)
			require.Equal(t, tc.wantCode, code, string(body))
			require.Equal(t, tc.wantKind, errorKind(t, body))
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)
	req, err := http.NewRequest(http.MethodPost, env.ts.URL+"/addFactory", strings.NewReader("{"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	code, _, body := env.do(t, req)
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "invalid_argument", errorKind(t, body))
}

func TestLoginRateLimited(t *testing.T) {
	env := newEnv(t, Config{}, limiter.Policy{Window: time.Minute, MaxFails: 2, BlockFor: time.Minute})
	code, _, _ := env.postJSON(t, "/registerAccount", aliceBody())
	require.Equal(t, http.StatusOK, code)

	wrong := map[string]string{"accountUsername": "alice1", "accountPassword": "nope"}
	code, _, _ = env.postJSON(t, "/loginAccount", wrong)
	require.Equal(t, http.StatusUnauthorized, code)

	code, hdr, body := env.postJSON(t, "/loginAccount", wrong)
	require.Equal(t, http.StatusTooManyRequests, code, string(body))
	require.Equal(t, "rate_limited", errorKind(t, body))
	require.Equal(t, "60", hdr.Get("Retry-After"))

	// the correct password stays locked out until the block expires
	code, _, _ = env.postJSON(t, "/loginAccount", map[string]string{"accountUsername": "alice1", "accountPassword": "p"})
	require.Equal(t, http.StatusTooManyRequests, code)
}

func TestManufacturerFactoryProductFlow(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)
	_, _, body := env.postJSON(t, "/registerAccount", aliceBody())
	var acc model.AccountView
	require.NoError(t, json.Unmarshal(body, &acc))

	code, _, body := env.postJSON(t, "/addManufacturer", map[string]string{
		"manufacturerAccountID":      acc.Key,
		"manufacturerName":           "Acme",
		"manufacturerTradeLicenceID": "TL-1",
		"manufacturerLocation":       "Dhaka",
		"manufacturerFoundingDate":   "2001-01-01",
	})
	require.Equal(t, http.StatusOK, code, string(body))
	var mfr model.ManufacturerView
	require.NoError(t, json.Unmarshal(body, &mfr))

	code, _, body = env.postJSON(t, "/addFactory", map[string]string{
		"factoryManufacturerID": mfr.Key,
		"factoryID":             "f1",
		"factoryName":           "Plant",
		"factoryLocation":       "Chittagong",
	})
	require.Equal(t, http.StatusOK, code, string(body))

	code, _, body = env.postJSON(t, "/addProduct", map[string]string{
		"productOwnerAccountID": acc.Key,
		"productManufacturerID": mfr.Key,
		"productFactoryID":      "f1",
		"productID":             "p1",
		"productName":           "Widget",
		"productBatch":          "b1",
		"productSerialinBatch":  "001",
	})
	require.Equal(t, http.StatusOK, code, string(body))

	code, _, body = env.postJSON(t, "/queryFactorybyManufacturerID", map[string]string{"factoryManufacturerID": mfr.Key})
	require.Equal(t, http.StatusOK, code, string(body))
	var factories []model.FactoryView
	require.NoError(t, json.Unmarshal(body, &factories))
	require.Len(t, factories, 1)

	code, _, body = env.postJSON(t, "/queryProductbyOwnerAccountID", map[string]string{"productOwnerAccountID": acc.Key})
	require.Equal(t, http.StatusOK, code, string(body))
	var products []model.ProductView
	require.NoError(t, json.Unmarshal(body, &products))
	require.Len(t, products, 1)
	require.Equal(t, "Widget", products[0].Name)

	code, _, body = env.postJSON(t, "/queryProductbyFactoryID", map[string]string{"productFactoryID": "nope"})
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, "[]", string(body))
}

func (e *testEnv) register(t *testing.T, username, email string) model.AccountView {
	t.Helper()
	body := aliceBody()
	body["accountUsername"], body["accountEmail"] = username, email
	code, _, raw := e.postJSON(t, "/registerAccount", body)
	require.Equal(t, http.StatusOK, code, string(raw))
	var v model.AccountView
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func bearer(v model.AccountView) []string { return []string{"Authorization", "Bearer " + v.Token} }

func TestRequireAuthGuardsWrites(t *testing.T) {
	env := newEnv(t, Config{RequireAuth: true}, limiter.DefaultPolicy)
	factory := map[string]string{"factoryManufacturerID": "m", "factoryID": "f1", "factoryName": "Plant"}

	code, _, body := env.postJSON(t, "/addFactory", factory)
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "invalid_token", errorKind(t, body))

	code, _, _ = env.postJSON(t, "/addFactory", factory, "Authorization", "Bearer garbage")
	require.Equal(t, http.StatusUnauthorized, code)

	// a valid token for an account without a manufacturer still cannot add factories
	stranger, err := env.tokens.Issue("acc-key")
	require.NoError(t, err)
	code, _, body = env.postJSON(t, "/addFactory", factory, "Authorization", "Bearer "+stranger)
	require.Equal(t, http.StatusUnauthorized, code, string(body))
	require.Equal(t, "unauthorized", errorKind(t, body))

	// account routes stay open
	code, _, _ = env.postJSON(t, "/registerAccount", aliceBody())
	require.Equal(t, http.StatusOK, code)
}

func TestRequireAuthEnforcesOwnership(t *testing.T) {
	env := newEnv(t, Config{RequireAuth: true}, limiter.DefaultPolicy)
	alice := env.register(t, "alice1", "a@x.com")
	bob := env.register(t, "bob1", "b@x.com")

	mfr := map[string]string{
		"manufacturerAccountID":      alice.Key,
		"manufacturerName":           "Evil",
		"manufacturerTradeLicenceID": "TL-666",
	}
	code, _, body := env.postJSON(t, "/addManufacturer", mfr, bearer(bob)...)
	require.Equal(t, http.StatusUnauthorized, code, string(body))

	code, _, body = env.postJSON(t, "/queryAccountbyUsername", map[string]string{"accountUsername": "alice1"})
	require.Equal(t, http.StatusOK, code)
	var acc model.AccountView
	require.NoError(t, json.Unmarshal(body, &acc))
	require.Empty(t, acc.OwnerManufacturerID, "foreign caller must not link a manufacturer")

	mfr["manufacturerName"] = "Acme"
	code, _, body = env.postJSON(t, "/addManufacturer", mfr, bearer(alice)...)
	require.Equal(t, http.StatusOK, code, string(body))
	var m model.ManufacturerView
	require.NoError(t, json.Unmarshal(body, &m))

	factory := map[string]string{"factoryManufacturerID": m.Key, "factoryID": "f1", "factoryName": "Plant"}
	code, _, _ = env.postJSON(t, "/addFactory", factory, bearer(bob)...)
	require.Equal(t, http.StatusUnauthorized, code)
	code, _, body = env.postJSON(t, "/addFactory", factory, bearer(alice)...)
	require.Equal(t, http.StatusOK, code, string(body))

	code, _, _ = env.postJSON(t, "/updateManufacturer", map[string]string{"manufacturerKey": m.Key, "manufacturerLocation": "X"}, bearer(bob)...)
	require.Equal(t, http.StatusUnauthorized, code)

	code, _, body = env.postJSON(t, "/addProduct", map[string]string{
		"productOwnerAccountID": alice.Key,
		"productManufacturerID": m.Key,
		"productFactoryID":      "f1",
		"productID":             "p1",
		"productBatch":          "b1",
		"productSerialinBatch":  "001",
	}, bearer(alice)...)
	require.Equal(t, http.StatusOK, code, string(body))
	var p model.ProductView
	require.NoError(t, json.Unmarshal(body, &p))

	transfer := map[string]string{"productKey": p.Key, "productOwnerAccountID": bob.Key}
	code, _, _ = env.postJSON(t, "/updateProductOwner", transfer, bearer(bob)...)
	require.Equal(t, http.StatusUnauthorized, code, "only the current owner transfers")
	code, _, body = env.postJSON(t, "/updateProductOwner", transfer, bearer(alice)...)
	require.Equal(t, http.StatusOK, code, string(body))

	update := map[string]string{"productKey": p.Key, "productOwnerAccountID": bob.Key, "productName": "Renamed"}
	code, _, _ = env.postJSON(t, "/updateProduct", update, bearer(alice)...)
	require.Equal(t, http.StatusUnauthorized, code, "previous owner lost write access")
	code, _, body = env.postJSON(t, "/updateProduct", update, bearer(bob)...)
	require.Equal(t, http.StatusOK, code, string(body))

	code, _, body = env.postJSON(t, "/updateProductOwner", map[string]string{"productKey": "nope", "productOwnerAccountID": bob.Key}, bearer(bob)...)
	require.Equal(t, http.StatusNotFound, code, string(body))
}

func TestReadinessAndDrain(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)
	get := func(path string) int {
		req, err := http.NewRequest(http.MethodGet, env.ts.URL+path, nil)
		require.NoError(t, err)
		code, _, _ := env.do(t, req)
		return code
	}

	require.Equal(t, http.StatusOK, get("/livez"))
	require.Equal(t, http.StatusOK, get("/readyz"))
	require.Equal(t, http.StatusOK, get("/drain"))
	require.Equal(t, http.StatusServiceUnavailable, get("/readyz"))
	require.Equal(t, http.StatusOK, get("/livez"))
	require.Equal(t, http.StatusOK, get("/undrain"))
	require.Equal(t, http.StatusOK, get("/readyz"))
}

func TestReadinessCheck(t *testing.T) {
	healthy := true
	env := newEnv(t, Config{ReadinessCheck: func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("db down")
	}}, limiter.DefaultPolicy)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/readyz", nil)
	require.NoError(t, err)
	code, _, _ := env.do(t, req)
	require.Equal(t, http.StatusOK, code)

	healthy = false
	req, err = http.NewRequest(http.MethodGet, env.ts.URL+"/readyz", nil)
	require.NoError(t, err)
	code, _, _ = env.do(t, req)
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestAccessLogRecordsRoute(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)
	env.postJSON(t, "/queryProductbyID", map[string]string{"productID": "p1"})

	n, err := testutil.GatherAndCount(env.reg, "goods_ledger_http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCORSPreflight(t *testing.T) {
	env := newEnv(t, Config{}, limiter.DefaultPolicy)
	req, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/loginAccount", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	_, hdr, _ := env.do(t, req)
	require.Equal(t, "*", hdr.Get("Access-Control-Allow-Origin"))
}
