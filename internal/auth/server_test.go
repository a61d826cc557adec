package auth

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitsync/internal/errs"
)

// fakeFlow follows the redirect itself as soon as the URL is requested.
type fakeFlow struct {
	base     string
	query    url.Values
	gotCode  string
	redirect chan string
}

func (f *fakeFlow) Name() string { return "Fake" }

func (f *fakeFlow) AuthCodeURL(state string) string {
	q := url.Values{"state": {state}}
	for k, v := range f.query {
		q[k] = v
	}
	f.redirect <- f.base + "/callback?" + q.Encode()
	return "https://provider.example/authorize?state=" + state
}

func (f *fakeFlow) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	f.gotCode = code
	return &Credential{Provider: "fake", AccessToken: "a-" + code, RefreshToken: "r-" + code}, nil
}

func runFlow(t *testing.T, query url.Values) (*Credential, *fakeFlow, error) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	flow := &fakeFlow{base: "http://" + listener.Addr().String(), query: query, redirect: make(chan string, 1)}
	go func() {
		resp, err := http.Get(<-flow.redirect)
		if err == nil {
			resp.Body.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out := &bytes.Buffer{}
	cred, err := authenticate(ctx, flow, listener, out)
	assert.Contains(t, out.String(), "https://provider.example/authorize")
	return cred, flow, err
}

func TestAuthenticateExchangesCode(t *testing.T) {
	cred, flow, err := runFlow(t, url.Values{"code": {"c1"}})
	require.NoError(t, err)
	assert.Equal(t, "c1", flow.gotCode)
	assert.Equal(t, "a-c1", cred.AccessToken)
	assert.Equal(t, "r-c1", cred.RefreshToken)
}

func TestAuthenticateProviderDenied(t *testing.T) {
	_, flow, err := runFlow(t, url.Values{"error": {"access_denied"}})
	require.Error(t, err)
	assert.Equal(t, errs.KindAuthRefresh, errs.KindOf(err))
	assert.Empty(t, flow.gotCode)
}

func TestAuthenticateMissingCode(t *testing.T) {
	_, _, err := runFlow(t, url.Values{})
	require.Error(t, err)
	assert.Equal(t, errs.KindAuthProtocol, errs.KindOf(err))
}

func TestCallbackIgnoresStateMismatch(t *testing.T) {
	cb := newCallback("Fake", "expected")

	rec := httptest.NewRecorder()
	cb.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, cb.result)

	rec = httptest.NewRecorder()
	cb.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=expected&code=ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Fake connected")
	res := <-cb.result
	assert.Equal(t, "ok", res.code)
}

func TestAuthenticateContextCanceled(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	flow := &fakeFlow{redirect: make(chan string, 1)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = authenticate(ctx, flow, listener, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8089/callback", CallbackURL(CallbackPort))
}
