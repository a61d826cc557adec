package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fitsync/internal/errs"
)

const (
	// CallbackPort is the port for the OAuth callback server
	CallbackPort = 8089
	// AuthTimeout is how long to wait for the user to complete auth
	AuthTimeout = 5 * time.Minute
)

// CallbackURL is the redirect URL registered with both providers.
func CallbackURL(port int) string {
	return fmt.Sprintf("http://localhost:%d/callback", port)
}

// Flow is a provider's authorization-code flow.
type Flow interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*Credential, error)
}

// Authenticate runs the authorization-code flow with a local callback
// server on port and returns the exchanged credential. Instructions for the
// user are written to out.
func Authenticate(ctx context.Context, flow Flow, port int, out io.Writer) (*Credential, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, AuthTimeout)
	defer cancel()
	return authenticate(ctx, flow, listener, out)
}

func authenticate(ctx context.Context, flow Flow, listener net.Listener, out io.Writer) (*Credential, error) {
	cb := newCallback(flow.Name(), uuid.NewString())

	server := &http.Server{Handler: cb, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer shutdownServer(server)

	fmt.Fprintf(out, "\nTo connect %s, open this URL in your browser:\n\n  %s\n\nWaiting for authentication...\n",
		flow.Name(), flow.AuthCodeURL(cb.state))

	var code string
	select {
	case res := <-cb.result:
		if res.err != nil {
			return nil, res.err
		}
		code = res.code
	case err := <-serveErr:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errs.Errorf(errs.KindUpstreamTimeout, "authorize "+flow.Name(), "no callback within %v", AuthTimeout)
		}
		return nil, ctx.Err()
	}

	cred, err := flow.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return cred, nil
}

type callbackResult struct {
	code string
	err  error
}

// callback receives the provider redirect. Only the first request with a
// matching state settles the flow.
type callback struct {
	provider string
	state    string
	result   chan callbackResult
}

func newCallback(provider, state string) *callback {
	return &callback{provider: provider, state: state, result: make(chan callbackResult, 1)}
}

func (c *callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/callback" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	if q.Get("state") != c.state {
		// a stray or forged redirect must not end the flow
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	var res callbackResult
	switch {
	case q.Get("error") != "":
		res.err = errs.Errorf(errs.KindAuthRefresh, "authorize "+c.provider, "provider denied access: %s", q.Get("error"))
		http.Error(w, "Authentication failed", http.StatusBadRequest)
	case q.Get("code") == "":
		res.err = errs.Errorf(errs.KindAuthProtocol, "authorize "+c.provider, "callback carried no code")
		http.Error(w, "No authorization code", http.StatusBadRequest)
	default:
		res.code = q.Get("code")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>fitsync</title></head>
<body style="font-family: system-ui; text-align: center; margin-top: 20vh;">
<h1>%s connected</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`, html.EscapeString(c.provider))
	}

	select {
	case c.result <- res:
	default:
	}
}

func shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = server.Shutdown(ctx)
}
