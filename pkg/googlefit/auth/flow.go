package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/2beens/fitstats/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"golang.org/x/oauth2"
)

const (
	DefaultCallbackAddr = "localhost:8080"
	callbackPath        = "/oauth2callback"
)

var (
	ErrStateMismatch       = errors.New("oauth state mismatch")
	ErrAuthorizationDenied = errors.New("authorization denied")
)

// Flow obtains a brand new token, usually with the user's involvement.
type Flow interface {
	Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error)
}

// LoopbackFlow prints the consent URL and waits for the provider to redirect
// back to a local callback server with the authorization code.
type LoopbackFlow struct {
	addr               string
	out                io.Writer
	randStateGenerator func() (string, error)
}

func NewLoopbackFlow(addr string, out io.Writer) *LoopbackFlow {
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	return &LoopbackFlow{
		addr:               addr,
		out:                out,
		randStateGenerator: GenerateStateString,
	}
}

func GenerateStateString() (string, error) {
	state, err := pkg.GenerateRandomString(16)
	if err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	return state, nil
}

type callbackResult struct {
	code string
	err  error
}

func (f *LoopbackFlow) Authorize(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	state, err := f.randStateGenerator()
	if err != nil {
		return nil, err
	}
	if state == "" {
		return nil, errors.New("empty oauth state")
	}

	listener, err := net.Listen("tcp", f.addr)
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	flowConfig := *config
	flowConfig.RedirectURL = fmt.Sprintf("http://%s%s", listener.Addr().String(), callbackPath)

	chResult := make(chan callbackResult, 1)

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("oauth2-callback"))
	r.HandleFunc(callbackPath, f.callbackHandler(state, chResult)).Methods(http.MethodGet)

	server := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("oauth callback server: %s", err)
		}
	}()
	defer func() {
		if err := server.Shutdown(context.Background()); err != nil {
			log.Errorf("shutdown oauth callback server: %s", err)
		}
	}()

	authURL := flowConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(f.out, "Go to the following link in your browser:\n\n    %s\n\n", authURL)
	log.Debugf("waiting for oauth callback on %s", flowConfig.RedirectURL)

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-chResult:
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := flowConfig.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	log.Debugln("authentication successful")
	return token, nil
}

func (f *LoopbackFlow) callbackHandler(state string, chResult chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res callbackResult
		switch {
		case r.FormValue("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrAuthorizationDenied, r.FormValue("error"))
			http.Error(w, "authorization denied", http.StatusForbidden)
		case r.FormValue("state") != state:
			res.err = ErrStateMismatch
			http.Error(w, "state mismatch", http.StatusForbidden)
		case r.FormValue("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		default:
			res.code = r.FormValue("code")
			fmt.Fprintln(w, "Authentication successful, you can close this window.")
		}

		// only the first result counts
		select {
		case chResult <- res:
		default:
		}
	}
}
