package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Params struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	Store        TokenStore
	Flow         Flow
	// HTTPClient is used for token requests and as the base transport
	// of the authorized client; defaults to http.DefaultClient
	HTTPClient *http.Client
	// Endpoint defaults to google.Endpoint
	Endpoint *oauth2.Endpoint
}

// Authenticator hands out authorized HTTP clients, reusing a stored token
// when one is still usable and falling back to the interactive flow otherwise.
type Authenticator struct {
	config     *oauth2.Config
	store      TokenStore
	flow       Flow
	httpClient *http.Client
}

func NewAuthenticator(params Params) *Authenticator {
	endpoint := google.Endpoint
	if params.Endpoint != nil {
		endpoint = *params.Endpoint
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     params.ClientID,
			ClientSecret: params.ClientSecret,
			Scopes:       params.Scopes,
			Endpoint:     endpoint,
		},
		store:      params.Store,
		flow:       params.Flow,
		httpClient: params.HTTPClient,
	}
}

func (a *Authenticator) withHTTPClient(ctx context.Context) context.Context {
	if a.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
}

// usable tokens are either still valid or can be refreshed
func usable(token *oauth2.Token) bool {
	return token.Valid() || token.RefreshToken != ""
}

// Token returns the stored token if it can be used, otherwise it runs the flow
// and stores the new token.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := a.store.Load()
	switch {
	case err == nil && usable(token):
		log.Debugln("reusing stored credentials")
		return token, nil
	case err == nil:
		log.Debugln("stored credentials expired, starting authorization flow")
	case errors.Is(err, ErrNoToken):
		log.Debugln("no stored credentials, starting authorization flow")
	default:
		log.Warnf("failed to load stored credentials, starting authorization flow: %s", err)
	}

	if a.flow == nil {
		return nil, errors.New("no valid stored credentials and no authorization flow configured")
	}

	token, err = a.flow.Authorize(a.withHTTPClient(ctx), a.config)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}

	if err := a.store.Save(token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}

	return token, nil
}

// Client returns an HTTP client that authorizes every request and refreshes the token
// as needed. Refreshed tokens are written back to the store.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	token, err := a.Token(ctx)
	if err != nil {
		return nil, err
	}

	// the token source outlives the call, so it must not be bound to the caller's cancellation
	tsCtx := a.withHTTPClient(context.WithoutCancel(ctx))
	ts := &savingTokenSource{
		base:  a.config.TokenSource(tsCtx, token),
		store: a.store,
		last:  token,
	}

	return oauth2.NewClient(tsCtx, oauth2.ReuseTokenSource(token, ts)), nil
}

type savingTokenSource struct {
	base  oauth2.TokenSource
	store TokenStore

	mutex sync.Mutex
	last  *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.last == nil || s.last.AccessToken != token.AccessToken {
		if err := s.store.Save(token); err != nil {
			log.Errorf("failed to save refreshed token: %s", err)
		} else {
			log.Debugln("refreshed token saved")
		}
		s.last = token
	}

	return token, nil
}
