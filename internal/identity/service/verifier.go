package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/userhub/userhub-go/internal/identity/model"
)

var ErrInvalidCredential = errors.New("invalid credential")

// CredentialVerifier validates an external identity credential and returns
// the trusted claims it carries. The provisioning flow trusts whatever a
// verifier hands back.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (model.Claims, error)
}

// GoogleVerifier checks a Google ID token against the tokeninfo endpoint and
// pins the audience to the configured client id.
type GoogleVerifier struct {
	clientID string
	client   *http.Client
	endpoint string
}

// NewGoogleVerifier creates a GoogleVerifier for the given OAuth client id.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: "https://oauth2.googleapis.com/tokeninfo",
	}
}

// Verify implements CredentialVerifier.
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (model.Claims, error) {
	if credential == "" {
		return model.Claims{}, ErrInvalidCredential
	}

	reqURL := v.endpoint + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Claims{}, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return model.Claims{}, fmt.Errorf("tokeninfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Claims{}, ErrInvalidCredential
	}

	var info struct {
		Audience string `json:"aud"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Picture  string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.Claims{}, ErrInvalidCredential
	}

	if info.Audience != v.clientID || info.Email == "" {
		return model.Claims{}, ErrInvalidCredential
	}

	return model.Claims{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
