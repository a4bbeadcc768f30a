// internal/signin/directory.go
package signin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

type AccountStatus string

const (
	AccountConfirmed AccountStatus = "CONFIRMED"
	// AccountForceChangePassword means the account must still set a
	// permanent password; onboarding is not finished.
	AccountForceChangePassword AccountStatus = "FORCE_CHANGE_PASSWORD"
)

// AccountState is read fresh from the identity provider on every sign-in
// attempt; it is never cached or persisted here.
type AccountState struct {
	Status     AccountStatus `json:"status"`
	MFAMethods []string      `json:"mfa_methods"`
}

// Directory answers the two questions the gate asks about an account. The
// lookups are independent; implementations must be safe for concurrent use.
type Directory interface {
	AccountState(ctx context.Context, realmID, accountID string) (*AccountState, error)
	GroupMemberships(ctx context.Context, realmID, accountID string) ([]string, error)
}

// HTTPDirectory reaches the identity provider's admin REST surface.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *HTTPDirectory) AccountState(ctx context.Context, realmID, accountID string) (*AccountState, error) {
	var state AccountState
	if err := d.get(ctx, d.accountPath(realmID, accountID), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (d *HTTPDirectory) GroupMemberships(ctx context.Context, realmID, accountID string) ([]string, error) {
	var out struct {
		Groups []string `json:"groups"`
	}
	if err := d.get(ctx, d.accountPath(realmID, accountID)+"/groups", &out); err != nil {
		return nil, err
	}
	return out.Groups, nil
}

func (d *HTTPDirectory) accountPath(realmID, accountID string) string {
	return fmt.Sprintf("%s/realms/%s/accounts/%s",
		d.baseURL, url.PathEscape(realmID), url.PathEscape(accountID))
}

func (d *HTTPDirectory) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "build directory request")
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "directory request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("directory request: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode directory response")
	}
	return nil
}

var _ Directory = (*HTTPDirectory)(nil)
