package signin

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func directoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/pool-1/accounts/acct-1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"CONFIRMED","mfa_methods":["TOTP","SMS"]}`)
	})
	mux.HandleFunc("/realms/pool-1/accounts/acct-1/groups", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"groups":["PLATFORM_ADMIN","DISPATCHER"]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPDirectoryLookups(t *testing.T) {
	srv := directoryServer(t)
	dir := NewHTTPDirectory(srv.URL)

	state, err := dir.AccountState(context.Background(), "pool-1", "acct-1")
	require.NoError(t, err)
	require.Equal(t, AccountConfirmed, state.Status)
	require.Equal(t, []string{"TOTP", "SMS"}, state.MFAMethods)

	groups, err := dir.GroupMemberships(context.Background(), "pool-1", "acct-1")
	require.NoError(t, err)
	require.Contains(t, groups, "PLATFORM_ADMIN")
}

func TestHTTPDirectoryNonOKStatusIsError(t *testing.T) {
	srv := directoryServer(t)
	dir := NewHTTPDirectory(srv.URL)

	_, err := dir.AccountState(context.Background(), "pool-1", "missing")
	require.Error(t, err)
}
