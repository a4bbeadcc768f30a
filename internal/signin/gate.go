// internal/signin/gate.go
package signin

import (
	"context"
	"slices"

	"github.com/sirupsen/logrus"

	"moveops/internal/metrics"
)

// Event is what the identity provider posts at the start of every sign-in
// attempt. The realm id arrives per event rather than from static
// configuration, so the gate never has to know about provisioning.
type Event struct {
	RealmID   string `json:"realmId"`
	AccountID string `json:"accountId"`
}

// Decision is the gate's verdict. Reason is only set on block; the two
// enrollment reasons pass through to the caller verbatim, everything else is
// the generic message.
type Decision struct {
	Allow  bool
	Reason string
}

const (
	ReasonMFARequired     = "MFA enrollment is required before administrator sign-in"
	ReasonSetupIncomplete = "administrator account setup is incomplete"
	ReasonGeneric         = "sign-in denied"
)

// Decide is the pure step-up rule. Order matters and is deliberate: group
// membership is checked before account status, so non-administrators are
// never subject to this gate and their normal challenge flow (forced
// password reset included) proceeds untouched. An administrator still in
// FORCE_CHANGE_PASSWORD got the role out of band and skipped onboarding;
// the sanctioned grant path sets a permanent password first.
//
// Postcondition on allow: the account is not an administrator, or it is a
// confirmed administrator with at least one enrolled MFA method.
func Decide(isAdmin bool, status AccountStatus, mfaCount int) Decision {
	if !isAdmin {
		return Decision{Allow: true}
	}
	if status == AccountForceChangePassword {
		return Decision{Allow: false, Reason: ReasonSetupIncomplete}
	}
	if mfaCount == 0 {
		return Decision{Allow: false, Reason: ReasonMFARequired}
	}
	return Decision{Allow: true}
}

// Gate enforces step-up MFA for administrators at sign-in. It fails closed:
// whenever it cannot positively prove the invariant, it blocks.
type Gate struct {
	dir        Directory
	adminGroup string
}

func NewGate(dir Directory, adminGroup string) *Gate {
	return &Gate{dir: dir, adminGroup: adminGroup}
}

// Check evaluates one sign-in attempt. Directory lookups are independent and
// issued concurrently; the decision waits for both. Dependency errors never
// surface their cause to the caller.
func (g *Gate) Check(ctx context.Context, ev Event) Decision {
	if ev.RealmID == "" || ev.AccountID == "" {
		logrus.WithFields(logrus.Fields{
			"realm":   ev.RealmID,
			"account": ev.AccountID,
		}).Error("sign-in event missing identifiers")
		return g.block("config_error")
	}

	type stateResult struct {
		state *AccountState
		err   error
	}
	type groupsResult struct {
		groups []string
		err    error
	}
	stateCh := make(chan stateResult, 1)
	groupsCh := make(chan groupsResult, 1)

	go func() {
		st, err := g.dir.AccountState(ctx, ev.RealmID, ev.AccountID)
		stateCh <- stateResult{state: st, err: err}
	}()
	go func() {
		groups, err := g.dir.GroupMemberships(ctx, ev.RealmID, ev.AccountID)
		groupsCh <- groupsResult{groups: groups, err: err}
	}()

	st := <-stateCh
	gr := <-groupsCh
	if st.err != nil {
		logrus.WithError(st.err).WithField("account", ev.AccountID).
			Error("account state lookup failed")
		return g.block("dependency_error")
	}
	if gr.err != nil {
		logrus.WithError(gr.err).WithField("account", ev.AccountID).
			Error("group membership lookup failed")
		return g.block("dependency_error")
	}

	isAdmin := slices.Contains(gr.groups, g.adminGroup)
	d := Decide(isAdmin, st.state.Status, len(st.state.MFAMethods))
	if d.Allow {
		metrics.SignInDecisions.WithLabelValues("allowed").Inc()
	} else {
		metrics.SignInDecisions.WithLabelValues("blocked").Inc()
		logrus.WithFields(logrus.Fields{
			"account": ev.AccountID,
			"reason":  d.Reason,
		}).Warn("administrator sign-in blocked")
	}
	return d
}

func (g *Gate) block(outcome string) Decision {
	metrics.SignInDecisions.WithLabelValues(outcome).Inc()
	return Decision{Allow: false, Reason: ReasonGeneric}
}
