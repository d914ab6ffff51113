package client

// Decision is what a protected view should do with the current session.
type Decision int

const (
	// DecisionLoading means the auth check has not settled; show a loading
	// state and do not redirect.
	DecisionLoading Decision = iota
	// DecisionRedirect sends the user to sign in.
	DecisionRedirect
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Guard decides how a protected view handles s. It only redirects once the
// check has completed and found no session, so a valid token is never
// bounced while it is still being verified.
func Guard(s Session) Decision {
	if !s.IsAuthChecked() {
		return DecisionLoading
	}
	if !s.IsAuthenticated() {
		return DecisionRedirect
	}
	return DecisionAllow
}
