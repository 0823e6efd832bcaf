package session

// State is the client-observed session: what the combination of token
// presence and provider selection allows the user to see.
type State int

const (
	Unauthenticated State = iota
	NeedsProvider
	Ready
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case NeedsProvider:
		return "needs_provider"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// StateOf derives the tri-state from token and provider presence. Ready
// requires both; a leftover provider value without a token is ignored until
// re-auth.
func StateOf(hasToken, hasProvider bool) State {
	switch {
	case !hasToken:
		return Unauthenticated
	case !hasProvider:
		return NeedsProvider
	default:
		return Ready
	}
}

// Decision tells the shell whether to render the requested path or redirect.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

var allowedPaths = map[State][]string{
	Unauthenticated: {"/", "/auth"},
	NeedsProvider:   {"/selectcloud", "/auth"},
	Ready:           {"/dashboard", "/semantic-search", "/auth"},
}

var fallbackPaths = map[State]string{
	Unauthenticated: "/",
	NeedsProvider:   "/selectcloud",
	Ready:           "/dashboard",
}

// Resolve applies the gate policy: each state allows a fixed set of paths
// and redirects everything else to its home path. Evaluated on every path
// change, not just startup, because token and provider state can change
// without a restart.
func Resolve(hasToken, hasProvider bool, path string) Decision {
	state := StateOf(hasToken, hasProvider)

	for _, allowed := range allowedPaths[state] {
		if path == allowed {
			return Decision{Allowed: true}
		}
	}

	return Decision{RedirectTo: fallbackPaths[state]}
}
