package store

const accessTokenKey = "access_token"

// TokenStore is the single source of truth for the bearer token. It is an
// explicit handle, passed to everything that needs it, so tests can inject
// their own instance.
type TokenStore struct {
	store *Store
}

func NewTokenStore(store *Store) *TokenStore {
	return &TokenStore{store: store}
}

// Get returns the current token, or false when none is stored. Read errors
// fail soft: they are logged by the underlying store and reported as absent.
func (t *TokenStore) Get() (string, bool) {
	token, ok := t.store.Get(accessTokenKey)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (t *TokenStore) Set(token string) error {
	return t.store.Set(accessTokenKey, token)
}

func (t *TokenStore) Clear() error {
	return t.store.Delete(accessTokenKey)
}
