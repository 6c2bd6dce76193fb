package interfaces

// AccountStore persists the pickled account under a passphrase.
type AccountStore interface {
	SaveAccount(passphrase string, pickle []byte) error
	// LoadAccount returns ok=false when no account has been saved yet.
	LoadAccount(passphrase string) (pickle []byte, ok bool, err error)
}
