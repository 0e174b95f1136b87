package accounts

import "time"

// Entry is a single named balance in an account's ledger.
// The wire and document names follow the legacy currency service.
type Entry struct {
	Key   string  `json:"currency"`
	Value float64 `json:"amount"`
}

// Account is a registered identity and its ledger.
type Account struct {
	ID         string    `json:"id"`
	Handle     string    `json:"username"`
	Contact    string    `json:"email"`
	SecretHash string    `json:"-"`
	Entries    []Entry   `json:"currencies"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// clone returns a deep copy so callers never share the Entries backing array.
func (a *Account) clone() *Account {
	cp := *a
	if a.Entries != nil {
		cp.Entries = make([]Entry, len(a.Entries))
		copy(cp.Entries, a.Entries)
	}
	return &cp
}
