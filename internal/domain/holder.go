package domain

// Holder identifies who owns a cart line: an authenticated account or an
// anonymous session, never both and never neither.
type Holder struct {
	AccountID    string
	SessionToken string
}

func AccountHolder(accountID string) Holder {
	return Holder{AccountID: accountID}
}

func SessionHolder(token string) Holder {
	return Holder{SessionToken: token}
}

func (h Holder) Validate() error {
	if (h.AccountID == "") == (h.SessionToken == "") {
		return ErrInvalidHolder
	}
	return nil
}
