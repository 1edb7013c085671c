package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUserIDRequired          = errors.New("core: user id is required")
	ErrPublicTokenRequired     = errors.New("core: public token is required")
	ErrInconsistentCustomerRef = errors.New("core: payment customer id and url must be set together")
)

// Secret wraps a credential value so it never renders in logs or JSON.
type Secret string

func (s Secret) Reveal() string {
	return string(s)
}

func (s Secret) IsZero() bool {
	return strings.TrimSpace(string(s)) == ""
}

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return RedactedValue
}

func (s Secret) GoString() string {
	return s.String()
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

type UserIdentity struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	Address1           string
	City               string
	State              string
	PostalCode         string
	DateOfBirth        string
	SSN                Secret
	PaymentCustomerID  string
	PaymentCustomerURL string
}

func (u UserIdentity) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

func (u UserIdentity) HasPaymentCustomer() bool {
	return strings.TrimSpace(u.PaymentCustomerID) != ""
}

func (u UserIdentity) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrUserIDRequired
	}
	hasID := strings.TrimSpace(u.PaymentCustomerID) != ""
	hasURL := strings.TrimSpace(u.PaymentCustomerURL) != ""
	if hasID != hasURL {
		return fmt.Errorf("%w: user %q", ErrInconsistentCustomerRef, u.ID)
	}
	return nil
}

// WithPaymentCustomer returns a copy of the user bound to a processor customer.
func (u UserIdentity) WithPaymentCustomer(customerID string, customerURL string) UserIdentity {
	u.PaymentCustomerID = strings.TrimSpace(customerID)
	u.PaymentCustomerURL = strings.TrimSpace(customerURL)
	return u
}

func (u UserIdentity) CustomerProfile(customerType string) CustomerProfile {
	return CustomerProfile{
		FirstName:   strings.TrimSpace(u.FirstName),
		LastName:    strings.TrimSpace(u.LastName),
		Email:       strings.TrimSpace(u.Email),
		Type:        strings.TrimSpace(customerType),
		Address1:    strings.TrimSpace(u.Address1),
		City:        strings.TrimSpace(u.City),
		State:       strings.TrimSpace(u.State),
		PostalCode:  strings.TrimSpace(u.PostalCode),
		DateOfBirth: strings.TrimSpace(u.DateOfBirth),
		SSN:         u.SSN,
	}
}

type CustomerProfile struct {
	FirstName   string
	LastName    string
	Email       string
	Type        string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         Secret
}

type LinkSession struct {
	User        UserIdentity
	PublicToken Secret
}

func (s LinkSession) Validate() error {
	if err := s.User.Validate(); err != nil {
		return err
	}
	if s.PublicToken.IsZero() {
		return ErrPublicTokenRequired
	}
	return nil
}

type AccountSummary struct {
	AccountID string
	Name      string
	Mask      string
	Type      string
	Subtype   string
}

type AggregatorItem struct {
	ItemID      string
	AccessToken Secret
	Accounts    []AccountSummary
}

type ExchangeResult struct {
	AccessToken Secret
	ItemID      string
}

type FundingSource struct {
	URL string
}

type CreateFundingSourceInput struct {
	CustomerID     string
	ProcessorToken Secret
	BankName       string
}

type LinkTokenRequest struct {
	User         UserIdentity
	ClientName   string
	Products     []string
	CountryCodes []string
	Language     string
}

type LinkToken struct {
	Token      string
	Expiration *time.Time
	RequestID  string
}

type BankAccountRecord struct {
	UserID           string
	BankID           string
	AccountID        string
	AccessToken      Secret
	FundingSourceURL string
	SharableID       string
}

type StoredBankAccount struct {
	ID string
	BankAccountRecord
	CreatedAt time.Time
}

// LinkedAccountView is the client-safe projection of a stored bank account.
type LinkedAccountView struct {
	ID               string
	UserID           string
	BankID           string
	AccountID        string
	FundingSourceURL string
	SharableID       string
	CreatedAt        time.Time
}

// WithoutAccessToken returns a copy safe to hand to readers and caches.
func (s StoredBankAccount) WithoutAccessToken() StoredBankAccount {
	s.AccessToken = ""
	return s
}

func (s StoredBankAccount) View() LinkedAccountView {
	return LinkedAccountView{
		ID:               s.ID,
		UserID:           s.UserID,
		BankID:           s.BankID,
		AccountID:        s.AccountID,
		FundingSourceURL: s.FundingSourceURL,
		SharableID:       s.SharableID,
		CreatedAt:        s.CreatedAt,
	}
}

const LinkStatusComplete = "complete"

type LinkCompletion struct {
	Status string
}

// SelectFirstAccount is the account selection policy: the aggregator's first
// account is linked, no user choice is involved.
func SelectFirstAccount(accounts []AccountSummary) (AccountSummary, bool) {
	if len(accounts) == 0 {
		return AccountSummary{}, false
	}
	return accounts[0], true
}
