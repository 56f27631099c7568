// Package minfraud provides a client for the MaxMind minFraud legacy web
// service. Callers build a Transaction describing one order, submit it via a
// Client, and read typed risk fields from the decoded Score.
package minfraud

import (
	"context"
	"crypto/md5" //nolint:gosec // the wire protocol requires an MD5 digest of the email
	"encoding/hex"
	"fmt"
	"strings"
)

// String returns a pointer to s, for populating optional Transaction fields.
func String(s string) *string {
	return &s
}

// ValidationError reports a Transaction that cannot be submitted. It is
// returned from NewTransaction before any network activity takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("minfraud: invalid transaction: %s: %s", e.Field, e.Reason)
}

// Transaction holds the facts describing a single order to be scored.
// Optional fields are nil when the caller has no value for them; the wire
// encoding sends them as empty parameters. A Transaction submits at most one
// request in its lifetime: the first accessor that needs the score triggers
// it, and a successful Score is cached for all later accessors.
//
// A Transaction is not safe for concurrent use.
type Transaction struct {
	// IP is the customer's IP address. It is the only required field.
	IP *string

	// Billing address.
	City    *string
	State   *string
	Postal  *string
	Country *string

	// Shipping address.
	ShipAddr    *string
	ShipCity    *string
	ShipState   *string
	ShipPostal  *string
	ShipCountry *string

	// Contact. Email is never transmitted raw; only its domain and MD5
	// digest cross the network.
	Email *string
	Phone *string

	// Payment.
	BIN *string

	// Session linking.
	SessionID      *string
	UserAgent      *string
	AcceptLanguage *string

	// Order.
	TxnID    *string
	Amount   *string
	Currency *string
	TxnType  *string

	// Card verification outcomes already known to the merchant.
	AVSResult *string
	CVVResult *string

	// RequestedType overrides the client's default service level
	// ("standard" or "premium") for this transaction only.
	RequestedType *string

	// ForwardedIP is the end-client address when the request passed
	// through a proxy chain.
	ForwardedIP *string

	client Client
	score  *Score
}

// NewTransaction builds a Transaction by invoking populate with a mutable
// handle, then validates it. The returned transaction submits through the
// given client when its score is first needed. Returns a *ValidationError
// when the required IP field was not set.
func NewTransaction(client Client, populate func(*Transaction)) (*Transaction, error) {
	t := &Transaction{client: client}
	if populate != nil {
		populate(t)
	}
	if t.IP == nil {
		return nil, &ValidationError{Field: "ip", Reason: "missing required attribute"}
	}
	return t, nil
}

// EmailDomain returns the part of the email after the last "@". An email
// without an "@" is returned whole; an absent email yields "".
func (t *Transaction) EmailDomain() string {
	if t.Email == nil {
		return ""
	}
	s := *t.Email
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// EmailHash returns the hex MD5 digest of the raw email string. An absent
// email hashes the empty string, so the value is always 32 hex characters.
func (t *Transaction) EmailHash() string {
	var s string
	if t.Email != nil {
		s = *t.Email
	}
	sum := md5.Sum([]byte(s)) //nolint:gosec // protocol-mandated digest, not used for security
	return hex.EncodeToString(sum[:])
}

// attribute is one transmittable (internal name, value) pair. A nil value
// means the caller never set the field; the encoder sends it as an empty
// parameter.
type attribute struct {
	name  string
	value *string
}

// attributes returns the ordered list of every transmittable attribute,
// including the two derived email fields and the license key. The order is
// fixed at compile time; field enumeration never uses reflection.
func (t *Transaction) attributes(licenseKey, defaultRequestedType string) []attribute {
	requestedType := defaultRequestedType
	if t.RequestedType != nil {
		requestedType = *t.RequestedType
	}
	domain := t.EmailDomain()
	emailMD5 := t.EmailHash()

	return []attribute{
		{"license_key", &licenseKey},
		{"ip", t.IP},
		{"city", t.City},
		{"state", t.State},
		{"postal", t.Postal},
		{"country", t.Country},
		{"ship_addr", t.ShipAddr},
		{"ship_city", t.ShipCity},
		{"ship_state", t.ShipState},
		{"ship_postal", t.ShipPostal},
		{"ship_country", t.ShipCountry},
		{"email_domain", &domain},
		{"email_md5", &emailMD5},
		{"phone", t.Phone},
		{"bin", t.BIN},
		{"session_id", t.SessionID},
		{"user_agent", t.UserAgent},
		{"accept_language", t.AcceptLanguage},
		{"txn_id", t.TxnID},
		{"amount", t.Amount},
		{"currency", t.Currency},
		{"txn_type", t.TxnType},
		{"avs_result", t.AVSResult},
		{"cvv_result", t.CVVResult},
		{"requested_type", &requestedType},
		{"forwarded_ip", t.ForwardedIP},
	}
}

// Result returns the decoded score, submitting the transaction on first use.
// A successful score is cached; a failed submission leaves the cache empty,
// so calling Result again retries the whole request.
func (t *Transaction) Result(ctx context.Context) (*Score, error) {
	if t.score != nil {
		return t.score, nil
	}
	s, err := t.client.Score(ctx, t)
	if err != nil {
		return nil, err
	}
	t.score = s
	return s, nil
}

// RiskScore forces submission and returns the overall risk score (0-100).
func (t *Transaction) RiskScore(ctx context.Context) (float64, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return 0, err
	}
	return s.RiskScore(), nil
}

// Distance returns the distance in km between the IP location and the
// billing address, as reported by the service.
func (t *Transaction) Distance(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.Distance(), nil
}

// CountryCode returns the ISO country code the billing address resolved to.
func (t *Transaction) CountryCode(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.CountryCode(), nil
}

// IPRegion returns the region code of the IP location.
func (t *Transaction) IPRegion(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.IPRegion(), nil
}

// IPRegionName returns the region name of the IP location.
func (t *Transaction) IPRegionName(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.IPRegionName(), nil
}

// IPCity returns the city of the IP location.
func (t *Transaction) IPCity(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.IPCity(), nil
}

// IPLatitude returns the latitude of the IP location.
func (t *Transaction) IPLatitude(ctx context.Context) (float64, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return 0, err
	}
	return s.IPLatitude(), nil
}

// IPLongitude returns the longitude of the IP location.
func (t *Transaction) IPLongitude(ctx context.Context) (float64, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return 0, err
	}
	return s.IPLongitude(), nil
}

// HighRiskCountry reports whether the IP is in a high-risk country.
func (t *Transaction) HighRiskCountry(ctx context.Context) (bool, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return false, err
	}
	return s.HighRiskCountry(), nil
}

// IPPostalCode returns the postal code of the IP location.
func (t *Transaction) IPPostalCode(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.IPPostalCode(), nil
}

// IPAccuracyRadius returns the accuracy radius in km of the IP location.
func (t *Transaction) IPAccuracyRadius(ctx context.Context) (float64, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return 0, err
	}
	return s.IPAccuracyRadius(), nil
}

// IPAreaCode returns the telephone area code of the IP location.
func (t *Transaction) IPAreaCode(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.IPAreaCode(), nil
}

// IPCountryName returns the country name of the IP location.
func (t *Transaction) IPCountryName(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.IPCountryName(), nil
}

// AnonymousProxy reports whether the IP is a known anonymous proxy.
func (t *Transaction) AnonymousProxy(ctx context.Context) (bool, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return false, err
	}
	return s.AnonymousProxy(), nil
}

// CorporateProxy reports whether the IP belongs to a corporate proxy.
func (t *Transaction) CorporateProxy(ctx context.Context) (bool, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return false, err
	}
	return s.CorporateProxy(), nil
}

// MaxmindID returns MaxMind's unique identifier for this request.
func (t *Transaction) MaxmindID(ctx context.Context) (string, error) {
	s, err := t.Result(ctx)
	if err != nil {
		return "", err
	}
	return s.MaxmindID(), nil
}
