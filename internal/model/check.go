// Package model holds the flat input/output types shared by the check,
// batch, serve, and history commands and by the local store.
package model

import (
	"context"
	"time"

	"github.com/sells-group/fraudcheck-cli/pkg/minfraud"
)

// CheckInput is one fraud check as supplied by a caller (flags, CSV row, or
// request body). Empty strings mean the caller has no value for the field.
type CheckInput struct {
	IP             string `json:"ip"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	Postal         string `json:"postal,omitempty"`
	Country        string `json:"country,omitempty"`
	ShipAddr       string `json:"ship_addr,omitempty"`
	ShipCity       string `json:"ship_city,omitempty"`
	ShipState      string `json:"ship_state,omitempty"`
	ShipPostal     string `json:"ship_postal,omitempty"`
	ShipCountry    string `json:"ship_country,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	BIN            string `json:"bin,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	AcceptLanguage string `json:"accept_language,omitempty"`
	TxnID          string `json:"txn_id,omitempty"`
	Amount         string `json:"amount,omitempty"`
	Currency       string `json:"currency,omitempty"`
	TxnType        string `json:"txn_type,omitempty"`
	AVSResult      string `json:"avs_result,omitempty"`
	CVVResult      string `json:"cvv_result,omitempty"`
	RequestedType  string `json:"requested_type,omitempty"`
	ForwardedIP    string `json:"forwarded_ip,omitempty"`
}

func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ToTransaction converts the input into a validated minfraud.Transaction
// bound to the given client. Empty input fields become absent attributes.
func (in CheckInput) ToTransaction(client minfraud.Client) (*minfraud.Transaction, error) {
	return minfraud.NewTransaction(client, func(txn *minfraud.Transaction) {
		txn.IP = opt(in.IP)
		txn.City = opt(in.City)
		txn.State = opt(in.State)
		txn.Postal = opt(in.Postal)
		txn.Country = opt(in.Country)
		txn.ShipAddr = opt(in.ShipAddr)
		txn.ShipCity = opt(in.ShipCity)
		txn.ShipState = opt(in.ShipState)
		txn.ShipPostal = opt(in.ShipPostal)
		txn.ShipCountry = opt(in.ShipCountry)
		txn.Email = opt(in.Email)
		txn.Phone = opt(in.Phone)
		txn.BIN = opt(in.BIN)
		txn.SessionID = opt(in.SessionID)
		txn.UserAgent = opt(in.UserAgent)
		txn.AcceptLanguage = opt(in.AcceptLanguage)
		txn.TxnID = opt(in.TxnID)
		txn.Amount = opt(in.Amount)
		txn.Currency = opt(in.Currency)
		txn.TxnType = opt(in.TxnType)
		txn.AVSResult = opt(in.AVSResult)
		txn.CVVResult = opt(in.CVVResult)
		txn.RequestedType = opt(in.RequestedType)
		txn.ForwardedIP = opt(in.ForwardedIP)
	})
}

// CheckResult is the decoded outcome of one fraud check, flattened for JSON
// output and storage.
type CheckResult struct {
	RiskScore        float64 `json:"risk_score"`
	ProxyScore       float64 `json:"proxy_score"`
	Distance         string  `json:"distance,omitempty"`
	CountryMatch     bool    `json:"country_match"`
	CountryCode      string  `json:"country_code,omitempty"`
	FreeMail         bool    `json:"free_mail"`
	AnonymousProxy   bool    `json:"anonymous_proxy"`
	CorporateProxy   bool    `json:"corporate_proxy"`
	HighRiskCountry  bool    `json:"high_risk_country"`
	IPRegion         string  `json:"ip_region,omitempty"`
	IPRegionName     string  `json:"ip_region_name,omitempty"`
	IPCity           string  `json:"ip_city,omitempty"`
	IPLatitude       float64 `json:"ip_latitude"`
	IPLongitude      float64 `json:"ip_longitude"`
	IPPostalCode     string  `json:"ip_postal_code,omitempty"`
	IPAccuracyRadius float64 `json:"ip_accuracy_radius"`
	IPAreaCode       string  `json:"ip_area_code,omitempty"`
	IPCountryName    string  `json:"ip_country_name,omitempty"`
	MaxmindID        string  `json:"maxmind_id,omitempty"`
	QueriesRemaining int     `json:"queries_remaining"`
}

// ResultFromScore flattens a decoded score.
func ResultFromScore(s *minfraud.Score) CheckResult {
	return CheckResult{
		RiskScore:        s.RiskScore(),
		ProxyScore:       s.ProxyScore(),
		Distance:         s.Distance(),
		CountryMatch:     s.CountryMatch(),
		CountryCode:      s.CountryCode(),
		FreeMail:         s.FreeMail(),
		AnonymousProxy:   s.AnonymousProxy(),
		CorporateProxy:   s.CorporateProxy(),
		HighRiskCountry:  s.HighRiskCountry(),
		IPRegion:         s.IPRegion(),
		IPRegionName:     s.IPRegionName(),
		IPCity:           s.IPCity(),
		IPLatitude:       s.IPLatitude(),
		IPLongitude:      s.IPLongitude(),
		IPPostalCode:     s.IPPostalCode(),
		IPAccuracyRadius: s.IPAccuracyRadius(),
		IPAreaCode:       s.IPAreaCode(),
		IPCountryName:    s.IPCountryName(),
		MaxmindID:        s.MaxmindID(),
		QueriesRemaining: s.QueriesRemaining(),
	}
}

// RunCheck submits one input through the client and flattens the outcome.
func RunCheck(ctx context.Context, client minfraud.Client, in CheckInput) (*CheckResult, error) {
	txn, err := in.ToTransaction(client)
	if err != nil {
		return nil, err
	}
	score, err := txn.Result(ctx)
	if err != nil {
		return nil, err
	}
	result := ResultFromScore(score)
	return &result, nil
}

// Check is one persisted fraud check.
type Check struct {
	ID        string      `json:"id"`
	IP        string      `json:"ip"`
	Result    CheckResult `json:"result"`
	CreatedAt time.Time   `json:"created_at"`
}
