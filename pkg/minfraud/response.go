package minfraud

import (
	"fmt"
	"strconv"
	"strings"
)

// errorKey is the response field the service uses to report request-level
// failures such as INVALID_LICENSE_KEY or IP_REQUIRED.
const errorKey = "err"

// CodeUnparseableResponse is the synthetic error code assigned to a response
// body that does not contain a single key=value pair. The service never
// declares this code itself; it gives callers one error surface for both
// provider-reported failures and garbage bodies.
const CodeUnparseableResponse = "UNPARSEABLE_RESPONSE"

// ServiceError is a failure reported by the scoring service itself, as
// opposed to a transport failure reaching it.
type ServiceError struct {
	Code string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("minfraud: service error: %s", e.Code)
}

// Score is the decoded outcome of one scoring request. Accessors read raw
// fields from the response and apply the minimal coercion each field calls
// for; a field missing from the response yields the coercion's zero value.
type Score struct {
	fields map[string]string
	svcErr *ServiceError
}

// ParseScore decodes a raw response body. Pairs are separated by ";" and
// each pair is key=value. A non-empty err field, or a body with no pairs at
// all, produces an errored score.
func ParseScore(body string) *Score {
	fields := make(map[string]string)
	for _, pair := range strings.Split(body, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		fields[k] = v
	}

	s := &Score{fields: fields}
	if code := fields[errorKey]; code != "" {
		s.svcErr = &ServiceError{Code: code}
	} else if len(fields) == 0 {
		s.svcErr = &ServiceError{Code: CodeUnparseableResponse}
	}
	return s
}

// Errored reports whether the service rejected the request.
func (s *Score) Errored() bool {
	return s.svcErr != nil
}

// Err returns the service error, or nil for a successful score.
func (s *Score) Err() *ServiceError {
	return s.svcErr
}

// Field returns the raw string value of a response field, for keys without a
// typed accessor.
func (s *Score) Field(name string) (string, bool) {
	v, ok := s.fields[name]
	return v, ok
}

func (s *Score) floatField(name string) float64 {
	f, err := strconv.ParseFloat(s.fields[name], 64)
	if err != nil {
		return 0
	}
	return f
}

func (s *Score) intField(name string) int {
	n, err := strconv.Atoi(s.fields[name])
	if err != nil {
		return 0
	}
	return n
}

// boolField decodes the service's Yes/No tokens. Anything other than a yes
// token, including a missing field, is false.
func (s *Score) boolField(name string) bool {
	return strings.EqualFold(s.fields[name], "yes")
}

// RiskScore returns the overall risk score, 0 (lowest) to 100 (highest).
func (s *Score) RiskScore() float64 { return s.floatField("riskScore") }

// ProxyScore returns the likelihood (0-4) that the IP is an open proxy.
func (s *Score) ProxyScore() float64 { return s.floatField("proxyScore") }

// Distance returns the distance in km between the IP location and the
// billing address.
func (s *Score) Distance() string { return s.fields["distance"] }

// CountryMatch reports whether the billing country matches the IP country.
func (s *Score) CountryMatch() bool { return s.boolField("countryMatch") }

// CountryCode returns the ISO 3166-1 code of the IP's country.
func (s *Score) CountryCode() string { return s.fields["countryCode"] }

// FreeMail reports whether the email domain is a free mail provider.
func (s *Score) FreeMail() bool { return s.boolField("freeMail") }

// AnonymousProxy reports whether the IP is a known anonymous proxy.
func (s *Score) AnonymousProxy() bool { return s.boolField("anonymousProxy") }

// CorporateProxy reports whether the IP belongs to a corporate proxy.
func (s *Score) CorporateProxy() bool { return s.boolField("ip_corporateProxy") }

// HighRiskCountry reports whether the IP is in a country with a high rate
// of fraudulent transactions.
func (s *Score) HighRiskCountry() bool { return s.boolField("highRiskCountry") }

// IPRegion returns the region code of the IP location.
func (s *Score) IPRegion() string { return s.fields["ip_region"] }

// IPRegionName returns the region name of the IP location.
func (s *Score) IPRegionName() string { return s.fields["ip_regionName"] }

// IPCity returns the city of the IP location.
func (s *Score) IPCity() string { return s.fields["ip_city"] }

// IPLatitude returns the latitude of the IP location.
func (s *Score) IPLatitude() float64 { return s.floatField("ip_latitude") }

// IPLongitude returns the longitude of the IP location.
func (s *Score) IPLongitude() float64 { return s.floatField("ip_longitude") }

// IPPostalCode returns the postal code of the IP location.
func (s *Score) IPPostalCode() string { return s.fields["ip_postalCode"] }

// IPAccuracyRadius returns the accuracy radius in km around the IP location.
func (s *Score) IPAccuracyRadius() float64 { return s.floatField("ip_accuracyRadius") }

// IPAreaCode returns the telephone area code of the IP location.
func (s *Score) IPAreaCode() string { return s.fields["ip_areaCode"] }

// IPCountryName returns the country name of the IP location.
func (s *Score) IPCountryName() string { return s.fields["ip_countryName"] }

// MaxmindID returns MaxMind's unique identifier for this request.
func (s *Score) MaxmindID() string { return s.fields["maxmindID"] }

// QueriesRemaining returns the number of service queries left on the
// account's license.
func (s *Score) QueriesRemaining() int { return s.intField("queriesRemaining") }
