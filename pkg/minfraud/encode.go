package minfraud

import "net/url"

// wireNames maps internal attribute names to the field names the minFraud
// legacy wire protocol expects. Attributes without an entry here are never
// transmitted, so internal names can evolve independently of the protocol
// vocabulary.
var wireNames = map[string]string{
	"license_key":     "license_key",
	"ip":              "i",
	"city":            "city",
	"state":           "region",
	"postal":          "postal",
	"country":         "country",
	"ship_addr":       "shipAddr",
	"ship_city":       "shipCity",
	"ship_state":      "shipRegion",
	"ship_postal":     "shipPostal",
	"ship_country":    "shipCountry",
	"email_domain":    "domain",
	"email_md5":       "emailMD5",
	"phone":           "custPhone",
	"bin":             "bin",
	"session_id":      "sessionID",
	"user_agent":      "user_agent",
	"accept_language": "accept_language",
	"txn_id":          "txnID",
	"amount":          "order_amount",
	"currency":        "order_currency",
	"txn_type":        "txn_type",
	"avs_result":      "avs_result",
	"cvv_result":      "cvv_result",
	"requested_type":  "requested_type",
	"forwarded_ip":    "forwardedIP",
}

// encodeAttributes translates an ordered attribute list into the form body
// for the scoring request. Unset values are sent as empty parameters, which
// is what the service expects for fields the merchant has no data for.
func encodeAttributes(attrs []attribute) url.Values {
	vals := make(url.Values, len(attrs))
	for _, a := range attrs {
		wire, ok := wireNames[a.name]
		if !ok {
			continue
		}
		v := ""
		if a.value != nil {
			v = *a.value
		}
		vals.Set(wire, v)
	}
	return vals
}
