package minfraud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScore_Success(t *testing.T) {
	t.Parallel()

	body := "riskScore=23.29;distance=10489;countryMatch=Yes;countryCode=US;freeMail=No;" +
		"anonymousProxy=No;proxyScore=0.50;ip_region=TX;ip_regionName=Texas;ip_city=Austin;" +
		"ip_latitude=30.2672;ip_longitude=-97.7431;ip_postalCode=78701;ip_accuracyRadius=20;" +
		"ip_areaCode=512;ip_countryName=United States;highRiskCountry=No;ip_corporateProxy=No;" +
		"maxmindID=1A2B3C4D;queriesRemaining=959"

	s := ParseScore(body)

	assert.False(t, s.Errored())
	assert.Nil(t, s.Err())
	assert.Equal(t, 23.29, s.RiskScore())
	assert.Equal(t, "10489", s.Distance())
	assert.True(t, s.CountryMatch())
	assert.Equal(t, "US", s.CountryCode())
	assert.False(t, s.FreeMail())
	assert.False(t, s.AnonymousProxy())
	assert.Equal(t, 0.5, s.ProxyScore())
	assert.Equal(t, "TX", s.IPRegion())
	assert.Equal(t, "Texas", s.IPRegionName())
	assert.Equal(t, "Austin", s.IPCity())
	assert.Equal(t, 30.2672, s.IPLatitude())
	assert.Equal(t, -97.7431, s.IPLongitude())
	assert.Equal(t, "78701", s.IPPostalCode())
	assert.Equal(t, 20.0, s.IPAccuracyRadius())
	assert.Equal(t, "512", s.IPAreaCode())
	assert.Equal(t, "United States", s.IPCountryName())
	assert.False(t, s.HighRiskCountry())
	assert.False(t, s.CorporateProxy())
	assert.Equal(t, "1A2B3C4D", s.MaxmindID())
	assert.Equal(t, 959, s.QueriesRemaining())
}

func TestParseScore_ServiceError(t *testing.T) {
	t.Parallel()

	s := ParseScore("err=INVALID_LICENSE_KEY")

	require.True(t, s.Errored())
	require.NotNil(t, s.Err())
	assert.Equal(t, "INVALID_LICENSE_KEY", s.Err().Code)
	assert.Contains(t, s.Err().Error(), "INVALID_LICENSE_KEY")
}

func TestParseScore_ErrorKeyWinsOverFields(t *testing.T) {
	t.Parallel()

	s := ParseScore("riskScore=10.00;err=IP_REQUIRED")

	assert.True(t, s.Errored())
	assert.Equal(t, "IP_REQUIRED", s.Err().Code)
}

func TestParseScore_UnparseableBody(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "<html>service down</html>", ";;;"} {
		s := ParseScore(body)
		require.True(t, s.Errored(), "body %q", body)
		assert.Equal(t, CodeUnparseableResponse, s.Err().Code)
	}
}

func TestParseScore_MissingKeysYieldZeroValues(t *testing.T) {
	t.Parallel()

	s := ParseScore("riskScore=5.00")

	assert.False(t, s.Errored())
	assert.Equal(t, "", s.Distance())
	assert.Equal(t, "", s.CountryCode())
	assert.Equal(t, 0.0, s.IPLatitude())
	assert.False(t, s.AnonymousProxy())
	assert.Equal(t, 0, s.QueriesRemaining())

	_, ok := s.Field("distance")
	assert.False(t, ok)
}

func TestParseScore_ToleratesEmptySegmentsAndWhitespace(t *testing.T) {
	t.Parallel()

	s := ParseScore("riskScore=3.10; distance=42;;\n")

	assert.False(t, s.Errored())
	assert.Equal(t, 3.1, s.RiskScore())
	assert.Equal(t, "42", s.Distance())
}

func TestParseScore_ValueContainingEquals(t *testing.T) {
	t.Parallel()

	s := ParseScore("maxmindID=abc=def")

	v, ok := s.Field("maxmindID")
	require.True(t, ok)
	assert.Equal(t, "abc=def", v)
}

func TestParseScore_BoolTokenCase(t *testing.T) {
	t.Parallel()

	s := ParseScore("anonymousProxy=yes;highRiskCountry=YES;freeMail=true")

	assert.True(t, s.AnonymousProxy())
	assert.True(t, s.HighRiskCountry())
	// Only yes/no tokens are recognized.
	assert.False(t, s.FreeMail())
}

func TestParseScore_NonNumericFloatField(t *testing.T) {
	t.Parallel()

	s := ParseScore("riskScore=invalid")

	assert.Equal(t, 0.0, s.RiskScore())
}
