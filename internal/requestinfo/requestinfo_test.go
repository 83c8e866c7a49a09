package requestinfo

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"

const googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

type fakeGeo struct{ fail bool }

func (f fakeGeo) City(net.IP) (*geoip2.City, error) {
	if f.fail {
		return nil, errors.New("no record")
	}
	rec := &geoip2.City{}
	rec.Country.IsoCode = "FR"
	rec.City.Names = map[string]string{"en": "Paris"}
	return rec, nil
}

func serve(t *testing.T, geo GeoDB, req *http.Request) *RequestInfo {
	t.Helper()
	var got *RequestInfo
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})
	Enrich(geo)(next).ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, got)
	return got
}

func TestEnrich_ParsesUserAgent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("User-Agent", chromeMac)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	info := serve(t, nil, req)

	assert.Equal(t, "Chrome", info.UA.Browser)
	assert.Equal(t, "macOS", info.UA.OS)
	assert.Equal(t, "Desktop", info.UA.Device)
	assert.False(t, info.UA.IsBot)
	assert.Equal(t, "en-us", info.UA.PrimaryLang)
	assert.False(t, info.Timestamp.IsZero())
}

func TestEnrich_FlagsBots(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("User-Agent", googlebot)

	assert.True(t, serve(t, nil, req).UA.IsBot)
}

func TestEnrich_GeoLookup(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	req.Header.Set("X-Forwarded-For", "81.2.69.160, 10.0.0.1")

	info := serve(t, fakeGeo{}, req)
	assert.Equal(t, "81.2.69.160", info.Geo.IP.String())
	assert.Equal(t, "FR", info.Geo.CountryISO)
	assert.Equal(t, "Paris", info.Geo.City)

	info = serve(t, fakeGeo{fail: true}, req)
	assert.Empty(t, info.Geo.CountryISO)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(req).String())

	req.Header.Set("X-Real-Ip", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", clientIP(req).String())
}

func TestFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, FromContext(req.Context()))
}

func TestPrimaryLang(t *testing.T) {
	assert.Equal(t, "", primaryLang(""))
	assert.Equal(t, "fr", primaryLang("fr;q=0.8, en"))
}
