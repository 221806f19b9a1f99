package apsig

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Real-world Mastodon 4.0 request
var mastodonSignature = `keyId="https://c3d2.social/actor#main-key",algorithm="rsa-sha256",headers="(request-target) host date digest content-type",signature="jeZwvES9qqa6atwASUXHLSynt3rd8OhoNQvnjqhdYkChxahG0QnQDJQcFkEptyjVgODGOqEkdYuqwsJfCh0CLvLMPS0TBefyzFbTB+BVtIWcCANnCNLWlKup0aRqPoH9reN0NaEIqj8JqhN/Bhh2THJdHWAWexCnLQbiKQ2Dy+lk697wSTQ1H4sh8xd1ZtgCPXaoO3Q6oobuBs/d/hcKuxuPFHvikbtQaQfUQjG5MtDm994HkqpYx/+QMfYPw7lcQVStFZ3BbQgrfs4g83OPo2+uu6Q+KQ5ZxR6oHd9N3nmpZO2f+XBZ3j767kVgTnPrHAiqCGX7I3+M8PqAAWERYg=="`

var mastodonPubKey = `-----BEGIN PUBLIC KEY-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAulcRhqjl6GZG9l+Ye29J
cOYSTpS+rvGvc4YQtIbd08P2jLaiw4k+Nj90sClLV5fQzNG5fo+S8dR85U6VqyL5
GpixD6x0kuclyBjuTDxd9gh+voix5MVSFuOXM88X5z8glfkiQd/os7NmWgTM9mXI
sy7q8ZwhaMmijEK2E53ms06yDAeaO3/uCcUt1+CRUOxCEiRf6nMo9SC3ceFG/uma
/5ck8QgOcxRvCpfH+q25q7qVxDzeWDAfAXnyGybdxiNfJ/9qrCQ05o5BDI3s6ED0
uPfZdThhEAM/5k3hozDTXZ5umVA9QsV53Kc73z8w7H1Rb+6acfRca+6kFlRdM3Gd
MwIDAQAB
-----END PUBLIC KEY-----
`

var mastodonSigningString = "(request-target): post /test\n" +
	"host: relay.fedi.buzz\n" +
	"date: Wed, 07 Dec 2022 17:25:25 GMT\n" +
	"digest: SHA-256=Kr9tlIjunJw2X/ceUWcezSYxI+OTxQPxpyCrOS0yvLc=\n" +
	"content-type: application/activity+json"

func mastodonRequest(t *testing.T) *http.Request {
	req, err := http.NewRequest("POST", "/test", nil)
	require.NoError(t, err)
	req.Header.Set("Host", "relay.fedi.buzz")
	req.Header.Set("Date", "Wed, 07 Dec 2022 17:25:25 GMT")
	req.Header.Set("Digest", "SHA-256=Kr9tlIjunJw2X/ceUWcezSYxI+OTxQPxpyCrOS0yvLc=")
	req.Header.Set("Content-Type", "application/activity+json")
	req.Header.Set("Signature", mastodonSignature)
	return req
}

var httpreq1 = `POST /inbox?page=2 HTTP/1.1
Host: example.com
Date: Wed, 07 Dec 2022 17:25:25 GMT
Content-Type: application/activity+json
X-Unsigned: something
Content-Length: 18

{"hello": "world"}`

func readRequest(t *testing.T, s string) *http.Request {
	req, err := http.ReadRequest(bufio.NewReader(strings.NewReader(s)))
	require.NoError(t, err, "cannot read request")
	return req
}

func newTestRequest(t *testing.T) *http.Request {
	req, err := http.NewRequest("POST", "https://example.com/inbox", nil)
	require.NoError(t, err)
	req.Header.Set("Date", "Wed, 07 Dec 2022 17:25:25 GMT")
	req.Header.Set("Content-Type", "application/activity+json")
	req.Header.Set("Digest", "SHA-256=X48E9qOokqqrvdts8nOJRJN3OWDUoyWxBf7kbu9DBPE=")
	return req
}

var (
	rsaKeyOnce sync.Once
	rsaKey     *rsa.PrivateKey
	rsaKeyErr  error
)

// testKeys returns a key pair for alg. RSA keys are 2048 bits and shared between tests.
func testKeys(t *testing.T, alg Algorithm) (*PrivateKey, *PublicKey) {
	t.Helper()
	var priv *PrivateKey
	var err error
	switch alg.Name() {
	case "rsa-sha256":
		rsaKeyOnce.Do(func() {
			rsaKey, rsaKeyErr = rsa.GenerateKey(rand.Reader, 2048)
		})
		require.NoError(t, rsaKeyErr)
		priv, err = NewPrivateKey(rsaKey)
	case "hs2019":
		var k ed25519.PrivateKey
		_, k, err = ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		priv, err = NewPrivateKey(k)
	default:
		t.Fatalf("no test keys for %s", alg)
	}
	require.NoError(t, err)
	return priv, priv.Public()
}
