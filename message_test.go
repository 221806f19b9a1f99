package apsig_test

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"

	"github.com/yaronf/apsig"
)

func ExampleSigningString() {
	reqStr := `GET /users/alice?page=1 HTTP/1.1
Host: example.org
Date: Tue, 20 Apr 2021 02:07:55 GMT
Signature: keyId="alice",algorithm="hs2019",created=1618884475,headers="(request-target) (created) host date",signature="c2ln"

`
	req, _ := http.ReadRequest(bufio.NewReader(strings.NewReader(reqStr)))

	// Using WithRequest
	msgWithRequest, _ := apsig.NewMessage(apsig.NewMessageConfig().WithRequest(req))

	// Using constituent parts
	msgWithConstituents, _ := apsig.NewMessage(apsig.NewMessageConfig().
		WithMethod(req.Method).
		WithURL(req.URL).
		WithHeaders(req.Header).
		WithAuthority(req.Host))

	h, _ := msgWithRequest.SignatureHeader()
	fmt.Println(apsig.SigningString(msgWithRequest, h) == apsig.SigningString(msgWithConstituents, h))
	fmt.Println(apsig.SigningString(msgWithConstituents, h))
	// Output:
	// true
	// (request-target): get /users/alice?page=1
	// (created): 1618884475
	// host: example.org
	// date: Tue, 20 Apr 2021 02:07:55 GMT
}
