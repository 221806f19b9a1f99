// Command apsig signs and verifies HTTP requests with the "Signature" header used between federated servers.
//
// Usage:
//
//	apsig keygen -alg hs2019 -out private.pem -pub public.pem
//	apsig sign -key private.pem -keyid https://example.com/actor#main-key < request.txt
//	apsig verify -pubkey public.pem < request.txt
//
// Requests are read from standard input in HTTP/1.1 wire format. sign writes the signed request
// to standard output; verify exits with status 0 if the signature is valid, 1 if it is not, and 2 on error.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"os"
	"strings"
	"time"

	"github.com/yaronf/apsig"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("apsig: ")
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "keygen":
		err = keygen(os.Args[2:])
	case "sign":
		err = sign(os.Args[2:], os.Stdin, os.Stdout)
	case "verify":
		var verified bool
		verified, err = verify(os.Args[2:], os.Stdin, os.Stdout)
		if err == nil && !verified {
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Print(err)
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: apsig keygen|sign|verify [flags]")
}

func keygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	algName := fs.String("alg", apsig.RsaSha256.Name(), "algorithm: rsa-sha256 or hs2019")
	out := fs.String("out", "", "private key output file (default stdout)")
	pub := fs.String("pub", "", "public key output file")
	_ = fs.Parse(args)

	alg, err := apsig.AlgorithmByName(*algName)
	if err != nil {
		return err
	}
	priv, public, err := alg.GenerateKeys()
	if err != nil {
		return err
	}
	privPEM, err := priv.PEM()
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = os.Stdout.Write(privPEM)
	} else {
		err = os.WriteFile(*out, privPEM, 0o600)
	}
	if err != nil {
		return err
	}
	if *pub != "" {
		pubPEM, err := public.PEM()
		if err != nil {
			return err
		}
		return os.WriteFile(*pub, pubPEM, 0o644)
	}
	return nil
}

func sign(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	profilePath := fs.String("config", "", "YAML signing profile")
	keyFile := fs.String("key", "", "PEM private key file")
	keyID := fs.String("keyid", "", "key id to publish")
	algName := fs.String("alg", "", "algorithm: rsa-sha256 or hs2019")
	headers := fs.String("headers", "", "space separated list of fields to sign")
	digest := fs.String("digest", "", "add a Digest header with this scheme (sha-256 or sha-512) before signing")
	contentDigest := fs.String("content-digest", "", "add a Content-Digest header with these space separated schemes before signing")
	verbose := fs.Bool("v", false, "print the signing string to stderr")
	_ = fs.Parse(args)

	p := &profile{}
	if *profilePath != "" {
		var err error
		p, err = loadProfile(*profilePath)
		if err != nil {
			return err
		}
	}
	if *keyFile != "" {
		p.KeyFile = *keyFile
	}
	if *keyID != "" {
		p.KeyID = *keyID
	}
	if *algName != "" {
		p.Algorithm = *algName
	}
	if *headers != "" {
		p.Headers = strings.Fields(*headers)
	}
	if *digest != "" {
		p.Digest = *digest
	}
	if *contentDigest != "" {
		p.ContentDigest = strings.Fields(*contentDigest)
	}
	config, err := p.signingConfig(time.Now())
	if err != nil {
		return err
	}

	req, err := http.ReadRequest(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("cannot read request: %w", err)
	}
	if p.Digest != "" {
		if err := apsig.SetDigest(req, p.Digest); err != nil {
			return err
		}
	}
	if len(p.ContentDigest) > 0 {
		if err := apsig.SetContentDigest(req, p.ContentDigest...); err != nil {
			return err
		}
	}
	if err := apsig.SignRequest(config, req); err != nil {
		return err
	}
	if *verbose {
		m, err := apsig.NewMessage(apsig.NewMessageConfig().WithRequest(req))
		if err != nil {
			return err
		}
		h, err := m.SignatureHeader()
		if err != nil {
			return err
		}
		log.Printf("signing string:\n%s", apsig.SigningString(m, h))
	}
	dump, err := httputil.DumpRequest(req, true)
	if err != nil {
		return err
	}
	_, err = out.Write(dump)
	return err
}

func verify(args []string, in io.Reader, out io.Writer) (bool, error) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	pubFile := fs.String("pubkey", "", "PEM public key file")
	verbose := fs.Bool("v", false, "print the signing string to stderr")
	_ = fs.Parse(args)

	if *pubFile == "" {
		return false, fmt.Errorf("no public key given")
	}
	pemBytes, err := os.ReadFile(*pubFile)
	if err != nil {
		return false, err
	}
	key, err := apsig.ParsePublicKeyPEM(pemBytes)
	if err != nil {
		return false, err
	}
	req, err := http.ReadRequest(bufio.NewReader(in))
	if err != nil {
		return false, fmt.Errorf("cannot read request: %w", err)
	}
	m, err := apsig.NewMessage(apsig.NewMessageConfig().WithRequest(req))
	if err != nil {
		return false, err
	}
	if keyID, ok := m.KeyID(); ok {
		log.Printf("key id: %s", keyID)
	}
	verified, signingInput, err := m.VerifyDebug(key)
	if *verbose && signingInput != "" {
		log.Printf("signing string:\n%s", signingInput)
	}
	if err != nil {
		return false, err
	}
	fmt.Fprintf(out, "verified: %t\n", verified)
	return verified, nil
}
