package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yaronf/apsig"
)

// profile is a signing profile read from a YAML file, e.g.
//
//	keyId: https://example.com/actor#main-key
//	algorithm: rsa-sha256
//	keyFile: private.pem
//	headers: ["(request-target)", host, date, digest]
//	created: true
//	expires: 5m
//	contentDigest: [sha-256]
type profile struct {
	KeyID         string         `yaml:"keyId"`
	Algorithm     string         `yaml:"algorithm"`
	KeyFile       string         `yaml:"keyFile"`
	Headers       []string       `yaml:"headers"`
	Params        []profileParam `yaml:"params"`
	Created       bool           `yaml:"created"`
	Expires       string         `yaml:"expires"`
	Digest        string         `yaml:"digest"`
	ContentDigest []string       `yaml:"contentDigest"`
}

type profileParam struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func loadProfile(path string) (*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseProfile(data)
}

func parseProfile(data []byte) (*profile, error) {
	p := &profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("cannot parse profile: %w", err)
	}
	return p, nil
}

// signingConfig turns the profile into a signing configuration, reading the key from KeyFile.
// now is used for created and expires.
func (p *profile) signingConfig(now time.Time) (*apsig.SigningConfig, error) {
	if p.KeyFile == "" {
		return nil, fmt.Errorf("no key file given")
	}
	pemBytes, err := os.ReadFile(p.KeyFile)
	if err != nil {
		return nil, err
	}
	key, err := apsig.ParsePrivateKeyPEM(pemBytes)
	if err != nil {
		return nil, err
	}
	alg := apsig.RsaSha256
	if p.Algorithm != "" {
		alg, err = apsig.AlgorithmByName(p.Algorithm)
		if err != nil {
			return nil, err
		}
	}
	config, err := apsig.NewSigningConfig(alg, key, p.KeyID)
	if err != nil {
		return nil, err
	}
	if len(p.Headers) > 0 {
		config.SetSignedHeaders(p.Headers...)
	}
	for _, pp := range p.Params {
		config.AddParam(pp.Name, pp.Value)
	}
	if p.Created {
		config.SetCreated(now)
	}
	if p.Expires != "" {
		d, err := time.ParseDuration(p.Expires)
		if err != nil {
			return nil, fmt.Errorf("bad expires duration: %w", err)
		}
		config.SetExpires(now.Add(d))
	}
	return config, nil
}
