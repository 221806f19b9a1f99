// Package apsig signs and verifies HTTP requests with the "Signature" header used between federated servers
// (draft-cavage-http-signatures, as deployed by ActivityPub implementations).
// See https://datatracker.ietf.org/doc/html/draft-cavage-http-signatures-12.
//
// To sign, create a SigningConfig and call SignRequest:
//
//	config, err := apsig.NewSigningConfig(apsig.RsaSha256, key, "https://example.com/actor#main-key")
//	err = apsig.SignRequest(config, req)
//
// To verify, look up the signer's public key with KeyID and call VerifyRequest.
// VerifyRequest distinguishes a signature that does not match (false, nil) from a request
// that cannot be verified at all (false, err).
//
// The created and expires fields are parsed but not checked; replay protection is up to the caller.
package apsig
