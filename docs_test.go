// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package mockpass_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/mockpass/certs"
	"github.com/hashicorp/mockpass/provider"
	"github.com/hashicorp/mockpass/rp"
	"github.com/hashicorp/mockpass/token"
)

func Example_provider() {
	signingKey, err := token.ParsePrivateKey(certs.SigningKey)
	if err != nil {
		// handle error
	}
	rpKey, err := token.ParsePublicKey(certs.RelyingPartyPublicKey)
	if err != nil {
		// handle error
	}

	// Serve both variants, logging in as S8979373D unless the chooser page
	// is requested.
	p, err := provider.NewProvider(signingKey, rpKey, provider.WithDefaultNRIC("S8979373D"))
	if err != nil {
		// handle error
	}
	defer p.Done()

	_ = http.ListenAndServe(":5156", p.Routes())
}

func Example_rp() {
	ctx := context.Background()

	decryptionKey, err := token.ParsePrivateKey(certs.RelyingPartyKey)
	if err != nil {
		// handle error
	}
	c, err := rp.NewClient(ctx,
		"http://localhost:5156/singpass/metadata",
		"your_client_id",
		"your_client_secret",
		"http://your_redirect_url/callback",
		decryptionKey,
	)
	if err != nil {
		// handle error
	}
	defer c.Done()

	// Redirect the user here, with a state and nonce you keep for the
	// callback.
	authURL, err := c.AuthURL("state", "nonce")
	if err != nil {
		// handle error
	}
	fmt.Println(authURL)

	// In the callback handler, exchange the code.
	var code string
	t, err := c.Exchange(ctx, code, "nonce")
	if err != nil {
		// handle error
	}
	sub, err := rp.ParseSubject(t.IDToken.Subject)
	if err != nil {
		// handle error
	}
	fmt.Println(sub.NRIC, sub.UUID)
}
