// Package client is the walletd Go SDK.
//
// It wraps every HTTP route of the server: account registration and login,
// and the authenticated balance routes.
//
//	c, err := client.New("http://localhost:4000")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := c.Login(ctx, "alice", "pw1"); err != nil {
//	    log.Fatal(err)
//	}
//	entries, err := c.ListEntries(ctx)
//
// Login and Register store the returned token on the client, so later calls
// are authenticated. A saved token can be supplied up front with WithToken.
//
// Failed calls return *APIError carrying the HTTP status and the server's
// message:
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
//	    // no such currency
//	}
package client
