// Package billboardsdk is a small Go client for a Billboard site.
//
// The site is mostly HTML, so the client behaves like a browser: it keeps
// the session cookie in a jar, posts urlencoded forms and never follows
// redirects, handing the Location back to the caller instead. The JSON
// endpoints (/status, /livez, /readyz) decode into the types in this package,
// which the server also uses to write them.
//
// Basic usage:
//
//	client := billboardsdk.NewClient("http://localhost:8080")
//
//	if err := client.Register(ctx, "alice", "alice@example.com", "secret-pw"); err != nil {
//		return err
//	}
//	if _, err := client.Login(ctx, "alice@example.com", "secret-pw", billboardsdk.LoginOptions{}); err != nil {
//		return err
//	}
//	status, err := client.SetStatus(ctx, false)
//
// Errors are typed: JSON failures come back as *APIError, rejected HTML
// forms as *PageError. ErrInvalidCredentials and ErrRateLimited can be
// matched with errors.Is.
package billboardsdk
