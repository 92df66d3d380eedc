/*
Package coachsdk is a Go client for the coach API.

A Client owns the HTTP transport and a cookie jar for the refresh cookie. A
Session built from it holds the short-lived access token in memory:

	client := coachsdk.NewClient("http://localhost:8080")
	session := client.NewSession()

	if _, err := session.Login(ctx, "me@csun.edu", password); err != nil {
		return err
	}
	defer session.Logout(context.Background())

	reply, err := session.Chat(ctx, "30 minute leg workout")

# Token renewal

Sessions renew the access token in two ways:

  - Reactively: a request rejected with 401 or 403 triggers one refresh and
    one retry. If the refresh fails the session ends and the original
    rejection is returned as an *APIError.
  - Proactively: a background Refresher renews the token every
    RefreshInterval (14 minutes by default) from sign-in until Logout or
    the first failed refresh.

Both paths share one in-flight refresh request.
*/
package coachsdk
