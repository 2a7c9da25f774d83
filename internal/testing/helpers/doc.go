// Package helpers holds the small shared utilities the acceptance tests
// lean on.
//
// Token minting for authenticated requests:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	token := jwtHelper.GenerateToken(user)
//
// Services under test take a jwt.Service directly:
//
//	jwtService := helpers.NewTestJWTService(t)
//
// Database assertions accept bare or full record ids:
//
//	helpers.AssertRecordExists(t, tdb.DB, "event", event.ID)
//	helpers.AssertRecordNotExists(t, tdb.DB, "notification", n.ID)
//
// Pointer helpers build optional request fields:
//
//	req.Description = helpers.StringPtr("rooftop, weather permitting")
package helpers
