// Package crud serves the controllers of an admin registry over HTTP.
//
// Every controller is mounted at its URL with the routes:
//
//	GET    /                               summary page
//	GET    /new                            edit payload of a new row
//	GET    /{id}                           edit payload of a row
//	POST   /                               create
//	PUT    /{id}                           update
//	DELETE /{id}                           delete
//	POST   /delete                         delete the rows listed in "ids"
//	GET    /{id}/assoc/{assoc}             remote rows of an association
//	POST   /{id}/assoc/{assoc}/{remote}    attach
//	DELETE /{id}/assoc/{assoc}/{remote}    detach
//
// Responses are JSON. Failures carry a zero status and the error
// messages:
//
//	{"status":0,"errors":["title: value is required"]}
package crud
