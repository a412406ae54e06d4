// Package api provides the HTTP REST API and WebSocket server for
// Taskforge Core.
//
// It exposes authentication (register, login, logout), task and
// project management, notifications and admin operations. Every
// request passes two gates: the authentication middleware validates
// the jwt cookie and binds an Identity to the request context, and
// the authorisation middleware checks that identity against the
// static route policy.
//
// The server follows the same lifecycle pattern as other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
