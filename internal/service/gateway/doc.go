// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the service facade over a JSON WebSocket gateway.
//
// The client dials ws://server:port/v1/osw and exchanges three kinds of frames:
//
//	request   {"id": "7", "op": "post", "params": {...}}
//	response  {"id": "7", "code": 200, "error": "", "result": {...}}
//	push      {"event": "inbox", "kind": "received", "entry": {...}}
//
// Responses are matched to requests by id. Pushes update the inbox snapshot and
// are fanned out to inbox subscribers. Code 401 maps to
// service.ErrNotAuthenticated (except on login itself); any other non-2xx code
// becomes a *service.RequestError.
//
// Outgoing requests pass through a token-bucket limiter so a runaway script
// cannot flood the gateway.
package gateway
