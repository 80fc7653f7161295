// Package api serves the derived catalog views over HTTP.
//
// # Routes
//
//	GET /healthz                          liveness
//	GET /v1/version                       build information
//	GET /v1/forest                        annotated hierarchy forest
//	GET /v1/nodes/{id}/ancestry           chain from region root to node
//	GET /v1/nodes/{id}/exercises          aggregated exercises of a subtree
//	GET /v1/nodes/{id}/connections        ranked cross-region connections
//	GET /v1/connections                   connection map for every node
//	GET /v1/layout                        positioned layout (JSON) or rendering
//
// /v1/connections and /v1/nodes/{id}/connections accept ?strategy=indexed|pairwise.
// /v1/layout accepts ?nodes=a,b, ?exercises=true, ?connections=true,
// ?level_width=, ?node_height= and ?format=json|svg|dot|png|pdf.
// Every view accepts ?refresh=true to bypass cached results.
//
// # Errors
//
// Errors are JSON objects carrying the machine-readable code from
// [errors.Code]:
//
//	{"error": {"code": "NOT_FOUND", "message": "node \"x\""}}
//
// NOT_FOUND maps to 404, input errors to 400, and INTEGRITY_ERROR to 500, so a
// client can tell a missing node from a corrupt catalog by status alone.
//
// Every response carries an X-Request-ID header; an incoming one is kept.
package api
