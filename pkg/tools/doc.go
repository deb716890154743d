// Package tools defines the tool registry and the dispatch bridge.
//
// A ToolSpec pairs a name and JSON parameter schema (derived from a Go
// struct) with the handler that performs the external operation. The
// Dispatcher validates a role's invocation request against the registry:
// capability check first, then schema validation, then a bounded-timeout
// handler call. Collaborator failures become error text in the ToolCall
// record so the issuing role can see and react to them; the bridge never
// retries on its own.
package tools
