// Package capability defines the immutable catalog of backend operations the
// reasoning engine may ask the agent to invoke.
//
// A Registry is built once at process start and injected wherever it is
// needed. It renders itself as model.ToolDefinition values so the engine sees
// the same names, descriptions and required parameters that the dispatcher
// later validates against.
package capability
