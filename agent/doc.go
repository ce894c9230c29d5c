// Package agent implements the schoolmate orchestration core.
//
// An Orchestrator turns a natural-language query, optionally scoped to a
// subject (student), into a final answer in two reasoning-engine round-trips:
//
//	query -> Resolver -> Reconciler -> Dispatcher -> Synthesizer -> answer
//
// The Resolver asks the engine which capabilities to invoke. The Reconciler
// enforces that the caller's subject identifier always wins over one supplied
// by the engine. The Dispatcher runs the invocations concurrently, folding any
// failure into a failed outcome instead of aborting the batch. The
// Synthesizer turns the rendered outcomes into one answer.
//
// When the engine answers without invoking anything, its text is returned
// unchanged and no capability runs.
package agent
