// Command patrolctl is the release-gate supervision core for the
// Indexer CLI: it provisions sandboxes, supervises agent sessions
// against a repo manifest, extracts observations, aggregates findings,
// evaluates the policy gate, and applies retention limits to the
// artifacts it leaves behind.
package main

func main() {
	Execute()
}
