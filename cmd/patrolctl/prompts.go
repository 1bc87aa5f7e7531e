package main

import "github.com/nateschmiedehaus/indexer-patrol/internal/types"

// taskVariantOrder is the fixed sequence of task variants that the
// repos of one invocation are assigned in turn.
var taskVariantOrder = []types.TaskVariant{
	types.TaskExplore,
	types.TaskGuided,
	types.TaskConstruction,
}

// prompts carries the instruction text for each task variant, each
// ending with the same marker contract the Observation Extractor looks
// for.
var prompts = map[types.TaskVariant]string{
	types.TaskExplore: `You are evaluating the Indexer CLI on this freshly bootstrapped repo.
Explore the codebase using only the Indexer's query and status commands
before falling back to grep or manual file reads. Note what worked,
what didn't, and anything that surprised you.

When you are done, emit your findings as a single fenced JSON block
between lines reading exactly "===PATROL_OBSERVATION_START===" and
"===PATROL_OBSERVATION_END===", matching the Observation schema.`,

	types.TaskGuided: `You are evaluating the Indexer CLI on this repo with a specific goal:
locate the function or module responsible for its primary entry point
using only the Indexer's query commands. Record every feature and
construction type you exercise along the way.

When you are done, emit your findings as a single fenced JSON block
between lines reading exactly "===PATROL_OBSERVATION_START===" and
"===PATROL_OBSERVATION_END===", matching the Observation schema.`,

	types.TaskConstruction: `You are evaluating the Indexer CLI's construction-composition support
on this repo. Attempt at least two compositions of constructions the
Indexer surfaces (e.g. combining a call-graph construction with a
type-usage construction) and record whether each attempt succeeded.

When you are done, emit your findings as a single fenced JSON block
between lines reading exactly "===PATROL_OBSERVATION_START===" and
"===PATROL_OBSERVATION_END===", matching the Observation schema.`,
}

// promptFor returns the prompt text for variant.
func promptFor(variant types.TaskVariant) string {
	return prompts[variant]
}

// variantForIndex selects a task variant by rotating through
// taskVariantOrder by the repo's position in the invocation, so that
// successive repos exercise different agent tasks.
func variantForIndex(i int) types.TaskVariant {
	return taskVariantOrder[i%len(taskVariantOrder)]
}
