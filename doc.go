/*
Package apc coordinates when an interactive assistant escalates an inline conversation
into a structured design session, and how design work forked from an active track is
later merged back.

It implements a pure "(context, event) -> result" state machine. The Engine never
performs I/O or stores conversations: the Host feeds events, renders the returned
prompt and applies the returned action records to its own conversation context.

# Concept

The conversation is always in exactly one mode:

  - INLINE: normal conversation.
  - MICRO_CHECKPOINT: a lightweight [A]dvanced / [P]arty / [C]ontinue offer.
  - NUDGE: a suggestion to start a design session after repeated iteration.
  - DESIGN_SESSION: the four phases DISCOVER, DEFINE, DEVELOP, VERIFY.
  - DESIGN_BRANCH: a design session forked from an implementation track.
  - BRANCH_MERGE: choosing how a finished branch is reconciled with its track.

Passive triggers (checkpoint boundaries, rethink phrases, iteration counts) are gated by
per-topic cooldowns and preferences. Explicit commands always win.

# Usage

	eng, err := apc.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	conv := eng.NewContext()

	// A plan was just produced: offer a checkpoint.
	if ev, ok := eng.CheckpointBoundary(conv, domain.ArtifactPlan); ok {
		res := eng.Step(ctx, conv, ev)
		eng.Apply(ctx, conv, res)
		fmt.Println(res.Prompt)
	}

	// The user picked [A].
	res := eng.Step(ctx, conv, domain.NewEvent(domain.EventChoiceAdvanced))
	eng.Apply(ctx, conv, res)
	fmt.Println(conv.Mode, conv.Design.Phase) // DESIGN_SESSION DEVELOP

For a complete conversation loop with persistence see pkg/runner.
*/
package apc
