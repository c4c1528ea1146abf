package apc_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/apc"
	"github.com/aretw0/apc/pkg/domain"
)

// ExampleEngine_Step walks a checkpoint escalated into a design session.
func ExampleEngine_Step() {
	eng, err := apc.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	conv := eng.NewContext()

	// A plan was just written.
	ev, ok := eng.CheckpointBoundary(conv, domain.ArtifactPlan)
	if !ok {
		log.Fatal("no checkpoint")
	}
	res := eng.Step(ctx, conv, ev)
	eng.Apply(ctx, conv, res)
	fmt.Println(conv.Mode)

	// The user wants an Advanced look.
	conv.Tick()
	res = eng.Step(ctx, conv, domain.NewEvent(domain.EventChoiceAdvanced))
	eng.Apply(ctx, conv, res)
	fmt.Println(conv.Mode, conv.Design.Phase)
	fmt.Println(res.Prompt)

	// Output:
	// MICRO_CHECKPOINT
	// DESIGN_SESSION DEVELOP
	// Upgrading to FULL Design Session with Advanced analysis. Importing current context...
}

// ExampleEngine_Detect shows the nudge raised by repeated iteration.
func ExampleEngine_Detect() {
	eng, err := apc.New(apc.WithPreferences(domain.Preferences{
		DefaultDesignMode: domain.DesignSpeed,
		NudgeSensitivity:  domain.SensitivityHigh,
	}))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	conv := eng.NewContext()

	for _, msg := range []string{"what if we swap the steps?", "let's try another order"} {
		conv.Tick()
		d := eng.Detect(ctx, conv, msg)
		eng.ApplyActions(ctx, conv, d.Actions)
		for _, ev := range d.Events {
			res := eng.Step(ctx, conv, ev)
			eng.Apply(ctx, conv, res)
		}
	}
	fmt.Println(conv.Mode, conv.Iterations[domain.DefaultTopic])

	// Output:
	// NUDGE 2
}
