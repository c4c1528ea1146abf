/*
Package runner drives conversation turns through the design-support engine.

A turn takes one line of user text for a session, sanitizes it, turns it into
events (explicit reply tokens such as "c" or "m2", or passive triggers detected
in free text), dispatches each event and applies the result to the session's
context, then persists it. The session.Manager guarantees one in-flight turn
per context.

# Key Components

  - Runner: executes turns against a ports.Coordinator and a session.Manager.
  - ParseInput: maps reply tokens to events and host directives.
  - TextHandler: interactive line-oriented chat loop.
  - JSONHandler: JSON-lines loop for headless integrations.

# Usage

	engine, _ := apc.New()
	r := runner.New(engine, session.NewManager(memory.NewStore()))

	res, err := r.Turn(ctx, "user-1", "ds")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Prompt())
*/
package runner
