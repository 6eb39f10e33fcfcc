/*
Package rapport is a conversation-graph interpreter for profile-collection chat bots.

A dialogue is a graph of nodes (prompts, single and multi choices, free text, actions)
loaded from a YAML file or a Loam directory. For every inbound event of a user, the
Engine applies one state transition to that user's durable session and returns a
platform-neutral domain.Instruction telling the host what to show next.

# Concept

The Engine owns no transport. Hosts (a chat bot, the HTTP adapter, the MCP server or the
terminal Runner) turn user actions into domain.Event values and render the returned
Instruction. Sessions are serialised per user and persisted through a ports.SessionStore
(memory, file, SQLite or Redis).

# Usage

	eng, err := rapport.New("examples/dating/graph.yaml",
		rapport.WithCatalog(cat),
		rapport.WithCommands(commands),
	)
	if err != nil {
		log.Fatal(err)
	}

	instr, err := eng.Dispatch(ctx, "user-42", domain.FreeText("a friend told me"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(instr.Text)
	for _, opt := range instr.Options {
		fmt.Println(" -", opt.Text)
	}
*/
package rapport
