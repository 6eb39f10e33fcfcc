/*
Package domain contains the core models of the rapport dialogue engine.

It defines the entities of the conversation state machine and is kept free of I/O
and persistence concerns.

# Key Entities

  - NodeDefinition: one step of the dialogue graph (prompt, choice, multi-choice, free text, action).
  - Action: the closed Goto | Command | URL variant attached to options.
  - Session: the per-user durable record (current node, profile, scratch selections, history).
  - Selection: an ordered set of catalogue items with toggle/union/replace operations.
  - Event: an inbound user action.
  - Instruction: the platform-neutral outbound render request.
*/
package domain
