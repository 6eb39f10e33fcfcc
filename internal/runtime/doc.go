/*
Package runtime implements the dialogue interpreter.

The Interpreter turns one inbound domain.Event into a state transition on the user's
session and a platform-neutral domain.Instruction. Every transition runs inside
session.Manager.Update, so events of one user are applied strictly in order while
different users proceed in parallel.

Node kinds are handled by a table of nodeHandler implementations (free text, single
choice, multi choice). Prompt and action nodes never hold a session: they are passed
through on the way to the next node that waits for input.
*/
package runtime
