/*
Package todobot is a conversational to-do bot built around a per-user finite state machine.

Each user walks through short dialogs (registration, task creation, browsing and
deleting tasks). The bot tracks which step every user is in, keeps the partially
entered data between steps and asks for an explicit confirm/cancel before anything
is written to storage.

# Architecture

The Bot wires four pieces together:

  - pkg/state: the in-memory store of states and scratch data.
  - pkg/session: the per-user lock, plus optional durable snapshots and a distributed lock.
  - pkg/dispatch: routes every event to exactly one handler.
  - pkg/flow: the dialogs themselves.

Storage and transports are reached only through the ports in pkg/ports, so the same
Bot runs over the in-memory, SQLite or PostgreSQL gateway and behind the console or
HTTP/WebSocket transports.

# Usage

	gw := memory.NewGateway()
	bot, err := todobot.New(gw, todobot.WithPresenter(myPresenter))
	if err != nil {
		log.Fatal(err)
	}
	outcome, err := bot.Handle(ctx, domain.TextEvent(42, "/start"))

Handle is safe for concurrent use. Events of one user are processed one at a time,
different users proceed in parallel.
*/
package todobot
