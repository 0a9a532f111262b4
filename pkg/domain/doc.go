/*
Package domain contains the core domain models of the todobot conversation engine.

It defines the closed set of conversation states, the inbound events and outbound
replies exchanged with transports, the persisted entities (users and tasks) and the
typed drafts that flows keep in a user's scratch data. This package is kept pure and
free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - State: the step of a dialog a user is currently in.
  - Event: a text message or button press tagged with a user identity.
  - Reply: text plus an optional control (confirmation, menu, navigation) for the transport.
  - Session: a snapshot of one user's state and scratch data, used for durability.
  - User, Task: records owned by the persistence gateway.
*/
package domain
