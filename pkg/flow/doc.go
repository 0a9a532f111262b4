/*
Package flow implements the conversations of the bot on top of the dispatcher.

Four flows share one state store:

  - base: /start, /menu and onboarding of users without a state.
  - registration: name, login and the commit of a new user.
  - task: title, description and the commit of a new task.
  - browse: paging through open tasks, completing and deleting them.

Every data-mutating step goes through a confirm/cancel state. Commits happen before
the state advances, so a failed commit leaves the user where they were and a retry
re-issues it. Scratch data is only accessed through the typed drafts of pkg/domain.
*/
package flow
