// Package console styles the line-based conversation of todobot.Runner for terminals.
//
// When the output is not a terminal every helper degrades to plain text, so piped
// sessions and tests see the same bytes the bot produced.
package console
