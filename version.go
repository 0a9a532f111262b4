package todobot

// Version is overridden at build time with -ldflags "-X github.com/aretw0/todobot.Version=...".
var Version = "dev"
