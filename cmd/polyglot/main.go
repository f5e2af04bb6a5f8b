// Polyglot detects the language of chat messages, translates them and
// summarizes long English ones using a local or hosted language model.
//
// Usage:
//
//	polyglot serve [--config /path/to/polyglot.yaml]
//	polyglot chat
//	polyglot translate "Bonjour tout le monde" --to en
//
// @title			polyglot API
// @version		1.0
// @description	Chat messages with language detection, translation and summarization.
// @BasePath		/
package main

import (
	"context"
	"os"

	"github.com/nadzzz/polyglot/internal/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
