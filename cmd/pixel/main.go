// Command pixel renders prompt templates, sends them to a hosted model and
// publishes the completion as HTML and markdown artifacts.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	logger.Cleanup()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err and its hints in the operator-facing format.
func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, errorStyle.Render("error:")+" "+err.Error())

	for _, hint := range errors.GetAllHints(err) {
		_, _ = fmt.Fprintln(w, hintStyle.Render("hint:")+" "+hint)
	}
}
