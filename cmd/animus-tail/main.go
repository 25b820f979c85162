// Command animus-tail prints the agent's broadcast events as they are
// spooled to the data directory. Run the agent with ANIMUS_SPOOL_EVENTS=true.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/scrypster/animus/internal/notify"
	"github.com/scrypster/animus/pkg/types"
)

var (
	dataPath = flag.String("data", "", "Data directory (default: $ANIMUS_DATA_PATH or ./data)")
	asJSON   = flag.Bool("json", false, "Print raw JSON events, one per line")
	verbose  = flag.Bool("v", false, "Log watcher diagnostics to stderr")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	dir := *dataPath
	if dir == "" {
		dir = os.Getenv("ANIMUS_DATA_PATH")
	}
	if dir == "" {
		dir = "./data"
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	watcher := notify.NewEventWatcher(dir, func(ev types.Event) {
		if *asJSON {
			_ = enc.Encode(ev)
			return
		}
		fmt.Println(format(ev))
	}, logger)

	if err := watcher.Start(); err != nil {
		logger.Fatal().Err(err).Str("dir", dir).Msg("failed to watch events")
	}
	<-ctx.Done()
	watcher.Stop()
}

func format(ev types.Event) string {
	line := fmt.Sprintf("%s [%s] %s", ev.Timestamp.Local().Format("15:04:05"), ev.Type, ev.Text)
	if ev.Mood != "" {
		line += " (" + string(ev.Mood) + ")"
	}
	if ev.Trigger != "" {
		line += " <" + ev.Trigger + ">"
	}
	return line
}
