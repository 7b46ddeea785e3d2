package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campus-qa-be/internal/config"
	"campus-qa-be/pkg/events"
	"campus-qa-be/pkg/nats"
)

// eventtail follows the query-answered event stream so an operator can
// watch planner outcomes live while tuning prompts or models.
func main() {
	durable := flag.String("durable", "eventtail", "durable consumer name")
	subject := flag.String("subject", "events.>", "subject filter")
	flag.Parse()

	cfg := config.Load()

	sub, err := nats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(*subject, *durable, func(_ context.Context, event events.Event) error {
		line, err := json.Marshal(event.Payload())
		if err != nil {
			return err
		}
		log.Printf("%s %s", event.EventType(), line)
		return nil
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to subscribe: %v", err)
	}

	log.Printf("Tailing %s (durable %s), Ctrl+C to stop", *subject, *durable)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
}
