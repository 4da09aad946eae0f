package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
)

// Steps:
// 1. Consume the presence topic airtagd publishes to when bus.kind is kafka
// 2. Keep the last payload per bus topic (the message key)
// 3. Print the collected state
// 4. Compare it against an expected {"topic": "payload"} JSON file
func main() {
	brokers := flag.String("brokers", "localhost:9092", "kafka broker")
	topic := flag.String("topic", "airtag-presence", "kafka topic")
	expectedPath := flag.String("expected", "./expected.json", "expected topic payloads")
	wait := flag.Duration("wait", time.Minute, "how long to consume")
	flag.Parse()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{*brokers},
		Topic:       *topic,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *wait)
	defer cancel()

	latest := make(map[string]string)
	retained := make(map[string]bool)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				fmt.Printf("failed to read message: %v\n", err)
			}
			break
		}
		key := string(msg.Key)
		latest[key] = string(msg.Value)
		for _, h := range msg.Headers {
			if h.Key == "retain" {
				retained[key] = true
			}
		}
	}

	topics := make([]string, 0, len(latest))
	for t := range latest {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	fmt.Println("Collected:")
	for _, t := range topics {
		fmt.Printf("  %-40s %-10s retained=%v\n", t, latest[t], retained[t])
	}

	data, err := os.ReadFile(*expectedPath)
	if err != nil {
		panic(fmt.Errorf("failed to open %s: %w", *expectedPath, err))
	}
	var expected map[string]string
	if err := json.Unmarshal(data, &expected); err != nil {
		panic(fmt.Errorf("failed to decode %s: %w", *expectedPath, err))
	}

	failed := false
	for t, want := range expected {
		got, ok := latest[t]
		switch {
		case !ok:
			fmt.Printf("Missing topic %s\n", t)
			failed = true
		case want != "*" && got != want:
			fmt.Printf("Mismatch on %s: expected %q, got %q\n", t, want, got)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
	fmt.Println("E2E test completed")
}
