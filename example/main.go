// Minimal example for svgmaker-go: one blocking generation followed by a
// streaming generation. Reads SVGMAKER_API_KEY from the environment or a
// local .env file.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	svgmaker "github.com/GenWaveLLC/svgmaker-go"
	"github.com/joho/godotenv"
)

func main() {
	// Best effort; a missing .env just means the key comes from the shell.
	_ = godotenv.Load()

	client, err := svgmaker.NewClientFromEnv(
		svgmaker.WithMaxRetries(2),
		svgmaker.WithTimeout(3*time.Minute),
		svgmaker.WithSimpleLogger(),
	)
	if err != nil {
		log.Fatalf("creating client: %v", err)
	}
	ctx := context.Background()

	// --- Blocking generation ---
	result, err := client.Generate(ctx, &svgmaker.GenerateParams{
		Prompt:  "a minimalist mountain landscape at sunrise",
		Quality: svgmaker.QualityMedium,
	})
	if err != nil {
		if svgmaker.IsKind(err, svgmaker.KindInsufficientCredits) {
			log.Fatalf("out of credits: %v", err)
		}
		log.Fatalf("generate failed: %v", err)
	}
	fmt.Println("svg:", result.SVGURL)
	if result.Metadata != nil {
		fmt.Println("credits remaining:", result.Metadata.CreditsRemaining)
	}

	// --- Streaming generation with progress events ---
	stream, err := client.GenerateStream(ctx, &svgmaker.GenerateParams{
		Prompt: "a geometric fox logo",
	})
	if err != nil {
		log.Fatalf("stream connect failed: %v", err)
	}
	defer stream.Close()

	for stream.Next() {
		event := stream.Event()
		fmt.Printf("[%s] %s\n", event.Status, event.Message)
		if event.Terminal() {
			fmt.Println("svg:", event.SVGURL())
		}
	}
	if err := stream.Err(); err != nil {
		log.Fatalf("stream failed: %v", err)
	}
}
