// Command ask is a local REPL against the dialogue engine: no HTTP, no
// Redis, just the catalog and (if GEMINI_API_KEY is set) the oracle.
//
//	go run ./cmd/ask -catalog catalog.json -mode staff
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mike-mirabal/barback/catalog"
	"github.com/mike-mirabal/barback/dialogue"
	"github.com/mike-mirabal/barback/gemini"
	"github.com/mike-mirabal/barback/session"
)

func main() {
	_ = godotenv.Load()

	catalogPath := flag.String("catalog", "catalog.json", "path to the catalog JSON file")
	mode := flag.String("mode", "guest", "access mode: guest or staff")
	flag.Parse()

	logger := zap.NewNop().Sugar()

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		log.Printf("⚠️ Catalog unavailable (%v), starting empty", err)
	}

	var oracle dialogue.Oracle
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		o, err := gemini.NewOracle(context.Background(), key, "gemini-2.5-flash", 15*time.Second)
		if err != nil {
			log.Fatalf("Failed to create oracle: %v", err)
		}
		defer o.Close()
		oracle = o
	}

	registry := session.NewMemory(20*time.Minute, logger)
	engine := dialogue.NewEngine(cat, registry, oracle, logger)

	fmt.Printf("barback REPL (%s mode). Ctrl-D to quit.\n", *mode)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		reply, err := engine.Respond(context.Background(), dialogue.Request{
			Query:    scanner.Text(),
			Mode:     dialogue.Mode(*mode),
			Identity: "repl",
		})
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		for i, bubble := range reply.Bubbles {
			fmt.Printf("[%d] %s\n", i+1, bubble)
		}
	}
}
