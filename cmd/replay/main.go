// Command replay recomputes a drop from its revealed seeds and prints the
// settlement as JSON.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/fairness"
	"github.com/blinko/backend/internal/game"
)

func main() {
	serverSeed := flag.String("server-seed", "", "revealed server seed (hex)")
	clientSeed := flag.String("client-seed", "", "client seed (hex)")
	digest := flag.String("digest", "", "published digest; when set the seeds are checked against it")
	wager := flag.Float64("wager", 10, "wager of the round")
	balance := flag.Float64("balance", 0, "balance before the round (defaults to the wager)")
	trace := flag.Bool("trace", false, "include every collision in the output")
	flag.Parse()

	if *serverSeed == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -server-seed HEX [-client-seed HEX] [-digest HEX] [-wager N]")
		os.Exit(2)
	}
	if *balance == 0 {
		*balance = *wager
	}

	physics, err := game.PhysicsConfigFrom(config.Load())
	if err != nil {
		log.Fatalf("Invalid table configuration: %v", err)
	}
	table, err := game.Configure(physics)
	if err != nil {
		log.Fatalf("Invalid table configuration: %v", err)
	}

	seeds := fairness.RevealedSeeds{ServerSeed: *serverSeed, ClientSeed: *clientSeed, Digest: *digest}
	if seeds.Digest == "" {
		server, err := decodeHex("server seed", *serverSeed)
		if err != nil {
			log.Fatal(err)
		}
		client, err := decodeHex("client seed", *clientSeed)
		if err != nil {
			log.Fatal(err)
		}
		seeds.Digest = fairness.Digest(server, client)
	}

	settlement, err := game.ReplayRevealed(table, seeds, *wager, *balance)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}
	if !*trace {
		settlement.Collisions = nil
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(settlement); err != nil {
		log.Fatalf("Failed to encode settlement: %v", err)
	}
}

func decodeHex(name, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, fairness.ErrInvalidSeed)
	}
	return b, nil
}
