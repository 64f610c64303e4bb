package main

import (
	"context"
	"log"
	"time"

	"threadpost/simulator"
)

func main() {
	config := simulator.SimConfig{
		NumUsers:         10,
		SimulationTime:   10 * time.Minute,
		MessageFrequency: 60.0,
		ReplyFrequency:   40.0,
		EditFrequency:    10.0,
		ReadFrequency:    80.0,
		BaseURL:          "http://localhost:8080",
	}

	log.Printf("Starting simulation with configuration:")
	log.Printf("- Base URL: %s", config.BaseURL)
	log.Printf("- Number of users: %d", config.NumUsers)
	log.Printf("- Simulation time: %v", config.SimulationTime)
	log.Printf("- Message frequency: %.2f messages/user/hour", config.MessageFrequency)
	log.Printf("- Reply frequency: %.2f replies/user/hour", config.ReplyFrequency)
	log.Printf("- Edit frequency: %.2f edits/user/hour", config.EditFrequency)
	log.Printf("- Read frequency: %.2f reads/user/hour", config.ReadFrequency)

	sim := simulator.New(config)
	ctx, cancel := context.WithTimeout(context.Background(), config.SimulationTime)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	stats := sim.GetStats()
	log.Printf("\nSimulation completed. Final stats:")
	log.Printf("- Total requests: %d (%d ok, %d failed)",
		stats.TotalRequests, stats.SuccessRequests, stats.FailedRequests)
	log.Printf("- Messages sent: %d", stats.TotalMessages)
	log.Printf("- Replies sent: %d", stats.TotalReplies)
	log.Printf("- Edits: %d", stats.TotalEdits)
	log.Printf("- Reads: %d", stats.TotalReads)
}
