//go:build ignore

// Публикует тестовый запрос на оптимизацию маршрута и ждёт результат.
// Использование: go run scripts/test_publish.go -route <uuid> -owner <user> -mode distance
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/itinerary-microservice/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	routeFlag := flag.String("route", "", "Itinerary ID")
	owner := flag.String("owner", "test-user", "Owner of the itinerary")
	mode := flag.String("mode", string(domain.OptimizeDistance), "Optimization mode")
	flag.Parse()

	routeID, err := uuid.Parse(*routeFlag)
	if err != nil {
		log.Fatalf("Invalid -route: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := domain.OptimizeRequestedEvent{
		RequestID:   uuid.New(),
		RouteID:     routeID,
		OwnerID:     *owner,
		Mode:        domain.OptimizationMode(*mode),
		RequestedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Запоминаем хвост стрима результатов до публикации
	lastID := "$"
	if last, err := client.XRevRangeN(ctx, domain.StreamItineraryOptimized, "+", "-", 1).Result(); err == nil && len(last) > 0 {
		lastID = last[0].ID
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamItineraryOptimize,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamItineraryOptimize)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Request ID: %s\n", event.RequestID)
	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamItineraryOptimized)

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamItineraryOptimized, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil {
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var completed domain.OptimizeCompletedEvent
				if err := json.Unmarshal([]byte(dataStr), &completed); err != nil {
					continue
				}
				if completed.RequestID != event.RequestID {
					continue
				}

				pretty, _ := json.MarshalIndent(completed, "", "  ")
				fmt.Printf("\nResponse received:\n%s\n", pretty)
				return
			}
		}
	}

	fmt.Println("Timeout waiting for response")
}
