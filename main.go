package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memora-app/memora/cache/redis"
	"github.com/memora-app/memora/engine"
	"github.com/memora-app/memora/mq/sqsmq"
	"github.com/memora-app/memora/store"
	"github.com/memora-app/memora/store/dynamo"
	"github.com/memora-app/memora/store/memory"
	"github.com/memora-app/memora/worker"
)

const (
	DynamoDBTable = "MemoraContent"
	SQSPurgeQueue = "TrashPurgeQueue"

	trashRetention = 30 * 24 * time.Hour
	sweepInterval  = 1 * time.Hour
)

func main() {
	ctx := context.Background()
	devMode := os.Getenv("DEV_MODE") == "true"

	var contentStore store.ContentStore
	if devMode && os.Getenv("DYNAMODB_ENDPOINT") == "" {
		// Local runs without a dynamodb container fall back to the
		// in-process store.
		contentStore = memory.NewMemoryContentStore()
	} else {
		dynamoStore, err := dynamo.NewDynamoContentStore(ctx, devMode, os.Getenv("DYNAMODB_ENDPOINT"), DynamoDBTable)
		if err != nil {
			log.Fatalf("Failed to create dynamodb store: %v", err)
		}
		contentStore = dynamoStore
	}

	contentCache, err := redis.NewRedisContentCache(ctx, devMode, os.Getenv("REDIS_ENDPOINT"))
	if err != nil {
		log.Fatalf("Failed to create redis cache: %v", err)
	}

	purgeQueue, err := sqsmq.NewSQSMessageQueue(ctx, devMode, os.Getenv("SQS_ENDPOINT"), SQSPurgeQueue)
	if err != nil {
		log.Fatalf("Failed to create SQS MQ: %v", err)
	}

	contentEngine := engine.NewEngine(contentStore, contentCache)

	shutdownCtx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	trashSweeper := worker.NewTrashSweeper(contentStore, purgeQueue, trashRetention, sweepInterval)
	purgeConsumer := worker.NewPurgeConsumer(purgeQueue, contentEngine)

	go trashSweeper.Run(shutdownCtx)
	go purgeConsumer.Run(shutdownCtx)

	log.Printf("Storage engine workers running (dev mode: %v)", devMode)
	<-shutdownCtx.Done()
	log.Printf("Shutting down...")
}
