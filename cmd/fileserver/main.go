package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/api/fileapi"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/configuration"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/events"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/scan"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
)

func main() {
	cfg := configuration.Load()

	serviceName := ""
	if cfg.DDTraceOn {
		serviceName = cfg.ServiceName + "-files"
		tracer.Start(tracer.WithService(serviceName))
		defer tracer.Stop()
	}

	records, err := storage.NewFileStore(cfg.FileDB.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer records.Close()

	blobs, err := storage.NewBlobStore(cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.BucketName, cfg.MinIO.UseSSL)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	var bus *events.Bus
	bus, err = events.Connect(cfg.NATSURL, "file-server")
	if err != nil {
		log.Printf("Warning: NATS unavailable, events disabled: %v", err)
		bus = nil
	} else {
		defer bus.Close()
	}

	gate := authz.New(authz.Policy{
		View:     cfg.Roles.View,
		Download: cfg.Roles.Download,
		Upload:   cfg.Roles.Upload,
		Delete:   cfg.Roles.Delete,
	})

	var publisher services.EventPublisher
	if bus != nil {
		publisher = bus
	}
	svc := services.NewFileService(gate, records, blobs, publisher, cfg.Upload)

	if bus != nil {
		// purge a deleted user's storage when the user service says so
		_, err := bus.Subscribe(events.SubjectUserDeleted, "file-purger", func(msg *nats.Msg) {
			var event events.UserDeletedEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				log.Println("[NATS] Dropping malformed users.deleted event:", err)
				events.Ack(msg)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := svc.PurgeOwner(ctx, event.UserID); err != nil {
				log.Printf("[NATS] Purge failed for user %s: %v", event.UserID, err)
				events.Nak(msg)
				return
			}
			events.Ack(msg)
		})
		if err != nil {
			log.Printf("Warning: failed to subscribe to %s: %v", events.SubjectUserDeleted, err)
		}

		if cfg.CLAMAVURL != "" {
			worker := scan.NewWorker(records, blobs, cfg.CLAMAVURL)
			if err := worker.Start(bus); err != nil {
				log.Printf("Warning: failed to start scan worker: %v", err)
			}
		}
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	setupGracefulShutdown()

	r := gin.Default()
	fileapi.RegisterRoutes(r, svc, tokens, serviceName)

	log.Println("File server starting on :" + cfg.FileServer.Port)
	if err := r.Run(":" + cfg.FileServer.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Shutting down gracefully...")
		os.Exit(0)
	}()
}
