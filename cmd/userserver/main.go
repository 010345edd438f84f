package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/api/userapi"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/auth"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/authz"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/configuration"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/events"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/services"
	"github.com/File-Sharing-BondBridg/Storage-Platform/internal/storage"
)

func main() {
	cfg := configuration.Load()

	serviceName := ""
	if cfg.DDTraceOn {
		serviceName = cfg.ServiceName + "-users"
		tracer.Start(tracer.WithService(serviceName))
		defer tracer.Stop()
	}

	users, err := storage.NewUserStore(cfg.UserDB.ConnectionString(), cfg.SoftDelete)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer users.Close()

	var publisher services.EventPublisher
	bus, err := events.Connect(cfg.NATSURL, "user-server")
	if err != nil {
		log.Printf("Warning: NATS unavailable, events disabled: %v", err)
	} else {
		defer bus.Close()
		publisher = bus
	}

	gate := authz.New(authz.Policy{
		View:     cfg.Roles.View,
		Download: cfg.Roles.Download,
		Upload:   cfg.Roles.Upload,
		Delete:   cfg.Roles.Delete,
	})
	svc := services.NewUserService(gate, users, publisher)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	setupGracefulShutdown()

	r := gin.Default()
	userapi.RegisterRoutes(r, svc, tokens, serviceName)

	log.Println("User server starting on :" + cfg.UserServer.Port)
	if err := r.Run(":" + cfg.UserServer.Port); err != nil {
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
