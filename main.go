package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/pongsathonn/foodapp/internal"

	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := internal.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	initLogger(cfg)
	internal.SetupValidator()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := initMongoClient(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			slog.Error("failed to disconnect mongo", "err", err)
		}
	}()
	db := client.Database(cfg.MongoDatabase)

	rabbitmq := internal.NewDiscardRabbitMQ()
	if cfg.AMQPURI != "" {
		conn := initAMQPCon(cfg.AMQPURI)
		defer conn.Close()
		rabbitmq = internal.NewRabbitMQ(conn, cfg.AMQPExchange)
	} else {
		slog.Warn("AMQP_URI not set, order events are disabled")
	}

	authService := internal.NewAuthService(internal.NewUserStorage(db), cfg.JWTSigningKey, cfg.JWTTTL)
	orderService := internal.NewOrderService(
		internal.NewOrderStorage(db),
		internal.NewCancelledOrderStorage(db),
		internal.NewCounterStorage(db),
		internal.NewRestaurantStorage(db),
		internal.NewPaymentMethodStorage(db),
		rabbitmq,
		cfg.OrderNoPrefix,
	)
	paymentService := internal.NewPaymentService(internal.NewPaymentMethodStorage(db))
	restaurantService := internal.NewRestaurantService(internal.NewRestaurantStorage(db))

	if cfg.DefaultAdminEmail != "" {
		err := authService.SeedAdmin(ctx,
			cfg.DefaultAdminName,
			cfg.DefaultAdminEmail,
			cfg.DefaultAdminPassword,
			internal.Country(cfg.DefaultAdminCountry),
		)
		if err != nil {
			log.Fatal("Failed to seed admin: ", err)
		}
		slog.Info("default admin ready", "email", cfg.DefaultAdminEmail)
	}

	go orderService.RunMessageProcessing(ctx)

	handler := internal.NewHandler(
		authService,
		orderService,
		paymentService,
		restaurantService,
		func(ctx context.Context) error { return client.Ping(ctx, nil) },
	)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           internal.NewRouter(handler, cfg.CORSOrigin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("order service started", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to serve: ", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "err", err)
	}
}

func initLogger(cfg *internal.Config) {

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source := a.Value.Any().(*slog.Source)
				source.File = filepath.Base(source.File)
			}

			return a
		},
	}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func initAMQPCon(uri string) *amqp.Connection {
	maxRetries := 5
	var conn *amqp.Connection
	var err error

	for i := 1; i <= maxRetries; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			slog.Info("AMQP connection established")
			return conn
		}
		if i == maxRetries {
			log.Fatalf("Could not establish AMQP connection after %d attempts: %v", maxRetries, err)
		}
		time.Sleep(5 * time.Second)
	}

	log.Fatalf("Unexpected")
	return nil
}

func initMongoClient(cfg *internal.Config) *mongo.Client {

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping:", err)
	}

	slog.Info("MongoDB connection established")

	if err := createIndexes(ctx, client.Database(cfg.MongoDatabase)); err != nil {
		log.Fatal("Failed to create index:", err)
	}

	return client
}

// createIndexes backs the uniqueness rules of order numbers, cancellation
// records and user emails.
func createIndexes(ctx context.Context, db *mongo.Database) error {

	indexes := map[string][]mongo.IndexModel{
		"orders": {
			{
				Keys:    bson.D{{Key: "orderNo", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			},
		},
		"cancelledorders": {
			{
				Keys:    bson.D{{Key: "orderNo", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		"paymentmethods": {
			{
				Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}},
			},
		},
	}

	for coll, models := range indexes {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return err
		}
		slog.Info("MongoDB index created", "collection", coll, "index", names)
	}
	return nil
}
