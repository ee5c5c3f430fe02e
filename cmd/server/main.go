package main

import (
	"context"
	"log"

	"github.com/focusloop/backend/internal/reconcile"
	"github.com/focusloop/backend/internal/router"
	"github.com/focusloop/backend/internal/socialgraph"
	"github.com/focusloop/backend/pkg/config"
	"github.com/focusloop/backend/pkg/firebase"
	"github.com/focusloop/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Social graph store: Firestore in production, Badger for local runs
	var graphStore socialgraph.Store
	switch cfg.GraphBackend {
	case "badger":
		graphStore, err = socialgraph.OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			log.Fatalf("Failed to open badger graph store: %v", err)
		}
	default:
		graphStore = socialgraph.NewFirestoreStore(firebaseApp.Firestore)
	}
	defer graphStore.Close()

	// Redis counter cache (optional)
	rdb, err := config.InitRedis(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// The engine is the only writer of follow edges and counters
	engine := socialgraph.NewEngine(graphStore)

	// Counter reconciliation job: counters are a cache of the edge set and
	// this sweep is the drift backstop
	reconciler := reconcile.NewReconciler(graphStore, engine)
	cr := cron.New()
	if _, err := cr.AddJob(cfg.ReconcileSchedule, reconcile.Job{Reconciler: reconciler}); err != nil {
		log.Fatalf("Failed to schedule reconciler: %v", err)
	}
	cr.Start()
	defer cr.Stop()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseApp.AuthClient, graphStore, engine, rdb)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
