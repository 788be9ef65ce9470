package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/access"
	"slotbook/admin"
	"slotbook/catalog"
	"slotbook/db"
	"slotbook/ledger"
	"slotbook/live"
	"slotbook/printout"
	"slotbook/ratelim"
	"slotbook/rdx"
	"slotbook/routes"
	"slotbook/store/mongostore"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx, cancelRelay := context.WithCancel(context.Background())
	defer cancelRelay()

	client, database, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("MongoDB unavailable: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := rdx.Init(ctx); err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
	}
	defer rdx.Close()

	st := mongostore.New(database)

	gate := access.New(st)
	cat := catalog.New(st)
	ldg := ledger.New(st)
	resetSvc := admin.NewService(st)

	// Seed any missing slots on every start; idempotent.
	if created, err := cat.EnsureSeeded(ctx); err != nil {
		log.Fatalf("Slot seeding failed: %v", err)
	} else if created > 0 {
		log.Printf("Seeded %d slots", created)
	}

	hub := live.NewHub()
	go hub.Run()
	hub.StartEventRelay(ctx)

	rateLimiter := ratelim.NewRateLimiter()

	router := httprouter.New()
	router.GET("/health", Index)
	routes.AddAuthRoutes(router, access.NewAPI(gate), rateLimiter)
	routes.AddSlotRoutes(router, catalog.NewAPI(cat, ldg))
	routes.AddBookingRoutes(router, ledger.NewAPI(ldg, hub), rateLimiter)
	routes.AddPrintRoutes(router, printout.NewAPI(ldg, cat))
	routes.AddAdminRoutes(router, admin.NewAPI(resetSvc, cat, gate, hub), rateLimiter)
	routes.AddLiveRoutes(router, hub)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		cancelRelay()
		hub.Stop()
	})

	go func() {
		log.Printf("Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}

	log.Println("Server stopped cleanly")
}
