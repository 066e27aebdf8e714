package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"Clevis/internal/analysis"
	"Clevis/internal/auth"
	"Clevis/internal/importer"
	"Clevis/internal/projects"
	"Clevis/internal/repo"
	"Clevis/internal/report"
	"Clevis/internal/thread"
	"Clevis/internal/units"
)

var wg sync.WaitGroup

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func HandleList(mux *mux.Router, db *sql.DB) {
	userRepo := repo.NewPostgresDB(db)
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}
	tokenKey := os.Getenv("TOKEN_KEY")
	if tokenKey == "" {
		log.Fatal("TOKEN_KEY environment variable is not set")
	}

	registry := units.NewRegistry()
	resolver := thread.NewResolver(registry)

	authEnv := &auth.Authenv{JWTkey: []byte(tokenKey), Repo: userRepo}
	limiter := auth.NewIPRateLimiter(1, 3)

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	jointH := &analysis.Handler{Resolver: resolver, Registry: registry}
	threadH := &thread.Handler{Resolver: resolver}
	reportH := &report.Handler{Resolver: resolver, Registry: registry}
	importH := &importer.Handler{Resolver: resolver, Registry: registry}
	projectsH := &projects.Handler{Repo: userRepo, Resolver: resolver, Registry: registry}

	secureApi.HandleFunc("/tools/joint/calc", jointH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/joint/preloads", jointH.Preloads).Methods("POST")
	secureApi.HandleFunc("/tools/joint/stiffness", jointH.Stiffness).Methods("POST")
	secureApi.HandleFunc("/tools/joint/batch", jointH.Batch).Methods("POST")
	secureApi.HandleFunc("/tools/thread/resolve", threadH.Resolve).Methods("POST")
	secureApi.HandleFunc("/tools/report/pdf", reportH.Generate).Methods("POST")
	secureApi.HandleFunc("/tools/import/load-cases", importH.LoadCases).Methods("POST")

	secureApi.HandleFunc("/runs", projectsH.SaveRun).Methods("POST")
	secureApi.HandleFunc("/runs", projectsH.ListRuns).Methods("GET")
	secureApi.HandleFunc("/runs/{id:[0-9]+}", projectsH.GetRun).Methods("GET")
	secureApi.HandleFunc("/runs/{id:[0-9]+}", projectsH.DeleteRun).Methods("DELETE")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db := auth.InitDB()
	defer db.Close()
	mux := mux.NewRouter()
	HandleList(mux, db)
	handler := CORS(mux)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Println("Starting server on", addr)

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")

	wg.Wait()
}
