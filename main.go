package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"medidas-cloud/internal/audit"
	"medidas-cloud/internal/auth"
	"medidas-cloud/internal/config"
	ingestapp "medidas-cloud/internal/ingestion/application"
	ingestrepo "medidas-cloud/internal/ingestion/infrastructure/postgres"
	ingeststorage "medidas-cloud/internal/ingestion/infrastructure/storage"
	ingesthttp "medidas-cloud/internal/ingestion/interfaces/http"
	measuresrepo "medidas-cloud/internal/measures/infrastructure/postgres"
	measuresinterfaces "medidas-cloud/internal/measures/interfaces"
	"medidas-cloud/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	generalRepo := measuresrepo.NewGeneralRepository(db)
	psRepo := measuresrepo.NewPSRepository(db)
	fileRepo := ingestrepo.NewFileRepository(db)

	blobStore, err := ingeststorage.NewLocalStore(cfg.StorageRoot, logger)
	if err != nil {
		logger.Fatalf("storage error: %v", err)
	}

	processors, err := ingestapp.NewProcessors(generalRepo, psRepo)
	if err != nil {
		logger.Fatalf("processors error: %v", err)
	}
	ingestService, err := ingestapp.NewService(fileRepo, blobStore, processors, generalRepo, psRepo, cfg.DeleteAfterOK, logger)
	if err != nil {
		logger.Fatalf("ingestion service error: %v", err)
	}

	ingestHandler, err := ingesthttp.NewHandler(ingestService, auditRepo, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatalf("ingestion handler error: %v", err)
	}
	medidasHandler, err := measuresinterfaces.NewHandler(generalRepo, psRepo)
	if err != nil {
		logger.Fatalf("medidas handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/ingestion/files", ingestHandler)
	mux.Handle("/api/v1/ingestion/files/", ingestHandler)
	mux.Handle("/api/v1/medidas/general", medidasHandler)
	mux.Handle("/api/v1/medidas/ps", medidasHandler)
	mux.Handle("/api/v1/medidas/export.xlsx", medidasHandler)
	mux.Handle("/api/v1/medidas/export.pdf", medidasHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
