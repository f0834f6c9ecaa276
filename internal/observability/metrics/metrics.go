package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "medidas_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	fileUploads    *prometheus.CounterVec
	fileProcessed  *prometheus.CounterVec
	processLatency *prometheus.HistogramVec

	psExcludedRows prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		fileUploads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "file_uploads_total",
				Help: "Total ingestion file uploads by tipo",
			},
			[]string{"tipo"},
		)
		fileProcessed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "file_processed_total",
				Help: "Total ingestion file processing attempts by tipo and result",
			},
			[]string{"tipo", "result"},
		)
		processLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "file_process_latency_seconds",
				Help:    "Ingestion file processing latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tipo", "result"},
		)

		psExcludedRows = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ps_excluded_rows_total",
				Help: "Total PS rows with unclassifiable Poliza values",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "measures_export_total",
				Help: "Total measures export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "measures_export_latency_seconds",
				Help:    "Measures export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			fileUploads,
			fileProcessed,
			processLatency,
			psExcludedRows,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncFileUpload increments the upload counter.
func IncFileUpload(tipo string) {
	if tipo == "" {
		tipo = "unknown"
	}
	if fileUploads != nil {
		fileUploads.WithLabelValues(tipo).Inc()
	}
}

// ObserveFileProcessed records one processing attempt.
func ObserveFileProcessed(tipo string, err error, duration time.Duration) {
	if tipo == "" {
		tipo = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if fileProcessed != nil {
		fileProcessed.WithLabelValues(tipo, result).Inc()
	}
	if processLatency != nil {
		processLatency.WithLabelValues(tipo, result).Observe(duration.Seconds())
	}
}

// AddPSExcludedRows counts PS rows excluded by Poliza classification.
func AddPSExcludedRows(count int) {
	if count <= 0 {
		return
	}
	if psExcludedRows != nil {
		psExcludedRows.Add(float64(count))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format string, err error, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ingestion_files_pending",
			Help: "Ingestion files waiting to be processed",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM ingestion_files WHERE status = 'pending'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ingestion_files_error",
			Help: "Ingestion files in error state",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM ingestion_files WHERE status = 'error'")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
