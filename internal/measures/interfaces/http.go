package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"medidas-cloud/internal/auth"
	measures "medidas-cloud/internal/measures/domain"
	"medidas-cloud/internal/observability/metrics"
)

// GeneralLister reads monthly balance aggregates.
type GeneralLister interface {
	List(ctx context.Context, tenantID int64, empresaID *int64, anio, mes *int) ([]*measures.MedidaGeneral, error)
}

// PSLister reads monthly PS aggregates.
type PSLister interface {
	List(ctx context.Context, tenantID int64, empresaID *int64, anio, mes *int) ([]*measures.MedidaPS, error)
}

// Handler provides read and export endpoints for measure aggregates.
type Handler struct {
	general GeneralLister
	ps      PSLister
}

// NewHandler constructs a handler.
func NewHandler(general GeneralLister, ps PSLister) (*Handler, error) {
	if general == nil || ps == nil {
		return nil, errors.New("medidas handler: nil store")
	}
	return &Handler{general: general, ps: ps}, nil
}

// ServeHTTP handles /api/v1/medidas subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/medidas/general":
		h.handleGeneral(w, r)
	case "/api/v1/medidas/ps":
		h.handlePS(w, r)
	case "/api/v1/medidas/export.xlsx":
		h.handleExport(w, r, "xlsx")
	case "/api/v1/medidas/export.pdf":
		h.handleExport(w, r, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type windowResponse struct {
	EnergiaPublicadaKWh     float64  `json:"energia_publicada_kwh"`
	EnergiaAutoconsumoKWh   float64  `json:"energia_autoconsumo_kwh"`
	EnergiaPFKWh            float64  `json:"energia_pf_kwh"`
	EnergiaFronteraDDKWh    float64  `json:"energia_frontera_dd_kwh"`
	EnergiaGeneradaKWh      float64  `json:"energia_generada_kwh"`
	EnergiaNetaFacturadaKWh float64  `json:"energia_neta_facturada_kwh"`
	PerdidasKWh             float64  `json:"perdidas_kwh"`
	PerdidasPct             *float64 `json:"perdidas_pct"`
}

type generalResponse struct {
	ID        int64  `json:"id"`
	EmpresaID int64  `json:"empresa_id"`
	PuntoID   string `json:"punto_id"`
	Anio      int    `json:"anio"`
	Mes       int    `json:"mes"`

	EnergiaBrutaFacturada   float64  `json:"energia_bruta_facturada"`
	EnergiaAutoconsumoKWh   float64  `json:"energia_autoconsumo_kwh"`
	EnergiaGeneradaKWh      float64  `json:"energia_generada_kwh"`
	EnergiaFronteraDDKWh    float64  `json:"energia_frontera_dd_kwh"`
	EnergiaPFKWh            float64  `json:"energia_pf_kwh"`
	EnergiaPFFinalKWh       float64  `json:"energia_pf_final_kwh"`
	EnergiaNetaFacturadaKWh float64  `json:"energia_neta_facturada_kwh"`
	PerdidasKWh             float64  `json:"perdidas_kwh"`
	PerdidasPct             *float64 `json:"perdidas_pct"`

	Windows map[string]windowResponse `json:"windows"`

	FileID    int64     `json:"file_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// sanitize keeps the JSON encoder away from NaN and infinities.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func sanitizePct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func toGeneralResponse(mg *measures.MedidaGeneral) generalResponse {
	resp := generalResponse{
		ID:        mg.ID,
		EmpresaID: mg.EmpresaID,
		PuntoID:   mg.PuntoID,
		Anio:      mg.Anio,
		Mes:       mg.Mes,

		EnergiaBrutaFacturada:   sanitize(mg.EnergiaBrutaFacturada),
		EnergiaAutoconsumoKWh:   sanitize(mg.EnergiaAutoconsumoKWh),
		EnergiaGeneradaKWh:      sanitize(mg.EnergiaGeneradaKWh),
		EnergiaFronteraDDKWh:    sanitize(mg.EnergiaFronteraDDKWh),
		EnergiaPFKWh:            sanitize(mg.EnergiaPFKWh),
		EnergiaPFFinalKWh:       sanitize(mg.EnergiaPFFinalKWh),
		EnergiaNetaFacturadaKWh: sanitize(mg.EnergiaNetaFacturadaKWh),
		PerdidasKWh:             sanitize(mg.PerdidasKWh),
		PerdidasPct:             sanitizePct(mg.PerdidasPct),

		Windows: make(map[string]windowResponse, len(measures.Windows())),

		FileID:    mg.FileID,
		UpdatedAt: mg.UpdatedAt,
	}
	for _, w := range measures.Windows() {
		wm := mg.WindowMetrics(w)
		resp.Windows[string(w)] = windowResponse{
			EnergiaPublicadaKWh:     sanitize(wm.EnergiaPublicadaKWh),
			EnergiaAutoconsumoKWh:   sanitize(wm.EnergiaAutoconsumoKWh),
			EnergiaPFKWh:            sanitize(wm.EnergiaPFKWh),
			EnergiaFronteraDDKWh:    sanitize(wm.EnergiaFronteraDDKWh),
			EnergiaGeneradaKWh:      sanitize(wm.EnergiaGeneradaKWh),
			EnergiaNetaFacturadaKWh: sanitize(wm.EnergiaNetaFacturadaKWh),
			PerdidasKWh:             sanitize(wm.PerdidasKWh),
			PerdidasPct:             sanitizePct(wm.PerdidasPct),
		}
	}
	return resp
}

type psBlockResponse struct {
	EnergiaKWh float64 `json:"energia_kwh"`
	CUPS       int     `json:"cups"`
	ImporteEUR float64 `json:"importe_eur"`
}

type psResponse struct {
	ID        int64  `json:"id"`
	EmpresaID int64  `json:"empresa_id"`
	Anio      int    `json:"anio"`
	Mes       int    `json:"mes"`

	Tipos   map[string]psBlockResponse `json:"tipos"`
	Total   psBlockResponse            `json:"total"`
	Tarifas map[string]psBlockResponse `json:"tarifas"`

	FileID    int64     `json:"file_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPSBlock(block measures.PSBlock) psBlockResponse {
	return psBlockResponse{
		EnergiaKWh: sanitize(block.EnergiaKWh),
		CUPS:       block.CUPS,
		ImporteEUR: sanitize(block.ImporteEUR),
	}
}

func toPSResponse(mp *measures.MedidaPS) psResponse {
	resp := psResponse{
		ID:        mp.ID,
		EmpresaID: mp.EmpresaID,
		Anio:      mp.Anio,
		Mes:       mp.Mes,
		Tipos:     make(map[string]psBlockResponse, len(mp.Tipos)),
		Total:     toPSBlock(mp.TipoTotal),
		Tarifas:   make(map[string]psBlockResponse, len(mp.Tarifas)),
		FileID:    mp.FileID,
		UpdatedAt: mp.UpdatedAt,
	}
	for i, block := range mp.Tipos {
		resp.Tipos[strconv.Itoa(i+1)] = toPSBlock(block)
	}
	for i, tc := range measures.TarifaClasses() {
		resp.Tarifas[tc.Code] = toPSBlock(mp.Tarifas[i])
	}
	return resp
}

func (h *Handler) handleGeneral(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	empresaID, anio, mes, err := queryFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.general.List(r.Context(), tenantID, empresaID, anio, mes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result := make([]generalResponse, 0, len(list))
	for _, mg := range list {
		result = append(result, toGeneralResponse(mg))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handlePS(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	empresaID, anio, mes, err := queryFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	list, err := h.ps.List(r.Context(), tenantID, empresaID, anio, mes)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result := make([]psResponse, 0, len(list))
	for _, mp := range list {
		result = append(result, toPSResponse(mp))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request, format string) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	empresaID, anio, mes, err := queryFilters(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	started := time.Now()
	payload, err := h.buildExport(r.Context(), tenantID, empresaID, anio, mes, format)
	metrics.ObserveExport(format, err, time.Since(started))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if format == "pdf" {
		w.Header().Set("Content-Type", "application/pdf")
	} else {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=balance.%s", format))
	_, _ = w.Write(payload)
}

func (h *Handler) buildExport(ctx context.Context, tenantID int64, empresaID *int64, anio, mes *int, format string) ([]byte, error) {
	generales, err := h.general.List(ctx, tenantID, empresaID, anio, mes)
	if err != nil {
		return nil, err
	}
	ps, err := h.ps.List(ctx, tenantID, empresaID, anio, mes)
	if err != nil {
		return nil, err
	}
	if format == "pdf" {
		return BuildBalancePDF(generales, ps)
	}
	return BuildBalanceXLSX(generales, ps)
}

func queryFilters(r *http.Request) (empresaID *int64, anio, mes *int, err error) {
	query := r.URL.Query()
	if raw := query.Get("empresa_id"); raw != "" {
		value, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil {
			return nil, nil, nil, errors.New("empresa_id must be an integer")
		}
		empresaID = &value
	}
	if raw := query.Get("anio"); raw != "" {
		value, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			return nil, nil, nil, errors.New("anio must be an integer")
		}
		anio = &value
	}
	if raw := query.Get("mes"); raw != "" {
		value, parseErr := strconv.Atoi(raw)
		if parseErr != nil || value < 1 || value > 12 {
			return nil, nil, nil, errors.New("mes must be an integer in 1..12")
		}
		mes = &value
	}
	return empresaID, anio, mes, nil
}
