package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/unklstewy/flightpath/internal/db"
	"github.com/unklstewy/flightpath/pkg/telemetry"
	"github.com/unklstewy/flightpath/pkg/tracking"
)

// summaryHeader carries provenance counts for a /readings response.
const summaryHeader = "X-Reconstruction-Summary"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// handleReadings serves the airborne readings with missing positions reconstructed.
func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.deps.Readings.Airborne(r.Context(), s.cfg.Server.Airline, s.cfg.Ingest.MinAltitudeFt)
	if err != nil {
		log.Printf("Failed to load readings: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}

	if len(readings) == 0 {
		respondJSON(w, http.StatusOK, map[string]string{
			"status":  "error",
			"message": "No position data available",
		})
		return
	}

	// The departure hint comes from the first reading as stored
	departure := ""
	if readings[0].DepartureAirport != nil {
		departure = *readings[0].DepartureAirport
	}

	reconstructed := tracking.ReconstructWith(readings, departure, tracking.Options{Strategy: s.strategy})
	summary := tracking.Summarize(reconstructed)

	w.Header().Set(summaryHeader, summary.String())
	respondJSON(w, http.StatusOK, reconstructed)
}

// handleRecord stores one recorder submission: {"content": {...}}.
func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Printf("Invalid record body: %v", err)
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := telemetry.ParseRecord(req.Content)
	if err != nil {
		log.Printf("Invalid record content: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if claims, ok := ClaimsFromContext(r.Context()); ok {
		log.Printf("Recording reading %s for %s", rec.Timestamp, claims.Username)
	}

	if err := s.deps.Readings.Insert(r.Context(), rec); err != nil {
		log.Printf("Failed to record reading %s: %v", rec.Timestamp, err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Content successfully recorded to database",
	})
}

// handleQuery runs a caller-supplied statement: {"query": "..."}.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if claims, ok := ClaimsFromContext(r.Context()); ok {
		log.Printf("Ad-hoc query by %s: %s", claims.Username, req.Query)
	}

	rows, err := s.deps.Queries.Run(r.Context(), req.Query)
	if err != nil {
		log.Printf("Query failed: %v", err)
		var qe *db.QueryError
		if errors.As(err, &qe) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// handleSchema lists the tables of the analysis database and their columns.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.deps.Queries.Schema(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, schema)
}

// handleLogin exchanges configured credentials for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.authSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	token, expires, err := s.authSvc.GenerateToken(user.Username, user.Role)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", user.Username, err)
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
		"username":   user.Username,
		"role":       user.Role,
	})
}

// handleHealth reports server and database status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"status": "ok"}
	code := http.StatusOK

	if s.deps.Health != nil {
		healthy := s.deps.Health(r.Context())
		status["database"] = healthy
		if !healthy {
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	if s.deps.Stats != nil && code == http.StatusOK {
		stats, err := s.deps.Stats(r.Context())
		if err != nil {
			log.Printf("Failed to collect database stats: %v", err)
		} else {
			status["stats"] = stats
		}
	}

	respondJSON(w, code, status)
}

// respondJSON encodes data before writing the status so that an unencodable
// value becomes a 500 instead of an empty success.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to encode response: %v", err)
		status = http.StatusInternalServerError
		w.Header().Del(summaryHeader)
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
