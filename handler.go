package main

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/Tutortoise/grocery-detection-service/detections"
	"github.com/Tutortoise/grocery-detection-service/grocery"
	"github.com/Tutortoise/grocery-detection-service/middleware"
	"github.com/Tutortoise/grocery-detection-service/models"
	"github.com/Tutortoise/grocery-detection-service/relay"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AppState struct {
	Pipeline      *grocery.Pipeline
	Pool          *detections.SessionPool
	Relay         *relay.Client
	Logger        *zap.Logger
	MaxUploadSize int64
	UploadField   string
}

func newRouter(state *AppState) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/detect-grocery", handleDetectGrocery(state)).Methods(http.MethodPost)
	state.addMonitoringRoutes(r)
	r.Use(middleware.Logger(state.Logger), middleware.Recovery(state.Logger))
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleDetectGrocery(state *AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		log := state.Logger.With(zap.String("request_id", requestID))

		data, filename, err := readUpload(w, r, state.MaxUploadSize, state.UploadField)
		if err != nil {
			log.Warn("failed to read upload", zap.Error(err))
			sendResult(w, http.StatusBadRequest, models.ErrorResult{Status: models.StatusError, Message: MsgMissingFile})
			return
		}

		result, err := state.Pipeline.Process(r.Context(), grocery.Upload{
			RequestID: requestID,
			Filename:  filename,
			Data:      data,
		})

		var detErr *grocery.DetectionError
		switch {
		case errors.Is(err, grocery.ErrInvalidImage):
			sendResult(w, http.StatusBadRequest, models.ErrorResult{Status: models.StatusError, Message: MsgInvalidImage})
		case errors.As(err, &detErr):
			sendResult(w, http.StatusInternalServerError, models.ErrorResult{Status: models.StatusError, Message: MsgDetectionFailed})
		case err != nil:
			log.Error("unexpected pipeline error", zap.Error(err))
			sendResult(w, http.StatusInternalServerError, models.ErrorResult{Status: models.StatusError, Message: MsgDetectionFailed})
		default:
			sendResult(w, http.StatusOK, result)
		}
	}
}

func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64, field string) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, "", err
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, rawFilename(header), nil
}

// rawFilename returns the filename exactly as the client sent it. The
// multipart reader strips any directory part from FileHeader.Filename.
func rawFilename(header *multipart.FileHeader) string {
	_, params, err := mime.ParseMediaType(header.Header.Get("Content-Disposition"))
	if err != nil || params["filename"] == "" {
		return header.Filename
	}
	return params["filename"]
}

func (s *AppState) addMonitoringRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
}

func (s *AppState) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	response := map[string]interface{}{
		"cpu_features": detections.CPUFeatures(),
	}
	if s.Pool != nil {
		response["pool"] = s.Pool.Metrics()
	}
	if s.Relay != nil {
		response["relay"] = s.Relay.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// sendResult writes JSON framed as text/plain, which is what the camera clients expect.
func sendResult(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
