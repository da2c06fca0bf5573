package web

import (
	"encoding/json"
	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"math"
	"net/http"
	"spatialgrid/index"
	ownIo "spatialgrid/io"
	"strconv"
	"sync"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewErrorResponse(message string, err error) ErrorResponse {
	response := ErrorResponse{
		Error: message,
	}
	if err != nil {
		response.Details = err.Error()
	}
	return response
}

type GridResponse struct {
	XStart     float64 `json:"x_start"`
	XEnd       float64 `json:"x_end"`
	YStart     float64 `json:"y_start"`
	YEnd       float64 `json:"y_end"`
	NumXBins   int     `json:"num_x_bins"`
	NumYBins   int     `json:"num_y_bins"`
	CellWidth  float64 `json:"cell_width"`
	CellHeight float64 `json:"cell_height"`
	PointCount int     `json:"point_count"`
}

type InsertResponse struct {
	Inserted int `json:"inserted"`
	Rejected int `json:"rejected"`
}

// gridHandler serves the API of one grid. The grid itself is not synchronized, so every access goes through the lock:
// searches and listings share it, mutations hold it exclusively.
type gridHandler struct {
	grid  index.PointIndex
	mutex sync.RWMutex
}

func StartServer(port string, grid index.PointIndex) {
	r := NewRouter(grid)
	sigolo.Infof("Start server without TLS support on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func StartServerTls(port string, certFile string, keyFile string, grid index.PointIndex) {
	r := NewRouter(grid)
	sigolo.Infof("Start server with TLS support on port %s", port)
	err := http.ListenAndServeTLS(":"+port, certFile, keyFile, r)
	sigolo.FatalCheck(err)
}

func NewRouter(grid index.PointIndex) *mux.Router {
	handler := &gridHandler{grid: grid}

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	r.HandleFunc("/grid", handler.getGrid).Methods(http.MethodGet)
	r.HandleFunc("/points", handler.getPoints).Methods(http.MethodGet)
	r.HandleFunc("/points", handler.insertPoints).Methods(http.MethodPost)
	r.HandleFunc("/points", handler.deletePoint).Methods(http.MethodDelete)
	r.HandleFunc("/nearest", handler.getNearest).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(writer, request)
	})
}

func (h *gridHandler) getGrid(writer http.ResponseWriter, request *http.Request) {
	h.mutex.RLock()
	bound := h.grid.Bound()
	numXBins, numYBins := h.grid.Resolution()
	response := GridResponse{
		XStart:     bound.Min.X(),
		XEnd:       bound.Max.X(),
		YStart:     bound.Min.Y(),
		YEnd:       bound.Max.Y(),
		NumXBins:   numXBins,
		NumYBins:   numYBins,
		CellWidth:  h.grid.CellWidth(),
		CellHeight: h.grid.CellHeight(),
		PointCount: h.grid.Len(),
	}
	h.mutex.RUnlock()

	writeJson(writer, http.StatusOK, response)
}

func (h *gridHandler) getPoints(writer http.ResponseWriter, request *http.Request) {
	h.mutex.RLock()
	points := h.grid.Points()
	h.mutex.RUnlock()

	writer.Header().Set("Content-Type", "application/geo+json")
	err := ownIo.WritePointsAsGeoJson(points, writer)
	if err != nil {
		sigolo.Errorf("Error writing points: %+v", err)
	}
}

func (h *gridHandler) insertPoints(writer http.ResponseWriter, request *http.Request) {
	points, err := ownIo.ReadPointsFromGeoJson(request.Body)
	if err != nil {
		sigolo.Errorf("Error reading points from request to '/points': %+v", err)
		writeError(writer, http.StatusBadRequest, "Error reading GeoJSON points.", err)
		return
	}

	response := InsertResponse{}

	h.mutex.Lock()
	for _, point := range points {
		err = h.grid.Insert(point.X(), point.Y())
		if err != nil {
			sigolo.Debugf("Reject point %v: %s", point, err.Error())
			response.Rejected++
		} else {
			response.Inserted++
		}
	}
	h.mutex.Unlock()

	sigolo.Debugf("Inserted %d points, rejected %d points", response.Inserted, response.Rejected)
	writeJson(writer, http.StatusOK, response)
}

func (h *gridHandler) deletePoint(writer http.ResponseWriter, request *http.Request) {
	x, y, err := parseCoordinates(request)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "Invalid coordinates.", err)
		return
	}

	h.mutex.Lock()
	err = h.grid.Delete(x, y)
	h.mutex.Unlock()

	if errors.Is(err, index.ErrNotFound) {
		writeError(writer, http.StatusNotFound, "No point found to delete.", err)
		return
	} else if errors.Is(err, index.ErrOutOfBounds) {
		writeError(writer, http.StatusBadRequest, "Coordinates outside of grid.", err)
		return
	} else if err != nil {
		sigolo.Errorf("Error deleting point (%f, %f): %+v", x, y, err)
		writeError(writer, http.StatusInternalServerError, "Error deleting point.", err)
		return
	}

	writer.WriteHeader(http.StatusNoContent)
}

func (h *gridHandler) getNearest(writer http.ResponseWriter, request *http.Request) {
	x, y, err := parseCoordinates(request)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "Invalid coordinates.", err)
		return
	}

	strategy, err := index.ParseStrategy(request.URL.Query().Get("strategy"))
	if err != nil {
		writeError(writer, http.StatusBadRequest, "Invalid search strategy.", err)
		return
	}

	h.mutex.RLock()
	result := h.grid.Search(x, y, strategy)
	h.mutex.RUnlock()

	if !result.Found {
		writeError(writer, http.StatusNotFound, "Grid contains no points.", nil)
		return
	}

	writer.Header().Set("Content-Type", "application/geo+json")
	err = ownIo.WriteSearchResultAsGeoJson(result, strategy, writer)
	if err != nil {
		sigolo.Errorf("Error writing search result: %+v", err)
	}
}

func parseCoordinates(request *http.Request) (float64, float64, error) {
	x, err := parseCoordinate(request, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := parseCoordinate(request, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func parseCoordinate(request *http.Request, name string) (float64, error) {
	value := request.URL.Query().Get(name)
	if value == "" {
		return 0, errors.Errorf("Missing query parameter '%s'", name)
	}

	coordinate, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "Query parameter '%s' is not a number", name)
	}
	if math.IsNaN(coordinate) || math.IsInf(coordinate, 0) {
		return 0, errors.Errorf("Query parameter '%s' must be a finite number but was %s", name, value)
	}
	return coordinate, nil
}

func writeError(writer http.ResponseWriter, status int, message string, err error) {
	writeJson(writer, status, NewErrorResponse(message, err))
}

func writeJson(writer http.ResponseWriter, status int, response any) {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		sigolo.Errorf("Error marshalling response object: %+v", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	_, err = writer.Write(responseBytes)
	if err != nil {
		sigolo.Errorf("Error writing response: %+v", err)
	}
}
