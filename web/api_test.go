package web

import (
	"encoding/json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"net/http"
	"net/http/httptest"
	"spatialgrid/index"
	"spatialgrid/util"
	"strings"
	"testing"
)

func newTestRouter(t *testing.T, points ...orb.Point) (http.Handler, *index.Grid) {
	grid, err := index.NewGrid(0, 10, 0, 10, 10, 10)
	util.AssertNil(t, err)
	for _, point := range points {
		util.AssertNil(t, grid.Insert(point.X(), point.Y()))
	}
	return NewRouter(grid), grid
}

func serve(router http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestApi_getGrid(t *testing.T) {
	// Arrange
	router, _ := newTestRouter(t, orb.Point{1, 1}, orb.Point{2, 2})

	// Act
	response := serve(router, http.MethodGet, "/grid", "")

	// Assert
	util.AssertEqual(t, http.StatusOK, response.Code)
	util.AssertEqual(t, "*", response.Header().Get("Access-Control-Allow-Origin"))

	var grid GridResponse
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &grid))
	util.AssertEqual(t, GridResponse{XStart: 0, XEnd: 10, YStart: 0, YEnd: 10, NumXBins: 10, NumYBins: 10, CellWidth: 1, CellHeight: 1, PointCount: 2}, grid)
}

func TestApi_getGridReportsCellSizeOfGrid(t *testing.T) {
	grid, err := index.NewGrid(0, 1, -1, 1, 3, 7)
	util.AssertNil(t, err)

	response := serve(NewRouter(grid), http.MethodGet, "/grid", "")

	util.AssertEqual(t, http.StatusOK, response.Code)
	var gridResponse GridResponse
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &gridResponse))
	util.AssertEqual(t, grid.CellWidth(), gridResponse.CellWidth)
	util.AssertEqual(t, grid.CellHeight(), gridResponse.CellHeight)
}

func TestApi_getPoints(t *testing.T) {
	router, _ := newTestRouter(t, orb.Point{1, 1}, orb.Point{7, 2})

	response := serve(router, http.MethodGet, "/points", "")

	util.AssertEqual(t, http.StatusOK, response.Code)
	util.AssertEqual(t, "application/geo+json", response.Header().Get("Content-Type"))

	featureCollection, err := geojson.UnmarshalFeatureCollection(response.Body.Bytes())
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(featureCollection.Features))
	util.AssertEqual(t, orb.Point{1, 1}, featureCollection.Features[0].Geometry)
	util.AssertEqual(t, orb.Point{7, 2}, featureCollection.Features[1].Geometry)
}

func TestApi_insertPoints(t *testing.T) {
	// Arrange
	router, grid := newTestRouter(t)
	body := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[2.5,3.5]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[2.8,3.1]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[12,3]},"properties":{}}
	]}`

	// Act
	response := serve(router, http.MethodPost, "/points", body)

	// Assert
	util.AssertEqual(t, http.StatusOK, response.Code)

	var insertResponse InsertResponse
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &insertResponse))
	util.AssertEqual(t, InsertResponse{Inserted: 2, Rejected: 1}, insertResponse)
	util.AssertEqual(t, 2, grid.Len())
}

func TestApi_insertPointsWithInvalidBody(t *testing.T) {
	router, grid := newTestRouter(t)

	response := serve(router, http.MethodPost, "/points", "not json")

	util.AssertEqual(t, http.StatusBadRequest, response.Code)
	util.AssertEqual(t, 0, grid.Len())

	var errorResponse ErrorResponse
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &errorResponse))
	util.AssertEqual(t, "Error reading GeoJSON points.", errorResponse.Error)
}

func TestApi_deletePoint(t *testing.T) {
	router, grid := newTestRouter(t, orb.Point{8.1, 8.2}, orb.Point{5.5, 5.5})

	response := serve(router, http.MethodDelete, "/points?x=8.1&y=8.2", "")
	util.AssertEqual(t, http.StatusNoContent, response.Code)
	util.AssertEqual(t, 1, grid.Len())

	// Already deleted
	response = serve(router, http.MethodDelete, "/points?x=8.1&y=8.2", "")
	util.AssertEqual(t, http.StatusNotFound, response.Code)
	util.AssertEqual(t, 1, grid.Len())
}

func TestApi_deletePointWithInvalidParameters(t *testing.T) {
	router, _ := newTestRouter(t, orb.Point{1, 1})

	response := serve(router, http.MethodDelete, "/points?x=-3&y=1", "")
	util.AssertEqual(t, http.StatusBadRequest, response.Code)

	var errorResponse ErrorResponse
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &errorResponse))
	util.AssertEqual(t, "Coordinates outside of grid.", errorResponse.Error)

	response = serve(router, http.MethodDelete, "/points?x=1", "")
	util.AssertEqual(t, http.StatusBadRequest, response.Code)
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &errorResponse))
	util.AssertEqual(t, "Missing query parameter 'y'", errorResponse.Details)
}

func TestApi_getNearest(t *testing.T) {
	router, _ := newTestRouter(t, orb.Point{2.5, 3.5}, orb.Point{8.1, 8.2}, orb.Point{2.8, 3.1}, orb.Point{5.5, 5.5})

	for _, strategy := range []string{"linear", "expanding", ""} {
		// Act
		response := serve(router, http.MethodGet, "/nearest?x=2.6&y=3.2&strategy="+strategy, "")

		// Assert
		util.AssertEqual(t, http.StatusOK, response.Code)
		featureCollection, err := geojson.UnmarshalFeatureCollection(response.Body.Bytes())
		util.AssertNil(t, err)
		util.AssertEqual(t, 2, len(featureCollection.Features))

		queryFeature := featureCollection.Features[0]
		util.AssertEqual(t, "query", queryFeature.Properties["role"])
		util.AssertEqual(t, orb.Point{2.6, 3.2}, queryFeature.Geometry)

		nearestFeature := featureCollection.Features[1]
		util.AssertEqual(t, "nearest", nearestFeature.Properties["role"])
		util.AssertEqual(t, orb.Point{2.8, 3.1}, nearestFeature.Geometry)
	}
}

func TestApi_getNearestOnEmptyGrid(t *testing.T) {
	router, _ := newTestRouter(t)

	response := serve(router, http.MethodGet, "/nearest?x=5&y=5", "")

	util.AssertEqual(t, http.StatusNotFound, response.Code)
	var errorResponse ErrorResponse
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &errorResponse))
	util.AssertEqual(t, "Grid contains no points.", errorResponse.Error)
}

func TestApi_getNearestWithInvalidParameters(t *testing.T) {
	router, _ := newTestRouter(t, orb.Point{1, 1})

	response := serve(router, http.MethodGet, "/nearest?x=5&y=5&strategy=quadtree", "")
	util.AssertEqual(t, http.StatusBadRequest, response.Code)

	response = serve(router, http.MethodGet, "/nearest?x=abc&y=5", "")
	util.AssertEqual(t, http.StatusBadRequest, response.Code)

	response = serve(router, http.MethodGet, "/nearest", "")
	util.AssertEqual(t, http.StatusBadRequest, response.Code)
}

func TestApi_getNearestWithHugeCoordinates(t *testing.T) {
	router, _ := newTestRouter(t, orb.Point{5, 5})

	response := serve(router, http.MethodGet, "/nearest?x=1e200&y=5", "")

	util.AssertEqual(t, http.StatusOK, response.Code)
	featureCollection, err := geojson.UnmarshalFeatureCollection(response.Body.Bytes())
	util.AssertNil(t, err)
	util.AssertEqual(t, 2, len(featureCollection.Features))
	util.AssertEqual(t, orb.Point{5, 5}, featureCollection.Features[1].Geometry)
}

func TestApi_nonFiniteCoordinates(t *testing.T) {
	router, grid := newTestRouter(t, orb.Point{5, 5})

	for _, target := range []string{
		"/nearest?x=NaN&y=5",
		"/nearest?x=5&y=Inf",
		"/nearest?x=-Inf&y=5",
	} {
		response := serve(router, http.MethodGet, target, "")
		util.AssertEqual(t, http.StatusBadRequest, response.Code)
	}

	response := serve(router, http.MethodDelete, "/points?x=NaN&y=5", "")
	util.AssertEqual(t, http.StatusBadRequest, response.Code)
	util.AssertEqual(t, 1, grid.Len())

	var errorResponse ErrorResponse
	response = serve(router, http.MethodGet, "/nearest?x=NaN&y=5", "")
	util.AssertNil(t, json.Unmarshal(response.Body.Bytes(), &errorResponse))
	util.AssertEqual(t, "Invalid coordinates.", errorResponse.Error)
	util.AssertEqual(t, "Query parameter 'x' must be a finite number but was NaN", errorResponse.Details)
}

func TestApi_unsupportedMethod(t *testing.T) {
	router, _ := newTestRouter(t)

	response := serve(router, http.MethodPut, "/points", "")

	util.AssertEqual(t, http.StatusMethodNotAllowed, response.Code)
}
