package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *bom.Engine) {
	t.Helper()
	engine := bom.NewEngine()
	return NewRouter(engine, RouterConfig{Registry: prometheus.NewRegistry()}), engine
}

func do(t *testing.T, router http.Handler, method, path string, body any) (int, models.Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp models.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func createPart(t *testing.T, router http.Handler, name string) models.PartView {
	t.Helper()
	code, resp := do(t, router, http.MethodPost, "/v1/parts", models.NewPartRequest{Name: name})
	require.Equal(t, http.StatusCreated, code)
	require.Len(t, resp.Data, 1)
	return resp.Data[0]
}

func addChildren(t *testing.T, router http.Handler, parent string, children ...string) {
	t.Helper()
	code, resp := do(t, router, http.MethodPost, "/v1/parts/"+parent+"/children",
		models.UpdateChildrenRequest{Children: children})
	require.Equal(t, http.StatusOK, code, "%+v", resp.Error)
}

func names(views []models.PartView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

func TestCreateAndGetPart(t *testing.T) {
	router, _ := newTestRouter(t)

	created := createPart(t, router, "bike")
	assert.Equal(t, "bike", created.Name)
	assert.Empty(t, created.Parents)
	assert.Empty(t, created.Children)
	_, err := uuid.Parse(created.ID)
	assert.NoError(t, err)

	code, resp := do(t, router, http.MethodGet, "/v1/parts/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Result)
	assert.Nil(t, resp.Error)
	assert.Equal(t, []models.PartView{created}, resp.Data)
}

func TestCreatePart_Errors(t *testing.T) {
	router, _ := newTestRouter(t)
	createPart(t, router, "bike")

	tests := []struct {
		name   string
		body   any
		status int
		code   models.ErrorCode
	}{
		{"duplicate name", models.NewPartRequest{Name: "bike"}, http.StatusConflict, models.ErrorCodeDuplicateName},
		{"blank name", models.NewPartRequest{Name: "   "}, http.StatusBadRequest, models.ErrorCodeValidation},
		{"missing name", map[string]string{}, http.StatusBadRequest, models.ErrorCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, router, http.MethodPost, "/v1/parts", tt.body)
			assert.Equal(t, tt.status, code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Nil(t, resp.Result)
		})
	}
}

func TestGetPart_Errors(t *testing.T) {
	router, _ := newTestRouter(t)

	code, resp := do(t, router, http.MethodGet, "/v1/parts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.ErrorCodeValidation, resp.Error.Code)

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, models.ErrorCodeNotFound, resp.Error.Code)
}

func TestListParts_Filters(t *testing.T) {
	router, _ := newTestRouter(t)
	bike := createPart(t, router, "bike")
	wheel := createPart(t, router, "wheel")
	spoke := createPart(t, router, "spoke")
	createPart(t, router, "spare")
	addChildren(t, router, bike.ID, wheel.ID)
	addChildren(t, router, wheel.ID, spoke.ID)

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"bike", "wheel", "spoke", "spare"}},
		{"all", []string{"bike", "wheel", "spoke", "spare"}},
		{"top_level", []string{"bike"}},
		{"assembly", []string{"bike", "wheel"}},
		{"subassembly", []string{"wheel"}},
		{"component", []string{"spoke"}},
		{"orphan", []string{"spare"}},
	}

	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			code, resp := do(t, router, http.MethodGet, "/v1/parts?filter="+tt.filter, nil)
			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.want, names(resp.Data))
		})
	}

	code, resp := do(t, router, http.MethodGet, "/v1/parts?filter=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.ErrorCodeValidation, resp.Error.Code)
}

func TestListParts_EmptyDataIsArray(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/parts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
	assert.Contains(t, w.Body.String(), `"error":null`)
}

func TestUpdateChildren_Actions(t *testing.T) {
	router, _ := newTestRouter(t)
	root := createPart(t, router, "root")
	a := createPart(t, router, "a")
	b := createPart(t, router, "b")
	c := createPart(t, router, "c")

	path := "/v1/parts/" + root.ID + "/children"

	code, resp := do(t, router, http.MethodPost, path, models.UpdateChildrenRequest{Children: []string{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{a.ID, b.ID}, resp.Data[0].Children, "add is the default action")

	code, resp = do(t, router, http.MethodPost, path+"?action=remove", models.UpdateChildrenRequest{Children: []string{a.ID}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{b.ID}, resp.Data[0].Children)

	code, resp = do(t, router, http.MethodPost, path+"?action=replace", models.UpdateChildrenRequest{Children: []string{c.ID, a.ID}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{c.ID, a.ID}, resp.Data[0].Children)

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+b.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Data[0].Parents, "replaced child loses its parent")

	code, resp = do(t, router, http.MethodPost, path+"?action=merge", models.UpdateChildrenRequest{Children: []string{a.ID}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.ErrorCodeValidation, resp.Error.Code)
}

func TestUpdateChildren_Errors(t *testing.T) {
	router, _ := newTestRouter(t)
	a := createPart(t, router, "a")
	b := createPart(t, router, "b")
	addChildren(t, router, a.ID, b.ID)

	tests := []struct {
		name     string
		parent   string
		children []string
		status   int
		code     models.ErrorCode
	}{
		{"cycle", b.ID, []string{a.ID}, http.StatusUnprocessableEntity, models.ErrorCodeCycle},
		{"self edge", a.ID, []string{a.ID}, http.StatusBadRequest, models.ErrorCodeValidation},
		{"unknown child", a.ID, []string{uuid.NewString()}, http.StatusNotFound, models.ErrorCodeNotFound},
		{"bad child id", a.ID, []string{"nope"}, http.StatusBadRequest, models.ErrorCodeValidation},
		{"unknown parent", uuid.NewString(), []string{b.ID}, http.StatusNotFound, models.ErrorCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, router, http.MethodPost, "/v1/parts/"+tt.parent+"/children",
				models.UpdateChildrenRequest{Children: tt.children})
			assert.Equal(t, tt.status, code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	code, resp := do(t, router, http.MethodGet, "/v1/parts/"+a.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{b.ID}, resp.Data[0].Children, "failed updates leave the graph alone")
}

func TestGetChildrenContainedAndDescendants(t *testing.T) {
	router, _ := newTestRouter(t)
	bike := createPart(t, router, "bike")
	wheel := createPart(t, router, "wheel")
	frame := createPart(t, router, "frame")
	spoke := createPart(t, router, "spoke")
	addChildren(t, router, bike.ID, wheel.ID, frame.ID)
	addChildren(t, router, wheel.ID, spoke.ID)

	code, resp := do(t, router, http.MethodGet, "/v1/parts/"+bike.ID+"/children", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"wheel", "frame"}, names(resp.Data))

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+bike.ID+"/children?filter=component", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"frame"}, names(resp.Data))

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+bike.ID+"/children?filter=orphan", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, models.ErrorCodeValidation, resp.Error.Code)

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+spoke.ID+"/contained", nil)
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{"wheel", "bike"}, names(resp.Data))

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+bike.ID+"/descendants", nil)
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{"wheel", "frame", "spoke"}, names(resp.Data))

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+bike.ID+"/descendants?filter=component", nil)
	require.Equal(t, http.StatusOK, code)
	assert.ElementsMatch(t, []string{"frame", "spoke"}, names(resp.Data))
}

func TestDeletePart(t *testing.T) {
	router, _ := newTestRouter(t)
	bike := createPart(t, router, "bike")
	wheel := createPart(t, router, "wheel")
	spoke := createPart(t, router, "spoke")
	addChildren(t, router, bike.ID, wheel.ID)
	addChildren(t, router, wheel.ID, spoke.ID)

	code, resp := do(t, router, http.MethodDelete, "/v1/parts/"+wheel.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "wheel", resp.Data[0].Name)

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+bike.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Data[0].Children)

	code, resp = do(t, router, http.MethodGet, "/v1/parts/"+spoke.ID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp.Data[0].Parents)

	code, resp = do(t, router, http.MethodDelete, "/v1/parts/"+wheel.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, models.ErrorCodeNotFound, resp.Error.Code)

	// the name is free again
	createPart(t, router, "wheel")
}

func TestIndexHealthAndCORS(t *testing.T) {
	router, engine := newTestRouter(t)
	_, err := engine.CreatePart("bike")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "BOM-Server"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var health struct {
		Status string    `json:"status"`
		Stats  bom.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Stats.Parts)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/v1/parts", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
