package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartrisk/heartrisk/internal/model"
	"github.com/heartrisk/heartrisk/internal/predictor"
	"github.com/heartrisk/heartrisk/internal/web"
)

type stubTransformer struct{ err error }

func (s stubTransformer) Transform(rec model.Record) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return make([]float32, len(rec)), nil
}

type stubClassifier struct{ score float64 }

func (s stubClassifier) Predict([]float32) (float64, error) { return s.score, nil }

func newHandler(t *testing.T, tr predictor.Transformer, score float64) *PredictionHandler {
	t.Helper()
	schema, err := model.NewFeatureSchema([]string{"age", "sex"})
	require.NoError(t, err)
	p, err := predictor.New(schema, tr, stubClassifier{score: score})
	require.NoError(t, err)
	return &PredictionHandler{Predictor: p, Logger: zerolog.Nop()}
}

func postPredict(t *testing.T, h *PredictionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Predict(e.NewContext(req, rec)))
	return rec
}

func TestPredict_OK(t *testing.T) {
	h := newHandler(t, stubTransformer{}, 0.73)

	rec := postPredict(t, h, `{"age": 55, "sex": 1}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"risk_score": 0.73, "prediction": "High Risk"}`, rec.Body.String())
}

func TestPredict_LowRisk(t *testing.T) {
	h := newHandler(t, stubTransformer{}, 0.12)

	rec := postPredict(t, h, `{"age": 30, "sex": 0, "notes": "ignored"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got model.Prediction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.LowRisk, got.Label)
	assert.Equal(t, 0.12, got.RiskScore)
}

func TestPredict_MissingFeatures(t *testing.T) {
	h := newHandler(t, stubTransformer{}, 0.73)

	rec := postPredict(t, h, `{"age": 55}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Missing features: ['sex']"}`, rec.Body.String())

	rec = postPredict(t, h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "Missing features: ['age', 'sex']"}`, rec.Body.String())
}

func TestPredict_ServerErrors(t *testing.T) {
	cases := map[string]struct {
		tr   predictor.Transformer
		body string
		want string
	}{
		"transform fails": {stubTransformer{err: errors.New("boom")}, `{"age": 1, "sex": 1}`, "preprocess: boom"},
		"array body":      {stubTransformer{}, `[1, 2]`, "request body must be a JSON object"},
		"empty body":      {stubTransformer{}, ``, "request body must be a JSON object"},
		"malformed":       {stubTransformer{}, `{"age": `, "invalid JSON body"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := postPredict(t, newHandler(t, tc.tr, 0.5), tc.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			var body model.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Error, tc.want)
		})
	}
}

func TestPredict_OversizedBodyIsServerError(t *testing.T) {
	h := newHandler(t, stubTransformer{}, 0.5)
	h.MaxBodyBytes = 16

	rec := postPredict(t, h, `{"age": 55, "sex": 1, "notes": "far past the cap"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body model.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "too large")
}

func TestDecodePayload_KeepsNumbersExact(t *testing.T) {
	got, err := decodePayload(strings.NewReader(`{"id": 12345678901234567890, "age": "55"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("12345678901234567890"), got["id"])
	assert.Equal(t, "55", got["age"])
}

func TestIndex_ListsColumns(t *testing.T) {
	h := newHandler(t, stubTransformer{}, 0.5)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Index(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-feature="age"`)
	assert.Contains(t, body, `data-feature="sex"`)
	assert.Less(t, strings.Index(body, `data-feature="age"`), strings.Index(body, `data-feature="sex"`))
}
