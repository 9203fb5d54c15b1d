package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/heartrisk/heartrisk/internal/predictor"
	"github.com/heartrisk/heartrisk/internal/response"
)

// PredictionHandler serves the form page and POST /predict. It only reads
// the Predictor, which is built once at startup. MaxBodyBytes caps the
// request body when positive; an oversized body is a 500 like any other
// unreadable payload.
type PredictionHandler struct {
	Predictor    *predictor.Predictor
	Logger       zerolog.Logger
	MaxBodyBytes int64
}

type indexPage struct {
	Columns []string
}

// Index renders the form listing the expected columns (GET /).
func (h *PredictionHandler) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", indexPage{Columns: h.Predictor.Schema()})
}

// Predict scores one JSON feature payload (POST /predict).
// Missing features yield 400; every other failure yields 500.
func (h *PredictionHandler) Predict(c echo.Context) error {
	body := c.Request().Body
	if h.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Response(), body, h.MaxBodyBytes)
	}
	payload, err := decodePayload(body)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("error in /predict")
		return response.InternalError(c, err.Error())
	}

	pred, err := h.Predictor.Predict(c.Request().Context(), payload)
	if err != nil {
		var verr *predictor.ValidationError
		if errors.As(err, &verr) {
			return response.BadRequest(c, verr.Error())
		}
		h.Logger.Warn().Err(err).Msg("error in /predict")
		return response.InternalError(c, err.Error())
	}
	return response.OK(c, pred)
}

// decodePayload reads a single JSON object. Numbers are kept as json.Number
// so integers reach the pipeline unchanged.
func decodePayload(body io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("request body must be a JSON object")
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	return obj, nil
}
