package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/tank-correction-service/internal/correction"
	"github.com/couchcryptid/tank-correction-service/internal/domain"
	"github.com/couchcryptid/tank-correction-service/internal/observability"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// MaxBatchItems bounds POST /v1/corrections/batch.
const MaxBatchItems = 500

// Outcome labels for the compute_requests_total metric.
const (
	outcomeOK           = "ok"
	outcomeInvalidInput = "invalid_input"
	outcomeConvergence  = "convergence"
	outcomeBadRequest   = "bad_request"
	outcomeUnauthorized = "unauthorized"
	outcomeRateLimited  = "rate_limited"
)

// correctionRequest uses pointers so a missing field is told apart from zero.
type correctionRequest struct {
	FluidTemperatureC  *float64 `json:"fluidTemperatureC" validate:"required"`
	ObservedDensityGcc *float64 `json:"observedDensityGcc" validate:"required"`
}

func (c correctionRequest) input() correction.Input {
	return correction.Input{
		FluidTemperatureC:  *c.FluidTemperatureC,
		ObservedDensityGcc: *c.ObservedDensityGcc,
	}
}

type batchRequest struct {
	Items []correctionRequest `json:"items" validate:"required,min=1"`
}

type correctionResponse struct {
	correction.Output
	Version string `json:"version"`
}

type batchItemResult struct {
	Index  int                `json:"index"`
	Result *correction.Output `json:"result,omitempty"`
	Error  *APIError          `json:"error,omitempty"`
}

type batchResponse struct {
	Version   string            `json:"version"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []batchItemResult `json:"results"`
}

type algorithmResponse struct {
	Version               string                  `json:"version"`
	Coefficients          correction.Coefficients `json:"coefficients"`
	BaseTemperatureC      float64                 `json:"baseTemperatureC"`
	ReferenceTemperatureC float64                 `json:"referenceTemperatureC"`
	MaxIterations         int                     `json:"maxIterations"`
	Tolerance             float64                 `json:"toleranceKgm3"`
}

// ComputeAPI serves the correction engine over HTTP.
type ComputeAPI struct {
	corrector domain.Corrector
	coeffs    correction.Coefficients
	validate  *validator.Validate
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewComputeAPI creates the /v1 handlers. coeffs is reported by
// GET /v1/algorithm and should match the engine behind corrector.
func NewComputeAPI(corrector domain.Corrector, coeffs correction.Coefficients, metrics *observability.Metrics, logger *slog.Logger) *ComputeAPI {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateBatchSize, batchRequest{})

	return &ComputeAPI{
		corrector: corrector,
		coeffs:    coeffs,
		validate:  v,
		metrics:   metrics,
		logger:    logger,
	}
}

// validateBatchSize enforces MaxBatchItems with the same "max" tag the
// field-level rules would report.
func validateBatchSize(sl validator.StructLevel) {
	req := sl.Current().Interface().(batchRequest)
	if len(req.Items) > MaxBatchItems {
		sl.ReportError(req.Items, "items", "Items", "max", strconv.Itoa(MaxBatchItems))
	}
}

func (a *ComputeAPI) handleAlgorithm(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, algorithmResponse{
		Version:               correction.AlgorithmVersion,
		Coefficients:          a.coeffs,
		BaseTemperatureC:      correction.Base20C,
		ReferenceTemperatureC: correction.Base60FC,
		MaxIterations:         correction.MaxIterations,
		Tolerance:             correction.Tolerance,
	})
}

func (a *ComputeAPI) handleCorrection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.ComputeDuration.Observe(time.Since(start).Seconds()) }()

	var req correctionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		a.reject(w, r, newAPIError(http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object with numeric fields"))
		return
	}
	if apiErr := a.validateRequest(req); apiErr != nil {
		a.reject(w, r, apiErr)
		return
	}

	out, err := a.corrector.Compute(req.input())
	if err != nil {
		apiErr := engineError(err)
		a.logger.Debug("correction rejected",
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
		a.reject(w, r, apiErr)
		return
	}

	a.metrics.ComputeRequests.WithLabelValues(outcomeOK).Inc()
	render.JSON(w, r, correctionResponse{Output: out, Version: correction.AlgorithmVersion})
}

func (a *ComputeAPI) handleBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { a.metrics.ComputeDuration.Observe(time.Since(start).Seconds()) }()

	var req batchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		a.reject(w, r, newAPIError(http.StatusBadRequest, CodeInvalidRequest, "request body must be a JSON object with an items array"))
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.reject(w, r, validationError(err))
		return
	}

	resp := batchResponse{
		Version: correction.AlgorithmVersion,
		Results: make([]batchItemResult, len(req.Items)),
	}
	for i, item := range req.Items {
		resp.Results[i].Index = i
		if apiErr := a.validateRequest(item); apiErr != nil {
			resp.Results[i].Error = apiErr
			resp.Failed++
			continue
		}
		out, err := a.corrector.Compute(item.input())
		if err != nil {
			resp.Results[i].Error = engineError(err)
			resp.Failed++
			continue
		}
		resp.Results[i].Result = &out
		resp.Succeeded++
	}

	a.metrics.ComputeRequests.WithLabelValues(outcomeOK).Inc()
	render.JSON(w, r, resp)
}

func (a *ComputeAPI) validateRequest(req correctionRequest) *APIError {
	if err := a.validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// reject counts the outcome and writes the error response.
func (a *ComputeAPI) reject(w http.ResponseWriter, r *http.Request, e *APIError) {
	a.metrics.ComputeRequests.WithLabelValues(outcomeFor(e)).Inc()
	writeError(w, r, e)
}

func outcomeFor(e *APIError) string {
	switch e.ErrorCode {
	case CodeInvalidInput:
		return outcomeInvalidInput
	case CodeConvergenceFailed:
		return outcomeConvergence
	default:
		return outcomeBadRequest
	}
}

// engineError maps engine errors to HTTP: invalid input is 400 and a
// solver that ran out of iterations is 422.
func engineError(err error) *APIError {
	var invalid *correction.InvalidInputError
	if errors.As(err, &invalid) {
		e := newAPIError(http.StatusBadRequest, CodeInvalidInput, err.Error())
		e.Details = []FieldError{{Field: invalid.Field, Message: invalid.Field + " " + invalid.Reason}}
		return e
	}

	var conv *correction.ConvergenceError
	if errors.As(err, &conv) {
		e := newAPIError(http.StatusUnprocessableEntity, CodeConvergenceFailed, err.Error())
		e.Details = map[string]int{"iterations": conv.Iterations}
		return e
	}

	return newAPIError(http.StatusInternalServerError, CodeInternal, "correction failed")
}

func validationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newAPIError(http.StatusBadRequest, CodeValidationFailed, err.Error())
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: formatFieldError(fe)})
	}
	e := newAPIError(http.StatusBadRequest, CodeValidationFailed, "request validation failed")
	e.Details = details
	return e
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must contain at most %s items", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
