package http

import (
	"errors"
	"net/http"

	"github.com/aescanero/predictd/internal/application/prediction"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fixed client-facing messages. Internal error text is only logged.
const (
	msgInvalidBody      = "Invalid request body"
	msgPredictionFailed = "Prediction failed"
)

// PredictResponse represents a successful prediction response
type PredictResponse struct {
	Result []float64 `json:"result"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error  string                  `json:"error"`
	Detail []prediction.FieldError `json:"detail,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"model":  s.predictor.ModelName(),
	})
}

// handleNotFound answers requests for unknown paths
func (s *Server) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not Found"})
}

// handleMethodNotAllowed answers known paths requested with the wrong method
func (s *Server) handleMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "Method Not Allowed"})
}

// handlePredict handles prediction requests
func (s *Server) handlePredict(c *gin.Context) {
	s.logger.Info("received prediction request", zap.String("request_id", requestID(c)))

	data, err := c.GetRawData()
	if err != nil {
		s.logger.Warn("failed to read request body",
			zap.String("request_id", requestID(c)),
			zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody})
		return
	}

	req, err := s.predictor.Validate(data)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp, err := s.predictor.Predict(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PredictResponse{Result: resp.Result})
}

// writeError maps a service error to its status code and response body
func (s *Server) writeError(c *gin.Context, err error) {
	var (
		verr *prediction.ValidationError
		perr *prediction.PredictionError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  msgInvalidBody,
			Detail: verr.Details,
		})
	case errors.As(err, &perr):
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgPredictionFailed})
	default:
		s.logger.Error("unexpected prediction error",
			zap.String("request_id", requestID(c)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgPredictionFailed})
	}
}
