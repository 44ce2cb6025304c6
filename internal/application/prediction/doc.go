// Package prediction implements request validation and model inference for
// the predict endpoint.
//
// The service:
//   - Validates raw request bodies into a typed Request
//   - Builds the input tensor and invokes the injected model
//   - Converts the model output back into plain numbers
//
// Failures are returned as typed errors (*ValidationError or
// *PredictionError) so the transport layer can map them to status codes.
package prediction
