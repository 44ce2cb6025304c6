// Package ports defines the interfaces between the prediction service and
// its adapters.
package ports
