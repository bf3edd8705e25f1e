// rezolus-go - high-resolution Linux performance telemetry agent
// SPDX-License-Identifier: Apache-2.0

package httpapi

// QueryRequest is the decoded, validated form of a GET /api/v1/query request.
type QueryRequest struct {
	Query string `validate:"required,max=4096"`
	Time  string `validate:"omitempty,max=64"`
}

// QueryRangeRequest is the decoded, validated form of a
// GET /api/v1/query_range request.
type QueryRangeRequest struct {
	Query string `validate:"required,max=4096"`
	Start string `validate:"required,max=64"`
	End   string `validate:"required,max=64"`
	Step  string `validate:"required,max=32"`
}
