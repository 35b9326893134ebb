package models

import (
	"fmt"

	"bom-server/backend/internal/bom"
)

// ErrorCode identifies the failure class in the error envelope
type ErrorCode int

const (
	ErrorCodeInternal      ErrorCode = 1
	ErrorCodeNotFound      ErrorCode = 2
	ErrorCodeDuplicateName ErrorCode = 3
	ErrorCodeValidation    ErrorCode = 4
	ErrorCodeCycle         ErrorCode = 5
)

// Response is the envelope returned by every /v1 endpoint. Any field may be
// null; Error is set only on failure.
type Response struct {
	Result *QueryResult `json:"result"`
	Data   []PartView   `json:"data"`
	Error  *ErrorBody   `json:"error"`
}

// QueryResult describes a successful call
type QueryResult struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// ErrorBody describes a failed call
type ErrorBody struct {
	Code        ErrorCode `json:"code"`
	Description string    `json:"description"`
}

// PartView is the wire form of a part. Ids are canonical UUID strings.
type PartView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Parents  []string `json:"parents"`
	Children []string `json:"children"`
}

// NewPartRequest is the body of POST /v1/parts
type NewPartRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateChildrenRequest is the body of POST /v1/parts/{id}/children
type UpdateChildrenRequest struct {
	Children []string `json:"children" binding:"required"`
}

// Success builds a result envelope. data is never null on success.
func Success(code int, description string, parts []bom.Part) Response {
	data := make([]PartView, 0, len(parts))
	for _, p := range parts {
		data = append(data, NewPartView(p))
	}
	return Response{
		Result: &QueryResult{Code: code, Description: description},
		Data:   data,
	}
}

// Failure builds an error envelope
func Failure(code ErrorCode, description string) Response {
	return Response{Error: &ErrorBody{Code: code, Description: description}}
}

// NewPartView converts a part copy to its wire form
func NewPartView(p bom.Part) PartView {
	v := PartView{
		ID:       p.ID.String(),
		Name:     p.Name,
		Parents:  make([]string, 0, len(p.Parents)),
		Children: make([]string, 0, len(p.Children)),
	}
	for _, id := range p.Parents {
		v.Parents = append(v.Parents, id.String())
	}
	for _, id := range p.Children {
		v.Children = append(v.Children, id.String())
	}
	return v
}

// Validate checks the wire form before it is trusted by the client
func (v PartView) Validate() error {
	if v.ID == "" {
		return ErrInvalidPartView{Field: "id", Reason: "cannot be empty"}
	}
	if v.Name == "" {
		return ErrInvalidPartView{Field: "name", Reason: "cannot be empty"}
	}
	return nil
}

// Errors

type ErrInvalidPartView struct {
	Field  string
	Reason string
}

func (e ErrInvalidPartView) Error() string {
	return fmt.Sprintf("invalid part: %s - %s", e.Field, e.Reason)
}

// ErrResponse carries an error envelope received by the client
type ErrResponse struct {
	Status int
	Body   ErrorBody
}

func (e ErrResponse) Error() string {
	return fmt.Sprintf("server error %d (code %d): %s", e.Status, e.Body.Code, e.Body.Description)
}
