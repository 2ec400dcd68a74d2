package rest

// ResponseError is the body of every failed request.
type ResponseError struct {
	Message string `json:"message"`
}
