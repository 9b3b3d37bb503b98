package embedding

import "github.com/m-mizutani/goerr/v2"

var (
	ErrProvider        = goerr.New("embedding provider error")
	ErrInvalidResponse = goerr.New("invalid embedding response format")
)
