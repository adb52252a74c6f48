// Package controllers holds helpers shared by the controllers.
package controllers

import (
	"fmt"
	"net/http"
	"time"
)

// NewHTTPClient creates a standardized HTTP client with timeout
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
	}
}

// ListenAddr joins a listen address and port, defaulting to all interfaces
func ListenAddr(addr string, port int) string {
	if addr == "" {
		addr = "0.0.0.0"
	}
	return fmt.Sprintf("%v:%v", addr, port)
}
