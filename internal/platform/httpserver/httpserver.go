package httpserver

import (
	"net/http"

	"phishsim/internal/platform/config"
)

const maxHeaderBytes = 1 << 20

// New builds the API listener. Zero timeouts in cfg are left unset, which
// net/http treats as no limit.
func New(addr string, handler http.Handler, cfg config.HTTPConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}
}
