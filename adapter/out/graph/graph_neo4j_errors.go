package graph

import (
	"errors"
	"time"

	"graph_server/pkg/apperr"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Server codes reported when credentials are rejected.
var authFailureCodes = map[string]bool{
	"Neo.ClientError.Security.Unauthorized":            true,
	"Neo.ClientError.Security.AuthenticationRateLimit": true,
	"Neo.ClientError.Security.CredentialsExpired":      true,
	"Neo.ClientError.Security.TokenExpired":            true,
}

func isAuthFailure(err error) bool {
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		return authFailureCodes[neoErr.Code]
	}
	return false
}

func isConnectivity(err error) bool {
	if neo4j.IsConnectivityError(err) {
		return true
	}
	var connErr *neo4j.ConnectivityError
	return errors.As(err, &connErr)
}

// classifyOpenError maps driver creation and verification failures.
func classifyOpenError(uri string, err error) error {
	switch {
	case isAuthFailure(err):
		return apperr.AuthenticationFailed(uri, err)
	case isConnectivity(err):
		return apperr.ServiceUnavailable(uri, err)
	default:
		return apperr.ConnectionFailure(uri, err)
	}
}

// classifyRunError keeps server errors untouched so the service layer reports
// them as query failures with the original message. Connectivity loss and an
// open breaker become ServiceUnavailable.
func classifyRunError(uri string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperr.ServiceUnavailable(uri, err)
	case isConnectivity(err):
		return apperr.ServiceUnavailable(uri, err)
	default:
		return err
	}
}

func newBreaker(uri string, cfg BreakerConfig, log zerolog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "neo4j",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Syntax errors and constraint violations say nothing about server health.
		IsSuccessful: func(err error) bool {
			return err == nil || !isConnectivity(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("uri", uri).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}
