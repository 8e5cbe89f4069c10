package graph

import (
	"context"

	"graph_server/core/domain"
)

const componentsQuery = "CALL dbms.components() YIELD name, versions, edition RETURN name, versions, edition"

// TestConnection connects if needed and lists the server components. It never
// returns an error; failures are reported in the status.
func (c *Connection) TestConnection(ctx context.Context) *domain.ConnectionStatus {
	uri := c.cfg.BoltURI()
	db := c.cfg.Database

	fail := func(err error) *domain.ConnectionStatus {
		msg := err.Error()
		if msg == "" {
			msg = "unknown error"
		}
		return &domain.ConnectionStatus{Connected: false, URI: uri, Database: db, Error: msg}
	}

	if err := c.Connect(ctx); err != nil {
		return fail(err)
	}

	components, err := c.read(ctx, "test_connection", componentsQuery, nil, db)
	if err != nil {
		return fail(err)
	}

	auth := c.cfg.AuthEnabled()
	return &domain.ConnectionStatus{
		Connected:   true,
		URI:         uri,
		Database:    db,
		AuthEnabled: &auth,
		Components:  components,
	}
}

// ConnectionInfo reports the static settings together with a live probe.
func (c *Connection) ConnectionInfo(ctx context.Context) *domain.ConnectionInfo {
	return &domain.ConnectionInfo{
		BoltURI:     c.cfg.BoltURI(),
		HTTPURI:     c.cfg.HTTPURI(),
		Database:    c.cfg.Database,
		AuthEnabled: c.cfg.AuthEnabled(),
		Encrypted:   c.cfg.Encrypted,
		Status:      *c.TestConnection(ctx),
	}
}
