package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/WatchParty/internal/protocol"
)

func (o *Orchestrator) Signup(req protocol.AuthRequest) protocol.Ack {
	u, err := o.Auth.Signup(req.Username, req.Password)
	if err != nil {
		log.Info().Err(err).Str("module", "app.orch").Str("username", req.Username).Msg("signup refused")
		return protocol.Fail(err)
	}
	return protocol.Ack{Success: true, User: &u}
}

func (o *Orchestrator) Login(req protocol.AuthRequest) protocol.Ack {
	u, err := o.Auth.Login(req.Username, req.Password)
	if err != nil {
		log.Info().Err(err).Str("module", "app.orch").Str("username", req.Username).Msg("login refused")
		return protocol.Fail(err)
	}
	return protocol.Ack{Success: true, User: &u}
}
