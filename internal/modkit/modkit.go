// Package modkit wires api modules: the shared deps handed to each one and
// the options that decide where and how a module mounts
package modkit

import (
	"covidsignal/internal/modkit/module"
	"covidsignal/internal/platform/config"
	"covidsignal/internal/platform/logger"
	"covidsignal/internal/platform/store"
)

// Module is what the api composition root mounts
type Module = module.Module

// Deps are handed to every module constructor. PG and CH stay nil unless
// the backend is configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  store.TxRunner
	CH  store.Clickhouse
}

// FromStore builds Deps over the seams of st; st may be nil
func FromStore(cfg config.Conf, log logger.Logger, st *store.Store) Deps {
	d := Deps{Log: log, Cfg: cfg}
	if st != nil {
		d.PG = st.PG
		d.CH = st.CH
	}
	return d
}
