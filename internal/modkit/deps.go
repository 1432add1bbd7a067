package modkit

import (
	"citypulse/internal/modkit/repokit"
	"citypulse/internal/platform/config"
	"citypulse/internal/platform/logger"
	"citypulse/internal/platform/store/rd"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	RD  *rd.SafeKV
}
