// Package logging monta o logger estruturado (go-kit) usado por todo o gateway.
package logging

import (
	"io"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New cria um logger JSON com timestamp, caller e componente. lvl aceita
// debug, info, warn ou error; qualquer outro valor vira info.
func New(w io.Writer, component, lvl string) log.Logger {
	logger := log.NewJSONLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, allow(lvl))
	return log.With(logger,
		"ts", log.DefaultTimestampUTC,
		"caller", log.DefaultCaller,
		"component", component,
	)
}

// OrNop troca nil por um logger que descarta tudo.
func OrNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return logger
}

func allow(lvl string) level.Option {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
