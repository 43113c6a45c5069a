// utilitário pequeno para formatação consistente dos valores numéricos e datas
// que vão para headers e corpo da resposta 429.

package ratelimit

import (
	"strconv"
	"time"
)

// isoMillis imita o toISOString: UTC, milissegundos, sufixo Z.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatISO(t time.Time) string { return t.UTC().Format(isoMillis) }
