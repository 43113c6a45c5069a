package infra

import (
	"math"
	"strconv"
	"time"

	"feedhub-gateway/middleware/ratelimit/domain"
)

// Aritmética da janela deslizante ponderada, compartilhada entre o store em
// memória e o script Lua do store Redis (que faz a mesma conta do lado do servidor).

func windowMillis(tier domain.Tier) int64 {
	ms := tier.Window.Milliseconds()
	if ms <= 0 {
		return 1
	}
	return ms
}

func windowIndex(now time.Time, tier domain.Tier) int64 {
	return now.UnixMilli() / windowMillis(tier)
}

func windowReset(index int64, tier domain.Tier) time.Time {
	return time.UnixMilli((index + 1) * windowMillis(tier))
}

// weightedPrevious reduz a contagem da janela anterior proporcionalmente ao
// quanto da janela corrente já passou.
func weightedPrevious(prev int64, now time.Time, tier domain.Tier) int64 {
	w := windowMillis(tier)
	elapsed := now.UnixMilli() % w
	return int64(math.Floor(float64(prev) * (1 - float64(elapsed)/float64(w))))
}

func counterKey(tier domain.Tier, key string, index int64) string {
	return tier.Prefix + ":" + key + ":" + strconv.FormatInt(index, 10)
}

// decide aplica o teto: se a estimativa já atingiu o limite a requisição não é
// contada. current é o valor da janela corrente antes do incremento.
func decide(limit, current, weightedPrev int64) (bool, int64) {
	if weightedPrev+current >= limit {
		return false, 0
	}
	remaining := limit - (current + 1 + weightedPrev)
	if remaining < 0 {
		remaining = 0
	}
	return true, remaining
}
