package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"context"
	"time"
)

// Tier é uma configuração estática de custo: teto de requisições, janela e
// prefixo do namespace no store. Tiers são valores e nunca mudam em runtime.
type Tier struct {
	Name   string
	Limit  int64
	Window time.Duration
	Prefix string
}

var (
	// HighCost cobre chamadas caras a provedores de LLM / text-to-speech.
	HighCost = Tier{Name: "highCost", Limit: 20, Window: time.Hour, Prefix: "ratelimit:high"}
	// MediumCost cobre ingestão de documentos/feeds e gatilhos de processamento.
	MediumCost = Tier{Name: "mediumCost", Limit: 50, Window: time.Hour, Prefix: "ratelimit:medium"}
	// LowCost cobre operações comuns de CRUD.
	LowCost = Tier{Name: "lowCost", Limit: 100, Window: time.Hour, Prefix: "ratelimit:low"}
	// Callback cobre callbacks servidor-a-servidor confiáveis.
	Callback = Tier{Name: "callback", Limit: 500, Window: time.Hour, Prefix: "ratelimit:callback"}
)

// DefaultTiers devolve os quatro tiers na ordem do mais caro para o mais barato.
func DefaultTiers() []Tier {
	return []Tier{HighCost, MediumCost, LowCost, Callback}
}

// IdentifierKind diz de onde veio o identificador. Só a classe vai para o log.
type IdentifierKind string

const (
	KindUser    IdentifierKind = "user"
	KindIP      IdentifierKind = "ip"
	KindUnknown IdentifierKind = "unknown"
)

// UnknownIdentifier é usado quando nenhum identificador pode ser derivado.
const UnknownIdentifier = "unknown"

type Identifier struct {
	Key  string
	Kind IdentifierKind
}

func UserIdentifier(id string) Identifier { return Identifier{Key: id, Kind: KindUser} }

func IPIdentifier(ip string) Identifier { return Identifier{Key: ip, Kind: KindIP} }

func Unknown() Identifier { return Identifier{Key: UnknownIdentifier, Kind: KindUnknown} }

// Decision é o resultado de uma checagem. Produzida a cada chamada, nunca guardada.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	// Reset é o fim da janela corrente (precisão de milissegundos).
	Reset time.Time
}

// CounterStore registra a requisição e avalia a janela numa única operação
// atômica. Chamar duas vezes para a mesma requisição lógica conta em dobro.
//
// A implementação pode ser Redis (Lua), memória, etc.
type CounterStore interface {
	Hit(ctx context.Context, tier Tier, id Identifier, now time.Time) (Decision, error)
}
