// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - RedisStore: janela deslizante ponderada via script Lua (go-redis)
//   - Store: a mesma janela em memória, para desenvolvimento e testes
//   - RedisStatsStore / MemoryStatsStore: estatísticas de decisão por tier
//   - ChanPool: semáforo simples para limite de concorrência
package infra
