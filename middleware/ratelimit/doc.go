// Package ratelimit fornece o adapter HTTP (net/http) do rate limit por tier e
// do limite de concorrência.
//
// Visão geral (camadas):
//
//   - domain: tiers, identificadores, decisões e contratos (sem net/http)
//   - application: Service.Check (Result allowed/limited/store_error) e a
//     política FailOpen, sem net/http
//   - infra: stores concretos (Redis com Lua, memória), estatísticas, semáforo
//   - ratelimit (este pacote): Limiter.Check, middlewares, extração do
//     identificador e a resposta 429
//
// Fluxo em cada endpoint:
//
//  1. Resolve o identificador (usuário autenticado, senão IP, senão "unknown")
//  2. Consulta o tier declarado pelo endpoint
//  3. Se estourou, responde 429 com X-RateLimit-* e Retry-After
//  4. Se permitido (ou se o store falhou), chama o próximo handler
package ratelimit
