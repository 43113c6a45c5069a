// Package application contém os casos de uso (regras de aplicação) para rate limit
// por tier e limite de concorrência.
//
// Ele depende apenas do pacote domain e não conhece net/http.
// Ex.: Service.Check(ctx, tier, id) retorna um Result (allowed / limited / store_error)
// e FailOpen decide que store_error segue como permitido.
package application
