// Package domain define contratos e tipos de domínio para rate limit por tier
// e limite de concorrência.
//
// Este pacote não depende de net/http nem de implementações concretas.
// Os quatro tiers (highCost, mediumCost, lowCost, callback) vivem aqui como
// valores estáticos.
package domain
