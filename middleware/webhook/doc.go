// Package webhook implementa a autenticação dos callbacks servidor-a-servidor
// (HMAC-SHA256 sobre o corpo bruto) e o lado que envia trabalho assinado para os
// pipelines externos de automação.
//
// Regras:
//
//   - a assinatura é o hex minúsculo do HMAC-SHA256 do corpo exatamente como
//     transmitido, no header x-webhook-signature (configurável)
//   - o corpo é lido uma única vez e verificado antes de qualquer parse; o
//     handler recebe os mesmos bytes
//   - a comparação percorre sempre o tamanho inteiro (sem saída antecipada)
//   - sem segredo configurado, o Authenticator opera em ModeDisabled e registra
//     um warning em toda requisição
//   - quem envia serializa o payload uma vez e assina exatamente esses bytes
package webhook
