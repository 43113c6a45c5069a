package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Headers padrão.
const (
	DefaultSignatureHeader = "x-webhook-signature"
	DeliveryIDHeader       = "x-webhook-id"
)

// GenerateSignature devolve o HMAC-SHA256 de payload com a chave secret, em hex
// minúsculo (64 caracteres).
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recalcula a assinatura e compara em tempo constante.
func VerifySignature(payload []byte, signature, secret string) bool {
	return verifySignature(log.NewNopLogger(), payload, signature, secret)
}

// verifySignature nunca propaga pânico: qualquer falha interna vira "inválida".
func verifySignature(logger log.Logger, payload []byte, signature, secret string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			_ = level.Error(logger).Log("msg", "webhook signature verification failed", "err", fmt.Sprint(r))
			ok = false
		}
	}()

	return constantTimeEqual(GenerateSignature(payload, secret), signature)
}

// constantTimeEqual compara sem sair no primeiro byte diferente. Tamanhos
// diferentes saem na hora: os dois lados são digests hex de tamanho fixo.
func constantTimeEqual(a, b string) bool {
	eq, _ := scanEqual(a, b)
	return eq
}

// scanEqual devolve também quantas posições foram comparadas.
func scanEqual(a, b string) (bool, int) {
	if len(a) != len(b) {
		return false, 0
	}

	var acc byte
	scanned := 0
	for i := 0; i < len(a); i++ {
		acc |= a[i] ^ b[i]
		scanned++
	}
	return acc == 0, scanned
}

// ConstantTimeEqual expõe a comparação para outros segredos compartilhados
// (ex: token interno de bypass).
func ConstantTimeEqual(a, b string) bool { return constantTimeEqual(a, b) }

// digestPrefix é o que pode ir para log de uma assinatura.
func digestPrefix(sig string) string {
	if len(sig) > 8 {
		return sig[:8] + "..."
	}
	return sig
}
