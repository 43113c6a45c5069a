package domain

import "context"

// SlotPool limita quantas chamadas caras (provedor de IA) ficam em voo.
// Acquire espera por uma vaga até o ctx terminar; o release devolvido deve ser
// chamado uma única vez.
type SlotPool interface {
	Acquire(ctx context.Context) (release func(), ok bool)
}
