package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"feedhub-gateway/internal/logging"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// DeliveryObserver recebe a classe de status de cada envio (2xx, 4xx, 5xx, error).
type DeliveryObserver interface {
	ObserveDelivery(status string)
}

// Sender envia trabalho assinado para pipelines externos.
type Sender struct {
	client   *http.Client
	secret   string
	header   string
	limiter  *rate.Limiter
	logger   log.Logger
	observer DeliveryObserver
}

type SenderOption func(*Sender)

func WithHTTPClient(c *http.Client) SenderOption {
	return func(s *Sender) { s.client = c }
}

func WithSignatureHeader(h string) SenderOption {
	return func(s *Sender) { s.header = h }
}

// WithPacing limita a taxa de envios do processo (token bucket). rps <= 0
// desliga.
func WithPacing(rps float64, burst int) SenderOption {
	return func(s *Sender) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithSenderLogger(l log.Logger) SenderOption {
	return func(s *Sender) { s.logger = logging.OrNop(l) }
}

func WithDeliveryObserver(o DeliveryObserver) SenderOption {
	return func(s *Sender) { s.observer = o }
}

func NewSender(secret string, opts ...SenderOption) *Sender {
	s := &Sender{
		client: &http.Client{Timeout: 30 * time.Second},
		secret: secret,
		header: DefaultSignatureHeader,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send serializa payload uma única vez e envia esses bytes assinados.
func (s *Sender) Send(ctx context.Context, url string, payload any, extra http.Header) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("webhook: encode payload: %w", err)
	}
	return s.SendRaw(ctx, url, body, extra)
}

// SendRaw assina e envia body sem nenhuma re-serialização. Headers de extra são
// aplicados por último e prevalecem.
func (s *Sender) SendRaw(ctx context.Context, url string, body []byte, extra http.Header) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("webhook: pacing: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("webhook: new request: %w", err)
	}

	deliveryID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryIDHeader, deliveryID)
	// sempre assina: sem segredo, a chave vazia ainda gera um header que o
	// destino consegue rejeitar.
	if s.secret == "" {
		_ = level.Warn(s.logger).Log("msg", "webhook secret not configured - signing with empty key", "url", url)
	}
	req.Header.Set(s.header, GenerateSignature(body, s.secret))
	for k, vs := range extra {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	logger := log.With(s.logger, "delivery_id", deliveryID, "url", url)

	resp, err := s.client.Do(req)
	if err != nil {
		s.observe("error")
		_ = level.Error(logger).Log("msg", "webhook delivery failed", "err", err)
		return nil, fmt.Errorf("webhook: deliver: %w", err)
	}

	s.observe(statusClass(resp.StatusCode))
	_ = level.Info(logger).Log("msg", "webhook delivered", "status", resp.StatusCode, "body_bytes", len(body))
	return resp, nil
}

func (s *Sender) observe(status string) {
	if s.observer != nil {
		s.observer.ObserveDelivery(status)
	}
}

// CreateSignedRequest é o atalho sem configuração: JSON, assinatura no header
// padrão e os headers de extra mesclados.
func CreateSignedRequest(ctx context.Context, url string, payload any, secret string, extra http.Header) (*http.Response, error) {
	return NewSender(secret).Send(ctx, url, payload, extra)
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
