// Package respond padroniza as respostas JSON de erro/sucesso dos endpoints e dos
// middlewares (rate limit, assinatura de webhook, CORS).
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody é o corpo mínimo de erro: {"error": "..."}.
type ErrorBody struct {
	Error string `json:"error"`
}

// Response é uma resposta HTTP completa ainda não escrita. Os checks devolvem
// *Response (nil = segue o fluxo) para que o chamador decida quando escrever.
type Response struct {
	Status int
	Header http.Header
	Body   any
}

// Error monta uma resposta de erro com o corpo padrão.
func Error(status int, msg string) *Response {
	return &Response{
		Status: status,
		Header: http.Header{},
		Body:   ErrorBody{Error: msg},
	}
}

// Write escreve status + corpo JSON. Os headers da resposta substituem os que
// já estão em w (ex: o Origin ecoado pelo middleware de CORS sai uma vez só).
func (r *Response) Write(w http.ResponseWriter) {
	if r == nil {
		return
	}
	dst := w.Header()
	for k, vs := range r.Header {
		dst[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	JSON(w, r.Status, r.Body)
}

// JSON escreve v como JSON. Com v nil só o status é escrito.
func JSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// EchoOrigin devolve o Origin da requisição nos headers de CORS, quando houver.
func EchoOrigin(h http.Header, r *http.Request) {
	if r == nil {
		return
	}
	if origin := r.Header.Get("Origin"); origin != "" {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	}
}
