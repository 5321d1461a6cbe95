package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"garittea/internal/infra"
	"garittea/internal/query"

	"github.com/stretchr/testify/require"
)

// ── Fake backend ─────────────────────────────────────────────────────────────

type llamada struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   []byte
}

// fakeBackend records every call and answers from canned routes keyed by
// "METHOD /path". Unknown routes answer 404.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	llamadas []llamada
	rutas    map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{t: t, rutas: map[string]http.HandlerFunc{}}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.llamadas = append(b.llamadas, llamada{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		Body:   body,
	})
	h, ok := b.rutas[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h(w, r)
}

// on answers method+path with status and body encoded as JSON.
func (b *fakeBackend) on(method, path string, status int, body any) {
	b.handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	})
}

func (b *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rutas[method+" "+path] = h
}

func (b *fakeBackend) calls() []llamada {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]llamada(nil), b.llamadas...)
}

func (b *fakeBackend) count(method, path string) int {
	n := 0
	for _, c := range b.calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// bodyOf decodes the JSON body of the i-th call to method+path.
func (b *fakeBackend) bodyOf(method, path string, i int) map[string]any {
	b.t.Helper()
	n := 0
	for _, c := range b.calls() {
		if c.Method != method || c.Path != path {
			continue
		}
		if n == i {
			var out map[string]any
			require.NoError(b.t, json.Unmarshal(c.Body, &out))
			return out
		}
		n++
	}
	b.t.Fatalf("no call %d to %s %s", i, method, path)
	return nil
}

// ── Wiring ───────────────────────────────────────────────────────────────────

type entorno struct {
	backend *fakeBackend
	tokens  *infra.MemoryTokenStore
	gw      *infra.Client
	cache   *query.Cache
}

func newEntorno(t *testing.T) *entorno {
	t.Helper()
	b := newFakeBackend(t)
	tokens := &infra.MemoryTokenStore{}
	return &entorno{
		backend: b,
		tokens:  tokens,
		gw:      infra.NewClient(b.srv.URL, 2*time.Second, tokens),
		cache:   query.New(0),
	}
}

// usuarioFijo resolves a constant acting user.
type usuarioFijo int64

func (u usuarioFijo) UsuarioID(context.Context) (int64, error) { return int64(u), nil }

var _ UsuarioResolver = usuarioFijo(0)
