package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"garittea/internal/infra"
	"garittea/internal/query"
	"garittea/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string
}

type backendCLI struct {
	mu    sync.Mutex
	rutas []string
}

func (b *backendCLI) registrar(r *http.Request) {
	b.mu.Lock()
	b.rutas = append(b.rutas, r.Method+" "+r.URL.Path)
	b.mu.Unlock()
}

func (b *backendCLI) llamadas() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.rutas...)
}

func responder(b *backendCLI, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.registrar(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *backendCLI) {
	t.Helper()
	b := &backendCLI{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", responder(b, `{"token":"tok-cli"}`))
	mux.HandleFunc("POST /auth/logout", responder(b, `{}`))
	mux.HandleFunc("GET /auth/me", responder(b, `{"id":5,"email":"ana@garittea.test","firstname":"Ana","lastname":"Ruiz","role":"admin"}`))
	mux.HandleFunc("GET /credits", responder(b,
		`[{"id":10,"debtAmount":50000,"state":4,"applicant":{"id":1,"firstname":"Luis","lastname":"Paz"}}]`))
	mux.HandleFunc("GET /credits/10", responder(b, `{"id":10,"debtAmount":50000,"state":4}`))
	mux.HandleFunc("POST /bills/dispatch", responder(b, `{"idbill":"FE-1","orderId":10,"billdate":"2024-05-02"}`))
	mux.HandleFunc("PATCH /credits/10", responder(b, `{"id":10,"debtAmount":50000,"state":1}`))
	mux.HandleFunc("DELETE /credits/11", func(w http.ResponseWriter, r *http.Request) {
		b.registrar(r)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"ORDER_HAS_BILL","message":"Order has bill"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := &infra.MemoryTokenStore{}
	gw := infra.NewClient(srv.URL, 2*time.Second, tokens)
	cache := query.New(0)
	sesion := service.NewSesion(gw, tokens, cache)
	facturas := service.NewFacturaService(gw, cache)
	creditos := service.NewCreditoService(gw, cache, sesion)

	out := &bytes.Buffer{}
	return &commandLine{
		sesion:   sesion,
		creditos: creditos,
		ciclo:    service.NewCicloCreditoService(creditos, facturas),
		masivas:  service.NewNotasMasivasService(facturas, infra.ColumnReadOptions{Column: "A"}),
		reportes: service.NewReporteService(service.NewDashboardService(gw, cache), nil, t.TempDir()),
		out:      out,
	}, out, b
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"garittea"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, mensaje(err), tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_help(t *testing.T) {
	cli, out, b := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login: no email", args: []string{"login"}, wantErr: errHelp},
		{name: "login: -h", args: []string{"login", "-h"}, wantErr: errHelp},
		{name: "editar: no id", args: []string{"editar", "-estado", "1"}, wantErr: errHelp},
		{name: "eliminar: no id", args: []string{"eliminar"}, wantErr: errHelp},
		{name: "notas-masivas: no input", args: []string{"notas-masivas"}, wantErr: errHelp},
		{name: "reporte: no destination", args: []string{"reporte"}, wantErr: errHelp},
		{name: "reporte: both destinations", args: []string{"reporte", "-out", "x.pdf", "-enviar", "a@b.test"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"creditos", "-estado", "uno"}, wantErrStr: "invalid value"},
	}
	runTests(t, cli, out, tests)
	assert.Empty(t, b.llamadas())
}

func Test_commandLine_login(t *testing.T) {
	cli, out, b := setup(t)
	orig := readPasswordFunc
	t.Cleanup(func() { readPasswordFunc = orig })

	readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
	runTests(t, cli, out, []cliTest{
		{name: "empty password", args: []string{"login", "-email", "ana@garittea.test"}, wantErr: errHelp},
	})

	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	runTests(t, cli, out, []cliTest{
		{name: "prompt failure", args: []string{"login", "-email", "ana@garittea.test"}, wantErrStr: "not a terminal"},
	})
	assert.Empty(t, b.llamadas())

	readPasswordFunc = func(int) ([]byte, error) { return []byte("secreta"), nil }
	runTests(t, cli, out, []cliTest{
		{name: "ok", args: []string{"login", "-email", "ana@garittea.test"}, wantOut: "Sesión iniciada como ana@garittea.test (admin)"},
		{name: "me", args: []string{"me"}, wantOut: "Ana Ruiz"},
		{name: "logout", args: []string{"logout"}, wantOut: "Sesión cerrada"},
		{name: "me after logout", args: []string{"me"}, wantErr: service.ErrSinSesion},
	})
}

func Test_commandLine_creditos(t *testing.T) {
	cli, out, b := setup(t)

	tests := []cliTest{
		{name: "list", args: []string{"creditos"}, wantOut: "Luis Paz"},
		{name: "bad amount", args: []string{"editar", "-id", "10", "-monto", "mucho"}, wantErrStr: "debtAmount"},
		{
			name:    "generado to pendiente",
			args:    []string{"editar", "-id", "10", "-factura", "FE-1", "-fecha", "2024-05-02"},
			wantOut: "Crédito 10: Pendiente",
		},
		{name: "delete with bill", args: []string{"eliminar", "-id", "11"}, wantErrStr: service.MensajePedidoConFactura},
	}
	runTests(t, cli, out, tests)

	assert.Equal(t, []string{
		"GET /credits",
		"GET /credits/10",
		"POST /bills/dispatch",
		"PATCH /credits/10",
		"DELETE /credits/11",
	}, b.llamadas())
}

func Test_commandLine_notasMasivasSinFacturas(t *testing.T) {
	cli, out, b := setup(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "facturas.csv")
	require.NoError(t, os.WriteFile(in, []byte("Factura\n--\n"), 0o600))
	dst := filepath.Join(dir, "out.xlsx")

	runTests(t, cli, out, []cliTest{
		{name: "no valid bills", args: []string{"notas-masivas", "-in", in, "-out", dst}, wantErrStr: "números de factura"},
		{name: "missing input", args: []string{"notas-masivas", "-in", filepath.Join(dir, "nada.csv")}, wantErrStr: "nada.csv"},
	})

	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, b.llamadas())
}

func Test_commandLine_reporteSinCorreo(t *testing.T) {
	cli, out, _ := setup(t)
	err := cli.run(context.Background(), []string{"garittea", "reporte", "-enviar", "gerencia@garittea.test"})
	assert.ErrorIs(t, err, service.ErrCorreoNoConfigurado)
	assert.False(t, strings.Contains(out.String(), "enviado"))
}
