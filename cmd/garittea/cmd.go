package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"garittea/internal/dto"
	"garittea/internal/model"
	"garittea/internal/service"

	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	sesion   *service.Sesion
	creditos service.CreditoService
	ciclo    service.CicloCreditoService
	masivas  service.NotasMasivasService
	reportes service.ReporteService
	out      io.Writer
	stdinFD  int
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  login -email EMAIL                          - start a session (password is prompted)")
	fmt.Fprintln(cli.out, "  logout                                      - end the session")
	fmt.Fprintln(cli.out, "  me                                          - show the signed-in operator")
	fmt.Fprintln(cli.out, "  creditos [-estado N] [-facultad N] [-buscar TEXTO]")
	fmt.Fprintln(cli.out, "  editar -id N [-estado N] [-factura ID -fecha YYYY-MM-DD] [-monto N] [-obs TEXTO]")
	fmt.Fprintln(cli.out, "  eliminar -id N")
	fmt.Fprintln(cli.out, "  notas-masivas -in FILE -out FILE.xlsx")
	fmt.Fprintln(cli.out, "  reporte [-desde YYYY-MM-DD] [-hasta YYYY-MM-DD] (-out FILE.pdf | -enviar EMAIL)")
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse maps -h to errHelp so the caller exits non-zero without an error line.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "login":
		return cli.login(ctx, args[2:])
	case "logout":
		if _, err := cli.sesion.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Sesión cerrada")
		return nil
	case "me":
		return cli.me(ctx)
	case "creditos":
		return cli.listarCreditos(ctx, args[2:])
	case "editar":
		return cli.editar(ctx, args[2:])
	case "eliminar":
		return cli.eliminar(ctx, args[2:])
	case "notas-masivas":
		return cli.notasMasivas(ctx, args[2:])
	case "reporte":
		return cli.reporte(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "The operator's email. The password will be prompted next.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	fmt.Fprint(cli.out, "Contraseña: ")
	pwd, err := readPasswordFunc(cli.stdinFD)
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return errHelp
	}

	auth, err := cli.sesion.Login(ctx, dto.LoginRequest{Email: *email, Password: string(pwd)})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Sesión iniciada como %s (%s)\n", auth.Usuario.Email, auth.Usuario.Role)
	return nil
}

func (cli *commandLine) me(ctx context.Context) error {
	if a := cli.sesion.Actual(); !a.Autenticado() {
		return fmt.Errorf("%w: %s", service.ErrSinSesion, a.Motivo)
	}
	u, err := cli.sesion.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d\t%s %s\t%s\t%s\n", u.ID, u.Firstname, u.Lastname, u.Email, u.Role)
	return nil
}

func (cli *commandLine) listarCreditos(ctx context.Context, args []string) error {
	fs := cli.flagSet("creditos")
	estado := fs.Int("estado", 0, "State id (1 pendiente, 2 nota crédito, 3 pagado, 4 generado)")
	facultad := fs.Int64("facultad", 0, "Faculty id")
	buscar := fs.String("buscar", "", "Free-text search")
	if err := parse(fs, args); err != nil {
		return err
	}

	creditos, err := cli.creditos.Listar(ctx, dto.CreditoFilter{Estado: *estado, FacultadID: *facultad, Busqueda: *buscar})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOLICITANTE\tMONTO\tESTADO\tFACTURA")
	for i := range creditos {
		c := &creditos[i]
		solicitante, factura := "-", "-"
		if c.Applicant != nil {
			solicitante = c.Applicant.NombreCompleto()
		}
		if c.Bill != nil && c.Bill.ID != "" {
			factura = c.Bill.ID
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, solicitante, model.FormatearMonto(c.DebtAmount), c.State, factura)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d créditos\n", len(creditos))
	return nil
}

func (cli *commandLine) editar(ctx context.Context, args []string) error {
	fs := cli.flagSet("editar")
	id := fs.Int64("id", 0, "Credit id")
	estado := fs.Int("estado", 0, "New state id")
	factura := fs.String("factura", "", "Bill number, required to leave the generado state")
	fecha := fs.String("fecha", "", "Bill date YYYY-MM-DD")
	monto := fs.String("monto", "", "New debt amount (whole number)")
	obs := fs.String("obs", "", "Observations")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}

	req := dto.EditarCreditoRequest{FacturaID: *factura, FechaFactura: *fecha}
	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "estado":
			e := model.EstadoCredito(*estado)
			req.Estado = &e
		case "monto":
			d, err := decimal.NewFromString(strings.TrimSpace(*monto))
			if err != nil {
				parseErr = service.NewValidationError("debtAmount", "debtAmount debe ser un número entero positivo")
				return
			}
			req.DebtAmount = &d
		case "obs":
			req.Observaciones = obs
		}
	})
	if parseErr != nil {
		return parseErr
	}

	credito, err := cli.creditos.Obtener(ctx, *id)
	if err != nil {
		return err
	}
	actualizado, err := cli.ciclo.Editar(ctx, credito, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Crédito %d: %s, %s\n", actualizado.ID, actualizado.State, model.FormatearMonto(actualizado.DebtAmount))
	return nil
}

func (cli *commandLine) eliminar(ctx context.Context, args []string) error {
	fs := cli.flagSet("eliminar")
	id := fs.Int64("id", 0, "Credit id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}
	if err := cli.creditos.Eliminar(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Crédito %d eliminado\n", *id)
	return nil
}

func (cli *commandLine) notasMasivas(ctx context.Context, args []string) error {
	fs := cli.flagSet("notas-masivas")
	in := fs.String("in", "", "Spreadsheet (.xlsx or .csv) with bill numbers")
	out := fs.String("out", "notas_asociadas.xlsx", "Result workbook")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return errHelp
	}

	src, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer src.Close()

	// Rendered in memory first so a failed lookup leaves no partial file behind.
	var buf bytes.Buffer
	resumen, err := cli.masivas.Procesar(ctx, src, *in, &buf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d facturas: %d con nota, %d sin nota, %d celdas inválidas -> %s\n",
		resumen.Facturas, resumen.ConNota, resumen.SinNota, resumen.Invalidas, *out)
	return nil
}

func (cli *commandLine) reporte(ctx context.Context, args []string) error {
	fs := cli.flagSet("reporte")
	desde := fs.String("desde", "", "Range start YYYY-MM-DD")
	hasta := fs.String("hasta", "", "Range end YYYY-MM-DD")
	out := fs.String("out", "", "Write the PDF here")
	enviar := fs.String("enviar", "", "Mail the PDF to this address instead")
	if err := parse(fs, args); err != nil {
		return err
	}
	if (*out == "") == (*enviar == "") {
		fs.Usage()
		return errHelp
	}

	if *enviar != "" {
		path, err := cli.reportes.Enviar(ctx, dto.EnviarReporteRequest{Destinatario: *enviar, Desde: *desde, Hasta: *hasta})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Reporte %s enviado a %s\n", path, *enviar)
		return nil
	}

	var buf bytes.Buffer
	if err := cli.reportes.Generar(ctx, dto.ResumenFilter{Desde: *desde, Hasta: *hasta}, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Reporte guardado en %s\n", *out)
	return nil
}
