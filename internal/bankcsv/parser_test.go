package bankcsv

import (
	"errors"
	"strings"
	"testing"

	"icomag/internal/models"
)

const sampleStatement = `Banco Provincial;;;;
Cuenta: 0108-1234-56-7890123456;;;;
Periodo: 01/03/2024 al 31/03/2024;;;;
;;;;
Fecha;Referencia;Descripcion;Monto;Serial
01/03/2024;00012345;TRANSFERENCIA RECIBIDA APTO 1A;1,500.00;987001
02/03/2024;00012346;NOTA DE DEBITO COMISION MANTENIMIENTO;25.50;987002
02/03/2024;;SALDO FINAL DEL DIA;10,250.00;
05/03/2024;00012350;"DEPOSITO EFECTIVO; APTO 2B";300.00;987003
07/03/2024;00012351;IMPUESTO I.G.T.F 3%;4.25;987004
`

func TestParseSampleStatement(t *testing.T) {
	st, err := Parse(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	if st.AccountNumber != "0108-1234-56-7890123456" {
		t.Errorf("AccountNumber = %q, want %q", st.AccountNumber, "0108-1234-56-7890123456")
	}

	// 5 data rows, one excluded as noise (balance line without a marker)
	if len(st.Candidates) != 4 {
		t.Fatalf("got %d candidates, want 4", len(st.Candidates))
	}

	first := st.Candidates[0]
	if first.Type != models.MoneyIn {
		t.Errorf("first.Type = %q, want %q", first.Type, models.MoneyIn)
	}
	if first.Amount != 1500.00 {
		t.Errorf("first.Amount = %v, want 1500.00", first.Amount)
	}
	if first.Serial == nil || *first.Serial != "987001" {
		t.Errorf("first.Serial = %v, want 987001", first.Serial)
	}
	if first.Date.Format("02/01/2006") != "01/03/2024" {
		t.Errorf("first.Date = %v, want 01/03/2024", first.Date)
	}

	if st.Candidates[1].Type != models.MoneyOut {
		t.Errorf("debit note row classified as %q, want %q", st.Candidates[1].Type, models.MoneyOut)
	}
	if st.Candidates[3].Type != models.MoneyOut {
		t.Errorf("tax row classified as %q, want %q", st.Candidates[3].Type, models.MoneyOut)
	}
}

func TestParseQuotedFieldKeepsDelimiter(t *testing.T) {
	st, err := Parse(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}

	quoted := st.Candidates[2]
	if quoted.Description != "DEPOSITO EFECTIVO; APTO 2B" {
		t.Errorf("quoted description = %q, want the semicolon preserved", quoted.Description)
	}
	if quoted.Amount != 300.00 {
		t.Errorf("quoted row amount = %v, want 300.00", quoted.Amount)
	}
}

func TestParsePipeDelimiter(t *testing.T) {
	input := "Fecha|Referencia|Descripcion|Monto|Serial\n" +
		"10/04/2024|555|ABONO NOMINA|2,000.00|111\n"

	st, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(st.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(st.Candidates))
	}
	if st.Candidates[0].Amount != 2000.00 {
		t.Errorf("Amount = %v, want 2000.00", st.Candidates[0].Amount)
	}
}

func TestParseCommaDelimiter(t *testing.T) {
	input := "Fecha,Referencia,Descripcion,Monto,Serial\n" +
		"10/04/2024,555,CREDITO RECIBIDO,150.00,222\n"

	st, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(st.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(st.Candidates))
	}
	if st.Candidates[0].Type != models.MoneyIn {
		t.Errorf("Type = %q, want %q", st.Candidates[0].Type, models.MoneyIn)
	}
}

func TestParseNoHeaderFails(t *testing.T) {
	input := "this is not a bank statement\njust some text\n"

	_, err := Parse(strings.NewReader(input))
	if !errors.Is(err, ErrUnrecognizedFormat) {
		t.Fatalf("Parse() error = %v, want ErrUnrecognizedFormat", err)
	}
}

func TestParseNoTransactionsIsDistinctError(t *testing.T) {
	// header present, but every row is filtered as noise
	input := "Fecha;Referencia;Descripcion;Monto;Serial\n" +
		"01/03/2024;;SALDO INICIAL;5,000.00;\n" +
		";;TOTAL DEL PERIODO;;\n"

	_, err := Parse(strings.NewReader(input))
	if !errors.Is(err, ErrNoTransactions) {
		t.Fatalf("Parse() error = %v, want ErrNoTransactions", err)
	}
}

func TestParseSkipsMalformedRows(t *testing.T) {
	input := "Fecha;Referencia;Descripcion;Monto;Serial\n" +
		"not-a-date;1;CREDITO;100.00;1\n" +
		"02/03/2024;2;CREDITO;;2\n" +
		"03/03/2024;3;CREDITO RECIBIDO;50.00;3\n"

	st, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if len(st.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1 (malformed rows skipped)", len(st.Candidates))
	}
	if st.Candidates[0].Amount != 50.00 {
		t.Errorf("Amount = %v, want 50.00", st.Candidates[0].Amount)
	}
}

func TestParseMissingAccountIsNotAnError(t *testing.T) {
	input := "Fecha;Referencia;Descripcion;Monto;Serial\n" +
		"01/03/2024;1;DEPOSITO;10.00;1\n"

	st, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error = %v, want nil", err)
	}
	if st.AccountNumber != "" {
		t.Errorf("AccountNumber = %q, want empty", st.AccountNumber)
	}
}
