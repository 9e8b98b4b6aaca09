package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
)

const csvDateFormat = "2006-01-02"

var csvHeader = []string{"Date", "Description", "Amount", "Type", "Category", "Notes"}

// TransactionImport is one parsed CSV row, ready to be created through the
// transaction service (so the budget guard applies per row).
type TransactionImport struct {
	Description string
	Amount      int64
	Type        models.TransactionType
	Date        time.Time
	Notes       string
}

// ExportTransactionsCSV renders transactions as a CSV document with a
// header row. Amounts are written in major units with two decimals.
func ExportTransactionsCSV(transactions []models.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, t := range transactions {
		categoryName := ""
		if t.Category != nil {
			categoryName = t.Category.Name
		}
		record := []string{
			t.Date.UTC().Format(csvDateFormat),
			t.Description,
			formatAmount(t.Amount),
			string(t.Type),
			categoryName,
			t.Notes,
		}
		if err := w.Write(record); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return buf.Bytes(), nil
}

// ParseTransactionsCSV reads a CSV document in the export format and returns
// the rows to import. Rows with fewer than four fields are skipped, matching
// lenient spreadsheet exports.
func ParseTransactionsCSV(r io.Reader) ([]TransactionImport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid CSV file")
	}

	var imports []TransactionImport
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid CSV file")
		}
		if len(record) < 4 {
			continue
		}

		date, err := time.Parse(csvDateFormat, record[0])
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", record[0]))
		}
		amount, err := parseAmount(record[2])
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("invalid amount %q", record[2]))
		}

		transactionType := models.TransactionType(strings.ToLower(record[3]))
		if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("invalid transaction type %q", record[3]))
		}

		row := TransactionImport{
			Description: record[1],
			Amount:      amount,
			Type:        transactionType,
			Date:        date,
		}
		if len(record) > 5 {
			row.Notes = record[5]
		}
		imports = append(imports, row)
	}
	return imports, nil
}

// formatAmount renders minor units as a decimal string, e.g. 123456 -> "1234.56".
func formatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

// parseAmount converts a decimal string to minor units without going
// through floating point.
func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	// Amounts are unsigned. ParseInt would also drop the sign on "-0",
	// turning "-0.50" into +50 minor units.
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("signed amount %q", s)
	}
	whole, frac, _ := strings.Cut(s, ".")

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, err
	}

	var minor int64
	switch len(frac) {
	case 0:
	case 1:
		minor, err = strconv.ParseInt(frac, 10, 64)
		minor *= 10
	case 2:
		minor, err = strconv.ParseInt(frac, 10, 64)
	default:
		return 0, fmt.Errorf("too many decimal places in %q", s)
	}
	if err != nil {
		return 0, err
	}

	return major*100 + minor, nil
}
