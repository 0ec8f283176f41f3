package ledger

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The repository binds *string fields directly, so columns backing optional
// fields must accept NULL: a NOT NULL column rejects an explicit NULL bind
// even when it carries a default.

func loadSchema(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../db/schema.sql")
	require.NoError(t, err, "read schema")
	return string(data)
}

func tableBlock(t *testing.T, schema, table string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\n\);`)
	m := re.FindStringSubmatch(schema)
	require.NotNil(t, m, "table %s not found in schema", table)
	return m[1]
}

func columnLine(t *testing.T, block, column string) string {
	t.Helper()
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), column+" ") {
			return line
		}
	}
	t.Fatalf("column %s not found", column)
	return ""
}

func TestSchemaOptionalColumnsAreNullable(t *testing.T) {
	schema := loadSchema(t)

	orders := tableBlock(t, schema, "orders")
	payments := tableBlock(t, schema, "payments")

	for _, col := range []string{"tailor_name", "notes", "client_ref"} {
		require.NotContains(t, columnLine(t, orders, col), "NOT NULL", "orders.%s", col)
	}
	require.NotContains(t, columnLine(t, payments, "notes"), "NOT NULL", "payments.notes")
	require.Contains(t, columnLine(t, orders, "tailor_id"), "REFERENCES workers")
}

func TestSchemaInvoiceSequenceTable(t *testing.T) {
	schema := loadSchema(t)

	seqs := tableBlock(t, schema, "document_sequences")
	require.Contains(t, seqs, "doc_type")
	require.Contains(t, seqs, "period")
	require.Contains(t, seqs, "seq")
	require.Contains(t, seqs, "PRIMARY KEY (doc_type, period)")
}

func TestSchemaClientRefUniqueIndex(t *testing.T) {
	schema := loadSchema(t)

	require.Contains(t, schema, "CREATE UNIQUE INDEX IF NOT EXISTS orders_client_ref_key")
	require.Contains(t, schema, "WHERE client_ref IS NOT NULL")
}
