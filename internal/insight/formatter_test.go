package insight

import (
	"testing"

	"github.com/insightdb/insightdb/internal/models"
	"github.com/insightdb/insightdb/internal/schema"
)

func formatterSchema() *schema.Descriptor {
	return schema.NewDescriptor(
		[]string{"orders"},
		map[string][]schema.Column{
			"orders": {
				{Name: "id", Type: "integer"},
				{Name: "amount", Type: "numeric"},
				{Name: "total_amount", Type: "REAL"},
				{Name: "quantity", Type: "integer"},
				{Name: "price_note", Type: "text"},
				{Name: "fee_count", Type: "integer"},
			},
		},
	)
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234567.8, "$1,234,568"},
		{999, "$999"},
		{1000, "$1,000"},
		{0, "$0"},
		{-1234.4, "-$1,234"},
		{42.49, "$42"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsCurrencyColumn(t *testing.T) {
	f := NewFormatter(formatterSchema())

	cases := []struct {
		column, table string
		want          bool
	}{
		// declared column: monetary type AND monetary name
		{"amount", "orders", true},
		{"total_amount", "orders", true},
		// numeric type without a monetary name
		{"quantity", "orders", false},
		// declared column with a monetary name but a text type
		{"price_note", "orders", false},
		// declared column with a monetary name but an integer type
		{"fee_count", "orders", false},
		{"id", "orders", false},
		// synthesized column in a known table: loose name match
		{"total_spent", "orders", true},
		// unknown table: loose name match
		{"total_sales", "", true},
		{"customer_name", "", false},
	}
	for _, tc := range cases {
		if got := f.IsCurrencyColumn(tc.column, tc.table); got != tc.want {
			t.Errorf("IsCurrencyColumn(%q, %q) = %v, want %v", tc.column, tc.table, got, tc.want)
		}
	}
}

func TestFormatRows(t *testing.T) {
	f := NewFormatter(formatterSchema())

	rows := []models.Row{
		{"id": int64(1), "total_amount": 1234567.8, "quantity": int64(3), "price_note": "discounted"},
		{"id": int64(2), "total_amount": 50.0, "quantity": int64(1), "price_note": "full"},
	}
	out := f.Format(rows, "orders")

	if out[0]["total_amount"] != "$1,234,568" {
		t.Errorf("total_amount = %v, want $1,234,568", out[0]["total_amount"])
	}
	if out[0]["quantity"] != int64(3) {
		t.Errorf("quantity should not reformat, got %v", out[0]["quantity"])
	}
	if out[1]["total_amount"] != "$50" {
		t.Errorf("total_amount = %v, want $50", out[1]["total_amount"])
	}
	if out[0]["id"] != int64(1) {
		t.Errorf("id should pass through, got %v", out[0]["id"])
	}
	if out[0]["price_note"] != "discounted" {
		t.Errorf("text column should pass through, got %v", out[0]["price_note"])
	}
	// input rows must not be mutated
	if rows[0]["total_amount"] != 1234567.8 {
		t.Error("Format mutated its input")
	}
}

func TestInferTable(t *testing.T) {
	cases := []struct {
		sql, want string
	}{
		{"SELECT * FROM orders", "orders"},
		{"SELECT * FROM public.Orders WHERE id = 1", "orders"},
		{`SELECT * FROM "Orders";`, "orders"},
		{"SELECT month, SUM(total) FROM sales GROUP BY month", "sales"},
		{"SELECT 1", ""},
	}
	for _, tc := range cases {
		if got := InferTable(tc.sql); got != tc.want {
			t.Errorf("InferTable(%q) = %q, want %q", tc.sql, got, tc.want)
		}
	}
}
