package insight

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/insightdb/insightdb/internal/models"
	"github.com/insightdb/insightdb/internal/schema"
)

const currencySymbol = "$"

// currencyTypes are the declared column types eligible for currency
// rendering when the originating table is known.
var currencyTypes = map[string]bool{
	"real":             true,
	"numeric":          true,
	"decimal":          true,
	"money":            true,
	"float":            true,
	"double precision": true,
}

// strictCurrencyKeywords apply when the column's declared type can be
// cross-checked against the schema.
var strictCurrencyKeywords = []string{
	"amount", "price", "cost", "revenue", "payment", "charge", "fee", "balance",
}

// looseCurrencyKeywords apply when the originating table is unknown or
// the column is synthesized (aggregates, aliases) and has no declared type.
var looseCurrencyKeywords = append([]string{
	"total", "spent", "sales", "income",
}, strictCurrencyKeywords...)

// Formatter shapes raw rows into display rows by normalizing the
// rendering of monetary columns.
type Formatter struct {
	registry *schema.Descriptor
}

func NewFormatter(registry *schema.Descriptor) *Formatter {
	return &Formatter{registry: registry}
}

// Format returns display rows: currency columns rendered as "$1,234,568",
// everything else passed through untouched. table may be "" when the
// originating table could not be inferred.
func (f *Formatter) Format(rows []models.Row, table string) []models.Row {
	out := make([]models.Row, len(rows))
	for i, row := range rows {
		formatted := make(models.Row, len(row))
		for col, val := range row {
			if n, ok := numericValue(val); ok && f.IsCurrencyColumn(col, table) {
				formatted[col] = FormatCurrency(n)
			} else {
				formatted[col] = val
			}
		}
		out[i] = formatted
	}
	return out
}

// IsCurrencyColumn applies the two-tier heuristic: with a known table and
// a declared column, require a monetary type AND a monetary name; for
// unknown tables or synthesized columns, fall back to the broader
// name-only match.
func (f *Formatter) IsCurrencyColumn(column, table string) bool {
	lower := strings.ToLower(column)
	if table != "" && f.registry != nil {
		if declared, ok := f.registry.ColumnType(table, column); ok {
			return currencyTypes[declared] && containsAny(lower, strictCurrencyKeywords)
		}
	}
	return containsAny(lower, looseCurrencyKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// FormatCurrency rounds to the nearest whole unit and renders with the
// currency symbol and thousands separators: 1234567.8 → "$1,234,568".
func FormatCurrency(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sign + currencySymbol + sb.String()
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

var reFromTable = regexp.MustCompile(`(?i)\bfrom\s+([^\s,;]+)`)

// InferTable guesses the originating table of a generated query: the
// first token after the first FROM, trimmed of punctuation and quoting.
// Wrong for multi-table queries; the formatter falls back to the loose
// keyword match in that case, which is the accepted approximation.
func InferTable(sql string) string {
	m := reFromTable.FindStringSubmatch(sql)
	if m == nil {
		return ""
	}
	table := strings.Trim(m[1], `,;"` + "`")
	// strip a schema qualifier like public.orders
	if i := strings.LastIndexByte(table, '.'); i != -1 {
		table = table[i+1:]
	}
	return strings.ToLower(table)
}
