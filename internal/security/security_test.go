package security_test

import (
	"testing"

	"github.com/insightdb/insightdb/internal/models"
	"github.com/insightdb/insightdb/internal/security"
)

// ─── SafetyGate ───────────────────────────────────────────────────────────────

func TestSafetyGateAuthorizes(t *testing.T) {
	g := security.NewSafetyGate()

	valid := []string{
		"SELECT * FROM users",
		"SELECT id, name FROM users WHERE id = 1",
		"WITH cte AS (SELECT 1) SELECT * FROM cte",
		"SELECT COUNT(*) FROM orders GROUP BY status",
		"select month, sum(total_amount) from orders group by month order by month asc",
	}
	for _, sql := range valid {
		if ok, kw := g.Authorize(sql); !ok {
			t.Errorf("safe SQL rejected: %q -> %s", sql, kw)
		}
	}
}

func TestSafetyGateRejects(t *testing.T) {
	g := security.NewSafetyGate()

	tests := []struct {
		sql     string
		keyword string
	}{
		{"DROP TABLE users", "DROP"},
		{"drop table users", "DROP"},
		{"SELECT * FROM users; DROP TABLE users", "DROP"},
		{"DELETE FROM orders WHERE id = 1", "DELETE"},
		{"UPDATE users SET name = 'x'", "UPDATE"},
		{"INSERT INTO users VALUES (1)", "INSERT"},
		{"GRANT ALL ON users TO bob", "GRANT"},
		{"REVOKE SELECT ON users FROM bob", "REVOKE"},
		{"ALTER TABLE users ADD COLUMN x INT", "ALTER"},
		{"TRUNCATE orders", "TRUNCATE"},
		{"CREATE TABLE evil (id INT)", "CREATE"},
		{"TrUnCaTe orders", "TRUNCATE"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			ok, kw := g.Authorize(tt.sql)
			if ok {
				t.Fatalf("dangerous SQL not rejected: %q", tt.sql)
			}
			if kw != tt.keyword {
				t.Errorf("Authorize(%q) keyword = %q, want %q", tt.sql, kw, tt.keyword)
			}
		})
	}
}

func TestSafetyGateFirstKeywordWins(t *testing.T) {
	g := security.NewSafetyGate()
	ok, kw := g.Authorize("DELETE FROM t; DROP TABLE t")
	if ok {
		t.Fatal("expected rejection")
	}
	if kw != "DELETE" {
		t.Errorf("first matching keyword should win, got %q", kw)
	}
}

func TestSafetyGateNoFalsePositiveOnIdentifiers(t *testing.T) {
	g := security.NewSafetyGate()

	valid := []string{
		"SELECT updated_at FROM users",
		"SELECT created_by, dropped_count FROM audit",
		"SELECT * FROM inserts_log",
		"SELECT address FROM customers", // ADD inside a word
		"SELECT granted FROM permissions",
	}
	for _, sql := range valid {
		if ok, kw := g.Authorize(sql); !ok {
			t.Errorf("identifier falsely matched deny list: %q -> %s", sql, kw)
		}
	}
}

// ─── PIIDetector ──────────────────────────────────────────────────────────────

func TestPIIDetector(t *testing.T) {
	d := security.NewPIIDetector([]string{"password", "ssn", "credit card", "api key"})

	tests := []struct {
		text  string
		want  bool
		match string
	}{
		{"show me all users", false, ""},
		{"list users with password field", true, "password"},
		{"ssn for user 123", true, "ssn"},
		{"my credit card number is 4111", true, "credit card"},
		{"total sales by month", false, ""},
		{"show API KEY details", true, "api key"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, kw := d.Detect(tt.text)
			if got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, got, tt.want)
			}
			if tt.want && kw != tt.match {
				t.Errorf("Detect(%q) keyword = %q, want %q", tt.text, kw, tt.match)
			}
		})
	}
}

// ─── DataMasker ───────────────────────────────────────────────────────────────

func TestMaskEmail(t *testing.T) {
	m := security.NewDataMasker([]string{"email"})
	rows := []models.Row{
		{"email": "john.doe@example.com", "name": "John"},
	}
	masked := m.MaskRows(rows)
	got, _ := masked[0]["email"].(string)
	if got == "john.doe@example.com" {
		t.Errorf("email should be masked, got %q", got)
	}
	if masked[0]["name"] != "John" {
		t.Error("non-sensitive field should not be masked")
	}
}

func TestMaskPhone(t *testing.T) {
	m := security.NewDataMasker([]string{"phone"})
	rows := []models.Row{
		{"phone": "08123456789"},
	}
	masked := m.MaskRows(rows)
	got, _ := masked[0]["phone"].(string)
	if got == "08123456789" {
		t.Errorf("phone should be masked, got %q", got)
	}
	if got[len(got)-4:] != "6789" {
		t.Errorf("masked phone should keep last 4 digits: %q", got)
	}
}

func TestMaskPassword(t *testing.T) {
	m := security.NewDataMasker([]string{"password"})
	rows := []models.Row{
		{"password": "mysecretpassword"},
	}
	masked := m.MaskRows(rows)
	if got, _ := masked[0]["password"].(string); got != "***" {
		t.Errorf("password should be fully masked as ***, got %q", got)
	}
}
