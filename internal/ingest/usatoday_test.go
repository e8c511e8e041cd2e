package ingest

import "testing"

const salaryTable = `<html><body><table>
<thead><tr><th>Rank</th><th>Coach</th><th>School</th><th>Total pay</th><th>Conf.</th>
<th>School pay</th><th>Max bonus</th><th>Bonuses paid</th><th>Buyout</th></tr></thead>
<tbody>
<tr><td>1</td><td>Jon Smith</td><td>Texas</td><td>$10,500,000</td><td>SEC</td>
<td>$10,300,000</td><td>$1,000,000</td><td>-</td><td>$45,000,000</td></tr>
<tr><td>2</td><td>Bob Davis</td><td>Tulane</td><td>$3,100,000</td><td>American</td>
<td>$3,100,000</td><td>-</td><td>-</td><td>-</td></tr>
<tr><td>3</td><td></td><td>Unknown</td><td>-</td><td>-</td><td>-</td><td>-</td><td>-</td><td>-</td></tr>
<tr><td>4</td><td>Short Row</td></tr>
</tbody></table></body></html>`

func TestParseUSATodayTable(t *testing.T) {
	rows, err := ParseUSATodayTable([]byte(salaryTable))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected two rows, got %+v", rows)
	}

	first := rows[0]
	if first.Rank != 1 || first.Coach != "Jon Smith" || first.School != "Texas" || first.Conference != "SEC" {
		t.Fatalf("unexpected first row: %+v", first)
	}
	if first.TotalPay == nil || *first.TotalPay != 10_500_000 {
		t.Fatalf("total pay: %+v", first.TotalPay)
	}
	if first.BonusesPaid != nil {
		t.Fatalf("undisclosed cell must parse to nil, got %d", *first.BonusesPaid)
	}
	if first.Buyout == nil || *first.Buyout != 45_000_000 {
		t.Fatalf("buyout: %+v", first.Buyout)
	}

	second := rows[1]
	if second.MaxBonus != nil || second.Buyout != nil {
		t.Fatalf("expected nil bonus columns, got %+v", second)
	}

	amounts := second.Amounts()
	if amounts.TotalPay == nil || *amounts.TotalPay != 3_100_000 {
		t.Fatalf("amounts: %+v", amounts)
	}
}

func TestParseCurrency(t *testing.T) {
	if got := parseCurrency("$10,500,000"); got == nil || *got != 10_500_000 {
		t.Fatalf("got %+v", got)
	}
	if got := parseCurrency("-"); got != nil {
		t.Fatalf("dash should be nil, got %d", *got)
	}
	if got := parseCurrency(""); got != nil {
		t.Fatalf("empty should be nil, got %d", *got)
	}
	if got := parseCurrency("N/A"); got != nil {
		t.Fatalf("non-numeric should be nil, got %d", *got)
	}
}
