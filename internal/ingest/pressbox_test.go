package ingest

import "testing"

const staffPage = `<html><body>
<h1>Memphis Tigers Coaching Staff</h1>
<strong>Head Coach</strong>
<div>Jon Smith</div>
<table><tbody>
<tr><td>Name</td><td>Position</td></tr>
<tr><td><span class="display-none">smith jon</span>Jon Smith</td><td>Head Coach</td></tr>
<tr><td><span class="display-none">davis bob</span>Bob Davis</td><td>Offensive Coordinator</td></tr>
<tr><td>Carl Reed</td><td></td></tr>
</tbody></table>
</body></html>`

func TestParseStaffPage(t *testing.T) {
	records, err := parseStaffPage([]byte(staffPage), "memphis")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two records, got %+v", records)
	}

	head := records[0]
	if head.Name != "Jon Smith" || !head.IsHeadCoach || head.Position != "Head Coach" {
		t.Fatalf("unexpected head coach record: %+v", head)
	}
	if head.School != "Memphis" {
		t.Fatalf("expected mascot stripped from title, got %q", head.School)
	}
	if head.SchoolSlug != "memphis" {
		t.Fatalf("unexpected slug: %q", head.SchoolSlug)
	}

	// The hidden sort-key span must not leak into the display name, and the
	// table's head-coach row must not duplicate the callout.
	assistant := records[1]
	if assistant.Name != "Bob Davis" || assistant.Position != "Offensive Coordinator" {
		t.Fatalf("unexpected assistant record: %+v", assistant)
	}
	if assistant.IsHeadCoach {
		t.Fatalf("assistant flagged as head coach")
	}
}

func TestParseStaffPageSlugFallbackName(t *testing.T) {
	page := `<html><body><table><tbody>
<tr><td>Jon Smith</td><td>Head Coach</td></tr>
</tbody></table></body></html>`

	records, err := parseStaffPage([]byte(page), "boston-college")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %+v", records)
	}
	if records[0].School != "Boston College" {
		t.Fatalf("expected title-cased slug fallback, got %q", records[0].School)
	}
	if !records[0].IsHeadCoach {
		t.Fatalf("table head-coach row should be kept when there is no callout")
	}
}
