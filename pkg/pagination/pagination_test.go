package pagination

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, 1000: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffered limit 11, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 1, 5, 9, 30, 0, 123, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(c))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.CreatedAt.Equal(c.CreatedAt) || parsed.ID != c.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", parsed, c)
	}
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	c, err := ParseCursor("  ")
	if err != nil || c != nil {
		t.Fatalf("expected nil cursor for blank input, got %v %v", c, err)
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPageOffsetAndInfo(t *testing.T) {
	p := Page{Page: 3, Limit: 20}
	if got := p.Offset(); got != 40 {
		t.Fatalf("expected offset 40, got %d", got)
	}
	info := p.Info(41)
	if info.Pages != 3 || info.Total != 41 || info.Page != 3 || info.Limit != 20 {
		t.Fatalf("unexpected info %+v", info)
	}

	defaults := Page{}.Normalize()
	if defaults.Page != 1 || defaults.Limit != DefaultLimit {
		t.Fatalf("unexpected defaults %+v", defaults)
	}
	if got := (Page{Limit: 100000}).Normalize().Limit; got != MaxPageLimit {
		t.Fatalf("expected limit capped to %d, got %d", MaxPageLimit, got)
	}
	if got := (Page{}).Info(0).Pages; got != 0 {
		t.Fatalf("expected zero pages for empty result, got %d", got)
	}
}

func TestTrimReturnsCursorOnlyWhenMoreRowsExist(t *testing.T) {
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 4)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	self := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 3, self)
	if len(page) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page))
	}
	if next != rows[2].String() {
		t.Fatalf("expected cursor of last kept row")
	}

	page, next = Trim(rows[:3], 3, self)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected full final page without cursor, got %d rows cursor %q", len(page), next)
	}
}

func TestCursorIsURLSafe(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 1, 5, 9, 30, 0, 0, time.UTC), ID: uuid.New()}
	if strings.ContainsAny(c.String(), "+/=") {
		t.Fatalf("cursor %q needs escaping in a query string", c.String())
	}
}
