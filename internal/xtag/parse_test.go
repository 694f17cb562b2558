package xtag

import (
	"testing"
	"time"
)

func TestParseDate_FallbackChain(t *testing.T) {
	expected := time.Date(2019, 2, 14, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want *time.Time
	}{
		{"2019-02-14", &expected},
		{"2019-02-14 10:11:12", &expected},
		{"14-FEB-2019", &expected},
		{"14-Feb-2019", &expected},
		{"14-FEB-19", &expected},
		{"14-feb-19", &expected},
		{"Some rubbish", nil},
		{"", nil},
	}

	for _, tc := range cases {
		got := ParseDate(tc.in)
		if tc.want == nil {
			if got != nil {
				t.Errorf("ParseDate(%q) = %v, want nil", tc.in, got)
			}
			continue
		}
		if got == nil || !got.Equal(*tc.want) {
			t.Errorf("ParseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseTime_Patterns(t *testing.T) {
	cases := []struct {
		in       string
		wantHMS  [3]int
		wantFail bool
	}{
		{in: "2019-02-14 10:11:12", wantHMS: [3]int{10, 11, 12}},
		{in: "21:00:00", wantHMS: [3]int{21, 0, 0}},
		{in: "not a time", wantFail: true},
	}

	for _, tc := range cases {
		got := ParseTime(tc.in)
		if tc.wantFail {
			if got != nil {
				t.Errorf("ParseTime(%q) = %v, want nil", tc.in, got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("ParseTime(%q) returned nil", tc.in)
		}
		if got.Hour() != tc.wantHMS[0] || got.Minute() != tc.wantHMS[1] || got.Second() != tc.wantHMS[2] {
			t.Errorf("ParseTime(%q) = %02d:%02d:%02d, want %v",
				tc.in, got.Hour(), got.Minute(), got.Second(), tc.wantHMS)
		}
	}
}

func TestParseAuditTimestamp(t *testing.T) {
	got := ParseAuditTimestamp("20190214101112.000000042")
	if got == nil {
		t.Fatal("expected audit timestamp to parse")
	}
	want := time.Date(2019, 2, 14, 10, 11, 12, 42, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if ParseAuditTimestamp("2019-02-14 10:11:12") != nil {
		t.Error("fallback layouts must not satisfy the audit format")
	}
}

func TestCombineDateTime(t *testing.T) {
	date := time.Date(2019, 7, 12, 0, 0, 0, 0, time.UTC)
	tod := time.Date(0, 1, 1, 21, 0, 0, 0, time.UTC)

	combined := CombineDateTime(&date, &tod)
	if combined == nil || !combined.Equal(time.Date(2019, 7, 12, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected combined value: %v", combined)
	}

	// Missing time defaults to midnight.
	midnight := CombineDateTime(&date, nil)
	if midnight == nil || !midnight.Equal(date) {
		t.Errorf("expected midnight default, got %v", midnight)
	}

	// Missing date nullifies the whole result.
	if CombineDateTime(nil, &tod) != nil {
		t.Error("expected nil result for nil date")
	}
}

func TestAdjustEnqueueTime_DSTBoundary(t *testing.T) {
	// Last second before UK clocks spring forward: the stamp is labeled BST
	// but the zone is still GMT, so one hour is subtracted.
	before := time.Date(2019, 3, 31, 0, 59, 59, 0, time.UTC)
	adjusted := AdjustEnqueueTime(before)
	want := time.Date(2019, 3, 30, 23, 59, 59, 0, time.UTC)
	if !adjusted.Equal(want) {
		t.Errorf("before transition: got %v, want %v", adjusted, want)
	}

	// First second after: the wall-clock falls in the spring-forward gap and
	// resolves to a DST instant, so the stamp is left unchanged.
	after := time.Date(2019, 3, 31, 1, 0, 0, 0, time.UTC)
	if got := AdjustEnqueueTime(after); !got.Equal(after) {
		t.Errorf("after transition: got %v, want unchanged %v", got, after)
	}
}

func TestAdjustEnqueueTime_Midsummer(t *testing.T) {
	summer := time.Date(2019, 7, 12, 12, 0, 0, 0, time.UTC)
	if got := AdjustEnqueueTime(summer); !got.Equal(summer) {
		t.Errorf("summer stamp should be unchanged, got %v", got)
	}
}

func TestAdjustEnqueueTime_Midwinter(t *testing.T) {
	winter := time.Date(2019, 12, 25, 12, 0, 0, 0, time.UTC)
	want := time.Date(2019, 12, 25, 11, 0, 0, 0, time.UTC)
	if got := AdjustEnqueueTime(winter); !got.Equal(want) {
		t.Errorf("winter stamp: got %v, want %v", got, want)
	}
}
