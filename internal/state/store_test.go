package state

import (
	"slices"
	"sync"
	"testing"
	"time"
)

func TestStore_GetReturnsClone(t *testing.T) {
	s := NewStore([]int{1, 2}, slices.Clone[[]int])

	got := s.Get()
	got[0] = 999
	if again := s.Get(); again[0] != 1 {
		t.Fatalf("Get should clone; got %d want 1", again[0])
	}

	in := []int{7}
	s.Set(in)
	in[0] = 8
	if got := s.Get(); got[0] != 7 {
		t.Fatalf("Set should clone; got %d want 7", got[0])
	}
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	s := NewStore(0, nil)

	var seen []int
	unsubscribe := s.Subscribe(func(v int) { seen = append(seen, v) })

	s.Set(1)
	s.Update(func(v int) int { return v + 10 })
	unsubscribe()
	unsubscribe()
	s.Set(100)

	if !slices.Equal(seen, []int{1, 11}) {
		t.Fatalf("notifications = %v, want [1 11]", seen)
	}
	if got := s.Get(); got != 100 {
		t.Fatalf("Get() = %d, want 100", got)
	}
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	s := NewStore(0, nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(func(v int) int { return v + 1 })
			_ = s.Get()
		}()
	}
	wg.Wait()

	if got := s.Get(); got != 50 {
		t.Fatalf("Get() = %d, want 50", got)
	}
}

func TestNavigation_SortsAndGrantsPermissions(t *testing.T) {
	nav := NewNavigation()
	nav.SetLinks([]Link{
		{Name: "Users", SortOrder: "c", ControlName: ControlUsers, Add: true},
		{Name: "Tests", SortOrder: "a", ControlName: ControlTests, Edit: true},
		{Name: "QC", SortOrder: "B", ControlName: ControlQC},
	})

	var names []string
	for _, l := range nav.Links() {
		names = append(names, l.Name)
	}
	if !slices.Equal(names, []string{"Tests", "QC", "Users"}) {
		t.Fatalf("order = %v, want [Tests QC Users]", names)
	}

	tests := []struct {
		control string
		want    Permissions
	}{
		{ControlTests, Permissions{ScreenAccess: true, Edit: true}},
		{ControlUsers, Permissions{ScreenAccess: true, Add: true}},
		{ControlQC, Permissions{ScreenAccess: true}},
		{ControlSettings, Permissions{}},
	}
	for _, tt := range tests {
		if got := nav.Permissions(tt.control); got != tt.want {
			t.Fatalf("Permissions(%q) = %+v, want %+v", tt.control, got, tt.want)
		}
	}
}

func TestConvertLayout(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"MM-DD-YYYY", "01-02-2006"},
		{"DD/MM/YYYY", "02/01/2006"},
		{"YYYY-MM-DD", "2006-01-02"},
		{"hh:mm:ss a", "03:04:05 pm"},
		{"HH:mm:ss", "15:04:05"},
		{"MMM D, YYYY", "Jan 2, 2006"},
	}
	for _, tt := range tests {
		if got := ConvertLayout(tt.in); got != tt.want {
			t.Fatalf("ConvertLayout(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatter(t *testing.T) {
	instant := time.Date(2024, 3, 15, 18, 4, 5, 0, time.UTC)

	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{
			name: "defaults",
			want: "03-15-2024 02:04:05 pm",
		},
		{
			name:     "24 hour utc",
			settings: Settings{DateFormat: "YYYY-MM-DD", TimeFormat: "24 hour", TimeZone: "UTC"},
			want:     "2024-03-15 18:04:05",
		},
		{
			name: "formats by id",
			settings: Settings{
				TimeZone:     "UTC",
				DateFormatID: 2,
				TimeFormatID: 5,
				DateFormats:  []Keyword{{ID: 1, Text: "MM-DD-YYYY"}, {ID: 2, Text: "DD/MM/YYYY"}},
				TimeFormats:  []Keyword{{ID: 4, Text: "12 hour"}, {ID: 5, Text: "24 hour"}},
			},
			want: "15/03/2024 18:04:05",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFormatter(tt.settings)
			if err != nil {
				t.Fatalf("NewFormatter: %v", err)
			}
			if got := f.DateTime(instant); got != tt.want {
				t.Fatalf("DateTime = %q, want %q", got, tt.want)
			}
		})
	}

	f, _ := NewFormatter(Settings{})
	if got := f.DateTime(time.Time{}); got != "" {
		t.Fatalf("DateTime(zero) = %q, want empty", got)
	}
	if _, err := NewFormatter(Settings{TimeZone: "Nowhere/Special"}); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}

func TestDateRangeStore(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	s := NewDateRangeStore(now)

	r := s.Get()
	if !r.Start.Equal(now.AddDate(0, 0, -7)) || !r.End.Equal(now) {
		t.Fatalf("default range = %v..%v, want last 7 days", r.Start, r.End)
	}

	var notified int
	s.Subscribe(func(DateRange) { notified++ })
	s.SetStart(now.AddDate(0, 0, -30))
	s.SetEnd(now.AddDate(0, 0, -40))

	if notified != 2 {
		t.Fatalf("notified = %d, want 2", notified)
	}
	if s.Get().Valid() {
		t.Fatal("range ending before start should be invalid")
	}
	if got := LastDays(now, 1).Shift(1); !got.End.Equal(now.AddDate(0, 0, 1)) {
		t.Fatalf("Shift end = %v", got.End)
	}
}
