package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"loe-notifier/pkg/notifier"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract(t *testing.T) {
	scheduleLines := []string{
		"Графік погодинних відключень на 09.12.2025",
		"Інформація станом на 07:36 09.12.2025",
		"Група 1.1 08:00-10:00, 16:00-18:00",
		"Група 3.1 10:00-12:00",
		"Група 3.2 12:00-14:00",
	}

	tests := []struct {
		name  string
		lines []string
		group string
		want  notifier.Schedule
	}{
		{
			name:  "all fields found",
			lines: scheduleLines,
			group: "3.1",
			want: notifier.Schedule{
				Date:      "09.12.2025",
				AsOf:      "07:36 09.12.2025",
				GroupLine: "Група 3.1 10:00-12:00",
			},
		},
		{
			name:  "missing group yields placeholder",
			lines: scheduleLines,
			group: "9.9",
			want: notifier.Schedule{
				Date:      "09.12.2025",
				AsOf:      "07:36 09.12.2025",
				GroupLine: "Група 9.9. Даних не знайдено.",
			},
		},
		{
			name:  "date fallback to whole line",
			lines: []string{"Графік погодинних відключень на завтра", "Група 1.1 цілодобово"},
			group: "1.1",
			want: notifier.Schedule{
				Date:      "Графік погодинних відключень на завтра",
				GroupLine: "Група 1.1 цілодобово",
			},
		},
		{
			name:  "empty input synthesizes group line only",
			lines: nil,
			group: "2.2",
			want: notifier.Schedule{
				GroupLine: "Група 2.2. Даних не знайдено.",
			},
		},
		{
			name: "later matches overwrite earlier ones",
			lines: []string{
				"Графік погодинних відключень на 08.12.2025",
				"Група 1.1 старий рядок",
				"Графік погодинних відключень на 09.12.2025",
				"Група 1.1 новий рядок",
			},
			group: "1.1",
			want: notifier.Schedule{
				Date:      "09.12.2025",
				GroupLine: "Група 1.1 новий рядок",
			},
		},
		{
			name: "first detector per line wins",
			lines: []string{
				"Графік погодинних відключень на 09.12.2025 для Група 1.1",
			},
			group: "1.1",
			want: notifier.Schedule{
				Date:      "09.12.2025",
				GroupLine: "Група 1.1. Даних не знайдено.",
			},
		},
		{
			name:  "substring match catches longer group ids",
			lines: []string{"Група 1.1 08:00-10:00"},
			group: "1",
			want: notifier.Schedule{
				GroupLine: "Група 1.1 08:00-10:00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.lines, tt.group, false)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractIsPure(t *testing.T) {
	lines := []string{
		"Графік погодинних відключень на 09.12.2025",
		"Група 3.1 10:00-12:00",
	}

	first := Extract(lines, "3.1", false)
	second := Extract(lines, "3.1", false)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract() not idempotent: %+v vs %+v", first, second)
	}
}

func TestExtractStrictGroupMatch(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		group string
		match bool
	}{
		{"exact group", "Група 1.1 08:00-10:00", "1.1", true},
		{"prefix does not match", "Група 1.1 08:00-10:00", "1", false},
		{"longer id does not match", "Група 1.10 08:00-10:00", "1.1", false},
		{"group at end of line", "Відключення: Група 1.1", "1.1", true},
		{"punctuation after group", "Група 1.1: 08:00-10:00", "1.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract([]string{tt.line}, tt.group, true)
			matched := got.GroupLine == tt.line
			if matched != tt.match {
				t.Errorf("Extract(%q, %q, strict) matched = %v, want %v", tt.line, tt.group, matched, tt.match)
			}
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		rec  notifier.Schedule
		want string
	}{
		{
			name: "all fields",
			rec: notifier.Schedule{
				Date:      "09.12.2025",
				AsOf:      "07:36 09.12.2025",
				GroupLine: "Група 3.1 10:00-12:00",
			},
			want: "⚡ Графік погодинних відключень на 09.12.2025\n" +
				"Інформація станом на 07:36 09.12.2025\n" +
				"\n" +
				"Група 3.1 10:00-12:00",
		},
		{
			name: "unknown fields render as question marks",
			rec: notifier.Schedule{
				GroupLine: "Група 9.9. Даних не знайдено.",
			},
			want: "⚡ Графік погодинних відключень на ?\n" +
				"Інформація станом на ?\n" +
				"\n" +
				"Група 9.9. Даних не знайдено.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.rec); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

type fakeFragmentSource struct {
	fragment string
	err      error
	calls    int
}

func (f *fakeFragmentSource) Fragment(context.Context) (string, error) {
	f.calls++
	return f.fragment, f.err
}

func TestServiceMessageForGroup(t *testing.T) {
	source := &fakeFragmentSource{
		fragment: "<p>Графік погодинних відключень на 09.12.2025</p>" +
			"<p>Інформація станом на 07:36 09.12.2025</p>" +
			"<p>Група 3.1 10:00-12:00</p>",
	}
	svc := NewService(source, false, testLogger())

	got, err := svc.MessageForGroup(context.Background(), "3.1")
	if err != nil {
		t.Fatalf("MessageForGroup() error = %v", err)
	}

	if !strings.Contains(got, "Група 3.1 10:00-12:00") {
		t.Errorf("MessageForGroup() = %q, missing group line", got)
	}
	if !strings.HasPrefix(got, "⚡ Графік погодинних відключень на 09.12.2025") {
		t.Errorf("MessageForGroup() = %q, missing date header", got)
	}
}

func TestServicePropagatesFetchError(t *testing.T) {
	fetchErr := errors.New("boom")
	svc := NewService(&fakeFragmentSource{err: fetchErr}, false, testLogger())

	_, err := svc.MessageForGroup(context.Background(), "3.1")
	if !errors.Is(err, fetchErr) {
		t.Errorf("MessageForGroup() error = %v, want %v", err, fetchErr)
	}
}
