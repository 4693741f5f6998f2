package output

import (
	"bytes"
	"testing"

	"todo/internal/service"
)

func TestFormatTask(t *testing.T) {
	tests := []struct {
		name string
		num  int
		task service.Task
		want string
	}{
		{"open", 1, service.Task{Title: "Buy milk"}, "   1  [ ] Buy milk\n"},
		{"done", 12, service.Task{Title: "Pay rent", Completed: true}, "  12  [x] Pay rent\n"},
		{"untitled", 3, service.Task{Title: "  "}, "   3  [ ] (untitled)\n"},
		{"newlines", 4, service.Task{Title: "a\nb\r\nc"}, "   4  [ ] a b  c\n"},
		{"description", 5, service.Task{Title: "Call", Description: " ask about\nfriday "}, "   5  [ ] Call\n          ask about friday\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatTask(&buf, tt.num, tt.task)
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	FormatSummary(&buf, []service.Task{{Completed: true}, {}, {}})
	if buf.String() != "3 tasks (2 open, 1 done)\n" {
		t.Errorf("unexpected summary %q", buf.String())
	}

	buf.Reset()
	FormatSummary(&buf, []service.Task{{}})
	if buf.String() != "1 task (1 open, 0 done)\n" {
		t.Errorf("unexpected summary %q", buf.String())
	}
}
