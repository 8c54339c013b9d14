package handler

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want command
	}{
		{text: "", want: command{kind: cmdOpenModal}},
		{text: "  add ", want: command{kind: cmdOpenModal}},
		{text: "add Read 10 pages", want: command{kind: cmdAdd, name: "Read 10 pages"}},
		{text: "rename 2  Morning   run", want: command{kind: cmdRename, index: 2, name: "Morning   run"}},
		{text: "delete 0", want: command{kind: cmdDelete, index: 0}},
		{text: "DONE 3", want: command{kind: cmdDone, index: 3}},
		{text: "list", want: command{kind: cmdList}},
		{text: "help", want: command{kind: cmdHelp}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := parseCommand(tt.text)
			if err != nil {
				t.Fatalf("parseCommand(%q) failed: %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("parseCommand(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	for _, text := range []string{
		"rename",
		"rename 1",
		"rename one two",
		"delete",
		"done x",
		"snooze 1",
	} {
		if _, err := parseCommand(text); err == nil {
			t.Errorf("parseCommand(%q) succeeded, want error", text)
		}
	}
}
