package ui

import "testing"

func envFrom(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestColorAllowed(t *testing.T) {
	tests := []struct {
		name    string
		noColor bool
		env     map[string]string
		tty     bool
		want    bool
	}{
		{"tty default", false, nil, true, true},
		{"non-tty default", false, nil, false, false},
		{"config no-color wins on a tty", true, nil, true, false},
		{"config no-color beats CLICOLOR_FORCE", true, map[string]string{"CLICOLOR_FORCE": "1"}, true, false},
		{"NO_COLOR disables", false, map[string]string{"NO_COLOR": "1"}, true, false},
		{"NO_COLOR beats CLICOLOR_FORCE", false, map[string]string{"NO_COLOR": "1", "CLICOLOR_FORCE": "1"}, true, false},
		{"CLICOLOR=0 disables", false, map[string]string{"CLICOLOR": "0"}, true, false},
		{"CLICOLOR=1 falls through to tty", false, map[string]string{"CLICOLOR": "1"}, true, true},
		{"CLICOLOR_FORCE enables off-tty", false, map[string]string{"CLICOLOR_FORCE": "1"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := colorAllowed(tt.noColor, envFrom(tt.env), tt.tty); got != tt.want {
				t.Errorf("colorAllowed(%v, %v, tty=%v) = %v, want %v",
					tt.noColor, tt.env, tt.tty, got, tt.want)
			}
		})
	}
}

func TestEmojiAllowed(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tty  bool
		want bool
	}{
		{"tty default", nil, true, true},
		{"non-tty stays plain", nil, false, false},
		{"PAPERCLI_NO_EMOJI disables", map[string]string{"PAPERCLI_NO_EMOJI": "1"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := emojiAllowed(envFrom(tt.env), tt.tty); got != tt.want {
				t.Errorf("emojiAllowed(%v, tty=%v) = %v, want %v", tt.env, tt.tty, got, tt.want)
			}
		})
	}
}

func TestStylesFollowPolicy(t *testing.T) {
	restore := active
	t.Cleanup(func() { active = restore })

	active = Policy{Color: false, Emoji: false, Width: 80}
	if got := Step("pulling"); got != "-> pulling" {
		t.Errorf("plain Step = %q", got)
	}
	if got := Success("done"); got != "ok: done" {
		t.Errorf("plain Success = %q", got)
	}

	active = Policy{Color: false, Emoji: true, Width: 80}
	if got := Step("pulling"); got != "→ pulling" {
		t.Errorf("emoji Step = %q", got)
	}
	if got := Success("done"); got != "✓ done" {
		t.Errorf("emoji Success = %q", got)
	}
}
