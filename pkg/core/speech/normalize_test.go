package speech

import "testing"

func TestSpeakableText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "Port one is up.",
			want: "Port one is up.",
		},
		{
			name: "contraction expanded",
			in:   "The link don't come up.",
			want: "The link do not come up.",
		},
		{
			name: "contraction keeps leading capital",
			in:   "Don't worry about it.",
			want: "Do not worry about it.",
		},
		{
			name: "acronym spelled out",
			in:   "The HTTP session timed out.",
			want: "The H T T P session timed out.",
		},
		{
			name: "lowercase word not treated as acronym",
			in:   "Check the mac table in the ip section.",
			want: "Check the mac table in the ip section.",
		},
		{
			name: "heading marker stripped",
			in:   "# Status\n\nAll interfaces are up.",
			want: "Status. All interfaces are up.",
		},
		{
			name: "bold and italic markers stripped",
			in:   "The port is **down** and flapping *badly*.",
			want: "The port is down and flapping badly.",
		},
		{
			name: "bullets become comma clauses",
			in:   "Three ports are down:\n- one\n- two\n- three\nCheck the cabling.",
			want: "Three ports are down: one, two, three. Check the cabling.",
		},
		{
			name: "code block removed with notice",
			in:   "Run this command.\n```bash\nshow vlan\n```",
			want: "Run this command. I've added the code snippet for you to see.",
		},
		{
			name: "table removed with notice",
			in:   "Here is the port overview.\n| Port | State |\n| ---- | ----- |\n| 1/1/1 | up |",
			want: "Here is the port overview. I've added the table for you to see.",
		},
		{
			name: "table and code combined notice",
			in:   "Summary.\n| a | b |\n```\nshow run\n```",
			want: "Summary. I've added the table and code snippet for you to see.",
		},
		{
			name: "multiple blank lines become pauses",
			in:   "First paragraph.\n\n\nSecond paragraph.",
			want: "First paragraph. Second paragraph.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpeakableText(tt.in); got != tt.want {
				t.Errorf("SpeakableText(%q)\n got: %q\nwant: %q", tt.in, got, tt.want)
			}
		})
	}
}
