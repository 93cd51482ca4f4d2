package shell

import (
	"testing"

	"github.com/josephlewis42/mush/core/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]struct {
		line     string
		expected pipeline.Pipeline
	}{
		"single": {
			line:     "wc -l",
			expected: pipeline.Pipeline{{Args: []string{"wc", "-l"}}},
		},
		"pipe": {
			line: "ls | grep x",
			expected: pipeline.Pipeline{
				{Args: []string{"ls"}},
				{Args: []string{"grep", "x"}},
			},
		},
		"pipe-no-spaces": {
			line: "ls|grep x|wc -l",
			expected: pipeline.Pipeline{
				{Args: []string{"ls"}},
				{Args: []string{"grep", "x"}},
				{Args: []string{"wc", "-l"}},
			},
		},
		"redirects": {
			line: "sort < in.txt | uniq > out.txt",
			expected: pipeline.Pipeline{
				{Args: []string{"sort"}, InFile: "in.txt"},
				{Args: []string{"uniq"}, OutFile: "out.txt"},
			},
		},
		"redirects-before-command": {
			line:     "<in >out cat",
			expected: pipeline.Pipeline{{Args: []string{"cat"}, InFile: "in", OutFile: "out"}},
		},
		"explicit-fds": {
			line:     "cat 0<in 1>out",
			expected: pipeline.Pipeline{{Args: []string{"cat"}, InFile: "in", OutFile: "out"}},
		},
		"interior-redirect": {
			line: "echo hi > mid | cat",
			expected: pipeline.Pipeline{
				{Args: []string{"echo", "hi"}, OutFile: "mid"},
				{Args: []string{"cat"}},
			},
		},
		"quotes": {
			line:     `grep 'a b' "c d" e\ f`,
			expected: pipeline.Pipeline{{Args: []string{"grep", "a b", "c d", "e f"}}},
		},
		"double-quote-escapes": {
			line:     `echo "say \"hi\" \n"`,
			expected: pipeline.Pipeline{{Args: []string{"echo", `say "hi" \n`}}},
		},
		"single-quotes-keep-backslash": {
			line:     `echo 'a\b'`,
			expected: pipeline.Pipeline{{Args: []string{"echo", `a\b`}}},
		},
		"quoted-redirect-target": {
			line:     `cat > "my file"`,
			expected: pipeline.Pipeline{{Args: []string{"cat"}, OutFile: "my file"}},
		},
		"no-expansion-of-globs-or-tilde": {
			line:     "ls * ~",
			expected: pipeline.Pipeline{{Args: []string{"ls", "*", "~"}}},
		},
		"builtin": {
			line:     "cd /tmp | ls",
			expected: pipeline.Pipeline{{Args: []string{"cd", "/tmp"}}, {Args: []string{"ls"}}},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual, err := Parse(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
			assert.NoError(t, actual.Validate())
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, line := range []string{"", "   ", "\t", "# just a comment"} {
		pl, err := Parse(line)
		assert.NoError(t, err, "%q", line)
		assert.Nil(t, pl, "%q", line)
	}
}

func TestParseUnsupported(t *testing.T) {
	cases := map[string]string{
		"list":           "ls; ls",
		"and":            "true && ls",
		"or":             "false || ls",
		"background":     "sleep 1 &",
		"negation":       "! true",
		"pipe-all":       "ls |& cat",
		"subshell":       "(ls)",
		"block":          "{ ls; }",
		"if":             "if true; then ls; fi",
		"loop":           "for a in b; do ls; done",
		"assignment":     "A=B ls",
		"param":          "echo $HOME",
		"quoted-param":   `echo "$HOME"`,
		"cmd-subst":      "echo $(ls)",
		"append":         "ls >> out",
		"stderr":         "ls 2> err",
		"dup":            "ls 2>&1",
		"heredoc":        "cat <<EOF\nx\nEOF",
		"pipeline-redir": "{ ls | cat; } > out",
	}

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			_, err := Parse(line)
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]struct {
		line string
		is   error
	}{
		"double-input":  {"cat < a < b", ErrAmbiguousRedirect},
		"double-output": {"cat > a > b", ErrAmbiguousRedirect},
		"empty-target":  {`cat > ""`, ErrAmbiguousRedirect},
		"null-command":  {"> out", ErrNullCommand},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			_, err := Parse(tc.line)
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	for _, line := range []string{"ls |", "echo 'unterminated", "| ls"} {
		_, err := Parse(line)
		assert.Error(t, err, "%q", line)
	}
}

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"plain", "plain"},
		{`a\ b`, "a b"},
		{`a\\b`, `a\b`},
		{"a\\\nb", "ab"},
		{`trailing\`, `trailing\`},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			assert.Equal(t, tc.expected, unescape(tc.escaped, isAnyChar))
		})
	}

	assert.Equal(t, `\n"`, unescape(`\n\"`, isDblQuoteEscapable))
}
