package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

func TestNormalize(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "platform url",
			in:   "Check https://github.com/user/repo",
			want: "Check GitHub at github dot com slash user slash repo",
		},
		{
			name: "schemeless url with path",
			in:   "Visit example.com/path",
			want: "Visit website example dot com slash path",
		},
		{
			name: "email",
			in:   "Email me at user@domain.com",
			want: "Email me at user at domain dot com",
		},
		{
			name: "bare domain",
			in:   "I read it on example.com yesterday.",
			want: "I read it on example dot com yesterday.",
		},
		{
			name: "generic url without path",
			in:   "See https://example.org.",
			want: "See website example dot org.",
		},
		{
			name: "query and fragment are dropped",
			in:   "Go to https://example.com/docs/intro?lang=en#setup now",
			want: "Go to website example dot com slash docs slash intro now",
		},
		{
			name: "port and localhost",
			in:   "Open http://localhost:8080/api/v1",
			want: "Open website localhost port 8080 slash api slash v1",
		},
		{
			name: "www host is a url",
			in:   "www.example.com",
			want: "website www dot example dot com",
		},
		{
			name: "platform subdomain and www",
			in:   "https://en.wikipedia.org/wiki/Go_(programming_language) and www.github.com",
			want: "Wikipedia at en dot wikipedia dot org slash wiki slash Go underscore (programming underscore language) and GitHub at www dot github dot com",
		},
		{
			name: "trailing punctuation and brackets stay prose",
			in:   "(see example.com/a/b).",
			want: "(see website example dot com slash a slash b).",
		},
		{
			name: "email with dotted local part",
			in:   "write to first.last_name@mail.example.co.uk",
			want: "write to first dot last underscore name at mail dot example dot co dot uk",
		},
		{
			name: "unknown tld is prose",
			in:   "Node.js and index.html are not links",
			want: "Node.js and index.html are not links",
		},
		{
			name: "numbers are prose",
			in:   "Pi is 3.14 and e.g. is an abbreviation",
			want: "Pi is 3.14 and e.g. is an abbreviation",
		},
		{
			name: "dots inside the path are spoken",
			in:   "https://example.com/redirect/foo.com",
			want: "website example dot com slash redirect slash foo dot com",
		},
		{
			name: "no references",
			in:   "Plain text only.",
			want: "Plain text only.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestRewriteReportsAmbiguity(t *testing.T) {
	n := New()

	text := "ping foo@bar or https://user@host.com/x please"
	out, ambiguities := n.Rewrite(text)

	assert.Equal(t, text, out)
	require.Len(t, ambiguities, 2)
	assert.Equal(t, "foo@bar", ambiguities[0].Token)
	assert.Equal(t, strings.Index(text, "foo@bar"), ambiguities[0].Start)
	assert.Equal(t, ambiguities[0].Start+len("foo@bar"), ambiguities[0].End)
	assert.Equal(t, "https://user@host.com/x", ambiguities[1].Token)
	assert.NotEmpty(t, ambiguities[1].Reason)
}

func TestNormalizeLogsAmbiguity(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := New(WithLogger(zap.New(core)))

	out := n.Normalize("contact admin@localhost")

	assert.Equal(t, "contact admin@localhost", out)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "admin@localhost", entry.ContextMap()["token"])
}

func TestWithPlatforms(t *testing.T) {
	n := New(WithPlatforms([]Platform{{Host: "codeberg.org", Name: "Codeberg"}}))

	assert.Equal(t, "Codeberg at codeberg dot org slash me", n.Normalize("codeberg.org/me"))
	assert.Equal(t, "website github dot com slash me", n.Normalize("github.com/me"))
}

func TestWithTLDs(t *testing.T) {
	n := New(WithTLDs([]string{"test"}))

	assert.Equal(t, "my dot test", n.Normalize("my.test"))
	assert.Equal(t, "example.com", n.Normalize("example.com"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "platform", KindPlatform.String())
	assert.Equal(t, "url", KindURL.String())
	assert.Equal(t, "email", KindEmail.String())
	assert.Equal(t, "domain", KindDomain.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

var corpusTokens = []string{
	"hello", "world", "Visit", "the", "at", "dot", "slash", "3.14", "e.g.", "Node.js",
	"example.com", "example.com/path", "example.com/path).", "(see", "www.test.org/a_b?x=1#frag",
	"https://github.com/user/repo", "http://localhost:8080/x", "https://", "ftp://files.example.net/pub/",
	"user@domain.com", "first.last@mail.co.uk", "foo@bar", "x@y.com@z.com", "a.com@b.com",
	"https://example.com/redirect/foo.com", "https://a.com:abc", "youtu.be/abc", ".", ",", "!",
	"mail:me@site.io", "(https://reddit.com/r/golang)", "sub.domain.example.dev:9000",
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New()

	rapid.Check(t, func(t *rapid.T) {
		tokens := rapid.SliceOfN(rapid.SampledFrom(corpusTokens), 0, 12).Draw(t, "tokens")
		sep := rapid.SampledFrom([]string{" ", "\n", " "}).Draw(t, "sep")
		text := strings.Join(tokens, sep)

		once := n.Normalize(text)
		twice := n.Normalize(once)
		if once != twice {
			t.Fatalf("not idempotent:\n in:    %q\n once:  %q\n twice: %q", text, once, twice)
		}
	})
}

func TestNormalizeIsIdempotentOnArbitraryText(t *testing.T) {
	n := New()

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z0-9 .:/@\-]{0,60}`).Draw(t, "text")

		once := n.Normalize(text)
		if twice := n.Normalize(once); once != twice {
			t.Fatalf("not idempotent:\n in:    %q\n once:  %q\n twice: %q", text, once, twice)
		}
	})
}
