package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	in := "\uFEFFFirst   line\r\nsecond\tline  \r\n\r\n\r\n\r\nNew  paragraph\x07here\n\n"

	got := Clean(in)

	assert.Equal(t, "First line\nsecond line\n\nNew paragraph here", got)
}

func TestToUTF8_Windows1252(t *testing.T) {
	// "réunion" in Windows-1252
	got := ToUTF8([]byte{'r', 0xE9, 'u', 'n', 'i', 'o', 'n'})
	assert.Equal(t, "réunion", got)

	assert.Equal(t, "déjà", ToUTF8([]byte("déjà")))
}

func TestDecodeCharset(t *testing.T) {
	assert.Equal(t, "été", DecodeCharset([]byte{0xE9, 't', 0xE9}, "ISO-8859-1"))
	assert.Equal(t, "plain", DecodeCharset([]byte("plain"), ""))
	assert.Equal(t, "plain", DecodeCharset([]byte("plain"), "x-unknown"))
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "Compte rendu reunion", TitleFromFilename("/tmp/Compte_rendu-reunion.pdf"))
	assert.Equal(t, "notes", TitleFromFilename("notes"))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Heading", FirstLine("\n\n  Heading \nbody", 80))
	assert.Equal(t, "Head", FirstLine("Heading", 4))
	assert.Equal(t, "", FirstLine("   \n", 10))
}

func TestCopyMetadata(t *testing.T) {
	src := map[string]any{"a": 1}
	dst := CopyMetadata(src)
	dst["b"] = 2

	assert.Len(t, src, 1)
	assert.NotNil(t, CopyMetadata(nil))
}

func TestHTMLToText(t *testing.T) {
	src := `<html><head><title> Board minutes </title><style>p{color:red}</style></head>
<body>
<nav>Home | About</nav>
<h1>Minutes</h1>
<p>The board   approved
the budget.</p>
<script>alert("x")</script>
<div>Next meeting<br>in Lyon</div>
</body></html>`

	title, text, err := HTMLToText(src)
	require.NoError(t, err)

	assert.Equal(t, "Board minutes", title)
	assert.Equal(t, "Minutes\n\nThe board approved the budget.\n\nNext meeting\nin Lyon", text)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "Home")
}
