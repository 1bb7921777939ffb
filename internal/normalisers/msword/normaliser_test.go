package msword

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func fibStream(text []byte) []byte {
	stream := make([]byte, 0x200)
	binary.LittleEndian.PutUint16(stream[0:2], fibMagic)
	binary.LittleEndian.PutUint32(stream[0x18:0x1C], 0x200)
	binary.LittleEndian.PutUint32(stream[0x1C:0x20], uint32(0x200+len(text)))
	return append(stream, text...)
}

func TestExtractText_EightBit(t *testing.T) {
	text := []byte("Compte rendu\rLa d\xe9cision est valid\xe9e.\r")

	got := ExtractText(fibStream(text))

	assert.Equal(t, "Compte rendu\nLa décision est validée.", got)
}

func TestExtractText_UTF16(t *testing.T) {
	var text []byte
	for _, r := range "Budget 2024\rApproved" {
		text = append(text, byte(r), 0)
	}

	got := ExtractText(fibStream(text))

	assert.Equal(t, "Budget 2024\nApproved", got)
}

func TestExtractText_FallsBackToRuns(t *testing.T) {
	stream := append([]byte{0x00, 0x01, 0x02, 0x1F}, []byte("Meeting notes for Monday")...)
	stream = append(stream, 0x00, 0x00, 0x03)

	got := ExtractText(stream)

	assert.Equal(t, "Meeting notes for Monday", got)
}

func TestNormalise_NotACompoundFile(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		Filename: "legacy.doc",
		Content:  []byte("plain text pretending to be a doc"),
	})
	assert.ErrorIs(t, err, domain.ErrCorruptFile)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
