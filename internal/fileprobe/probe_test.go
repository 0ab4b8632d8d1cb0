package fileprobe

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func minimalELF(t *testing.T) []byte {
	t.Helper()

	var ident [16]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	hdr := elf.Header64{
		Ident:   ident,
		Type:    uint16(elf.ET_EXEC),
		Machine: uint16(elf.EM_X86_64),
		Version: uint32(elf.EV_CURRENT),
		Ehsize:  64,
	}
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, hdr))
	buf.Write([]byte{0xAB, 0x00, 0xFF, 0x14})
	return buf.Bytes()
}

func TestDetectELFWithArch(t *testing.T) {
	t.Parallel()

	result := Detect(minimalELF(t))
	require.Equal(t, FormatELF, result.Format)
	require.Equal(t, "X86_64", result.Arch)
	require.True(t, result.HasFormat())
	require.Contains(t, result.Indicators, "arch X86_64")
	require.Equal(t, "Format: ELF (X86_64, 68 bytes)", FormatSummary(result))
}

func TestDetectMagicOnlyFormats(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		FormatZip:  {'P', 'K', 0x03, 0x04, 0x00},
		FormatGzip: {0x1F, 0x8B, 0x08},
		FormatWasm: {0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00},
		FormatFat:  {0xCA, 0xFE, 0xBA, 0xBE, 0x00, 0x00, 0x00, 0x02},
	}
	for format, content := range cases {
		result := Detect(content)
		require.Equal(t, format, result.Format)
		require.Empty(t, result.Arch)
		require.Len(t, result.Indicators, 1)
	}
}

func TestDetectTruncatedHeaderKeepsFormat(t *testing.T) {
	t.Parallel()

	result := Detect([]byte{'M', 'Z', 0x90, 0x00})
	require.Equal(t, FormatPE, result.Format)
	require.Empty(t, result.Arch)
}

func TestDetectUnknown(t *testing.T) {
	t.Parallel()

	result := Detect([]byte{0x00, 0xAB, 0x00, 0xFF, 0x14, 0x99})
	require.False(t, result.HasFormat())
	require.Equal(t, "Format: raw data (6 bytes)", FormatSummary(result))

	require.Equal(t, "Format: raw data (0 bytes)", FormatSummary(Detect(nil)))
	require.Equal(t, "Format: raw data (1.5 KiB)", FormatSummary(Result{Format: FormatUnknown, Size: 1536}))
}
