package fileprobe

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"strings"
)

// Format names reported by Detect.
const (
	FormatUnknown = "unknown"
	FormatELF     = "ELF"
	FormatPE      = "PE"
	FormatMachO   = "Mach-O"
	FormatFat     = "Mach-O universal"
	FormatWasm    = "WebAssembly"
	FormatZip     = "ZIP"
	FormatGzip    = "gzip"
)

// Result captures what could be learned about a file from its bytes alone.
type Result struct {
	Format string
	// Arch is the target machine when the format declares one.
	Arch       string
	Size       int
	Indicators []string
}

type signature struct {
	format string
	magic  []byte
}

var signatures = []signature{
	{format: FormatELF, magic: []byte{0x7F, 'E', 'L', 'F'}},
	{format: FormatPE, magic: []byte{'M', 'Z'}},
	{format: FormatMachO, magic: []byte{0xFE, 0xED, 0xFA, 0xCE}},
	{format: FormatMachO, magic: []byte{0xCE, 0xFA, 0xED, 0xFE}},
	{format: FormatMachO, magic: []byte{0xFE, 0xED, 0xFA, 0xCF}},
	{format: FormatMachO, magic: []byte{0xCF, 0xFA, 0xED, 0xFE}},
	{format: FormatFat, magic: []byte{0xCA, 0xFE, 0xBA, 0xBE}},
	{format: FormatWasm, magic: []byte{0x00, 'a', 's', 'm'}},
	{format: FormatZip, magic: []byte{'P', 'K', 0x03, 0x04}},
	{format: FormatGzip, magic: []byte{0x1F, 0x8B}},
}

// Detect inspects content and returns the detected container format.
func Detect(content []byte) Result {
	result := Result{Format: FormatUnknown, Size: len(content)}
	for _, sig := range signatures {
		if bytes.HasPrefix(content, sig.magic) {
			result.Format = sig.format
			result.Indicators = append(result.Indicators, fmt.Sprintf("magic % X", sig.magic))
			break
		}
	}

	switch result.Format {
	case FormatELF:
		result.Arch = elfArch(content)
	case FormatPE:
		result.Arch = peArch(content)
	case FormatMachO:
		result.Arch = machoArch(content)
	}
	if result.Arch != "" {
		result.Indicators = append(result.Indicators, "arch "+result.Arch)
	}
	return result
}

func elfArch(content []byte) string {
	f, err := elf.NewFile(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	defer f.Close()
	return strings.TrimPrefix(f.Machine.String(), "EM_")
}

func peArch(content []byte) string {
	f, err := pe.NewFile(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	defer f.Close()
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "AMD64"
	case pe.IMAGE_FILE_MACHINE_I386:
		return "386"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "ARM64"
	case pe.IMAGE_FILE_MACHINE_ARMNT:
		return "ARM"
	default:
		return fmt.Sprintf("machine %#x", f.Machine)
	}
}

func machoArch(content []byte) string {
	f, err := macho.NewFile(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	defer f.Close()
	return strings.TrimPrefix(f.Cpu.String(), "Cpu")
}

// HasFormat reports whether a known format was detected.
func (r Result) HasFormat() bool {
	return r.Format != "" && r.Format != FormatUnknown
}

// FormatSummary renders a single line describing r.
func FormatSummary(r Result) string {
	var details []string
	if r.Arch != "" {
		details = append(details, r.Arch)
	}
	details = append(details, formatSize(r.Size))
	title := "Format: " + r.Format
	if !r.HasFormat() {
		title = "Format: raw data"
	}
	return fmt.Sprintf("%s (%s)", title, strings.Join(details, ", "))
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	case n == 1:
		return "1 byte"
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
