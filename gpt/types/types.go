// Package types is a catalogue of well-known GPT partition type GUIDs.
package types

import "gptread/gpt"

var (
	Unused         = gpt.GUID{}
	MBRScheme      = gpt.MustParseGUID("024DEE41-33E7-11D3-9D69-0008C781F39F")
	EFISystem      = gpt.MustParseGUID("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	BIOSBoot       = gpt.MustParseGUID("21686148-6449-6E6F-744E-656564454649")
	LinuxFS        = gpt.MustParseGUID("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	LinuxSwap      = gpt.MustParseGUID("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	LinuxLVM       = gpt.MustParseGUID("E6D6D379-F507-44C2-A23C-238F2A3DF928")
	LinuxRAID      = gpt.MustParseGUID("A19D880F-05FC-4D3B-A006-743F0F84911E")
	LinuxRootX86   = gpt.MustParseGUID("44479540-F297-41B2-9AF7-D131D5F0458A")
	LinuxRootX8664 = gpt.MustParseGUID("4F68BCE3-E8CD-4DB1-96E7-FBCAF984B709")
	LinuxRootARM64 = gpt.MustParseGUID("B921B045-1DF0-41C3-AF44-4C6F280D3FAE")
	MicrosoftBasic = gpt.MustParseGUID("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	MicrosoftMSR   = gpt.MustParseGUID("E3C9E316-0B5C-4DB8-817D-F92DF00215AE")
	AppleHFSPlus   = gpt.MustParseGUID("48465300-0000-11AA-AA11-00306543ECAC")
	AppleAPFS      = gpt.MustParseGUID("7C3457EF-0000-11AA-AA11-00306543ECAC")
	ChromeOSKernel = gpt.MustParseGUID("FE3A2A5D-4F32-41A7-B725-ACCC3285A309")
	ChromeOSRoot   = gpt.MustParseGUID("3CB8E202-3B7E-47DD-8A3C-7FF2A13CFCEC")
)

var names = map[gpt.GUID]string{
	MBRScheme:      "MBR partition scheme",
	EFISystem:      "EFI System",
	BIOSBoot:       "BIOS boot",
	LinuxFS:        "Linux filesystem",
	LinuxSwap:      "Linux swap",
	LinuxLVM:       "Linux LVM",
	LinuxRAID:      "Linux RAID",
	LinuxRootX86:   "Linux root (x86)",
	LinuxRootX8664: "Linux root (x86-64)",
	LinuxRootARM64: "Linux root (ARM64)",
	MicrosoftBasic: "Microsoft basic data",
	MicrosoftMSR:   "Microsoft reserved",
	AppleHFSPlus:   "Apple HFS+",
	AppleAPFS:      "Apple APFS",
	ChromeOSKernel: "ChromeOS kernel",
	ChromeOSRoot:   "ChromeOS rootfs",
}

// Name returns a human-readable name for g, or "" when g is not known.
func Name(g gpt.GUID) string {
	return names[g]
}

// Lookup returns the type whose name matches s exactly.
func Lookup(s string) (gpt.GUID, bool) {
	for g, n := range names {
		if n == s {
			return g, true
		}
	}
	return gpt.GUID{}, false
}
