package gpt

// DefaultTableSize is the minimum partition array size defined by UEFI and
// the capacity of the fixed working buffer.
const DefaultTableSize = 16384

// DefaultMaxTableSize caps the working buffer of growable builds.
const DefaultMaxTableSize = 4 << 20
