package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// NanoidSize is the default id length. Directory ids from the identity
// provider are UUIDs; nanoids cover accounts created locally and demo data.
var NanoidSize = 32

const nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func NanoID() string {
	return NanoIDSize(NanoidSize)
}

// NanoIDSize returns an id of the given length, or the default length when
// size is not positive.
func NanoIDSize(size int) string {
	if size <= 0 {
		size = NanoidSize
	}

	return gonanoid.MustGenerate(nanoidAlphabet, size)
}
