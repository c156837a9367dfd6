package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v3"
)

// Uppercase alphabet without 0/O/1/I so references survive being read aloud.
// shortuuid's default alphabet is this set followed by lowercase letters.
const referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const referenceSuffixLen = 10

// GenerateBookingReference formats PREFIX-YYYYMMDD-XXXXXXXXXX.
func GenerateBookingReference(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), referenceSuffix())
}

// referenceSuffix keeps the uppercase symbols of fresh shortuuids until it
// has enough; dropping the lowercase ones leaves the rest uniform.
func referenceSuffix() string {
	var b strings.Builder
	b.Grow(referenceSuffixLen)

	for b.Len() < referenceSuffixLen {
		id := shortuuid.New()
		// the final symbol only spans part of the alphabet
		for i := 0; i < len(id)-1 && b.Len() < referenceSuffixLen; i++ {
			if strings.IndexByte(referenceAlphabet, id[i]) >= 0 {
				b.WriteByte(id[i])
			}
		}
	}
	return b.String()
}
