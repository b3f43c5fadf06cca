package bundle

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Recorder apps stamp filenames in one of two shapes:
//
//	Recording 20240117093015.m4a   (Recording YYYYMMDDhhmmss, space optional)
//	2024-01-17_morning walk.mp3    (YYYY-MM-DD_...)
var (
	recordingStampPattern = regexp.MustCompile(`^Recording ?(\d{4})(\d{2})(\d{2})\d{6}`)
	datedStemPattern      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})_`)
)

// RecordingDate derives the recording date for an audio file: first from the
// filename, then from the file's modification time when the name carries no
// usable stamp.
func RecordingDate(path string, modTime time.Time) time.Time {
	name := filepath.Base(path)
	if date, ok := dateFromFilename(name); ok {
		return date
	}
	return time.Date(modTime.Year(), modTime.Month(), modTime.Day(), 0, 0, 0, 0, time.Local)
}

func dateFromFilename(name string) (time.Time, bool) {
	for _, pattern := range []*regexp.Regexp{recordingStampPattern, datedStemPattern} {
		match := pattern.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local)
		// time.Date normalizes out-of-range components, so 2024-13-45 would
		// silently roll over. Reject anything that round-trips differently.
		if date.Year() != year || int(date.Month()) != month || date.Day() != day {
			continue
		}
		return date, true
	}
	return time.Time{}, false
}

// NameForAudioFile builds the initial bundle name for an incoming recording:
// the recording date followed by the audio file's stem.
func NameForAudioFile(path string, modTime time.Time) string {
	date := RecordingDate(path, modTime)
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return date.Format(datePrefixLayout) + "_" + stem
}

// forbiddenNameRunes covers characters rejected by NTFS; EXT4 only forbids
// '/' and NUL, which this set includes.
const forbiddenNameRunes = `<>:"/\|?*`

// SanitizeNameSuffix makes an AI-generated title safe to use as the suffix of
// a bundle directory name on common filesystems.
func SanitizeNameSuffix(suffix string) string {
	suffix = norm.NFC.String(suffix)
	var b strings.Builder
	for _, r := range suffix {
		switch {
		case r == 0 || r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(' ')
		case strings.ContainsRune(forbiddenNameRunes, r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(b.String()), " ")
	return strings.Trim(cleaned, ". ")
}
