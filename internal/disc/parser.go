package disc

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// UnknownDiscName is used when makemkvcon reports no disc or volume name.
const UnknownDiscName = "Unknown_Disc"

// CINFO attribute codes.
const (
	cinfoName       = 2
	cinfoVolumeName = 30
	cinfoIdentity   = 32
)

// TINFO attribute codes.
const (
	tinfoName      = 2
	tinfoChapters  = 8
	tinfoDuration  = 9
	tinfoSizeHuman = 10
	tinfoSizeBytes = 11
)

var identityPattern = regexp.MustCompile(`[0-9A-Fa-f]{16,}`)

// parseInfo decodes `makemkvcon -r info` output.
func parseInfo(data []byte) (*ScanResult, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, errors.New("makemkv produced empty output")
	}

	type titleData struct {
		Title
		humanSize uint64
	}
	var (
		result     = &ScanResult{}
		cinfo      = make(map[int]string)
		titles     = make(map[int]*titleData)
		fallbackID string
	)
	for _, raw := range strings.Split(text, "\n") {
		line, ok := parseRobotLine(raw)
		if !ok {
			if fallbackID == "" && strings.Contains(strings.ToLower(raw), "fingerprint") {
				fallbackID = strings.ToUpper(identityPattern.FindString(raw))
			}
			continue
		}
		switch line.prefix {
		case "CINFO":
			code, ok := line.int(0)
			if !ok {
				continue
			}
			if value := line.last(); value != "" && len(line.fields) > 1 {
				if _, seen := cinfo[code]; !seen {
					cinfo[code] = value
				}
			}
		case "TINFO":
			if len(line.fields) < 4 {
				continue
			}
			id, ok := line.int(0)
			if !ok {
				continue
			}
			attr, ok := line.int(1)
			if !ok {
				continue
			}
			entry, ok := titles[id]
			if !ok {
				entry = &titleData{Title: Title{Index: id}}
				titles[id] = entry
			}
			value := line.last()
			switch attr {
			case tinfoName:
				entry.Name = value
			case tinfoChapters:
				entry.Chapters, _ = strconv.Atoi(value)
			case tinfoDuration:
				entry.DurationSeconds = parseDuration(value)
			case tinfoSizeHuman:
				if size, err := humanize.ParseBytes(value); err == nil {
					entry.humanSize = size
				}
			case tinfoSizeBytes:
				if size, err := strconv.ParseInt(value, 10, 64); err == nil && size >= 0 {
					entry.SizeBytes = size
				}
			}
		case "DRV":
			if drive, ok := parseDrive(line); ok {
				result.Drives = append(result.Drives, drive)
			}
		}
	}

	result.DiscName = discName(cinfo)
	result.Identity = discIdentity(cinfo, fallbackID)

	ids := make([]int, 0, len(titles))
	for id := range titles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result.Titles = make([]Title, 0, len(ids))
	for _, id := range ids {
		entry := titles[id]
		if entry.SizeBytes == 0 && entry.humanSize > 0 {
			entry.SizeBytes = int64(entry.humanSize)
		}
		result.Titles = append(result.Titles, entry.Title)
	}
	return result, nil
}

func discName(cinfo map[int]string) string {
	for _, code := range []int{cinfoName, cinfoVolumeName} {
		if name := strings.TrimSpace(cinfo[code]); name != "" {
			return name
		}
	}
	return UnknownDiscName
}

func discIdentity(cinfo map[int]string, fallback string) string {
	if id := strings.TrimSpace(cinfo[cinfoIdentity]); id != "" {
		return id
	}
	if fallback != "" {
		return fallback
	}
	codes := make([]int, 0, len(cinfo))
	for code := range cinfo {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		if match := identityPattern.FindString(cinfo[code]); match != "" {
			return strings.ToUpper(match)
		}
	}
	return ""
}

// parseDrive decodes `DRV:index,visible,enabled,flags,"drive","disc","device"`.
func parseDrive(line robotLine) (Drive, bool) {
	if len(line.fields) < 7 {
		return Drive{}, false
	}
	index, ok := line.int(0)
	if !ok {
		return Drive{}, false
	}
	return Drive{
		Index:     index,
		DriveName: line.fields[4],
		DiscName:  line.fields[5],
		Device:    line.fields[6],
	}, true
}

// parseDuration converts H:MM:SS into seconds; malformed values are zero.
func parseDuration(value string) int {
	segments := strings.Split(strings.TrimSpace(value), ":")
	if len(segments) != 3 {
		return 0
	}
	total := 0
	for _, segment := range segments {
		n, err := strconv.Atoi(segment)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}
